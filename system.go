package undogo

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// UndoSystem is the embeddable undo/redo engine. One instance owns one
// history, one command registry, and (in persistent mode) one
// PersistStore plus its I/O worker pool. Multiple instances may coexist
// provided their store directories differ.
//
// UndoSystem is not reentrant: Execute, Undo, Redo, SaveTimestamps, and
// LoadTimestamps must all be called from a single owner goroutine. The
// mutex below exists only to defend against accidental concurrent
// calls and shutdown races, not to make the engine safe for concurrent
// use from multiple owners.
//
// Lock ordering: mu (outer) may be held while acquiring a
// HistoryEntry's own mutex (inner), and while acquiring ioEngine.mu
// (enqueue, synJobQueue). A HistoryEntry's mutex is never held while
// acquiring ioEngine.mu, and ioEngine.mu is never held while acquiring
// mu or a HistoryEntry's mutex — see ioengine.go.
type UndoSystem struct {
	mu sync.Mutex

	maxCachedSteps int
	lookAheadSteps int
	defaultUser    int
	workerCount    int

	logger     *slog.Logger
	historyOut io.Writer

	registry *commandRegistry
	timeline *historyTimeline
	lru      *lruWindow

	store  *PersistStore
	io     *ioEngine
	dir    string
	closed bool

	commandCounter int64
}

// New returns an UndoSystem configured by opts. Callers must call
// RegisterCommand for every command before Init.
func New(opts ...Option) *UndoSystem {
	s := newDefaultSystem()
	for _, opt := range opts {
		opt(s)
	}
	if s.maxCachedSteps <= 2*s.lookAheadSteps+1 {
		s.maxCachedSteps = defaultMaxCachedSteps
		s.lookAheadSteps = defaultLookAheadSteps
	}
	return s
}

// RegisterCommand adds cmd to the registry under its own Name(). It is
// an error to register two commands under the same name. Registering
// after Init is not rejected.
func (s *UndoSystem) RegisterCommand(cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.register(cmd)
}

// Init brings the engine up. path empty selects pure in-memory mode,
// in which case autoLoadSave must be false. Otherwise it starts the
// I/O worker pool and, if autoLoadSave is true and an index file
// already exists at path, calls LoadTimestamps.
func (s *UndoSystem) Init(path string, autoLoadSave bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if path == "" {
		if autoLoadSave {
			return ErrInMemoryAutoLoadSave
		}
		return nil
	}

	s.dir = path
	s.store = NewPersistStore(path)
	s.io = newIOEngine(s.store, s.logger, s.workerCount)
	s.io.start()

	if autoLoadSave && s.store.indexExists() {
		return s.loadTimestampsLocked("")
	}
	return nil
}

// Execute looks up a command by the leading word of cmdStr and
// dispatches to ExecuteTyped.
func (s *UndoSystem) Execute(cmdStr string, userID int) error {
	s.mu.Lock()
	name := commandName(cmdStr)
	cmd, ok := s.registry.lookup(name)
	if !ok {
		s.mu.Unlock()
		return &unknownCommandError{name: name}
	}
	s.mu.Unlock()
	return s.ExecuteTyped(cmd, cmdStr, userID)
}

// ExecuteTyped parses cmdStr against cmd's own schema and, on success,
// records and applies the resulting command. userID of -1 resolves to
// the engine's configured default user.
func (s *UndoSystem) ExecuteTyped(cmd Command, cmdStr string, userID int) error {
	if err := cmd.Parse(cmdStr); err != nil {
		return err
	}
	if cmd.HelpRequested() {
		s.mu.Lock()
		out := s.historyOut
		s.mu.Unlock()
		fmt.Fprintln(out, cmd.Help())
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrShutdown
	}
	if userID == -1 {
		userID = s.defaultUser
	}
	timestamp := time.Now().UnixMilli()*1000 + s.commandCounter
	s.commandCounter++
	s.mu.Unlock()

	entry := newHistoryEntry(userID, timestamp, cmdStr)

	if err := cmd.BackupCurrentState(newUndoFile(entry)); err != nil {
		return err
	}
	if err := cmd.Redo(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneHistoryLocked()
	s.timeline.append(entry)

	if s.store != nil {
		s.io.enqueue(job{kind: jobSaveToDisk, entry: entry})
		s.lru.pushBack(entry)
		s.updateLRULocked()
	}
	return nil
}

// Undo moves the cursor back one position and reverses its effect. A
// no-op at undo_index == 0.
func (s *UndoSystem) Undo() {
	s.mu.Lock()
	if s.timeline.undoIndex == 0 {
		s.mu.Unlock()
		return
	}
	s.timeline.undoIndex--
	entry := s.timeline.at(s.timeline.undoIndex)
	name := commandName(entry.CommandString)
	cmd, ok := s.registry.lookup(name)
	if !ok {
		s.mu.Unlock()
		panic(fmt.Sprintf("undogo: Undo: %q", (&unknownCommandError{name: name}).Error()))
	}
	store := s.store
	s.mu.Unlock()

	if !entry.HasPayload() && store != nil {
		entry.mu.Lock()
		if len(entry.payload) == 0 {
			if err := store.load(entry, false, true); err != nil {
				s.logger.Error("undogo: synchronous warm-up failed", "job", "undo_load", "timestamp", entry.Timestamp, "err", err)
			}
		}
		entry.mu.Unlock()
	}

	entry.mu.Lock()
	_ = cmd.Undo(newUndoFile(entry))
	entry.mu.Unlock()

	s.mu.Lock()
	if s.store != nil {
		s.lru.pushBack(entry)
		s.updateLRULocked()
	}
	s.mu.Unlock()
}

// Redo re-applies the entry at the current cursor and advances it. A
// no-op at undo_index == history.len().
func (s *UndoSystem) Redo() {
	s.mu.Lock()
	if s.timeline.undoIndex >= s.timeline.len() {
		s.mu.Unlock()
		return
	}
	entry := s.timeline.at(s.timeline.undoIndex)
	name := commandName(entry.CommandString)
	cmd, ok := s.registry.lookup(name)
	if !ok {
		s.mu.Unlock()
		panic(fmt.Sprintf("undogo: Redo: %q", (&unknownCommandError{name: name}).Error()))
	}
	s.mu.Unlock()

	entry.mu.Lock()
	parseErr := cmd.Parse(entry.CommandString)
	var redoErr error
	if parseErr == nil {
		redoErr = cmd.Redo()
	}
	entry.mu.Unlock()

	if parseErr != nil || redoErr != nil {
		s.logger.Error("undogo: redo re-apply failed, cursor not advanced",
			"timestamp", entry.Timestamp, "command", entry.CommandString,
			"parse_err", parseErr, "redo_err", redoErr)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		s.lru.pushBack(entry)
		s.updateLRULocked()
	}
	s.timeline.undoIndex++
}

// pruneHistoryLocked truncates the timeline to undo_index, scheduling
// removal of the discarded tail's on-disk files when persistent. In
// in-memory mode the tail is simply dropped; there is nothing on disk
// to remove.
func (s *UndoSystem) pruneHistoryLocked() {
	timestamps := s.timeline.pruneTail()
	if len(timestamps) == 0 || s.store == nil {
		return
	}
	s.io.enqueue(job{kind: jobDeleteEntries, timestamps: timestamps})
}

// updateLRULocked implements the window's eviction and look-ahead
// policy. Called with mu held, only in persistent mode.
func (s *UndoSystem) updateLRULocked() {
	target := s.maxCachedSteps - 2*s.lookAheadSteps - 1

	for s.lru.len() > target {
		e, ok := s.lru.popFront()
		if !ok {
			break
		}
		e.withLock(func() {
			if e.persisted {
				e.payload = nil
			}
		})
	}

	undoIndex := s.timeline.undoIndex
	for i := 1; i <= s.lookAheadSteps; i++ {
		s.warmIfEmptyLocked(undoIndex - i)
		s.warmIfEmptyLocked(undoIndex + i - 1)
	}
}

func (s *UndoSystem) warmIfEmptyLocked(idx int) {
	if idx < 0 || idx >= s.timeline.len() {
		return
	}
	e := s.timeline.at(idx)
	if e.HasPayload() {
		return
	}
	s.io.enqueue(job{kind: jobWarmupCache, entry: e})
	s.lru.pushBack(e)
}

// SaveTimestamps writes the index file for the undone-from region
// [0, undo_index) to path, or to the store's default index path if
// path is omitted.
func (s *UndoSystem) SaveTimestamps(path ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return ErrNoStore
	}

	timestamps := make([]int64, s.timeline.undoIndex)
	for i := 0; i < s.timeline.undoIndex; i++ {
		timestamps[i] = s.timeline.at(i).Timestamp
	}

	target := s.store.indexPath()
	if len(path) > 0 && path[0] != "" {
		target = path[0]
	}
	return s.store.saveIndexTo(target, timestamps)
}

// LoadTimestamps replaces the in-memory history with the index read
// from path (or the store's default index path), reloading key-data
// for every entry and proactively warming payloads near the resulting
// cursor.
func (s *UndoSystem) LoadTimestamps(path ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target := ""
	if len(path) > 0 {
		target = path[0]
	}
	return s.loadTimestampsLocked(target)
}

// loadTimestampsLocked does the work of LoadTimestamps. Called with mu
// held, either from LoadTimestamps or from Init's auto-load path.
func (s *UndoSystem) loadTimestampsLocked(path string) error {
	if s.store == nil {
		return ErrNoStore
	}

	s.io.synJobQueue()

	s.timeline.reset()
	s.lru.reset()

	target := s.store.indexPath()
	if path != "" {
		target = path
	}
	timestamps, err := s.store.loadIndexFrom(target)
	if err != nil {
		return err
	}

	entries := make([]*HistoryEntry, len(timestamps))
	for i, ts := range timestamps {
		e := newHistoryEntry(0, ts, "")
		e.persisted = true
		entries[i] = e
		s.io.enqueue(job{kind: jobLoadEntries, entry: e})
	}
	s.timeline.entries = entries
	s.timeline.undoIndex = len(entries)

	s.io.synJobQueue()

	start := s.timeline.undoIndex - s.maxCachedSteps
	if start < 0 {
		start = 0
	}
	for i := start; i < s.timeline.undoIndex; i++ {
		e := s.timeline.at(i)
		s.lru.pushBack(e)
		if !e.HasPayload() && e.Persisted() {
			s.io.enqueue(job{kind: jobWarmupCache, entry: e})
		}
	}
	return nil
}

// SuggestNext is a domain-example hook: it only guarantees the
// empty-history and wrong-user fallback of "-Move 0 0". Callers
// wanting richer suggestions should build their own on top of
// DisplayHistory / direct timeline inspection.
func (s *UndoSystem) SuggestNext(userID int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timeline.undoIndex == 0 {
		return "-Move 0 0"
	}
	last := s.timeline.at(s.timeline.undoIndex - 1)
	if last.UserID != userID || !strings.Contains(last.CommandString, "Move") {
		return "-Move 0 0"
	}

	idx := strings.Index(last.CommandString, "-T ")
	if idx == -1 {
		return "-Move 0 0"
	}
	fields := strings.Fields(last.CommandString[idx+len("-T "):])
	if len(fields) < 2 {
		return "-Move 0 0"
	}
	x, errX := strconv.Atoi(fields[0])
	y, errY := strconv.Atoi(fields[1])
	if errX != nil || errY != nil {
		return "-Move 0 0"
	}
	return fmt.Sprintf("-Move -T %d %d", x+10, y+10)
}

// FormatHistory renders the same text DisplayHistory writes, without
// writing anywhere.
func (s *UndoSystem) FormatHistory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b strings.Builder
	s.formatHistoryLocked(&b)
	return b.String()
}

// DisplayHistory writes a text dump of the timeline to the configured
// history writer (WithHistoryWriter, default os.Stdout).
func (s *UndoSystem) DisplayHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b strings.Builder
	s.formatHistoryLocked(&b)
	fmt.Fprint(s.historyOut, b.String())
}

func (s *UndoSystem) formatHistoryLocked(b *strings.Builder) {
	b.WriteString("History:\n")
	for i := 0; i < s.timeline.len(); i++ {
		e := s.timeline.at(i)
		marker := "R"
		if i < s.timeline.undoIndex {
			marker = "U"
		}
		cached := ""
		if e.HasPayload() {
			cached = " [Cached]"
		}
		fmt.Fprintf(b, "  [%04d]-[%s] User:%d Time:%d %s%s\n", i, marker, e.UserID, e.Timestamp, e.CommandString, cached)
	}
	fmt.Fprintf(b, "Current Index: %d\n", s.timeline.undoIndex)
}

// StorePath returns the directory the engine persists to, or "" in
// in-memory mode.
func (s *UndoSystem) StorePath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir
}

// Close shuts the engine down. If persistent and autoSave is true, it
// attempts SaveTimestamps first and reports (without propagating) any
// failure through the configured logger. Close is idempotent.
func (s *UndoSystem) Close(autoSave bool) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	store := s.store
	ioEng := s.io
	s.mu.Unlock()

	if store != nil && autoSave {
		if err := s.SaveTimestamps(); err != nil {
			s.logger.Error("undogo: shutdown save_timestamps failed", "err", err)
		}
	}

	if ioEng != nil {
		ioEng.shutdown()
	}
	return nil
}
