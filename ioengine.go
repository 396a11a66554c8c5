package undogo

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ioEngine is a bounded worker pool draining a single FIFO job queue.
// Workers share one mutex/condition-variable pair guarding the queue
// and the done flag; enqueuing only blocks for the moment it takes to
// append to the slice and signal a worker.
//
// Lock ordering: ioEngine.mu is never held while acquiring a
// HistoryEntry's own mutex, and vice versa — jobs take their target
// entry by shared ownership so it cannot be freed out from under them,
// then lock only the entry while running.
type ioEngine struct {
	mu   sync.Mutex
	cond *sync.Cond

	queue []job
	done  bool

	store       *PersistStore
	logger      *slog.Logger
	workerCount int
	group       *errgroup.Group
}

func newIOEngine(store *PersistStore, logger *slog.Logger, workerCount int) *ioEngine {
	e := &ioEngine{
		store:       store,
		logger:      logger,
		workerCount: workerCount,
	}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// start launches the worker pool. Workers are tracked with an
// errgroup.Group rather than a bare sync.WaitGroup so shutdown can
// join them with Wait. Job-level panics are recovered and logged in
// run(), so they never reach the worker loop; the errgroup is the
// backstop for anything that somehow escapes that recovery anyway.
func (e *ioEngine) start() {
	e.group = &errgroup.Group{}
	for i := 0; i < e.workerCount; i++ {
		e.group.Go(e.worker)
	}
}

// enqueue appends a job to the tail of the queue and wakes one
// waiting worker.
func (e *ioEngine) enqueue(j job) {
	e.mu.Lock()
	e.queue = append(e.queue, j)
	e.mu.Unlock()
	e.cond.Signal()
}

// synJobQueue is the quiescence barrier: it returns once the job queue
// is empty. It does not guarantee that any particular job has
// completed — only that none remains enqueued — because workers hold
// their current job by value while it runs. LoadTimestamps brackets its
// own scheduling with two calls to this; after the second call every
// job it scheduled has been taken by a worker, but up to workerCount of
// them may still be running.
func (e *ioEngine) synJobQueue() {
	for {
		e.mu.Lock()
		empty := len(e.queue) == 0
		e.mu.Unlock()
		if empty {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// shutdown signals all workers to exit once the queue drains and
// blocks until they have. Idempotent: calling it twice is safe.
func (e *ioEngine) shutdown() {
	e.mu.Lock()
	if e.done {
		e.mu.Unlock()
		return
	}
	e.done = true
	e.mu.Unlock()
	e.cond.Broadcast()
	if e.group != nil {
		_ = e.group.Wait()
	}
}

func (e *ioEngine) worker() error {
	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.done {
			e.cond.Wait()
		}
		if len(e.queue) == 0 && e.done {
			e.mu.Unlock()
			return nil
		}
		j := e.queue[0]
		e.queue = e.queue[1:]
		e.mu.Unlock()

		e.run(j)
	}
}

// run executes one job outside the queue lock, with panic recovery:
// all I/O errors are logged and swallowed, but a corrupted on-disk
// entry or similar unexpected failure should not take the rest of the
// pool down with it. Correctness of undo/redo is preserved either way
// by the in-memory payload plus Undo's synchronous-load fallback.
func (e *ioEngine) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			if j.entry != nil {
				e.logger.Error("undogo: job panicked, recovered", "job", j.kind, "timestamp", j.entry.Timestamp, "err", r)
			} else {
				e.logger.Error("undogo: job panicked, recovered", "job", j.kind, "err", r)
			}
		}
	}()

	switch j.kind {
	case jobSaveToDisk:
		e.runSaveToDisk(j.entry)
	case jobWarmupCache:
		e.runWarmupCache(j.entry)
	case jobLoadEntries:
		e.runLoadEntries(j.entry)
	case jobDeleteEntries:
		e.runDeleteEntries(j.timestamps)
	}
}

func (e *ioEngine) runSaveToDisk(entry *HistoryEntry) {
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.persisted {
		return
	}
	if err := e.store.save(entry); err != nil {
		e.logger.Error("undogo: background save failed", "job", "save_to_disk", "timestamp", entry.Timestamp, "err", err)
		return
	}
	entry.persisted = true
}

func (e *ioEngine) runWarmupCache(entry *HistoryEntry) {
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if len(entry.payload) != 0 {
		return
	}
	if err := e.store.load(entry, false, true); err != nil {
		e.logger.Error("undogo: background warm-up failed", "job", "warmup_cache", "timestamp", entry.Timestamp, "err", err)
	}
}

func (e *ioEngine) runLoadEntries(entry *HistoryEntry) {
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if err := e.store.load(entry, true, false); err != nil {
		e.logger.Error("undogo: background key-data load failed", "job", "load_entries", "timestamp", entry.Timestamp, "err", err)
	}
}

func (e *ioEngine) runDeleteEntries(timestamps []int64) {
	for _, ts := range timestamps {
		if err := e.store.delete(ts); err != nil {
			e.logger.Error("undogo: background delete failed", "job", "delete_entries", "timestamp", ts, "err", err)
		}
	}
}
