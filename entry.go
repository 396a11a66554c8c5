package undogo

import "sync"

// HistoryEntry is one recorded command in the timeline: the command
// string that produced it, the opaque payload its backup operation
// captured, and the bookkeeping needed to page that payload in and out
// of memory.
//
// payload and persisted are guarded by mu. Every other field is set at
// construction; the one exception is a key-data load (the LoadEntries
// job scheduled by LoadTimestamps), which fills in UserID, Timestamp
// and CommandString from disk while holding mu.
type HistoryEntry struct {
	mu sync.Mutex

	// UserID identifies the originator of the command. -1 is never
	// stored here; Execute resolves it to the engine's default user
	// before the entry is created.
	UserID int

	// Timestamp is a 64-bit monotonic identifier, unique within the
	// store, and doubles as the entry's filename suffix.
	Timestamp int64

	// CommandString is the textual command exactly as it was parsed.
	CommandString string

	payload   []byte
	persisted bool
}

// newHistoryEntry creates an entry ready to receive a backup payload.
func newHistoryEntry(userID int, timestamp int64, commandString string) *HistoryEntry {
	return &HistoryEntry{
		UserID:        userID,
		Timestamp:     timestamp,
		CommandString: commandString,
	}
}

// Payload returns a copy of the entry's currently resident payload.
// An empty result does not necessarily mean the entry has no payload
// on disk — see HasPayload.
func (e *HistoryEntry) Payload() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.payload) == 0 {
		return nil
	}
	out := make([]byte, len(e.payload))
	copy(out, e.payload)
	return out
}

// HasPayload reports whether the entry's payload is currently resident
// in memory.
func (e *HistoryEntry) HasPayload() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.payload) > 0
}

// Persisted reports whether the entry has been successfully written to
// disk at least once.
func (e *HistoryEntry) Persisted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.persisted
}

// withLock runs fn while holding the entry's mutex. Used by code in
// this package that needs to read or mutate payload/persisted under
// lock without exposing the mutex itself.
func (e *HistoryEntry) withLock(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn()
}
