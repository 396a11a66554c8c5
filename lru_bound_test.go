package undogo

import "testing"

// lruProbeCommand is a minimal Command whose only job is to leave a
// small non-empty payload behind on backup, so resident-payload counts
// in TestUpdateLRUKeepsResidentPayloadBounded reflect real backup
// traffic rather than an empty placeholder.
type lruProbeCommand struct{}

func (c *lruProbeCommand) Name() string                            { return "Probe" }
func (c *lruProbeCommand) Help() string                            { return "probe command for LRU bound test" }
func (c *lruProbeCommand) Parse(cmdStr string) error                { return nil }
func (c *lruProbeCommand) HelpRequested() bool                     { return false }
func (c *lruProbeCommand) Redo() error                             { return nil }
func (c *lruProbeCommand) Undo(file *UndoFile) error               { return nil }
func (c *lruProbeCommand) BackupCurrentState(file *UndoFile) error {
	file.Write([]byte{1, 2, 3, 4})
	return nil
}

// TestUpdateLRUKeepsResidentPayloadBounded drives spec §8 testable
// properties 5 and 7 through the real engine rather than the bare
// lruWindow deque: after a long run, both the window's length and the
// number of entries with a resident payload must stay within
// maxCachedSteps. It also checks property 8 (an unpersisted entry is
// never evicted, so it must still have a resident payload) holds for
// every entry reachable from the timeline.
func TestUpdateLRUKeepsResidentPayloadBounded(t *testing.T) {
	dir := t.TempDir()
	sys := New(WithMaxCachedSteps(12), WithLookAheadSteps(2), WithWorkerCount(2))
	cmd := &lruProbeCommand{}

	if err := sys.RegisterCommand(cmd); err != nil {
		t.Fatalf("RegisterCommand() error = %v", err)
	}
	if err := sys.Init(dir, false); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer sys.Close(false)

	const total = 200
	for i := 0; i < total; i++ {
		if err := sys.ExecuteTyped(cmd, "Probe", -1); err != nil {
			t.Fatalf("ExecuteTyped(%d) error = %v", i, err)
		}

		// Drain the save jobs this step just enqueued, then let the
		// window re-evaluate eviction against entries that have since
		// become persisted. Real callers never need to do this by
		// hand — UpdateLRU only evicts what is already persisted by
		// construction (property 8) — but the test wants the bound to
		// hold deterministically rather than "eventually."
		sys.io.synJobQueue()
		sys.mu.Lock()
		sys.updateLRULocked()
		sys.mu.Unlock()
	}

	sys.mu.Lock()
	defer sys.mu.Unlock()

	if sys.lru.len() > sys.maxCachedSteps {
		t.Fatalf("lru window len = %d, want <= maxCachedSteps (%d)", sys.lru.len(), sys.maxCachedSteps)
	}

	resident := 0
	for i := 0; i < sys.timeline.len(); i++ {
		e := sys.timeline.at(i)
		if e.HasPayload() {
			resident++
		}
		if !e.Persisted() && !e.HasPayload() {
			t.Fatalf("entry %d is unpersisted but has no resident payload", i)
		}
	}
	if resident > sys.maxCachedSteps {
		t.Fatalf("resident payload count = %d, want <= maxCachedSteps (%d)", resident, sys.maxCachedSteps)
	}
}
