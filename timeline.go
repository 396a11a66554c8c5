package undogo

// historyTimeline is the ordered sequence of executed commands and the
// cursor that separates the undone-from region (indices < undoIndex,
// currently applied) from the redo-available region (indices >=
// undoIndex). It carries no locking of its own: UndoSystem is the
// single owner and serializes access to it.
type historyTimeline struct {
	entries   []*HistoryEntry
	undoIndex int
}

func newHistoryTimeline() *historyTimeline {
	return &historyTimeline{}
}

func (t *historyTimeline) len() int {
	return len(t.entries)
}

func (t *historyTimeline) at(i int) *HistoryEntry {
	return t.entries[i]
}

func (t *historyTimeline) append(e *HistoryEntry) {
	t.entries = append(t.entries, e)
	t.undoIndex++
}

// pruneTail removes every entry at position >= undoIndex and returns
// their timestamps, in timeline order, so the caller can schedule
// their on-disk removal. It does not touch undoIndex.
func (t *historyTimeline) pruneTail() []int64 {
	if t.undoIndex >= len(t.entries) {
		return nil
	}
	tail := t.entries[t.undoIndex:]
	timestamps := make([]int64, len(tail))
	for i, e := range tail {
		timestamps[i] = e.Timestamp
	}
	t.entries = t.entries[:t.undoIndex]
	return timestamps
}

func (t *historyTimeline) reset() {
	t.entries = nil
	t.undoIndex = 0
}
