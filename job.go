package undogo

// jobKind identifies which of the four background operations a job
// performs.
type jobKind int

const (
	jobSaveToDisk jobKind = iota
	jobWarmupCache
	jobLoadEntries
	jobDeleteEntries
)

// job is a unit of background work. Save/warm-up/load jobs carry
// shared ownership of their target entry (a *HistoryEntry, kept alive
// by the timeline, the LRU window, or this job itself); delete jobs
// carry a list of timestamps instead, since the entries they refer to
// may already be unreachable from the timeline by the time the job
// runs.
type job struct {
	kind       jobKind
	entry      *HistoryEntry
	timestamps []int64
}
