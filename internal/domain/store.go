package domain

// CounterStore is the durable local ledger of pending view/download
// increments plus the short-lived server-counter cache. Increments are
// monotonic; there is no decrement.
type CounterStore interface {
	// === Optimistic deltas ===

	// Increment durably records one pending increment for a filename
	Increment(filename string, kind CounterKind) error

	// Get returns the pending deltas for a filename (zero when absent)
	Get(filename string) CounterRecord

	// Deltas returns a snapshot of all pending deltas of one kind
	Deltas(kind CounterKind) map[string]int

	// Reset clears every pending delta
	Reset() error

	// === Server counter cache ===

	GetCounters(series string) (map[string]CounterRecord, bool)
	SaveCounters(series string, counters map[string]CounterRecord) error
	InvalidateCounters(series string)

	Close() error
}
