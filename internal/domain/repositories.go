package domain

import "context"

// CatalogRepository provides access to the generated series index and
// category data files.
type CatalogRepository interface {
	// FetchIndex returns the category index for a series
	FetchIndex(ctx context.Context, series string) (*SeriesIndex, error)

	// FetchCategory returns the decoded entries of one category file,
	// with asset URLs fully resolved
	FetchCategory(ctx context.Context, series, file string) ([]Entry, error)
}

// StatsRepository provides access to server-declared counters and the
// remote increment endpoints.
type StatsRepository interface {
	// FetchCounters returns the per-filename counter records for a series
	FetchCounters(ctx context.Context, series string) (map[string]CounterRecord, error)

	// IncrementView reports one view for an entry (best-effort)
	IncrementView(ctx context.Context, entry Entry, series string) error

	// IncrementDownload reports one download for an entry (best-effort)
	IncrementDownload(ctx context.Context, entry Entry, series string) error
}
