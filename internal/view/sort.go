package view

import (
	"sort"

	"github.com/seralin/muro/internal/domain"
)

// SortKey selects a collection ordering.
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortOldest    SortKey = "oldest"
	SortPopular   SortKey = "popular"
	SortDownloads SortKey = "downloads"
	SortViews     SortKey = "views"
	SortLargest   SortKey = "largest"
	SortSmallest  SortKey = "smallest"
	SortNameAsc   SortKey = "name-asc"
	SortNameDesc  SortKey = "name-desc"
)

// CounterLookup resolves the effective counters for a filename. Counter
// sorts receive it from the stats service.
type CounterLookup func(filename string) domain.CounterRecord

// Sort returns a new slice ordered by key. Counter-backed keys (popular,
// downloads, views) break ties by descending creation time, so equal scores
// surface the newest entry first. Unknown keys return an unchanged copy.
func Sort(entries []domain.Entry, key SortKey, lookup CounterLookup) []domain.Entry {
	out := make([]domain.Entry, len(entries))
	copy(out, entries)
	if lookup == nil {
		lookup = func(string) domain.CounterRecord { return domain.CounterRecord{} }
	}

	switch key {
	case SortNewest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	case SortOldest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
	case SortPopular:
		sortByCount(out, func(e domain.Entry) int { return lookup(e.Filename).Score() })
	case SortDownloads:
		sortByCount(out, func(e domain.Entry) int { return lookup(e.Filename).Downloads })
	case SortViews:
		sortByCount(out, func(e domain.Entry) int { return lookup(e.Filename).Views })
	case SortLargest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Size > out[j].Size
		})
	case SortSmallest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Size < out[j].Size
		})
	case SortNameAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Filename < out[j].Filename
		})
	case SortNameDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Filename > out[j].Filename
		})
	}
	return out
}

// sortByCount orders descending by score with newest-first tie-break.
func sortByCount(entries []domain.Entry, score func(domain.Entry) int) {
	sort.SliceStable(entries, func(i, j int) bool {
		si, sj := score(entries[i]), score(entries[j])
		if si != sj {
			return si > sj
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}

// Project applies filter then sort in one step.
func Project(entries []domain.Entry, state FilterState, key SortKey, lookup CounterLookup) []domain.Entry {
	return Sort(Filter(entries, state), key, lookup)
}
