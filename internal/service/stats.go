package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/seralin/muro/internal/domain"
)

// rpcTimeout bounds the fire-and-forget increment calls.
const rpcTimeout = 10 * time.Second

// Rank is one entry's position in the popularity ordering.
type Rank struct {
	Rank      int
	Score     int
	Views     int
	Downloads int
}

// Stats layers the durable optimistic buffer on top of server-declared
// counters. Server data is cached per series and degrades to empty on any
// fetch failure; the user's own actions always show through the buffer.
type Stats struct {
	repo   domain.StatsRepository
	buffer domain.CounterStore
	logger *slog.Logger

	mu      sync.RWMutex
	cache   map[string]map[string]domain.CounterRecord // series -> filename -> record
	current string
}

// NewStats creates the stats merge service.
func NewStats(repo domain.StatsRepository, buffer domain.CounterStore, logger *slog.Logger) *Stats {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stats{
		repo:   repo,
		buffer: buffer,
		logger: logger,
		cache:  make(map[string]map[string]domain.CounterRecord),
	}
}

// Load fetches the server counters for a series unless already cached.
// A fetch failure degrades to an empty record set: counters then reflect
// only the optimistic buffer, and the caller never sees an error.
func (s *Stats) Load(ctx context.Context, series string, force bool) map[string]domain.CounterRecord {
	if !force {
		s.mu.RLock()
		cached, ok := s.cache[series]
		s.mu.RUnlock()
		if ok {
			return s.overlay(cached)
		}
		if stored, ok := s.buffer.GetCounters(series); ok {
			s.mu.Lock()
			s.cache[series] = stored
			s.current = series
			s.mu.Unlock()
			return s.overlay(stored)
		}
	}

	counters, err := s.repo.FetchCounters(ctx, series)
	if err != nil {
		s.logger.Warn("counter load failed, using optimistic data only", "series", series, "error", err)
		counters = make(map[string]domain.CounterRecord)
	} else if err := s.buffer.SaveCounters(series, counters); err != nil {
		s.logger.Warn("failed to cache counters", "series", series, "error", err)
	}

	s.mu.Lock()
	s.cache[series] = counters
	s.current = series
	s.mu.Unlock()

	s.logger.Debug("loaded counters", "series", series, "count", len(counters))
	return s.overlay(counters)
}

// overlay adds pending optimistic deltas on top of a server counter set.
// Filenames present only in the buffer appear too.
func (s *Stats) overlay(base map[string]domain.CounterRecord) map[string]domain.CounterRecord {
	views := s.buffer.Deltas(domain.CounterView)
	downloads := s.buffer.Deltas(domain.CounterDownload)

	out := make(map[string]domain.CounterRecord, len(base)+len(views)+len(downloads))
	for k, v := range base {
		out[k] = v
	}
	for k, n := range views {
		rec := out[k]
		rec.Views += n
		out[k] = rec
	}
	for k, n := range downloads {
		rec := out[k]
		rec.Downloads += n
		out[k] = rec
	}
	return out
}

// Effective returns the merged counters for one filename: server record
// (zero when absent) plus pending optimistic deltas.
func (s *Stats) Effective(filename string) domain.CounterRecord {
	s.mu.RLock()
	base := s.cache[s.current][filename]
	s.mu.RUnlock()
	return base.Add(s.buffer.Get(filename))
}

// Lookup returns a point-in-time counter lookup function over the active
// series, suitable for the sort projections.
func (s *Stats) Lookup() func(filename string) domain.CounterRecord {
	s.mu.RLock()
	merged := s.overlay(s.cache[s.current])
	s.mu.RUnlock()
	return func(filename string) domain.CounterRecord {
		return merged[filename]
	}
}

// Ranked returns the active series' filenames ordered by popularity score
// (downloads weigh double), plus a rank lookup map.
func (s *Stats) Ranked() ([]string, map[string]Rank) {
	s.mu.RLock()
	merged := s.overlay(s.cache[s.current])
	s.mu.RUnlock()

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		si, sj := merged[names[i]].Score(), merged[names[j]].Score()
		if si != sj {
			return si > sj
		}
		return names[i] < names[j]
	})

	ranks := make(map[string]Rank, len(names))
	for i, name := range names {
		rec := merged[name]
		ranks[name] = Rank{Rank: i + 1, Score: rec.Score(), Views: rec.Views, Downloads: rec.Downloads}
	}
	return names, ranks
}

// RecordView applies an optimistic view increment, then fires the remote
// increment without waiting. Remote failure is logged and dropped: the
// buffer already reflects the action, and delivery is at-most-once.
func (s *Stats) RecordView(entry domain.Entry, series string) {
	s.record(entry, series, domain.CounterView)
}

// RecordDownload applies an optimistic download increment, then fires the
// remote increment without waiting.
func (s *Stats) RecordDownload(entry domain.Entry, series string) {
	s.record(entry, series, domain.CounterDownload)
}

func (s *Stats) record(entry domain.Entry, series string, kind domain.CounterKind) {
	key := entry.Filename
	if key == "" {
		key = entry.ID
	}
	if err := s.buffer.Increment(key, kind); err != nil {
		s.logger.Warn("failed to persist optimistic increment", "filename", key, "kind", kind, "error", err)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()

		var err error
		if kind == domain.CounterView {
			err = s.repo.IncrementView(ctx, entry, series)
		} else {
			err = s.repo.IncrementDownload(ctx, entry, series)
		}
		if err != nil {
			s.logger.Warn("remote increment failed", "filename", key, "kind", kind, "error", err)
		}
	}()
}

// Reset clears every pending optimistic delta.
func (s *Stats) Reset() error {
	return s.buffer.Reset()
}

// Clear drops the in-memory and stored server counter cache for a series.
func (s *Stats) Clear(series string) {
	s.mu.Lock()
	delete(s.cache, series)
	if s.current == series {
		s.current = ""
	}
	s.mu.Unlock()
	s.buffer.InvalidateCounters(series)
}
