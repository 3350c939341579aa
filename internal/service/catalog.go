package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/seralin/muro/internal/domain"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultFirstScreen is the number of categories loaded before the
	// collection is considered ready for a first render.
	DefaultFirstScreen = 3

	// DefaultWalkPause is the cooperative pause between background
	// category loads, throttling the walk.
	DefaultWalkPause = 100 * time.Millisecond
)

// SeriesState tracks a series through its load lifecycle.
type SeriesState int

const (
	StateUnloaded SeriesState = iota
	StateIndexLoading
	StateFirstSliceLoading
	StateReadyPartial
	StateReadyComplete
	StateError
)

func (s SeriesState) String() string {
	switch s {
	case StateIndexLoading:
		return "index-loading"
	case StateFirstSliceLoading:
		return "first-slice-loading"
	case StateReadyPartial:
		return "ready-partial"
	case StateReadyComplete:
		return "ready-complete"
	case StateError:
		return "error"
	default:
		return "unloaded"
	}
}

// Progress reports collection changes during a series load.
type Progress struct {
	Series   string
	Category string // Category file just merged ("" for state-only updates)
	Loaded   int    // Entries in the collection so far
	Total    int    // Expected total from the index
	State    SeriesState
	Err      error
}

// CatalogOptions tunes the catalog's load policy. The first-screen count
// and walk pause are fixed policy carried over from the generator's
// consumers; they are configurable but deliberately not adaptive.
type CatalogOptions struct {
	FirstScreen int
	WalkPause   time.Duration
}

// Catalog is the lazy category cache: it loads a series index once, decodes
// categories on demand, and incrementally merges them into one live
// collection. Construct one per process and share it by reference.
type Catalog struct {
	repo   domain.CatalogRepository
	series map[string]struct{} // Configured series identifiers
	opts   CatalogOptions
	logger *slog.Logger

	flight singleflight.Group

	mu         sync.RWMutex
	indexCache map[string]*domain.SeriesIndex
	catCache   map[string][]domain.Entry

	// Live collection state, scoped to the active series
	collection []domain.Entry
	ids        map[string]struct{} // Duplicate-ID guard
	loaded     map[string]struct{} // Loaded category files for the active series
	current    string
	generation uint64 // Bumped on every series switch; stale walks check it
	state      SeriesState

	subMu sync.Mutex
	subs  []chan Progress

	// Background walks outlive the InitSeries caller's context
	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewCatalog creates a catalog cache for the configured series set.
func NewCatalog(repo domain.CatalogRepository, series []string, opts CatalogOptions, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.FirstScreen <= 0 {
		opts.FirstScreen = DefaultFirstScreen
	}
	if opts.WalkPause <= 0 {
		opts.WalkPause = DefaultWalkPause
	}
	known := make(map[string]struct{}, len(series))
	for _, s := range series {
		known[s] = struct{}{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Catalog{
		repo:       repo,
		series:     known,
		opts:       opts,
		logger:     logger,
		indexCache: make(map[string]*domain.SeriesIndex),
		catCache:   make(map[string][]domain.Entry),
		ids:        make(map[string]struct{}),
		loaded:     make(map[string]struct{}),
		baseCtx:    ctx,
		cancel:     cancel,
	}
}

// Close stops background walks and drops subscribers.
func (c *Catalog) Close() {
	c.cancel()
	c.subMu.Lock()
	for _, ch := range c.subs {
		close(ch)
	}
	c.subs = nil
	c.subMu.Unlock()
}

// Subscribe returns a channel receiving progress updates. Sends are
// non-blocking; a slow consumer misses intermediate updates, never blocks
// the loader.
func (c *Catalog) Subscribe() <-chan Progress {
	ch := make(chan Progress, 16)
	c.subMu.Lock()
	c.subs = append(c.subs, ch)
	c.subMu.Unlock()
	return ch
}

func (c *Catalog) publish(p Progress) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- p:
		default: // Non-blocking if channel full
		}
	}
}

// LoadIndex fetches a series index once and memoizes it. Concurrent callers
// share the in-flight fetch; no duplicate request is issued for a series
// already loading.
func (c *Catalog) LoadIndex(ctx context.Context, series string) (*domain.SeriesIndex, error) {
	if _, ok := c.series[series]; !ok {
		return nil, domain.ErrInvalidSeries
	}

	c.mu.RLock()
	if idx, ok := c.indexCache[series]; ok {
		c.mu.RUnlock()
		return idx, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.flight.Do(indexKey(series), func() (interface{}, error) {
		idx, err := c.repo.FetchIndex(ctx, series)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.indexCache[series] = idx
		c.mu.Unlock()
		return idx, nil
	})
	if err != nil {
		c.logger.Error("failed to load series index", "series", series, "error", err)
		return nil, err
	}
	return v.(*domain.SeriesIndex), nil
}

// LoadCategory fetches and decodes one category file, memoized by
// (series, file). Repeat calls return the cached entries without a fetch.
func (c *Catalog) LoadCategory(ctx context.Context, series, file string) ([]domain.Entry, error) {
	if _, ok := c.series[series]; !ok {
		return nil, domain.ErrInvalidSeries
	}

	key := categoryKey(series, file)
	c.mu.RLock()
	if entries, ok := c.catCache[key]; ok {
		c.mu.RUnlock()
		return entries, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.flight.Do(key, func() (interface{}, error) {
		entries, err := c.repo.FetchCategory(ctx, series, file)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.catCache[key] = entries
		c.mu.Unlock()
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Entry), nil
}

// InitSeries loads a series for display: index, then the first-screen
// category slice concurrently, then the remaining categories sequentially in
// the background. The call returns once the first slice is merged; the
// background walk is abandoned if another series becomes active.
func (c *Catalog) InitSeries(ctx context.Context, series string) error {
	c.mu.Lock()
	if c.current == series && len(c.collection) > 0 {
		c.mu.Unlock()
		return nil // Already loaded
	}
	c.generation++
	gen := c.generation
	c.current = series
	c.collection = nil
	c.ids = make(map[string]struct{})
	c.loaded = make(map[string]struct{})
	c.state = StateIndexLoading
	c.mu.Unlock()

	idx, err := c.LoadIndex(ctx, series)
	if err != nil {
		c.setError(gen, series, err)
		return err
	}

	c.setState(gen, StateFirstSliceLoading)

	first := idx.Categories
	if len(first) > c.opts.FirstScreen {
		first = first[:c.opts.FirstScreen]
	}

	// First-screen categories load concurrently, but the collection is
	// populated only after all of them resolve, so the first render never
	// reorders under the user.
	results := make([][]domain.Entry, len(first))
	g, gctx := errgroup.WithContext(ctx)
	for i, cat := range first {
		g.Go(func() error {
			entries, err := c.LoadCategory(gctx, series, cat.File)
			if err != nil {
				return err
			}
			results[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Error("first slice load failed", "series", series, "error", err)
		c.setError(gen, series, err)
		return err
	}

	for i, cat := range first {
		c.merge(gen, series, cat.File, results[i], idx.Total, StateReadyPartial)
	}
	c.setState(gen, StateReadyPartial)

	remaining := idx.Categories[len(first):]
	if len(remaining) == 0 {
		c.setState(gen, StateReadyComplete)
		c.publish(Progress{Series: series, Loaded: c.Len(), Total: idx.Total, State: StateReadyComplete})
		return nil
	}

	go c.walk(gen, series, remaining, idx.Total)
	return nil
}

// walk loads the remaining categories strictly one at a time with a
// cooperative pause between each, appending every successfully decoded
// category. Failures are skipped, never surfaced. The walk abandons itself
// as soon as its generation is superseded; later fetch results stay cached
// but are not merged.
func (c *Catalog) walk(gen uint64, series string, cats []domain.CategoryInfo, total int) {
	for i, cat := range cats {
		if c.stale(gen) {
			c.logger.Debug("background walk abandoned", "series", series)
			return
		}

		entries, err := c.LoadCategory(c.baseCtx, series, cat.File)
		if err != nil {
			c.logger.Warn("background category load failed, skipping", "series", series, "file", cat.File, "error", err)
			continue
		}
		if !c.merge(gen, series, cat.File, entries, total, StateReadyPartial) {
			return
		}

		if i < len(cats)-1 {
			select {
			case <-time.After(c.opts.WalkPause):
			case <-c.baseCtx.Done():
				return
			}
		}
	}

	if c.setState(gen, StateReadyComplete) {
		c.publish(Progress{Series: series, Loaded: c.Len(), Total: total, State: StateReadyComplete})
		c.logger.Info("series fully loaded", "series", series, "entries", c.Len())
	}
}

// LoadAll synchronously loads every category the background walk has not
// merged yet. User-triggered; walks sequentially like the background path
// but without the pause.
func (c *Catalog) LoadAll(ctx context.Context, series string) error {
	idx, err := c.LoadIndex(ctx, series)
	if err != nil {
		return err
	}

	c.mu.RLock()
	gen := c.generation
	if c.current != series {
		c.mu.RUnlock()
		return domain.ErrInvalidSeries
	}
	var pending []domain.CategoryInfo
	for _, cat := range idx.Categories {
		if _, ok := c.loaded[cat.File]; !ok {
			pending = append(pending, cat)
		}
	}
	c.mu.RUnlock()

	for _, cat := range pending {
		entries, err := c.LoadCategory(ctx, series, cat.File)
		if err != nil {
			c.logger.Warn("category load failed, skipping", "series", series, "file", cat.File, "error", err)
			continue
		}
		if !c.merge(gen, series, cat.File, entries, idx.Total, StateReadyPartial) {
			return nil // Series switched under us
		}
	}
	if c.setState(gen, StateReadyComplete) {
		c.publish(Progress{Series: series, Loaded: c.Len(), Total: idx.Total, State: StateReadyComplete})
	}
	return nil
}

// merge appends a category's entries to the live collection, skipping
// duplicate IDs. Returns false when gen is no longer the active generation,
// in which case nothing is merged.
func (c *Catalog) merge(gen uint64, series, file string, entries []domain.Entry, total int, state SeriesState) bool {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return false
	}
	for _, e := range entries {
		if _, dup := c.ids[e.ID]; dup {
			continue
		}
		c.ids[e.ID] = struct{}{}
		c.collection = append(c.collection, e)
	}
	c.loaded[file] = struct{}{}
	loaded := len(c.collection)
	c.mu.Unlock()

	c.publish(Progress{Series: series, Category: file, Loaded: loaded, Total: total, State: state})
	return true
}

// stale reports whether gen has been superseded by a series switch.
func (c *Catalog) stale(gen uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation != gen
}

// setState transitions the lifecycle state if gen is still active.
func (c *Catalog) setState(gen uint64, state SeriesState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return false
	}
	c.state = state
	return true
}

func (c *Catalog) setError(gen uint64, series string, err error) {
	if c.setState(gen, StateError) {
		c.publish(Progress{Series: series, State: StateError, Err: err})
	}
}

// Entries returns a snapshot of the merged collection.
func (c *Catalog) Entries() []domain.Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Entry, len(c.collection))
	copy(out, c.collection)
	return out
}

// Len returns the current collection size.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.collection)
}

// State returns the active series and its lifecycle state.
func (c *Catalog) State() (string, SeriesState) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, c.state
}

// EntryByID finds an entry in the merged collection.
func (c *Catalog) EntryByID(id string) (domain.Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.collection {
		if e.ID == id {
			return e, true
		}
	}
	return domain.Entry{}, false
}

// Neighbors returns the entries before and after id in collection order.
// Either may be absent at the edges.
func (c *Catalog) Neighbors(id string) (prev, next *domain.Entry) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i, e := range c.collection {
		if e.ID != id {
			continue
		}
		if i > 0 {
			p := c.collection[i-1]
			prev = &p
		}
		if i < len(c.collection)-1 {
			n := c.collection[i+1]
			next = &n
		}
		return prev, next
	}
	return nil, nil
}

// Statistics summarizes the merged collection.
func (c *Catalog) Statistics() domain.Statistics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var stats domain.Statistics
	stats.Total = len(c.collection)
	for _, e := range c.collection {
		switch strings.ToUpper(e.Format) {
		case "JPG", "JPEG":
			stats.JPG++
		case "PNG":
			stats.PNG++
		}
		stats.TotalSize += e.Size
	}
	return stats
}

// ClearCache drops the memoized index and category entries for one series.
// The live collection is untouched; subsequent loads refetch.
func (c *Catalog) ClearCache(series string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.indexCache, series)
	prefix := PrefixCategory + series + ":"
	for key := range c.catCache {
		if strings.HasPrefix(key, prefix) {
			delete(c.catCache, key)
		}
	}
	if c.current == series {
		c.current = ""
		c.collection = nil
		c.ids = make(map[string]struct{})
		c.loaded = make(map[string]struct{})
		c.state = StateUnloaded
		c.generation++ // Abandon any in-flight walk
	}
}

// ClearAll drops every memoized index and category entry.
func (c *Catalog) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.indexCache = make(map[string]*domain.SeriesIndex)
	c.catCache = make(map[string][]domain.Entry)
	c.current = ""
	c.collection = nil
	c.ids = make(map[string]struct{})
	c.loaded = make(map[string]struct{})
	c.state = StateUnloaded
	c.generation++
}
