package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/seralin/muro/internal/codec"
	"github.com/seralin/muro/internal/config"
	"github.com/seralin/muro/internal/log"
	"github.com/seralin/muro/internal/remote"
	"github.com/seralin/muro/internal/service"
	"github.com/seralin/muro/internal/store"
	"github.com/seralin/muro/internal/view"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var (
		showVersion bool
		series      string
		sortKey     string
		query       string
		category    string
		format      string
		limit       int
		loadAll     bool
		showStats   bool
	)
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&series, "series", "desktop", "series to load")
	flag.StringVar(&sortKey, "sort", "newest", "sort key (newest|oldest|popular|downloads|views|largest|smallest|name-asc|name-desc)")
	flag.StringVar(&query, "query", "", "filter by fuzzy query")
	flag.StringVar(&category, "category", "", "filter by category")
	flag.StringVar(&format, "format", "", "filter by format (jpg|png)")
	flag.IntVar(&limit, "limit", 30, "max entries to print")
	flag.BoolVar(&loadAll, "all", false, "load every category before printing")
	flag.BoolVar(&showStats, "stats", false, "print collection statistics")
	flag.Parse()

	if showVersion {
		fmt.Printf("muro %s\n", Version)
		return
	}

	if err := run(series, sortKey, query, category, format, limit, loadAll, showStats); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(series, sortKey, query, category, format string, limit int, loadAll, showStats bool) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.IsConfigured() {
		return fmt.Errorf("no data base URL configured; set data.base_url in the config file or MURO_DATA_BASE_URL")
	}

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting muro", "version", Version, "series", series)

	counterStore, err := store.NewCounterStore(cfg.Catalog.CacheDir)
	if err != nil {
		return fmt.Errorf("failed to open counter store: %w", err)
	}
	defer counterStore.Close()

	decoder := codec.NewPoolDecoder(cfg.Decode.Workers, cfg.Decode.Threshold, logger)
	defer decoder.Close()

	client := remote.NewClient(remote.Options{
		DataBaseURL:  cfg.Data.BaseURL,
		StatsBaseURL: cfg.Data.StatsBaseURL,
		CDNBaseURL:   cfg.Data.CDNBaseURL,
		RPCBaseURL:   cfg.Data.RPCBaseURL,
		RPCKey:       cfg.Data.RPCKey,
	}, decoder, logger)

	catalog := service.NewCatalog(client, cfg.Data.Series, service.CatalogOptions{
		FirstScreen: cfg.Catalog.FirstScreen,
		WalkPause:   cfg.Catalog.WalkPause,
	}, logger)
	defer catalog.Close()

	stats := service.NewStats(client, counterStore, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	progress := catalog.Subscribe()
	if err := catalog.InitSeries(ctx, series); err != nil {
		return fmt.Errorf("failed to load series %s: %w", series, err)
	}

	if loadAll {
		if err := catalog.LoadAll(ctx, series); err != nil {
			return err
		}
	} else {
		waitForComplete(ctx, catalog, progress)
	}

	counters := stats.Load(ctx, series, false)
	logger.Debug("counters merged", "count", len(counters))

	entries := view.Project(catalog.Entries(), view.FilterState{
		Query:    query,
		Format:   format,
		Category: category,
	}, view.SortKey(sortKey), stats.Lookup())

	if showStats {
		s := catalog.Statistics()
		fmt.Printf("series %s: %d entries (%d jpg, %d png), %d bytes\n\n", series, s.Total, s.JPG, s.PNG, s.TotalSize)
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFILENAME\tCATEGORY\tSIZE\tVIEWS\tDOWNLOADS")
	for _, e := range entries {
		rec := stats.Effective(e.Filename)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
			e.ID, e.Filename, e.Category, e.FormattedSize(), rec.Views, rec.Downloads)
	}
	return w.Flush()
}

// waitForComplete drains progress updates until the background walk
// finishes or the context expires.
func waitForComplete(ctx context.Context, catalog *service.Catalog, progress <-chan service.Progress) {
	if _, state := catalog.State(); state == service.StateReadyComplete {
		return
	}
	for {
		select {
		case p, ok := <-progress:
			if !ok {
				return
			}
			if p.State == service.StateReadyComplete || p.State == service.StateError {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
