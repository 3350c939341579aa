package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/seralin/muro/internal/codec"
	"github.com/seralin/muro/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Muro/1.0"
)

// Options configures a Client.
type Options struct {
	DataBaseURL  string // Base URL for generated index/category files
	StatsBaseURL string // Base URL for hot-<series>.json counter files
	CDNBaseURL   string // Base URL for image assets
	RPCBaseURL   string // Counter increment endpoint; empty disables RPCs
	RPCKey       string // API key sent with increment calls
}

// Client fetches the generated data files and talks to the counter RPC.
// It implements domain.CatalogRepository and domain.StatsRepository.
type Client struct {
	opts       Options
	decoder    codec.Decoder
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a data file client.
func NewClient(opts Options, decoder codec.Decoder, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if decoder == nil {
		decoder = codec.InlineDecoder{}
	}
	return &Client{
		opts:    opts,
		decoder: decoder,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// doGet performs a GET request and returns the response body.
func (c *Client) doGet(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("data request", "url", url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("data request failed", "url", url, "error", err)
		return nil, domain.ErrServerOffline
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("data request error", "url", url, "status", resp.StatusCode)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return body, nil
}

// FetchIndex returns the category index for a series. An encoded blob is
// decoded via the codec; a plain categories field is accepted as-is. A blob
// that fails to decode falls back to the plain field when present.
func (c *Client) FetchIndex(ctx context.Context, series string) (*domain.SeriesIndex, error) {
	url := fmt.Sprintf("%s/%s/index.json", c.opts.DataBaseURL, series)
	body, err := c.doGet(ctx, url)
	if err != nil {
		return nil, err
	}

	var dto indexFile
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("failed to parse index: %w", err)
	}

	cats := dto.Categories
	if dto.Blob != "" {
		var decoded []categoryDTO
		if err := c.decoder.DecodeAndParse(ctx, dto.Blob, &decoded); err != nil {
			if len(cats) == 0 {
				return nil, fmt.Errorf("%w: index blob for %s: %v", domain.ErrDecodeFailed, series, err)
			}
			c.logger.Warn("index blob decode failed, using plain categories", "series", series, "error", err)
		} else {
			cats = decoded
		}
	}

	return mapIndex(dto, cats), nil
}

// FetchCategory returns one category file's entries with asset URLs
// resolved against the CDN base.
func (c *Client) FetchCategory(ctx context.Context, series, file string) ([]domain.Entry, error) {
	url := fmt.Sprintf("%s/%s/%s", c.opts.DataBaseURL, series, file)
	body, err := c.doGet(ctx, url)
	if err != nil {
		return nil, err
	}

	var dto categoryFile
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("failed to parse category file: %w", err)
	}

	list := dto.Wallpapers
	if dto.Blob != "" {
		var decoded []entryDTO
		if err := c.decoder.DecodeAndParse(ctx, dto.Blob, &decoded); err != nil {
			if len(list) == 0 {
				return nil, fmt.Errorf("%w: category %s/%s: %v", domain.ErrDecodeFailed, series, file, err)
			}
			c.logger.Warn("category blob decode failed, using plain entries", "series", series, "file", file, "error", err)
		} else {
			list = decoded
		}
	}

	entries := mapEntries(list)
	for i := range entries {
		entries[i] = ResolveAssetURLs(entries[i], c.opts.CDNBaseURL)
	}
	return entries, nil
}

// FetchCounters loads the aggregated counters file for a series and
// normalizes both supported wire shapes into one canonical map.
func (c *Client) FetchCounters(ctx context.Context, series string) (map[string]domain.CounterRecord, error) {
	url := fmt.Sprintf("%s/hot-%s.json", c.opts.StatsBaseURL, series)
	body, err := c.doGet(ctx, url)
	if err != nil {
		return nil, err
	}

	counters, err := normalizeCounters(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse counters for %s: %w", series, err)
	}
	return counters, nil
}

// IncrementView reports one view for an entry.
func (c *Client) IncrementView(ctx context.Context, entry domain.Entry, series string) error {
	return c.callRPC(ctx, "increment_view", entry, series)
}

// IncrementDownload reports one download for an entry.
func (c *Client) IncrementDownload(ctx context.Context, entry domain.Entry, series string) error {
	return c.callRPC(ctx, "increment_download", entry, series)
}

func (c *Client) callRPC(ctx context.Context, name string, entry domain.Entry, series string) error {
	if c.opts.RPCBaseURL == "" {
		return nil // RPC backend not configured
	}

	id := entry.Filename
	if id == "" {
		id = entry.ID
	}
	payload, err := json.Marshal(incrementRequest{
		ImageID:    id,
		SeriesName: series,
		Category:   entry.Category,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s", c.opts.RPCBaseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.opts.RPCKey != "" {
		req.Header.Set("apikey", c.opts.RPCKey)
		req.Header.Set("Authorization", "Bearer "+c.opts.RPCKey)
	}
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("rpc %s failed: status %d", name, resp.StatusCode)
	}
	return nil
}
