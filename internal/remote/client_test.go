package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/seralin/muro/internal/codec"
	"github.com/seralin/muro/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return codec.Encode(data)
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(Options{
		DataBaseURL:  srv.URL + "/data",
		StatsBaseURL: srv.URL + "/stats",
		CDNBaseURL:   "https://cdn.example.com",
		RPCBaseURL:   srv.URL + "/rpc",
	}, codec.InlineDecoder{}, nil)
	return client, srv
}

func TestFetchIndexDecodesBlob(t *testing.T) {
	cats := []categoryDTO{
		{Name: "nature", Count: 5, File: "cat1.json"},
		{Name: "city", Count: 3, File: "cat2.json"},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/data/desktop/index.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"generatedAt":   "2026-08-01T10:00:00Z",
			"series":        "desktop",
			"seriesName":    "Desktop",
			"total":         8,
			"categoryCount": 2,
			"blob":          encodeJSON(t, cats),
			"schema":        2,
		})
	})
	client, _ := newTestClient(t, mux)

	idx, err := client.FetchIndex(context.Background(), "desktop")
	require.NoError(t, err)
	assert.Equal(t, "desktop", idx.Series)
	assert.Equal(t, 8, idx.Total)
	require.Len(t, idx.Categories, 2)
	assert.Equal(t, "cat1.json", idx.Categories[0].File)
	assert.Equal(t, 2026, idx.GeneratedAt.Year())
}

func TestFetchIndexPlainCategories(t *testing.T) {
	// Files without a blob carry the category list in the clear
	mux := http.NewServeMux()
	mux.HandleFunc("/data/desktop/index.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"series":     "desktop",
			"total":      1,
			"categories": []map[string]any{{"name": "nature", "count": 1, "file": "cat1.json"}},
		})
	})
	client, _ := newTestClient(t, mux)

	idx, err := client.FetchIndex(context.Background(), "desktop")
	require.NoError(t, err)
	require.Len(t, idx.Categories, 1)
	assert.Equal(t, "nature", idx.Categories[0].Name)
}

func TestFetchIndexNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.NotFoundHandler())

	_, err := client.FetchIndex(context.Background(), "desktop")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFetchCategoryResolvesURLs(t *testing.T) {
	entries := []entryDTO{
		{
			ID:        "desktop-1",
			Filename:  "sunrise.jpg",
			Category:  "nature",
			Path:      "/wallpaper/desktop/sunrise.jpg",
			ThumbPath: "/thumbnail/desktop/sunrise.webp",
			Size:      2048,
			Format:    "jpg",
			CreatedAt: "2026-07-15T08:30:00Z",
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/data/desktop/cat1.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"series":   "desktop",
			"category": "nature",
			"blob":     encodeJSON(t, entries),
		})
	})
	client, _ := newTestClient(t, mux)

	got, err := client.FetchCategory(context.Background(), "desktop", "cat1.json")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://cdn.example.com/wallpaper/desktop/sunrise.jpg", got[0].URL)
	assert.Equal(t, "https://cdn.example.com/thumbnail/desktop/sunrise.webp", got[0].ThumbURL)
	assert.Empty(t, got[0].PreviewURL)
}

func TestFetchCategoryBadBlobFallsBackToPlain(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/data/desktop/cat1.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"blob": "zz:corrupted",
			"wallpapers": []map[string]any{
				{"id": "desktop-1", "filename": "a.jpg", "category": "nature"},
			},
		})
	})
	client, _ := newTestClient(t, mux)

	got, err := client.FetchCategory(context.Background(), "desktop", "cat1.json")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "desktop-1", got[0].ID)
}

func TestFetchCategoryBadBlobNoFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/data/desktop/cat1.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"blob": "zz:corrupted"})
	})
	client, _ := newTestClient(t, mux)

	_, err := client.FetchCategory(context.Background(), "desktop", "cat1.json")
	assert.ErrorIs(t, err, domain.ErrDecodeFailed)
}

func TestFetchCountersArrayShape(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/stats/hot-desktop.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"image_id":"a.jpg","views":10,"downloads":2},
			{"image_id":"b.jpg","total_views":7,"total_downloads":1}
		]`)
	})
	client, _ := newTestClient(t, mux)

	counters, err := client.FetchCounters(context.Background(), "desktop")
	require.NoError(t, err)
	assert.Equal(t, domain.CounterRecord{Views: 10, Downloads: 2}, counters["a.jpg"])
	assert.Equal(t, domain.CounterRecord{Views: 7, Downloads: 1}, counters["b.jpg"])
}

func TestFetchCountersObjectShape(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/stats/hot-mobile.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"a.jpg": 12,
			"b.jpg": {"views":3,"downloads":4},
			"c.jpg": {"total_views":9}
		}`)
	})
	client, _ := newTestClient(t, mux)

	counters, err := client.FetchCounters(context.Background(), "mobile")
	require.NoError(t, err)
	assert.Equal(t, domain.CounterRecord{Views: 12}, counters["a.jpg"])
	assert.Equal(t, domain.CounterRecord{Views: 3, Downloads: 4}, counters["b.jpg"])
	assert.Equal(t, domain.CounterRecord{Views: 9}, counters["c.jpg"])
}

func TestIncrementViewPostsPayload(t *testing.T) {
	var got incrementRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/rpc/increment_view", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	})
	client, _ := newTestClient(t, mux)

	entry := domain.Entry{ID: "desktop-1", Filename: "sunrise.jpg", Category: "nature"}
	require.NoError(t, client.IncrementView(context.Background(), entry, "desktop"))
	assert.Equal(t, "sunrise.jpg", got.ImageID)
	assert.Equal(t, "desktop", got.SeriesName)
	assert.Equal(t, "nature", got.Category)
}

func TestIncrementSkippedWhenUnconfigured(t *testing.T) {
	client := NewClient(Options{DataBaseURL: "http://example.invalid"}, nil, nil)
	err := client.IncrementDownload(context.Background(), domain.Entry{Filename: "a.jpg"}, "desktop")
	assert.NoError(t, err)
}
