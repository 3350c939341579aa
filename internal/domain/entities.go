package domain

import (
	"fmt"
	"time"
)

// CounterKind distinguishes the two tracked counters.
type CounterKind string

const (
	CounterView     CounterKind = "view"
	CounterDownload CounterKind = "download"
)

// Resolution holds the pixel dimensions and display label of an image,
// computed at generation time.
type Resolution struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Label  string `json:"label,omitempty"`
	Type   string `json:"type,omitempty"`
}

// Entry represents one catalog item. Entries are immutable once decoded;
// the cache never mutates them.
type Entry struct {
	ID          string      `json:"id"`       // Stable, assigned at generation time
	Filename    string      `json:"filename"` // Cross-series counter key
	Category    string      `json:"category"`
	Subcategory string      `json:"subcategory,omitempty"`
	Path        string      `json:"path"`          // Relative image path
	ThumbPath   string      `json:"thumbnailPath"` // Relative thumbnail path
	PreviewPath string      `json:"previewPath,omitempty"`
	Size        int64       `json:"size"` // File size in bytes
	Format      string      `json:"format"`
	CreatedAt   time.Time   `json:"createdAt"`
	SHA         string      `json:"sha,omitempty"`
	Resolution  *Resolution `json:"resolution,omitempty"`

	// Fully-qualified URLs, resolved from the relative paths after decode.
	URL        string `json:"url,omitempty"`
	ThumbURL   string `json:"thumbnailUrl,omitempty"`
	PreviewURL string `json:"previewUrl,omitempty"`
}

// FormattedSize returns the entry size in a human-readable format.
func (e Entry) FormattedSize() string {
	const (
		kb = 1024
		mb = 1024 * 1024
		gb = 1024 * 1024 * 1024
	)
	switch {
	case e.Size >= gb:
		return fmt.Sprintf("%.2f GB", float64(e.Size)/float64(gb))
	case e.Size >= mb:
		return fmt.Sprintf("%.2f MB", float64(e.Size)/float64(mb))
	case e.Size >= kb:
		return fmt.Sprintf("%.2f KB", float64(e.Size)/float64(kb))
	default:
		return fmt.Sprintf("%d B", e.Size)
	}
}

// ResolutionLabel returns a display label based on the longest image side.
// Entries carrying a generation-time label keep it.
func (e Entry) ResolutionLabel() string {
	if e.Resolution == nil {
		return ""
	}
	if e.Resolution.Label != "" {
		return e.Resolution.Label
	}
	longSide := e.Resolution.Width
	if e.Resolution.Height > longSide {
		longSide = e.Resolution.Height
	}
	switch {
	case longSide >= 5120:
		return "5K+"
	case longSide > 3840:
		return "4K+"
	case longSide == 3840:
		return "4K"
	case longSide >= 2560:
		return "2K"
	case longSide >= 1920:
		return "FHD"
	case longSide >= 1280:
		return "HD"
	default:
		return "SD"
	}
}

// CategoryInfo describes one category within a series index.
type CategoryInfo struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Count     int    `json:"count"`
	Thumbnail string `json:"thumbnail,omitempty"`
	File      string `json:"file"` // Category data file name
}

// SeriesIndex is the per-series category listing, fetched once and cached
// for the process lifetime unless explicitly invalidated.
type SeriesIndex struct {
	Series        string         `json:"series"`
	SeriesName    string         `json:"seriesName,omitempty"`
	GeneratedAt   time.Time      `json:"generatedAt"`
	Total         int            `json:"total"`
	CategoryCount int            `json:"categoryCount"`
	Categories    []CategoryInfo `json:"categories"`
	Schema        int            `json:"schema"`
	Env           string         `json:"env,omitempty"`
}

// CounterRecord holds the server-declared counters for one filename.
// Absence of a record implies zero.
type CounterRecord struct {
	Views     int `json:"views"`
	Downloads int `json:"downloads"`
}

// Add returns the record with another record's counts added on top.
func (r CounterRecord) Add(other CounterRecord) CounterRecord {
	return CounterRecord{
		Views:     r.Views + other.Views,
		Downloads: r.Downloads + other.Downloads,
	}
}

// Score is the popularity score: downloads weigh double.
func (r CounterRecord) Score() int {
	return r.Views + r.Downloads*2
}

// Statistics summarizes the currently merged collection.
type Statistics struct {
	Total     int
	JPG       int
	PNG       int
	TotalSize int64
}
