package remote

// Wire types for the generated data files. Field names follow the
// generator's output; the mapper converts them to domain types.

// indexFile is the per-series index document. Either Blob (encoded) or
// Categories (plain) carries the category list.
type indexFile struct {
	GeneratedAt   string        `json:"generatedAt"`
	Series        string        `json:"series"`
	SeriesName    string        `json:"seriesName"`
	Total         int           `json:"total"`
	CategoryCount int           `json:"categoryCount"`
	Blob          string        `json:"blob"`
	Categories    []categoryDTO `json:"categories"`
	Schema        int           `json:"schema"`
	Env           string        `json:"env"`
}

type categoryDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Count     int    `json:"count"`
	Thumbnail string `json:"thumbnail"`
	File      string `json:"file"`
}

// categoryFile is one category's data document. Either Blob (encoded) or
// Wallpapers (plain) carries the entries.
type categoryFile struct {
	GeneratedAt string     `json:"generatedAt"`
	Series      string     `json:"series"`
	Category    string     `json:"category"`
	Total       int        `json:"total"`
	Blob        string     `json:"blob"`
	Wallpapers  []entryDTO `json:"wallpapers"`
	Schema      int        `json:"schema"`
}

type entryDTO struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	Category    string         `json:"category"`
	Subcategory string         `json:"subcategory"`
	Path        string         `json:"path"`
	ThumbPath   string         `json:"thumbnailPath"`
	PreviewPath string         `json:"previewPath"`
	Size        int64          `json:"size"`
	Format      string         `json:"format"`
	CreatedAt   string         `json:"createdAt"`
	SHA         string         `json:"sha"`
	Resolution  *resolutionDTO `json:"resolution"`
}

type resolutionDTO struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Label  string `json:"label"`
	Type   string `json:"type"`
}

// counterRecordDTO is one row of the array-shaped counters file. The
// aggregation job has emitted both short and long field names over time, so
// both aliases are accepted.
type counterRecordDTO struct {
	ImageID        string `json:"image_id"`
	Views          int    `json:"views"`
	TotalViews     int    `json:"total_views"`
	Downloads      int    `json:"downloads"`
	TotalDownloads int    `json:"total_downloads"`
}

// incrementRequest is the fire-and-forget counter RPC payload.
type incrementRequest struct {
	ImageID    string `json:"img_id"`
	SeriesName string `json:"series_name"`
	Category   string `json:"cat,omitempty"`
}
