package remote

import (
	"encoding/json"
	"time"

	"github.com/seralin/muro/internal/domain"
)

// mapIndex converts an index document plus its decoded category list into
// the domain representation.
func mapIndex(dto indexFile, cats []categoryDTO) *domain.SeriesIndex {
	idx := &domain.SeriesIndex{
		Series:        dto.Series,
		SeriesName:    dto.SeriesName,
		GeneratedAt:   parseTime(dto.GeneratedAt),
		Total:         dto.Total,
		CategoryCount: dto.CategoryCount,
		Categories:    make([]domain.CategoryInfo, 0, len(cats)),
		Schema:        dto.Schema,
		Env:           dto.Env,
	}
	for _, c := range cats {
		idx.Categories = append(idx.Categories, domain.CategoryInfo{
			ID:        c.ID,
			Name:      c.Name,
			Count:     c.Count,
			Thumbnail: c.Thumbnail,
			File:      c.File,
		})
	}
	return idx
}

// mapEntries converts wire entries to domain entries.
func mapEntries(dtos []entryDTO) []domain.Entry {
	entries := make([]domain.Entry, 0, len(dtos))
	for _, d := range dtos {
		e := domain.Entry{
			ID:          d.ID,
			Filename:    d.Filename,
			Category:    d.Category,
			Subcategory: d.Subcategory,
			Path:        d.Path,
			ThumbPath:   d.ThumbPath,
			PreviewPath: d.PreviewPath,
			Size:        d.Size,
			Format:      d.Format,
			CreatedAt:   parseTime(d.CreatedAt),
			SHA:         d.SHA,
		}
		if d.Resolution != nil {
			e.Resolution = &domain.Resolution{
				Width:  d.Resolution.Width,
				Height: d.Resolution.Height,
				Label:  d.Resolution.Label,
				Type:   d.Resolution.Type,
			}
		}
		entries = append(entries, e)
	}
	return entries
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// normalizeCounters accepts both counter file shapes and returns one
// canonical map. Array shape: [{image_id, views|total_views, ...}].
// Object shape: {image_id: n} or {image_id: {views, downloads}}.
func normalizeCounters(raw []byte) (map[string]domain.CounterRecord, error) {
	out := make(map[string]domain.CounterRecord)

	var rows []counterRecordDTO
	if err := json.Unmarshal(raw, &rows); err == nil {
		for _, r := range rows {
			if r.ImageID == "" {
				continue
			}
			out[r.ImageID] = domain.CounterRecord{
				Views:     firstNonZero(r.Views, r.TotalViews),
				Downloads: firstNonZero(r.Downloads, r.TotalDownloads),
			}
		}
		return out, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	for id, v := range obj {
		var n int
		if err := json.Unmarshal(v, &n); err == nil {
			out[id] = domain.CounterRecord{Views: n}
			continue
		}
		var rec counterRecordDTO
		if err := json.Unmarshal(v, &rec); err != nil {
			continue
		}
		out[id] = domain.CounterRecord{
			Views:     firstNonZero(rec.Views, rec.TotalViews),
			Downloads: firstNonZero(rec.Downloads, rec.TotalDownloads),
		}
	}
	return out, nil
}

func firstNonZero(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}
