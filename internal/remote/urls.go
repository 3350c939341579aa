package remote

import (
	"strings"

	"github.com/seralin/muro/internal/domain"
)

// BuildAssetURL joins a CDN base with a relative asset path. Pure.
func BuildAssetURL(base, rel string) string {
	if rel == "" {
		return ""
	}
	if strings.HasPrefix(rel, "http://") || strings.HasPrefix(rel, "https://") {
		return rel
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(rel, "/")
}

// ResolveAssetURLs fills an entry's absolute URLs from its relative paths.
// The input entry is copied, never mutated. Pure.
func ResolveAssetURLs(e domain.Entry, cdnBase string) domain.Entry {
	e.URL = BuildAssetURL(cdnBase, e.Path)
	e.ThumbURL = BuildAssetURL(cdnBase, e.ThumbPath)
	if e.PreviewPath != "" {
		e.PreviewURL = BuildAssetURL(cdnBase, e.PreviewPath)
	}
	return e
}
