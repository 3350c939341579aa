package service

// Cache key prefixes for memoized catalog data
const (
	// PrefixIndex is the prefix for series index caches (index:{series})
	PrefixIndex = "index:"

	// PrefixCategory is the prefix for category caches (cat:{series}:{file})
	PrefixCategory = "cat:"
)

func indexKey(series string) string {
	return PrefixIndex + series
}

func categoryKey(series, file string) string {
	return PrefixCategory + series + ":" + file
}
