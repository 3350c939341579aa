// Package view derives filtered, sorted projections of the merged
// collection. Every function is pure: inputs are never mutated and results
// are fresh slices.
package view

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/seralin/muro/internal/domain"
)

// FilterState holds the current query and filter selections. Zero values
// and "all" both mean "no restriction".
type FilterState struct {
	Query       string
	Format      string
	Category    string
	Subcategory string
}

// Active reports whether any restriction is set.
func (f FilterState) Active() bool {
	return f.Query != "" ||
		isSet(f.Format) || isSet(f.Category) || isSet(f.Subcategory)
}

func isSet(v string) bool {
	return v != "" && v != "all"
}

// Filter returns the entries matching the filter state.
func Filter(entries []domain.Entry, state FilterState) []domain.Entry {
	out := make([]domain.Entry, 0, len(entries))
	for _, e := range entries {
		if !matches(e, state) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matches(e domain.Entry, state FilterState) bool {
	if state.Query != "" && !matchesQuery(e, state.Query) {
		return false
	}
	if isSet(state.Format) && !strings.EqualFold(e.Format, state.Format) {
		return false
	}
	if isSet(state.Category) && e.Category != state.Category {
		return false
	}
	if isSet(state.Subcategory) && e.Subcategory != state.Subcategory {
		return false
	}
	return true
}

func matchesQuery(e domain.Entry, query string) bool {
	return fuzzy.MatchFold(query, e.Filename) ||
		fuzzy.MatchFold(query, e.Category) ||
		(e.Subcategory != "" && fuzzy.MatchFold(query, e.Subcategory))
}

// CategoryOption is one selectable category with its entry count.
type CategoryOption struct {
	Value         string
	Count         int
	Subcategories []CategoryOption
}

// CategoryOptions derives the selectable category list from a collection,
// ordered by entry count descending. The first option is the "all" bucket.
func CategoryOptions(entries []domain.Entry) []CategoryOption {
	counts := make(map[string]int)
	subCounts := make(map[string]map[string]int)
	for _, e := range entries {
		if e.Category == "" {
			continue
		}
		counts[e.Category]++
		if e.Subcategory != "" {
			if subCounts[e.Category] == nil {
				subCounts[e.Category] = make(map[string]int)
			}
			subCounts[e.Category][e.Subcategory]++
		}
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	opts := make([]CategoryOption, 0, len(names)+1)
	opts = append(opts, CategoryOption{Value: "all", Count: len(entries)})
	for _, name := range names {
		opt := CategoryOption{Value: name, Count: counts[name]}
		if subs := subCounts[name]; len(subs) > 0 {
			subNames := make([]string, 0, len(subs))
			for sub := range subs {
				subNames = append(subNames, sub)
			}
			sort.Slice(subNames, func(i, j int) bool {
				if subs[subNames[i]] != subs[subNames[j]] {
					return subs[subNames[i]] > subs[subNames[j]]
				}
				return subNames[i] < subNames[j]
			})
			for _, sub := range subNames {
				opt.Subcategories = append(opt.Subcategories, CategoryOption{Value: sub, Count: subs[sub]})
			}
		}
		opts = append(opts, opt)
	}
	return opts
}
