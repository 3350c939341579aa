package view

import (
	"testing"

	"github.com/seralin/muro/internal/domain"
	"github.com/stretchr/testify/assert"
)

func testLookup(counters map[string]domain.CounterRecord) CounterLookup {
	return func(filename string) domain.CounterRecord {
		return counters[filename]
	}
}

func TestSortByDate(t *testing.T) {
	entries := sampleEntries()

	got := Sort(entries, SortNewest, nil)
	assert.Equal(t, []string{"4", "3", "2", "1"}, ids(got))

	got = Sort(entries, SortOldest, nil)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(got))
}

func TestSortBySize(t *testing.T) {
	entries := sampleEntries()

	got := Sort(entries, SortLargest, nil)
	assert.Equal(t, []string{"2", "4", "1", "3"}, ids(got))

	got = Sort(entries, SortSmallest, nil)
	assert.Equal(t, []string{"3", "1", "4", "2"}, ids(got))
}

func TestSortByName(t *testing.T) {
	entries := sampleEntries()

	got := Sort(entries, SortNameAsc, nil)
	assert.Equal(t, []string{"2", "3", "4", "1"}, ids(got))

	got = Sort(entries, SortNameDesc, nil)
	assert.Equal(t, []string{"1", "4", "3", "2"}, ids(got))
}

func TestSortByCounters(t *testing.T) {
	entries := sampleEntries()
	lookup := testLookup(map[string]domain.CounterRecord{
		"sunrise-beach.jpg": {Views: 10, Downloads: 1}, // score 12
		"city-night.png":    {Views: 2, Downloads: 5},  // score 12
		"forest-path.jpg":   {Views: 30},               // score 30
		"skyline.jpg":       {Downloads: 2},            // score 4
	})

	// Equal scores surface the newest entry first
	got := Sort(entries, SortPopular, lookup)
	assert.Equal(t, []string{"3", "2", "1", "4"}, ids(got))

	got = Sort(entries, SortViews, lookup)
	assert.Equal(t, []string{"3", "1", "2", "4"}, ids(got))

	got = Sort(entries, SortDownloads, lookup)
	assert.Equal(t, []string{"2", "4", "1", "3"}, ids(got))
}

func TestSortNilLookup(t *testing.T) {
	entries := sampleEntries()

	// All scores zero; tie-break puts newest first
	got := Sort(entries, SortPopular, nil)
	assert.Equal(t, []string{"4", "3", "2", "1"}, ids(got))
}

func TestSortUnknownKeyKeepsOrder(t *testing.T) {
	entries := sampleEntries()
	got := Sort(entries, SortKey("bogus"), nil)
	assert.Equal(t, ids(entries), ids(got))
}

func TestSortDoesNotMutateInput(t *testing.T) {
	entries := sampleEntries()
	Sort(entries, SortNewest, nil)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(entries))
}

func TestProject(t *testing.T) {
	entries := sampleEntries()
	got := Project(entries, FilterState{Format: "jpg"}, SortLargest, nil)
	assert.Equal(t, []string{"4", "1", "3"}, ids(got))
}
