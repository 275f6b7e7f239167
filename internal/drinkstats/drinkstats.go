// Package drinkstats derives everything the drink log displays from one
// snapshot of a user's records: the date-filtered list, quick-order
// suggestions, autocomplete vocabularies and the store-frequency chart.
//
// Every function expects records ordered most-recent-first, as the record
// store delivers them, and never re-sorts them. All functions are pure: they
// never mutate their input, never fail, and return empty (non-nil) results
// for empty input.
package drinkstats

import (
	"sort"

	"drinklog/internal/models"
)

// Reference limits for quick orders and the store chart.
const (
	DefaultQuickOrderLimit = 6
	DefaultTopStoreLimit   = 5
)

// Field names a free-text record attribute with a vocabulary.
type Field string

const (
	FieldStore Field = "store"
	FieldItem  Field = "item"
)

func (f Field) value(d models.Drink) string {
	switch f {
	case FieldStore:
		return d.Store
	case FieldItem:
		return d.Item
	}
	return ""
}

// DateRange bounds the Date field inclusively. An empty bound is unbounded.
type DateRange struct {
	Start string `json:"start_date,omitempty"`
	End   string `json:"end_date,omitempty"`
}

// Contains reports whether an ISO date falls within the range.
func (r DateRange) Contains(date string) bool {
	if r.Start != "" && date < r.Start {
		return false
	}
	if r.End != "" && date > r.End {
		return false
	}
	return true
}

// IsZero reports whether both bounds are unset.
func (r DateRange) IsZero() bool {
	return r.Start == "" && r.End == ""
}

// FilterByDateRange keeps the records whose Date lies within r, preserving
// order. With both bounds unset it returns a copy of records.
func FilterByDateRange(records []models.Drink, r DateRange) []models.Drink {
	out := make([]models.Drink, 0, len(records))
	for _, rec := range records {
		if r.Contains(rec.Date) {
			out = append(out, rec)
		}
	}
	return out
}

type comboKey struct {
	store, item, ice, sugar string
}

func keyOf(d models.Drink) comboKey {
	return comboKey{store: d.Store, item: d.Item, ice: d.Ice, sugar: d.Sugar}
}

// RecentDistinctCombos returns the most recent record of each distinct
// (store, item, ice, sugar) combo, in first-seen order, capped at limit.
// Empty ice or sugar values form their own combo rather than being skipped.
func RecentDistinctCombos(records []models.Drink, limit int) []models.Drink {
	if limit <= 0 {
		return []models.Drink{}
	}
	seen := make(map[comboKey]struct{}, limit)
	out := make([]models.Drink, 0, limit)
	for _, rec := range records {
		k := keyOf(rec)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}
	return out
}

// DistinctNonEmpty collects the distinct non-empty values of field. The
// result is in first-seen order, though callers must not rely on ordering.
func DistinctNonEmpty(records []models.Drink, field Field) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, rec := range records {
		v := field.value(rec)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// StoreCount is one bar of the store-frequency chart.
type StoreCount struct {
	Store string `json:"store"`
	Count int    `json:"count"`
}

// TopStoresByFrequency counts visits per store and returns the topN busiest,
// highest count first. Records with an empty store are not counted. Ties keep
// first-seen order, so the more recently visited store ranks higher.
func TopStoresByFrequency(records []models.Drink, topN int) []StoreCount {
	if topN <= 0 {
		return []StoreCount{}
	}
	index := make(map[string]int)
	counts := []StoreCount{}
	for _, rec := range records {
		if rec.Store == "" {
			continue
		}
		if i, ok := index[rec.Store]; ok {
			counts[i].Count++
			continue
		}
		index[rec.Store] = len(counts)
		counts = append(counts, StoreCount{Store: rec.Store, Count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if len(counts) > topN {
		counts = counts[:topN]
	}
	return counts
}

// DateBounds returns the earliest and latest non-empty Date in records.
func DateBounds(records []models.Drink) (min, max string, ok bool) {
	for _, rec := range records {
		if rec.Date == "" {
			continue
		}
		if !ok || rec.Date < min {
			min = rec.Date
		}
		if !ok || rec.Date > max {
			max = rec.Date
		}
		ok = true
	}
	return min, max, ok
}
