package drinkstats

import "drinklog/internal/models"

// ViewOptions caps the derived lists. Zero values fall back to the defaults.
type ViewOptions struct {
	QuickOrderLimit int
	TopStoreLimit   int
}

func (o ViewOptions) withDefaults() ViewOptions {
	if o.QuickOrderLimit <= 0 {
		o.QuickOrderLimit = DefaultQuickOrderLimit
	}
	if o.TopStoreLimit <= 0 {
		o.TopStoreLimit = DefaultTopStoreLimit
	}
	return o
}

// View is everything a client renders for one snapshot. It is recomputed
// from scratch for every snapshot; nothing carries over between views.
type View struct {
	Range       DateRange      `json:"range"`
	Records     []models.Drink `json:"records"`
	RecordCount int            `json:"record_count"`
	TotalCount  int            `json:"total_count"`
	QuickOrders []models.Drink `json:"quick_orders"`
	Stores      []string       `json:"stores"`
	Items       []string       `json:"items"`
	TopStores   []StoreCount   `json:"top_stores"`
}

// ShowChart reports whether the store chart has anything to draw.
func (v View) ShowChart() bool {
	return len(v.TopStores) > 0
}

// BuildView derives a View from a snapshot. Only Records honours the date
// range; quick orders, vocabularies and the chart always reflect the whole
// history.
func BuildView(snapshot []models.Drink, r DateRange, opts ViewOptions) View {
	opts = opts.withDefaults()
	filtered := FilterByDateRange(snapshot, r)
	return View{
		Range:       r,
		Records:     filtered,
		RecordCount: len(filtered),
		TotalCount:  len(snapshot),
		QuickOrders: RecentDistinctCombos(snapshot, opts.QuickOrderLimit),
		Stores:      DistinctNonEmpty(snapshot, FieldStore),
		Items:       DistinctNonEmpty(snapshot, FieldItem),
		TopStores:   TopStoresByFrequency(snapshot, opts.TopStoreLimit),
	}
}
