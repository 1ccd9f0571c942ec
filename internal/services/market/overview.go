package market

import (
	"sort"
	"time"
)

// CommodityCount is a commodity with its number of price rows.
type CommodityCount struct {
	Commodity string `json:"commodity"`
	Rows      int    `json:"rows"`
}

// Overview summarizes the loaded table for the dashboard landing page.
type Overview struct {
	Commodities    int              `json:"commodities"`
	ActiveStates   int              `json:"active_states"`
	Rows           int              `json:"rows"`
	LastUpdate     *time.Time       `json:"last_update"`
	TopCommodities []CommodityCount `json:"top_commodities"`
}

// Summarize counts distinct commodities and states and ranks the top traded
// commodities by row count, ties broken by name.
func Summarize(t *Table, top int) Overview {
	ov := Overview{TopCommodities: []CommodityCount{}}
	if t == nil || t.SchemaErr() != nil {
		return ov
	}
	if top <= 0 {
		top = 5
	}

	counts := make(map[string]int)
	states := make(map[string]struct{})
	var last time.Time
	for _, r := range t.Records {
		counts[r.Commodity]++
		if r.State != "" {
			states[r.State] = struct{}{}
		}
		if r.Date.After(last) {
			last = r.Date
		}
	}
	ov.Commodities = len(counts)
	ov.ActiveStates = len(states)
	ov.Rows = len(t.Records)
	if !last.IsZero() {
		ov.LastUpdate = &last
	}

	for c, n := range counts {
		ov.TopCommodities = append(ov.TopCommodities, CommodityCount{Commodity: c, Rows: n})
	}
	sort.Slice(ov.TopCommodities, func(i, j int) bool {
		a, b := ov.TopCommodities[i], ov.TopCommodities[j]
		if a.Rows != b.Rows {
			return a.Rows > b.Rows
		}
		return a.Commodity < b.Commodity
	})
	if len(ov.TopCommodities) > top {
		ov.TopCommodities = ov.TopCommodities[:top]
	}
	return ov
}
