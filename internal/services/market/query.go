package market

import (
	"math"
	"sort"
	"strings"
)

// Status of a market query.
type Status string

const (
	StatusSuccess Status = "success"
	StatusNoData  Status = "no_data"
	StatusError   Status = "error"
)

// FallbackMessage is shown when regional rows were missing and national rows
// are returned instead.
const FallbackMessage = "no exact regional match; showing national data"

// Options tunes queries. Zero values fall back to defaults.
type Options struct {
	RecentLimit        int
	Sentiment          SentimentMode
	SentimentThreshold float64
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		RecentLimit:        10,
		Sentiment:          SentimentPrice,
		SentimentThreshold: 0.02,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.RecentLimit <= 0 {
		o.RecentLimit = d.RecentLimit
	}
	if o.Sentiment == "" {
		o.Sentiment = d.Sentiment
	}
	if o.SentimentThreshold <= 0 {
		o.SentimentThreshold = d.SentimentThreshold
	}
	return o
}

// Insights are aggregates over every matching row.
type Insights struct {
	CurrentModal   float64   `json:"current_modal"`
	AvgPrice       float64   `json:"avg_price"`
	TrendSentiment Sentiment `json:"trend_sentiment"`
	Volatility     float64   `json:"volatility"`
}

// QueryResult is always well formed; Status tells the three outcomes apart.
type QueryResult struct {
	Status           Status    `json:"status"`
	Commodity        string    `json:"commodity"`
	Region           string    `json:"region,omitempty"`
	NationalFallback bool      `json:"national_fallback"`
	Message          string    `json:"message,omitempty"`
	Data             []Record  `json:"data"`
	Insights         *Insights `json:"insights,omitempty"`
	TotalMatches     int       `json:"total_matches"`
}

// Query filters the table by commodity substring and, optionally, exact state,
// falling back to national rows when the region has none.
func Query(t *Table, commodity, region string, opts Options) QueryResult {
	opts = opts.withDefaults()
	commodity = strings.TrimSpace(commodity)
	region = strings.TrimSpace(region)
	res := QueryResult{Commodity: commodity, Region: region, Data: []Record{}}

	if err := t.SchemaErr(); err != nil {
		res.Status = StatusError
		res.Message = err.Error()
		return res
	}
	if commodity == "" {
		res.Status = StatusError
		res.Message = "commodity is required"
		return res
	}

	matches := filter(t, commodity, region)
	if len(matches) == 0 && region != "" {
		matches = filter(t, commodity, "")
		if len(matches) > 0 {
			res.NationalFallback = true
			res.Message = FallbackMessage
		}
	}
	if len(matches) == 0 {
		res.Status = StatusNoData
		res.Message = "no market data for " + commodity
		return res
	}

	sortRecent(matches)
	res.Status = StatusSuccess
	res.TotalMatches = len(matches)
	res.Insights = insights(matches, opts)
	if len(matches) > opts.RecentLimit {
		matches = matches[:opts.RecentLimit]
	}
	res.Data = matches
	return res
}

// filter returns matching rows in table order. The result is a fresh slice so
// callers may reorder it.
func filter(t *Table, commodity, region string) []Record {
	c := strings.ToLower(commodity)
	var out []Record
	for _, r := range t.Records {
		if !strings.Contains(strings.ToLower(r.Commodity), c) {
			continue
		}
		if region != "" && !strings.EqualFold(strings.TrimSpace(r.State), region) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// sortRecent orders rows newest first. Rows sharing a date keep the later table
// row first, so the last entry of a day is treated as the current one.
func sortRecent(rows []Record) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.After(rows[j].Date)
	})
}

// insights expects rows sorted newest first.
func insights(rows []Record, opts Options) *Insights {
	modal := make([]float64, len(rows))
	for i, r := range rows {
		modal[i] = r.ModalPrice
	}
	avg := Mean(modal)
	in := &Insights{
		CurrentModal: rows[0].ModalPrice,
		AvgPrice:     round2(avg),
		Volatility:   round2(SampleStdDev(modal)),
	}
	switch opts.Sentiment {
	case SentimentHeadline:
		in.TrendSentiment = HeadlineSentiment(Headlines(rows))
	default:
		in.TrendSentiment = PriceSentiment(rows[0].ModalPrice, avg, opts.SentimentThreshold)
	}
	return in
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
