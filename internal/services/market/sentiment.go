package market

import (
	"fmt"
	"strings"
)

// Sentiment is a coarse three-way trend label.
type Sentiment string

const (
	Bullish Sentiment = "bullish"
	Bearish Sentiment = "bearish"
	Stable  Sentiment = "stable"
)

// SentimentMode selects how the trend label is derived.
type SentimentMode string

const (
	// SentimentPrice compares the latest modal price with the average.
	SentimentPrice SentimentMode = "price"
	// SentimentHeadline scores short headlines built from day to day moves.
	SentimentHeadline SentimentMode = "headline"
)

// ParseSentimentMode accepts "price" or "headline".
func ParseSentimentMode(s string) (SentimentMode, error) {
	switch SentimentMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", SentimentPrice:
		return SentimentPrice, nil
	case SentimentHeadline:
		return SentimentHeadline, nil
	}
	return "", fmt.Errorf("unknown sentiment mode %q", s)
}

// PriceSentiment labels the relative gap between latest and average.
func PriceSentiment(latest, avg, threshold float64) Sentiment {
	if avg == 0 {
		return Stable
	}
	change := (latest - avg) / avg
	switch {
	case change > threshold:
		return Bullish
	case change < -threshold:
		return Bearish
	}
	return Stable
}

const headlineCutoff = 0.1

var polarity = map[string]float64{
	"surge":     0.8,
	"jump":      0.6,
	"rise":      0.5,
	"firm":      0.3,
	"steady":    0,
	"unchanged": 0,
	"ease":      -0.3,
	"fall":      -0.5,
	"drop":      -0.6,
	"slump":     -0.8,
}

// Headlines synthesizes one headline per consecutive price move, oldest move
// first. rows must be sorted newest first.
func Headlines(rows []Record) []string {
	if len(rows) < 2 {
		return nil
	}
	out := make([]string, 0, len(rows)-1)
	for i := len(rows) - 1; i > 0; i-- {
		prev, cur := rows[i], rows[i-1]
		out = append(out, fmt.Sprintf("%s prices %s at %s",
			cur.Commodity, moveVerb(prev.ModalPrice, cur.ModalPrice), placeOf(cur)))
	}
	return out
}

func moveVerb(prev, cur float64) string {
	if prev == 0 {
		return "steady"
	}
	change := (cur - prev) / prev
	switch {
	case change > 0.10:
		return "surge"
	case change > 0.05:
		return "jump"
	case change > 0.01:
		return "rise"
	case change > 0:
		return "firm"
	case change == 0:
		return "unchanged"
	case change > -0.01:
		return "ease"
	case change > -0.05:
		return "fall"
	case change > -0.10:
		return "drop"
	}
	return "slump"
}

func placeOf(r Record) string {
	switch {
	case r.Market != "":
		return r.Market
	case r.State != "":
		return r.State
	}
	return "mandis"
}

// HeadlineSentiment averages lexicon polarity over headlines. No headlines is
// stable.
func HeadlineSentiment(headlines []string) Sentiment {
	if len(headlines) == 0 {
		return Stable
	}
	total := 0.0
	for _, h := range headlines {
		total += headlinePolarity(h)
	}
	score := total / float64(len(headlines))
	switch {
	case score > headlineCutoff:
		return Bullish
	case score < -headlineCutoff:
		return Bearish
	}
	return Stable
}

func headlinePolarity(h string) float64 {
	score, hits := 0.0, 0
	for _, w := range strings.Fields(strings.ToLower(h)) {
		if p, ok := polarity[strings.Trim(w, ".,;:!?")]; ok {
			score += p
			hits++
		}
	}
	if hits == 0 {
		return 0
	}
	return score / float64(hits)
}
