package market

import (
	"math"
	"sort"
	"time"
)

// Mean of values; 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SampleStdDev is the n-1 standard deviation. Fewer than two values give 0.
func SampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// MovingAverage is the simple moving average over period values. Positions
// before the first full window are NaN.
func MovingAverage(prices []float64, period int) []float64 {
	result := make([]float64, len(prices))
	for i := range result {
		result[i] = math.NaN()
	}
	if period <= 0 || len(prices) < period {
		return result
	}
	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			result[i] = sum / float64(period)
		}
	}
	return result
}

// ExponentialMovingAverage seeds with the SMA of the first period values.
func ExponentialMovingAverage(prices []float64, period int) []float64 {
	result := make([]float64, len(prices))
	for i := range result {
		result[i] = math.NaN()
	}
	if period <= 0 || len(prices) < period {
		return result
	}
	multiplier := 2.0 / (float64(period) + 1)
	result[period-1] = Mean(prices[:period])
	for i := period; i < len(prices); i++ {
		result[i] = prices[i]*multiplier + result[i-1]*(1-multiplier)
	}
	return result
}

// Bands returns moving average bands of width k sample deviations.
func Bands(prices []float64, period int, k float64) (upper, middle, lower []float64) {
	middle = MovingAverage(prices, period)
	upper = make([]float64, len(prices))
	lower = make([]float64, len(prices))
	for i := range prices {
		if math.IsNaN(middle[i]) {
			upper[i], lower[i] = math.NaN(), math.NaN()
			continue
		}
		sd := SampleStdDev(prices[i-period+1 : i+1])
		upper[i] = middle[i] + k*sd
		lower[i] = middle[i] - k*sd
	}
	return upper, middle, lower
}

// SeriesPoint is the mean modal price of one day with indicator overlays.
// Overlays are nil until their window fills.
type SeriesPoint struct {
	Date       time.Time `json:"date"`
	ModalPrice float64   `json:"modal_price"`
	Markets    int       `json:"markets"`
	MA         *float64  `json:"ma,omitempty"`
	EMA        *float64  `json:"ema,omitempty"`
	BandUpper  *float64  `json:"band_upper,omitempty"`
	BandLower  *float64  `json:"band_lower,omitempty"`
}

// Series builds a daily price series, oldest first, for rows matching the
// commodity and region. The region filter does not fall back.
func Series(t *Table, commodity, region string, window int) []SeriesPoint {
	if t.SchemaErr() != nil || commodity == "" {
		return nil
	}
	if window <= 0 {
		window = 7
	}
	rows := filter(t, commodity, region)

	byDay := make(map[time.Time][]float64)
	for _, r := range rows {
		day := r.Date.Truncate(24 * time.Hour)
		byDay[day] = append(byDay[day], r.ModalPrice)
	}
	days := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	points := make([]SeriesPoint, len(days))
	prices := make([]float64, len(days))
	for i, d := range days {
		prices[i] = round2(Mean(byDay[d]))
		points[i] = SeriesPoint{Date: d, ModalPrice: prices[i], Markets: len(byDay[d])}
	}

	ma := MovingAverage(prices, window)
	ema := ExponentialMovingAverage(prices, window)
	upper, _, lower := Bands(prices, window, 2)
	for i := range points {
		points[i].MA = finite(ma[i])
		points[i].EMA = finite(ema[i])
		points[i].BandUpper = finite(upper[i])
		points[i].BandLower = finite(lower[i])
	}
	return points
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	v = round2(v)
	return &v
}
