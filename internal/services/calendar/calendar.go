// Package calendar holds the static crop calendar, the seasonal crop guide and
// the daily rain alert.
package calendar

import (
	"context"
	"fmt"
	"strings"
)

// Entry is one sowing/harvest row.
type Entry struct {
	Crop          string `json:"crop"`
	Region        string `json:"region"`
	SowingPeriod  string `json:"sowing_period"`
	HarvestPeriod string `json:"harvest_period"`
}

var entries = []Entry{
	{Crop: "Wheat", Region: "North India", SowingPeriod: "Nov - Dec", HarvestPeriod: "Mar - Apr"},
	{Crop: "Rice", Region: "East India", SowingPeriod: "Jun - Jul", HarvestPeriod: "Oct - Nov"},
	{Crop: "Maize", Region: "Pan India", SowingPeriod: "Jun - Jul", HarvestPeriod: "Oct - Nov"},
	{Crop: "Millet", Region: "Central India", SowingPeriod: "Jun - Jul", HarvestPeriod: "Oct - Nov"},
	{Crop: "Sugarcane", Region: "Pan India", SowingPeriod: "Feb - Apr", HarvestPeriod: "Nov - Mar"},
}

// Entries returns a copy of the calendar in display order.
func Entries() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Lookup finds a crop case-insensitively. Unknown crops get the default entry
// (region "Unknown", periods "N/A") and ok=false.
func Lookup(crop string) (Entry, bool) {
	name := strings.TrimSpace(crop)
	for _, e := range entries {
		if strings.EqualFold(e.Crop, name) {
			return e, true
		}
	}
	return Entry{Crop: name, Region: "Unknown", SowingPeriod: "N/A", HarvestPeriod: "N/A"}, false
}

// Season of the seasonal guide.
type Season string

const (
	Summer Season = "summer"
	Winter Season = "winter"
	Rainy  Season = "rainy"
)

// GuideCrop is a crop suggested for a season.
type GuideCrop struct {
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

var guide = map[Season][]GuideCrop{
	Summer: {
		{"Tomato", "Grows in warm weather. Requires regular watering and fertile soil."},
		{"Chili", "Prefers hot climate. Used for spices and culinary purposes."},
		{"Maize", "Fast-growing cereal. Needs sunny environment and good soil."},
		{"Soybean", "Grows well in moderate heat. Improves soil fertility."},
		{"Brinjal", "Warm-season vegetable. Requires irrigation and sunlight."},
	},
	Winter: {
		{"Wheat", "Staple cereal. Thrives in cool climate and moderate rainfall."},
		{"Carrot", "Root vegetable. Prefers loose, sandy soil."},
		{"Cabbage", "Leafy vegetable. Needs cool weather and fertile soil."},
		{"Cauliflower", "Cool-season vegetable. Well-drained soil is necessary."},
		{"Peas", "Legume crop. Grows in cool conditions and rich soil."},
	},
	Rainy: {
		{"Rice", "Grows in waterlogged fields. Needs high rainfall."},
		{"Millet", "Drought-resistant, grows fast in wet or semi-wet regions."},
		{"Potato", "Prefers cool and wet climate. Tubers develop well."},
		{"Onion", "Requires moderate rainfall and fertile soil."},
		{"Brinjal", "Can tolerate rainy conditions with proper drainage."},
	},
}

// Guide returns the seasonal crop guide, or a single season when one is named.
func Guide(season string) (map[Season][]GuideCrop, error) {
	s := Season(strings.ToLower(strings.TrimSpace(season)))
	if s == "" {
		out := make(map[Season][]GuideCrop, len(guide))
		for k, v := range guide {
			out[k] = append([]GuideCrop(nil), v...)
		}
		return out, nil
	}
	crops, ok := guide[s]
	if !ok {
		return nil, fmt.Errorf("unknown season %q", season)
	}
	return map[Season][]GuideCrop{s: append([]GuideCrop(nil), crops...)}, nil
}

// RainSource reports today's precipitation at a point.
type RainSource interface {
	TodayPrecipitation(ctx context.Context, lat, lon float64) (float64, error)
}

// RainAlert is the daily rain check.
type RainAlert struct {
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	PrecipitationMM float64 `json:"precipitation_mm"`
	Alert           bool    `json:"alert"`
	Message         string  `json:"message"`
}

// New Delhi, the default point of the alert form.
const (
	DefaultLatitude  = 28.6139
	DefaultLongitude = 77.2090
)

// CheckRain raises an alert when any rain is expected today.
func CheckRain(ctx context.Context, src RainSource, lat, lon float64) (RainAlert, error) {
	mm, err := src.TodayPrecipitation(ctx, lat, lon)
	if err != nil {
		return RainAlert{}, fmt.Errorf("fetch precipitation: %w", err)
	}
	a := RainAlert{Latitude: lat, Longitude: lon, PrecipitationMM: mm}
	if mm > 0 {
		a.Alert = true
		a.Message = fmt.Sprintf("Rain expected today: %.1f mm. Take preventive measures.", mm)
	} else {
		a.Message = "No rain expected today. Good to proceed with scheduled activities."
	}
	return a, nil
}
