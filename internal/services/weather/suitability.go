package weather

import (
	"context"
	"sort"
)

// Requirement is the climate a crop needs.
type Requirement struct {
	Crop    string
	MinTemp float64
	MaxTemp float64
	MinRain float64
}

// DefaultRequirements cover the crops of the land analyzer.
var DefaultRequirements = []Requirement{
	{Crop: "Wheat", MinTemp: 10, MaxTemp: 25, MinRain: 50},
	{Crop: "Rice", MinTemp: 20, MaxTemp: 35, MinRain: 150},
	{Crop: "Maize", MinTemp: 18, MaxTemp: 30, MinRain: 60},
	{Crop: "Cotton", MinTemp: 22, MaxTemp: 32, MinRain: 70},
}

// Suitability is a crop score out of 100.
type Suitability struct {
	Crop  string `json:"crop"`
	Score int    `json:"score"`
	Label string `json:"label"`
}

// Score ranks crops: 40 points for temperature in band, 60 for enough rain.
// Labels are High above 70, Medium above 40, Low otherwise.
func Score(reqs []Requirement, temp, rain float64) []Suitability {
	out := make([]Suitability, 0, len(reqs))
	for _, r := range reqs {
		score := 0
		if temp >= r.MinTemp && temp <= r.MaxTemp {
			score += 40
		}
		if rain >= r.MinRain {
			score += 60
		}
		out = append(out, Suitability{Crop: r.Crop, Score: score, Label: label(score)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func label(score int) string {
	switch {
	case score > 70:
		return "High"
	case score > 40:
		return "Medium"
	}
	return "Low"
}

// LandReport is the suitability of a point given its forecast window.
type LandReport struct {
	Latitude    float64       `json:"latitude"`
	Longitude   float64       `json:"longitude"`
	AvgTemp     float64       `json:"avg_temp_c"`
	TotalRain   float64       `json:"total_rain_mm"`
	Suitability []Suitability `json:"suitability"`
}

// AnalyzeLand scores the default crops against the mean daily maximum
// temperature and total precipitation of the forecast window.
func (c *Client) AnalyzeLand(ctx context.Context, lat, lon float64) (LandReport, error) {
	d, err := c.Daily(ctx, lat, lon)
	if err != nil {
		return LandReport{}, err
	}
	sumT, rain := 0.0, 0.0
	for i := range d.Time {
		sumT += d.TemperatureMax[i]
		rain += d.PrecipitationSum[i]
	}
	avg := sumT / float64(len(d.Time))
	return LandReport{
		Latitude:    lat,
		Longitude:   lon,
		AvgTemp:     avg,
		TotalRain:   rain,
		Suitability: Score(DefaultRequirements, avg, rain),
	}, nil
}
