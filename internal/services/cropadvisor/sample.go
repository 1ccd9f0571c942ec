package cropadvisor

import "math"

// Sample is one soil/weather observation. Fields are pointers so a missing
// measurement is distinguishable from zero. The binding tags are the ranges the
// HTTP layer enforces; the advisor itself only checks shape.
type Sample struct {
	Nitrogen    *float64 `json:"nitrogen" form:"nitrogen" binding:"required,gte=0,lte=140"`
	Phosphorus  *float64 `json:"phosphorus" form:"phosphorus" binding:"required,gte=5,lte=145"`
	Potassium   *float64 `json:"potassium" form:"potassium" binding:"required,gte=5,lte=205"`
	Temperature *float64 `json:"temperature" form:"temperature" binding:"required"`
	Humidity    *float64 `json:"humidity" form:"humidity" binding:"required,gte=0,lte=100"`
	PH          *float64 `json:"ph" form:"ph" binding:"required,gte=0,lte=14"`
	Rainfall    *float64 `json:"rainfall" form:"rainfall" binding:"required,gte=0"`
}

// NewSample builds a complete sample.
func NewSample(n, p, k, temperature, humidity, ph, rainfall float64) Sample {
	return Sample{
		Nitrogen:    &n,
		Phosphorus:  &p,
		Potassium:   &k,
		Temperature: &temperature,
		Humidity:    &humidity,
		PH:          &ph,
		Rainfall:    &rainfall,
	}
}

// Vector assembles the raw feature vector in canonical order.
func (s Sample) Vector() ([]float64, error) {
	fields := []struct {
		name string
		v    *float64
	}{
		{"nitrogen", s.Nitrogen},
		{"phosphorus", s.Phosphorus},
		{"potassium", s.Potassium},
		{"temperature", s.Temperature},
		{"humidity", s.Humidity},
		{"ph", s.PH},
		{"rainfall", s.Rainfall},
	}
	x := make([]float64, len(fields))
	for i, f := range fields {
		if f.v == nil {
			return nil, &FeatureError{Field: f.name, Reason: "missing"}
		}
		if math.IsNaN(*f.v) || math.IsInf(*f.v, 0) {
			return nil, &FeatureError{Field: f.name, Reason: "not a finite number"}
		}
		x[i] = *f.v
	}
	return x, nil
}
