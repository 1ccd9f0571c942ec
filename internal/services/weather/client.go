// Package weather wraps the Open-Meteo forecast API and the Nominatim geocoder.
package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// Default endpoints. Both are free and need no key.
const (
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"
	DefaultGeocodeURL  = "https://nominatim.openstreetmap.org/search"
)

// ErrLocationNotFound is returned when the geocoder has no match.
var ErrLocationNotFound = errors.New("location not found")

// Config for Client. Zero values fall back to defaults.
type Config struct {
	ForecastURL string
	GeocodeURL  string
	Timezone    string
	UserAgent   string
	Timeout     time.Duration
	CacheTTL    time.Duration
}

// Daily holds the daily arrays of an Open-Meteo response.
type Daily struct {
	Time             []string  `json:"time"`
	TemperatureMax   []float64 `json:"temperature_2m_max"`
	TemperatureMin   []float64 `json:"temperature_2m_min"`
	PrecipitationSum []float64 `json:"precipitation_sum"`
}

type forecastResponse struct {
	Daily  *Daily `json:"daily"`
	Reason string `json:"reason"`
}

type geocodeHit struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Place is a geocoded location.
type Place struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type cachedPlace struct {
	place   Place
	expires time.Time
}

// Client is safe for concurrent use.
type Client struct {
	cfg    Config
	client *resty.Client

	cacheLock sync.RWMutex
	places    map[string]cachedPlace
}

// NewClient creates a weather client.
func NewClient(cfg Config) *Client {
	if cfg.ForecastURL == "" {
		cfg.ForecastURL = DefaultForecastURL
	}
	if cfg.GeocodeURL == "" {
		cfg.GeocodeURL = DefaultGeocodeURL
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Asia/Kolkata"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "agropulse/1.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}

	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetHeader("Accept", "application/json")

	return &Client{cfg: cfg, client: client, places: make(map[string]cachedPlace)}
}

// Daily fetches the daily forecast arrays for a point.
func (c *Client) Daily(ctx context.Context, lat, lon float64) (*Daily, error) {
	var out forecastResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":  strconv.FormatFloat(lat, 'f', 4, 64),
			"longitude": strconv.FormatFloat(lon, 'f', 4, 64),
			"daily":     "temperature_2m_max,temperature_2m_min,precipitation_sum",
			"timezone":  c.cfg.Timezone,
		}).
		SetResult(&out).
		SetError(&out).
		Get(c.cfg.ForecastURL)
	if err != nil {
		return nil, fmt.Errorf("forecast request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("forecast failed (HTTP %d): %s", resp.StatusCode(), out.Reason)
	}
	if out.Daily == nil || len(out.Daily.Time) == 0 {
		return nil, errors.New("forecast response has no daily data")
	}
	d := out.Daily
	n := len(d.Time)
	if len(d.TemperatureMax) != n || len(d.TemperatureMin) != n || len(d.PrecipitationSum) != n {
		return nil, errors.New("forecast response has mismatched daily arrays")
	}
	return d, nil
}

// TodayPrecipitation returns the first day's precipitation sum in mm.
func (c *Client) TodayPrecipitation(ctx context.Context, lat, lon float64) (float64, error) {
	d, err := c.Daily(ctx, lat, lon)
	if err != nil {
		return 0, err
	}
	return d.PrecipitationSum[0], nil
}

// Geocode resolves a place name. Results are cached for CacheTTL.
func (c *Client) Geocode(ctx context.Context, name string) (Place, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return Place{}, ErrLocationNotFound
	}

	c.cacheLock.RLock()
	cached, ok := c.places[key]
	c.cacheLock.RUnlock()
	if ok && time.Now().Before(cached.expires) {
		return cached.place, nil
	}

	var hits []geocodeHit
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"q": name, "format": "json", "limit": "1"}).
		SetResult(&hits).
		Get(c.cfg.GeocodeURL)
	if err != nil {
		return Place{}, fmt.Errorf("geocode request failed: %w", err)
	}
	if resp.IsError() {
		return Place{}, fmt.Errorf("geocode failed (HTTP %d)", resp.StatusCode())
	}
	if len(hits) == 0 {
		return Place{}, ErrLocationNotFound
	}
	lat, errLat := strconv.ParseFloat(hits[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(hits[0].Lon, 64)
	if errLat != nil || errLon != nil {
		return Place{}, fmt.Errorf("geocode returned bad coordinates %q,%q", hits[0].Lat, hits[0].Lon)
	}
	place := Place{Name: hits[0].DisplayName, Latitude: lat, Longitude: lon}

	c.cacheLock.Lock()
	c.places[key] = cachedPlace{place: place, expires: time.Now().Add(c.cfg.CacheTTL)}
	c.cacheLock.Unlock()
	return place, nil
}

// Forecast is one day of weather for a named location.
type Forecast struct {
	Location        string   `json:"location"`
	Date            string   `json:"date"`
	MaxTemperature  *float64 `json:"max_temp_c,omitempty"`
	MinTemperature  *float64 `json:"min_temp_c,omitempty"`
	PrecipitationMM *float64 `json:"precipitation_mm,omitempty"`
	Source          string   `json:"source"`
	Note            string   `json:"note"`
}

// Forecast sources.
const (
	SourceLive         = "live"
	SourceNotAvailable = "not_available"
)

// ForecastFor returns the live forecast for a location and date. Any failure
// yields a "not available" record instead of an error.
func (c *Client) ForecastFor(ctx context.Context, location string, date time.Time) Forecast {
	dateStr := date.Format("2006-01-02")
	fc := Forecast{
		Location: titleCase(location),
		Date:     dateStr,
		Source:   SourceNotAvailable,
		Note:     "No forecast found for this location/date",
	}

	place, err := c.Geocode(ctx, location)
	if err != nil {
		log.Printf("[weather] geocode %q: %v", location, err)
		return fc
	}
	d, err := c.Daily(ctx, place.Latitude, place.Longitude)
	if err != nil {
		log.Printf("[weather] forecast %q: %v", location, err)
		return fc
	}
	for i, day := range d.Time {
		if day != dateStr {
			continue
		}
		fc.MaxTemperature = &d.TemperatureMax[i]
		fc.MinTemperature = &d.TemperatureMin[i]
		fc.PrecipitationMM = &d.PrecipitationSum[i]
		fc.Source = SourceLive
		fc.Note = "This is real time weather."
		return fc
	}
	return fc
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
