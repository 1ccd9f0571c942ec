package api

import (
	"log"
	"net/http"
	"strings"
	"time"

	"agropulse/internal/services/calendar"

	"github.com/gin-gonic/gin"
)

func (h *APIHandler) ListCalendar(c *gin.Context) {
	respondOK(c, calendar.Entries())
}

// GetCalendar always answers; unknown crops get the default entry.
func (h *APIHandler) GetCalendar(c *gin.Context) {
	entry, found := calendar.Lookup(c.Param("crop"))
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "ok", "data": entry, "found": found})
}

func (h *APIHandler) SeasonGuide(c *gin.Context) {
	g, err := calendar.Guide(c.Query("season"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	respondOK(c, g)
}

// RainAlert checks today's rain at ?lat=&lon=, New Delhi by default.
func (h *APIHandler) RainAlert(c *gin.Context) {
	if h.Weather == nil {
		unavailable(c, "weather")
		return
	}
	lat, ok := queryFloat(c, "lat", calendar.DefaultLatitude)
	if !ok {
		return
	}
	lon, ok := queryFloat(c, "lon", calendar.DefaultLongitude)
	if !ok {
		return
	}
	alert, err := calendar.CheckRain(c.Request.Context(), h.Weather, lat, lon)
	if err != nil {
		log.Printf("[api] rain alert: %v", err)
		respondError(c, http.StatusBadGateway, "weather service unavailable")
		return
	}
	respondOK(c, alert)
}

// Forecast looks up ?location= for ?date= (YYYY-MM-DD, today by default).
func (h *APIHandler) Forecast(c *gin.Context) {
	if h.Weather == nil {
		unavailable(c, "weather")
		return
	}
	location := strings.TrimSpace(c.Query("location"))
	if location == "" {
		respondError(c, http.StatusBadRequest, "location is required")
		return
	}
	date := time.Now()
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = d
	}
	respondOK(c, h.Weather.ForecastFor(c.Request.Context(), location, date))
}

// LandSuitability scores the default crops for ?lat=&lon=.
func (h *APIHandler) LandSuitability(c *gin.Context) {
	if h.Weather == nil {
		unavailable(c, "weather")
		return
	}
	if c.Query("lat") == "" || c.Query("lon") == "" {
		respondError(c, http.StatusBadRequest, "lat and lon are required")
		return
	}
	lat, ok := queryFloat(c, "lat", 0)
	if !ok {
		return
	}
	lon, ok := queryFloat(c, "lon", 0)
	if !ok {
		return
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		respondError(c, http.StatusBadRequest, "coordinates out of range")
		return
	}
	report, err := h.Weather.AnalyzeLand(c.Request.Context(), lat, lon)
	if err != nil {
		log.Printf("[api] land analysis: %v", err)
		respondError(c, http.StatusBadGateway, "weather service unavailable")
		return
	}
	respondOK(c, report)
}
