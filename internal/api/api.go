package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"agropulse/internal/services/community"
	"agropulse/internal/services/cropadvisor"
	"agropulse/internal/services/history"
	"agropulse/internal/services/market"
	"agropulse/internal/services/papers"
	"agropulse/internal/services/weather"

	"github.com/gin-gonic/gin"
)

// WeatherService is the slice of the weather client the handlers use.
type WeatherService interface {
	ForecastFor(ctx context.Context, location string, date time.Time) weather.Forecast
	AnalyzeLand(ctx context.Context, lat, lon float64) (weather.LandReport, error)
	TodayPrecipitation(ctx context.Context, lat, lon float64) (float64, error)
}

// Services bundles everything the handlers depend on. Nil members disable
// their routes with 503.
type Services struct {
	Advisor    *cropadvisor.Advisor
	ModelInfo  *cropadvisor.ModelInfo
	History    *history.Store
	Market     *market.Table
	MarketOpts market.Options
	Weather    WeatherService
	Papers     *papers.Service
	Community  *community.Service
	AdminToken string
	LogFile    string
}

type APIHandler struct {
	Services
}

// NewRouter builds the engine with CORS, the health check and the /api/v1 routes.
func NewRouter(svc Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), cors())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	SetupRoutes(r.Group("/api/v1"), svc)
	return r
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Token")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func SetupRoutes(r *gin.RouterGroup, svc Services) *APIHandler {
	handler := &APIHandler{Services: svc}

	// Crop recommendation
	r.POST("/recommend", handler.Recommend)
	r.GET("/crops", handler.ListCrops)
	r.GET("/crops/:id", handler.GetCrop)
	r.GET("/model", handler.ModelStatus)

	// Mandi prices
	mkt := r.Group("/market")
	{
		mkt.GET("/query", handler.QueryMarket)
		mkt.GET("/export", handler.ExportMarket)
		mkt.GET("/report", handler.MarketReport)
		mkt.GET("/series", handler.MarketSeries)
		mkt.GET("/overview", handler.MarketOverview)
		mkt.GET("/states", handler.MarketStates)
		mkt.GET("/commodities", handler.MarketCommodities)
	}

	// Calendar and weather
	r.GET("/calendar", handler.ListCalendar)
	r.GET("/calendar/:crop", handler.GetCalendar)
	r.GET("/guide", handler.SeasonGuide)
	wx := r.Group("/weather")
	{
		wx.GET("/rain-alert", handler.RainAlert)
		wx.GET("/forecast", handler.Forecast)
		wx.GET("/land", handler.LandSuitability)
	}

	// Assistant and locale
	r.GET("/assistant/menu", handler.AssistantMenu)
	r.GET("/assistant/menu/:id", handler.AssistantMenu)
	r.POST("/assistant/choose", handler.AssistantChoose)
	r.GET("/assistant/ws", handler.AssistantSocket)
	r.GET("/locale", handler.Locale)
	r.GET("/locale/languages", handler.Languages)

	// Community
	r.GET("/community/posts", handler.ListPosts)
	r.POST("/community/posts", handler.CreatePost)
	r.POST("/community/posts/:id/replies", handler.CreateReply)
	r.POST("/contact", handler.Contact)

	// Research papers
	pp := r.Group("/papers")
	{
		pp.GET("", handler.ListPapers)
		pp.POST("", handler.UploadPaper)
		pp.GET("/:id", handler.GetPaper)
		pp.GET("/:id/download", handler.DownloadPaper)
		pp.GET("/:id/base64", handler.PaperBase64)
	}

	// Admin
	admin := r.Group("/admin", handler.requireAdmin)
	{
		admin.GET("/overview", handler.AdminOverview)
		admin.GET("/logs", handler.AdminLogs)
		admin.GET("/messages", handler.AdminMessages)
		admin.GET("/recommendations", handler.AdminRecommendations)
		admin.DELETE("/papers", handler.AdminClearPapers)
		admin.DELETE("/posts/:id", handler.AdminDeletePost)
	}

	return handler
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "ok", "data": data})
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"code": status, "msg": msg})
}

func unavailable(c *gin.Context, what string) {
	respondError(c, http.StatusServiceUnavailable, what+" is not configured")
}

// requireAdmin accepts the token as X-Admin-Token or a bearer token. With no
// token configured the admin routes are closed.
func (h *APIHandler) requireAdmin(c *gin.Context) {
	if h.AdminToken == "" {
		respondError(c, http.StatusForbidden, "admin access is disabled")
		c.Abort()
		return
	}
	token := c.GetHeader("X-Admin-Token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.AdminToken)) != 1 {
		respondError(c, http.StatusUnauthorized, "invalid admin token")
		c.Abort()
		return
	}
	c.Next()
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}

func queryFloat(c *gin.Context, key string, def float64) (float64, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid "+key)
		return 0, false
	}
	return v, true
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(def)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
