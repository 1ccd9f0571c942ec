package api

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"agropulse/internal/services/market"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// QueryMarket answers ?commodity=&region= with recent rows and insights.
func (h *APIHandler) QueryMarket(c *gin.Context) {
	res := market.Query(h.Market, c.Query("commodity"), c.Query("region"), h.MarketOpts)
	switch res.Status {
	case market.StatusError:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": http.StatusUnprocessableEntity, "msg": res.Message, "data": res})
	case market.StatusNoData:
		c.JSON(http.StatusOK, gin.H{"code": 200, "msg": res.Message, "data": res})
	default:
		respondOK(c, res)
	}
}

// ExportMarket returns the query result as a workbook.
func (h *APIHandler) ExportMarket(c *gin.Context) {
	res := market.Query(h.Market, c.Query("commodity"), c.Query("region"), h.MarketOpts)
	if res.Status == market.StatusError {
		respondError(c, http.StatusUnprocessableEntity, res.Message)
		return
	}
	var buf bytes.Buffer
	if err := market.WriteQueryWorkbook(&buf, res); err != nil {
		log.Printf("[api] export workbook: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to build workbook")
		return
	}
	name := fmt.Sprintf("mandi_%s_%s.xlsx", slug(res.Commodity), time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// MarketReport builds the multi-commodity workbook, ?commodities=a,b or all.
func (h *APIHandler) MarketReport(c *gin.Context) {
	if err := h.Market.SchemaErr(); err != nil {
		respondError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	var commodities []string
	for _, s := range strings.Split(c.Query("commodities"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			commodities = append(commodities, s)
		}
	}
	var buf bytes.Buffer
	if err := market.ReportWorkbook(&buf, h.Market, commodities, h.MarketOpts); err != nil {
		log.Printf("[api] report workbook: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to build report")
		return
	}
	name := "market_report_" + time.Now().Format("20060102_1504") + ".xlsx"
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// MarketSeries returns the daily modal price with moving averages and bands.
func (h *APIHandler) MarketSeries(c *gin.Context) {
	if err := h.Market.SchemaErr(); err != nil {
		respondError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	commodity := strings.TrimSpace(c.Query("commodity"))
	if commodity == "" {
		respondError(c, http.StatusBadRequest, "commodity is required")
		return
	}
	points := market.Series(h.Market, commodity, c.Query("region"), queryInt(c, "window", 7))
	respondOK(c, gin.H{"commodity": commodity, "region": c.Query("region"), "points": points})
}

func (h *APIHandler) MarketOverview(c *gin.Context) {
	if err := h.Market.SchemaErr(); err != nil {
		respondError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respondOK(c, market.Summarize(h.Market, queryInt(c, "top", 5)))
}

func (h *APIHandler) MarketStates(c *gin.Context) {
	if err := h.Market.SchemaErr(); err != nil {
		respondError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respondOK(c, h.Market.States())
}

func (h *APIHandler) MarketCommodities(c *gin.Context) {
	if err := h.Market.SchemaErr(); err != nil {
		respondError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respondOK(c, h.Market.Commodities())
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, s)
}
