package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"agropulse/internal/services/cropadvisor"

	"github.com/gin-gonic/gin"
)

type cropEntry struct {
	ID int `json:"id"`
	cropadvisor.CropMetadata
}

// Recommend runs the advisor on a JSON sample and records the outcome.
func (h *APIHandler) Recommend(c *gin.Context) {
	if h.Advisor == nil {
		unavailable(c, "crop model")
		return
	}
	var sample cropadvisor.Sample
	if err := c.ShouldBindJSON(&sample); err != nil {
		respondError(c, http.StatusBadRequest, "invalid input: "+err.Error())
		return
	}

	res := h.Advisor.Recommend(c.Request.Context(), sample)
	if h.History != nil {
		if _, err := h.History.Record(c.Request.Context(), sample, res); err != nil {
			log.Printf("[api] %v", err)
		}
	}

	if res.Status == cropadvisor.StatusError {
		status := http.StatusInternalServerError
		var fe *cropadvisor.FeatureError
		if errors.As(res.Err, &fe) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"code": status, "msg": res.Message, "data": res})
		return
	}
	respondOK(c, res)
}

func (h *APIHandler) labels() cropadvisor.LabelMap {
	if h.Advisor != nil {
		return h.Advisor.Labels()
	}
	return cropadvisor.DefaultLabels
}

// ListCrops returns every crop the model can predict, by label id.
func (h *APIHandler) ListCrops(c *gin.Context) {
	labels := h.labels()
	out := make([]cropEntry, 0, len(labels))
	for _, id := range labels.Labels() {
		meta, _ := labels.Lookup(id)
		out = append(out, cropEntry{ID: id, CropMetadata: meta})
	}
	respondOK(c, out)
}

func (h *APIHandler) GetCrop(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid id")
		return
	}
	meta, known := h.labels().Lookup(id)
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "ok", "data": cropEntry{ID: id, CropMetadata: meta}, "known": known})
}

// ModelStatus reports the loaded artifacts.
func (h *APIHandler) ModelStatus(c *gin.Context) {
	if h.Advisor == nil {
		unavailable(c, "crop model")
		return
	}
	respondOK(c, gin.H{
		"model_version": h.Advisor.ModelVersion(),
		"engine":        h.Advisor.Engine(),
		"crops":         len(h.Advisor.Labels()),
		"info":          h.ModelInfo,
	})
}
