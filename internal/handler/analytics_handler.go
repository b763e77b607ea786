package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-engine-api/internal/service"
	"github.com/noah-isme/exam-engine-api/pkg/response"
)

// AnalyticsHandler exposes derived exam statistics.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Exam godoc
// @Summary Exam-level statistics with per-subject breakdown
// @Tags Analytics
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /exams/{id}/analytics [get]
func (h *AnalyticsHandler) Exam(c *gin.Context) {
	snapshot, cached, err := h.analytics.ExamSnapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil, map[string]interface{}{"source": snapshot.Source, "cache_hit": cached})
}

// Subject godoc
// @Summary Statistics for one exam subject
// @Tags Analytics
// @Produce json
// @Param id path string true "Exam ID"
// @Param subjectId path string true "Exam subject ID"
// @Success 200 {object} response.Envelope
// @Router /exams/{id}/analytics/subjects/{subjectId} [get]
func (h *AnalyticsHandler) Subject(c *gin.Context) {
	snapshot, cached, err := h.analytics.SubjectSnapshot(c.Request.Context(), c.Param("id"), c.Param("subjectId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil, map[string]interface{}{"cache_hit": cached})
}
