package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-engine-api/internal/service"
	appErrors "github.com/noah-isme/exam-engine-api/pkg/errors"
	"github.com/noah-isme/exam-engine-api/pkg/response"
)

// ReportHandler exposes report card endpoints.
type ReportHandler struct {
	reports        *service.ReportService
	exportsEnabled bool
	defaultFormat  string
}

// NewReportHandler constructs handler.
func NewReportHandler(reports *service.ReportService, exportsEnabled bool, defaultFormat string) *ReportHandler {
	if defaultFormat == "" {
		defaultFormat = "csv"
	}
	return &ReportHandler{reports: reports, exportsEnabled: exportsEnabled, defaultFormat: defaultFormat}
}

// Card godoc
// @Summary Build a student's report card document
// @Tags Reports
// @Produce json
// @Param id path string true "Exam ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /exams/{id}/report-cards/{studentId} [get]
func (h *ReportHandler) Card(c *gin.Context) {
	doc, err := h.reports.BuildReportCard(c.Request.Context(), c.Param("id"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// Export godoc
// @Summary Export a student's report card as csv or pdf
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Exam ID"
// @Param studentId path string true "Student ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /exams/{id}/report-cards/{studentId}/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	if !h.exportsEnabled {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "report card exports are disabled"))
		return
	}
	examID := c.Param("id")
	studentID := c.Param("studentId")
	format := c.DefaultQuery("format", h.defaultFormat)
	payload, contentType, err := h.reports.ExportReportCard(c.Request.Context(), examID, studentID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("report-card-%s-%s.%s", examID, studentID, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
