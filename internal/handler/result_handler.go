package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-engine-api/internal/service"
	appErrors "github.com/noah-isme/exam-engine-api/pkg/errors"
	"github.com/noah-isme/exam-engine-api/pkg/response"
)

// ResultHandler exposes publish and result endpoints.
type ResultHandler struct {
	publisher   *service.PublishService
	lockTimeout time.Duration
}

// NewResultHandler constructs handler. lockTimeout bounds how long a publish
// request may run while holding the per-exam advisory lock.
func NewResultHandler(publisher *service.PublishService, lockTimeout time.Duration) *ResultHandler {
	return &ResultHandler{publisher: publisher, lockTimeout: lockTimeout}
}

type publishRequest struct {
	GradingScaleID string `json:"grading_scale_id" binding:"required"`
}

// Publish godoc
// @Summary Publish (or re-publish) the results of a completed exam
// @Tags Results
// @Accept json
// @Produce json
// @Param id path string true "Exam ID"
// @Param payload body publishRequest true "Grading scale to apply"
// @Success 200 {object} response.Envelope
// @Router /exams/{id}/publish [post]
func (h *ResultHandler) Publish(c *gin.Context) {
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	ctx := c.Request.Context()
	if h.lockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.lockTimeout)
		defer cancel()
	}
	results, err := h.publisher.Publish(ctx, c.Param("id"), req.GradingScaleID, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil, map[string]interface{}{"students": len(results)})
}

// List godoc
// @Summary List the published results of an exam, ranked
// @Tags Results
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /exams/{id}/results [get]
func (h *ResultHandler) List(c *gin.Context) {
	results, err := h.publisher.Results(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// Student godoc
// @Summary Get one student's published result
// @Tags Results
// @Produce json
// @Param id path string true "Exam ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /exams/{id}/results/{studentId} [get]
func (h *ResultHandler) Student(c *gin.Context) {
	result, err := h.publisher.StudentResult(c.Request.Context(), c.Param("id"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
