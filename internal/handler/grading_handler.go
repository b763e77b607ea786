package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-engine-api/internal/service"
	appErrors "github.com/noah-isme/exam-engine-api/pkg/errors"
	"github.com/noah-isme/exam-engine-api/pkg/response"
)

// GradingHandler exposes grading scale endpoints.
type GradingHandler struct {
	grading *service.GradingService
}

// NewGradingHandler constructs handler.
func NewGradingHandler(grading *service.GradingService) *GradingHandler {
	return &GradingHandler{grading: grading}
}

// Create godoc
// @Summary Create a grading scale with its bands
// @Tags Grading
// @Accept json
// @Produce json
// @Param payload body service.CreateScaleRequest true "Scale payload"
// @Success 201 {object} response.Envelope
// @Router /grading-scales [post]
func (h *GradingHandler) Create(c *gin.Context) {
	var req service.CreateScaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.TenantID = tenantFromContext(c)
	scale, err := h.grading.CreateScale(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, scale, nil)
}

// Get godoc
// @Summary Get one grading scale with its bands
// @Tags Grading
// @Produce json
// @Param id path string true "Scale ID"
// @Success 200 {object} response.Envelope
// @Router /grading-scales/{id} [get]
func (h *GradingHandler) Get(c *gin.Context) {
	scale, err := h.grading.GetScale(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scale, nil)
}

// List godoc
// @Summary List grading scales
// @Tags Grading
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grading-scales [get]
func (h *GradingHandler) List(c *gin.Context) {
	scales, err := h.grading.ListScales(c.Request.Context(), tenantFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scales, nil)
}

// Delete godoc
// @Summary Delete an unused grading scale
// @Tags Grading
// @Param id path string true "Scale ID"
// @Success 204
// @Router /grading-scales/{id} [delete]
func (h *GradingHandler) Delete(c *gin.Context) {
	if err := h.grading.DeleteScale(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Resolve godoc
// @Summary Resolve a percentage against a grading scale
// @Tags Grading
// @Produce json
// @Param id path string true "Scale ID"
// @Param percentage query number true "Percentage to resolve"
// @Success 200 {object} response.Envelope
// @Router /grading-scales/{id}/resolve [get]
func (h *GradingHandler) Resolve(c *gin.Context) {
	percentage, err := strconv.ParseFloat(c.Query("percentage"), 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "percentage must be a number"))
		return
	}
	resolution, err := h.grading.Resolve(c.Request.Context(), c.Param("id"), percentage)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resolution, nil)
}
