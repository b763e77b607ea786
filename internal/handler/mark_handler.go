package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-engine-api/internal/service"
	appErrors "github.com/noah-isme/exam-engine-api/pkg/errors"
	"github.com/noah-isme/exam-engine-api/pkg/response"
)

// MarkHandler exposes the marks ledger endpoints.
type MarkHandler struct {
	marks *service.MarkService
}

// NewMarkHandler constructs handler.
func NewMarkHandler(marks *service.MarkService) *MarkHandler {
	return &MarkHandler{marks: marks}
}

// Enter godoc
// @Summary Enter a batch of marks for one exam subject
// @Tags Marks
// @Accept json
// @Produce json
// @Param subjectId path string true "Exam subject ID"
// @Param payload body service.EnterMarksRequest true "Marks batch"
// @Success 200 {object} response.Envelope
// @Router /exam-subjects/{subjectId}/marks [post]
func (h *MarkHandler) Enter(c *gin.Context) {
	var req service.EnterMarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.ExamSubjectID = c.Param("subjectId")
	req.EnteredBy = actorID(c)
	marks, err := h.marks.EnterMarks(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks, nil)
}

// List godoc
// @Summary List the marks of one exam subject
// @Tags Marks
// @Produce json
// @Param subjectId path string true "Exam subject ID"
// @Success 200 {object} response.Envelope
// @Router /exam-subjects/{subjectId}/marks [get]
func (h *MarkHandler) List(c *gin.Context) {
	marks, err := h.marks.GetMarks(c.Request.Context(), c.Param("subjectId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks, nil)
}

// Sheet godoc
// @Summary Mark sheet of enrolled students with existing entries merged in
// @Tags Marks
// @Produce json
// @Param subjectId path string true "Exam subject ID"
// @Success 200 {object} response.Envelope
// @Router /exam-subjects/{subjectId}/marks/sheet [get]
func (h *MarkHandler) Sheet(c *gin.Context) {
	rows, err := h.marks.SeedSheet(c.Request.Context(), c.Param("subjectId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}
