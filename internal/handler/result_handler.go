package handler

import (
	"net/http"

	"github.com/examportal/examportal-backend/internal/response"
	"github.com/examportal/examportal-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ResultHandler handles admin result listings.
type ResultHandler struct {
	resultService *service.ResultService
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(resultService *service.ResultService) *ResultHandler {
	return &ResultHandler{resultService: resultService}
}

// List godoc
// GET /api/v1/admin/results
func (h *ResultHandler) List(c *gin.Context) {
	results, err := h.resultService.List(c.Request.Context())
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// ListByExam godoc
// GET /api/v1/admin/exams/:exam_id/results
func (h *ResultHandler) ListByExam(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	results, err := h.resultService.ListByExam(c.Request.Context(), examID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}
