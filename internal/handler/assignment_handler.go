package handler

import (
	"net/http"

	"github.com/examportal/examportal-backend/internal/model"
	"github.com/examportal/examportal-backend/internal/response"
	"github.com/examportal/examportal-backend/internal/service"
	"github.com/examportal/examportal-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AssignmentHandler handles assignment window management.
type AssignmentHandler struct {
	assignmentService *service.AssignmentService
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(assignmentService *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService}
}

// Create godoc
// POST /api/v1/admin/assignments
// Assigns an exam to a participant over a half-open window [start, end).
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req model.CreatePermissionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation, fields)
		return
	}

	perm, err := h.assignmentService.Create(c.Request.Context(), req.UserID, req.ExamID, req.StartAt, req.EndAt)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"assignment": perm})
}

// List godoc
// GET /api/v1/admin/assignments
func (h *AssignmentHandler) List(c *gin.Context) {
	assignments, err := h.assignmentService.List(c.Request.Context())
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assignments": assignments})
}

// Update godoc
// PUT /api/v1/admin/assignments/:assignment_id
// Reschedules a window. Refused while an attempt is running against it.
func (h *AssignmentHandler) Update(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("assignment_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdatePermissionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation, fields)
		return
	}

	perm, err := h.assignmentService.Update(c.Request.Context(), assignmentID, req.StartAt, req.EndAt)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assignment": perm})
}

// Delete godoc
// DELETE /api/v1/admin/assignments/:assignment_id
func (h *AssignmentHandler) Delete(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("assignment_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.assignmentService.Delete(c.Request.Context(), assignmentID); err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
