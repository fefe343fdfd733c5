package handler

import (
	"errors"
	"net/http"

	"github.com/examportal/examportal-backend/internal/middleware"
	"github.com/examportal/examportal-backend/internal/model"
	"github.com/examportal/examportal-backend/internal/response"
	"github.com/examportal/examportal-backend/internal/service"
	"github.com/examportal/examportal-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PortalHandler handles the participant-facing exam portal.
type PortalHandler struct {
	accessService  *service.AccessService
	attemptService *service.AttemptService
	examService    *service.ExamService
}

// NewPortalHandler creates a new PortalHandler.
func NewPortalHandler(
	accessService *service.AccessService,
	attemptService *service.AttemptService,
	examService *service.ExamService,
) *PortalHandler {
	return &PortalHandler{
		accessService:  accessService,
		attemptService: attemptService,
		examService:    examService,
	}
}

// Dashboard godoc
// GET /api/v1/portal/dashboard
// Returns every assigned exam with its current access status.
func (h *PortalHandler) Dashboard(c *gin.Context) {
	claims := middleware.GetClaims(c)

	entries, err := h.accessService.Dashboard(c.Request.Context(), claims.UserID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exams": entries})
}

// Access godoc
// GET /api/v1/portal/exams/:exam_id/access
// Classifies the caller's access to one exam at the current instant.
func (h *PortalHandler) Access(c *gin.Context) {
	claims := middleware.GetClaims(c)

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	decision, err := h.accessService.Classify(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, decision)
}

// StartAttempt godoc
// POST /api/v1/portal/exams/:exam_id/start
// Opens an attempt against the currently active window. Calling it again
// while the attempt is in progress returns the same attempt.
func (h *PortalHandler) StartAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attempt, err := h.attemptService.Start(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"attempt": attempt})
}

// Paper godoc
// GET /api/v1/portal/attempts/:attempt_id/paper
// Returns the exam questions without correct options.
func (h *PortalHandler) Paper(c *gin.Context) {
	attempt, ok := h.ownedAttempt(c)
	if !ok {
		return
	}

	paper, err := h.examService.Paper(c.Request.Context(), attempt.ExamID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, paper)
}

// RecordAnswer godoc
// POST /api/v1/portal/attempts/:attempt_id/answers
// Autosaves a single answer. Rejected once the deadline has passed.
func (h *PortalHandler) RecordAnswer(c *gin.Context) {
	attempt, ok := h.ownedAttempt(c)
	if !ok {
		return
	}

	var req model.RecordAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation, fields)
		return
	}

	err := h.attemptService.RecordAnswer(c.Request.Context(), attempt.ID, req.QuestionID, req.Option)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "saved"})
}

// Submit godoc
// POST /api/v1/portal/attempts/:attempt_id/submit
// Finalizes the attempt into an immutable result. Submitting an
// already-finalized attempt returns the stored result unchanged.
func (h *PortalHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation, fields)
		return
	}
	trigger := req.Trigger
	if trigger == "" {
		trigger = model.SubmitTriggerManual
	}

	// A live attempt must belong to the caller before it is finalized. A
	// missing row means the attempt already finalized (or never existed);
	// the idempotent path resolves that, and the stored result's owner is
	// verified below.
	attempt, err := h.attemptService.Get(c.Request.Context(), attemptID)
	switch {
	case err == nil:
		if attempt.UserID != claims.UserID {
			response.Fail(c, http.StatusForbidden, response.ErrForbidden)
			return
		}
	case !errors.Is(err, service.ErrNotFound):
		failFromService(c, err)
		return
	}

	result, err := h.attemptService.Submit(c.Request.Context(), attemptID, trigger)
	if err != nil {
		failFromService(c, err)
		return
	}
	if result.UserID != claims.UserID {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// State godoc
// GET /api/v1/portal/attempts/:attempt_id
// Returns the autosaved answers and remaining time of an attempt.
func (h *PortalHandler) State(c *gin.Context) {
	attempt, ok := h.ownedAttempt(c)
	if !ok {
		return
	}

	state, err := h.attemptService.State(c.Request.Context(), attempt.ID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// ownedAttempt parses :attempt_id, loads the attempt, and verifies the
// caller owns it. On failure it has already written the error response.
func (h *PortalHandler) ownedAttempt(c *gin.Context) (*model.Attempt, bool) {
	claims := middleware.GetClaims(c)

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, false
	}

	attempt, err := h.attemptService.Get(c.Request.Context(), attemptID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		} else {
			failFromService(c, err)
		}
		return nil, false
	}
	if attempt.UserID != claims.UserID {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return nil, false
	}
	return attempt, true
}
