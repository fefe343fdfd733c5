package handler

import (
	"net/http"
	"strconv"

	"github.com/examportal/examportal-backend/internal/model"
	"github.com/examportal/examportal-backend/internal/response"
	"github.com/examportal/examportal-backend/internal/service"
	"github.com/examportal/examportal-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// AdminUserHandler handles participant account management.
type AdminUserHandler struct {
	userService *service.UserService
}

// NewAdminUserHandler creates a new AdminUserHandler.
func NewAdminUserHandler(userService *service.UserService) *AdminUserHandler {
	return &AdminUserHandler{userService: userService}
}

// Create godoc
// POST /api/v1/admin/users
// Creates a participant account with a generated password. The credentials
// are dispatched to the participant through the notifier.
func (h *AdminUserHandler) Create(c *gin.Context) {
	var req model.CreateUserRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.CreateParticipant(c.Request.Context(), req.Username, req.Email)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": user})
}

// List godoc
// GET /api/v1/admin/users
// Lists every participant account.
func (h *AdminUserHandler) List(c *gin.Context) {
	users, err := h.userService.ListParticipants(c.Request.Context())
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"users": users})
}

// Delete godoc
// DELETE /api/v1/admin/users/:user_id
// Deletes a participant account with its assignments and results.
func (h *AdminUserHandler) Delete(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.userService.DeleteParticipant(c.Request.Context(), userID); err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
