package handlers

import (
	"net/http"

	"govhub/internal/models"
	"govhub/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Me GET /api/users/me
func (h *UserHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

// UpdateMe PATCH /api/users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req services.ProfileInput
	if !bindJSON(c, &req) {
		return
	}
	user, err := services.UpdateProfile(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// List GET /api/users，仅全局管理员
func (h *UserHandler) List(c *gin.Context) {
	users, err := services.ListUsers(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// SetRole PUT /api/users/:id/role
func (h *UserHandler) SetRole(c *gin.Context) {
	var req struct {
		Role models.Role `json:"role"`
	}
	if !bindJSON(c, &req) {
		return
	}
	user, err := services.SetUserRole(c.Request.Context(), currentUser(c), c.Param("id"), req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
