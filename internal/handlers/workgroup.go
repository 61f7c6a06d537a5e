package handlers

import (
	"net/http"

	"govhub/internal/services"

	"github.com/gin-gonic/gin"
)

type WorkGroupHandler struct{}

func NewWorkGroupHandler() *WorkGroupHandler {
	return &WorkGroupHandler{}
}

func (h *WorkGroupHandler) List(c *gin.Context) {
	groups, err := services.ListWorkGroups(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (h *WorkGroupHandler) Get(c *gin.Context) {
	group, err := services.GetWorkGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

func (h *WorkGroupHandler) Create(c *gin.Context) {
	var req services.CreateWorkGroupInput
	if !bindJSON(c, &req) {
		return
	}
	group, err := services.CreateWorkGroup(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	services.InvalidateDashboard()
	c.JSON(http.StatusCreated, group)
}

// AddMember POST /api/workgroups/:id/members
func (h *WorkGroupHandler) AddMember(c *gin.Context) {
	var req services.MemberInput
	if !bindJSON(c, &req) {
		return
	}
	member, err := services.AddMember(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// RemoveMember DELETE /api/workgroups/:id/members/:userId
func (h *WorkGroupHandler) RemoveMember(c *gin.Context) {
	if err := services.RemoveMember(c.Request.Context(), currentUser(c), c.Param("id"), c.Param("userId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
