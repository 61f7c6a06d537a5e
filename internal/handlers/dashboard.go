package handlers

import (
	"net/http"

	"govhub/internal/services"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct{}

func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// Get GET /api/dashboard
func (h *DashboardHandler) Get(c *gin.Context) {
	dashboard, err := services.GetDashboard(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
