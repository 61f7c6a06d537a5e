package handlers

import (
	"net/http"

	"govhub/internal/models"
	"govhub/internal/services"

	"github.com/gin-gonic/gin"
)

type ConsensusHandler struct{}

func NewConsensusHandler() *ConsensusHandler {
	return &ConsensusHandler{}
}

// UpdateStatus PUT /api/reports/:id/consensus-status
func (h *ConsensusHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		ConsensusStatus models.ConsensusStatus `json:"consensusStatus"`
	}
	if !bindJSON(c, &req) {
		return
	}
	report, err := services.SetConsensusStatus(c.Request.Context(), currentUser(c), c.Param("id"), req.ConsensusStatus)
	if err != nil {
		respondError(c, err)
		return
	}
	services.InvalidateDashboard()
	c.JSON(http.StatusOK, report)
}

// StartRound POST /api/reports/:id/rounds
func (h *ConsensusHandler) StartRound(c *gin.Context) {
	round, err := services.StartRound(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	services.InvalidateDashboard()
	c.JSON(http.StatusCreated, round)
}

// ListRounds GET /api/reports/:id/rounds
func (h *ConsensusHandler) ListRounds(c *gin.Context) {
	rounds, err := services.ListRounds(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rounds)
}

// ListObjections GET /api/reports/:id/objections
func (h *ConsensusHandler) ListObjections(c *gin.Context) {
	objections, err := services.ListReportObjections(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, objections)
}

// ResolveObjection PUT /api/objections/:id/status
func (h *ConsensusHandler) ResolveObjection(c *gin.Context) {
	var req struct {
		Status models.ObjectionStatus `json:"status"`
	}
	if !bindJSON(c, &req) {
		return
	}
	objection, err := services.ResolveObjection(c.Request.Context(), currentUser(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	services.InvalidateDashboard()
	c.JSON(http.StatusOK, objection)
}
