package handlers

import (
	"net/http"

	"govhub/internal/config"
	"govhub/internal/services"
	"govhub/internal/utils"

	"github.com/gin-gonic/gin"
)

type ProposalHandler struct{}

func NewProposalHandler() *ProposalHandler {
	return &ProposalHandler{}
}

// List GET /api/proposals?status=&page=
func (h *ProposalHandler) List(c *gin.Context) {
	page := utils.PositiveIntOr(c.Query("page"), 1)
	out, err := services.ListProposals(c.Request.Context(), c.Query("status"), page, viewerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ProposalHandler) Get(c *gin.Context) {
	proposal, err := services.GetProposal(c.Request.Context(), c.Param("id"), viewerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}

func (h *ProposalHandler) Create(c *gin.Context) {
	var req services.CreateProposalInput
	if !bindJSON(c, &req) {
		return
	}
	proposal, err := services.CreateProposal(c.Request.Context(), currentUser(c), req, config.Get().ProposalDuration)
	if err != nil {
		respondError(c, err)
		return
	}
	services.InvalidateDashboard()
	c.JSON(http.StatusCreated, proposal)
}

// Update PATCH /api/proposals/:id
func (h *ProposalHandler) Update(c *gin.Context) {
	var req services.UpdateProposalInput
	if !bindJSON(c, &req) {
		return
	}
	proposal, err := services.UpdateProposal(c.Request.Context(), currentUser(c), c.Param("id"), req, config.Get().ProposalDuration)
	if err != nil {
		respondError(c, err)
		return
	}
	services.InvalidateDashboard()
	c.JSON(http.StatusOK, proposal)
}

func (h *ProposalHandler) Delete(c *gin.Context) {
	if err := services.DeleteProposal(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	services.InvalidateDashboard()
	c.JSON(http.StatusOK, gin.H{"success": true})
}
