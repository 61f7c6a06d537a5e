package handlers

import (
	"net/http"

	"govhub/internal/config"
	"govhub/internal/models"
	"govhub/internal/services"
	"govhub/internal/utils"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct{}

func NewVoteHandler() *VoteHandler {
	return &VoteHandler{}
}

// Cast POST /api/votes，新票 201，覆盖旧票 200
func (h *VoteHandler) Cast(c *gin.Context) {
	var req services.CastVoteInput
	if !bindJSON(c, &req) {
		return
	}
	vote, created, err := services.CastVote(c.Request.Context(), currentUser(c), req, config.Get().MinVoteCommentLength)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, vote)
}

// ListReportVotes GET /api/reports/:id/votes?round=N
func (h *VoteHandler) ListReportVotes(c *gin.Context) {
	round := 0
	if q := c.Query("round"); q != "" {
		if round = utils.StringToInt(q); round <= 0 {
			badRequest(c, "Invalid round")
			return
		}
	}
	out, err := services.ListReportVotes(c.Request.Context(), c.Param("id"), round)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// VoteProposal POST /api/proposals/:id/vote
func (h *VoteHandler) VoteProposal(c *gin.Context) {
	var req struct {
		VoteType models.ProposalVoteType `json:"voteType"`
	}
	if !bindJSON(c, &req) {
		return
	}
	proposal, err := services.VoteOnProposal(c.Request.Context(), currentUser(c), c.Param("id"), req.VoteType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}
