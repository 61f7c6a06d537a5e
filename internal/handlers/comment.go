package handlers

import (
	"net/http"

	"govhub/internal/services"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct{}

func NewCommentHandler() *CommentHandler {
	return &CommentHandler{}
}

type commentRequest struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parentId"`
}

// Like POST /api/comments/:id/like
func (h *CommentHandler) Like(c *gin.Context) {
	h.react(c, services.ReactionLike)
}

// Dislike POST /api/comments/:id/dislike
func (h *CommentHandler) Dislike(c *gin.Context) {
	h.react(c, services.ReactionDislike)
}

func (h *CommentHandler) react(c *gin.Context, reaction services.Reaction) {
	comment, err := services.ToggleReaction(c.Request.Context(), currentUser(c), c.Param("id"), reaction)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) ListProposalComments(c *gin.Context) {
	h.list(c, services.CommentTarget{ProposalID: c.Param("id")})
}

func (h *CommentHandler) ListReportComments(c *gin.Context) {
	h.list(c, services.CommentTarget{ReportID: c.Param("id")})
}

func (h *CommentHandler) list(c *gin.Context, target services.CommentTarget) {
	comments, err := services.ListComments(c.Request.Context(), target, viewerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) CreateProposalComment(c *gin.Context) {
	h.create(c, services.CommentTarget{ProposalID: c.Param("id")})
}

func (h *CommentHandler) CreateReportComment(c *gin.Context) {
	h.create(c, services.CommentTarget{ReportID: c.Param("id")})
}

func (h *CommentHandler) create(c *gin.Context, target services.CommentTarget) {
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := services.CreateComment(c.Request.Context(), currentUser(c), target, req.Content, req.ParentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// Update PUT /api/comments/:id
func (h *CommentHandler) Update(c *gin.Context) {
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := services.UpdateComment(c.Request.Context(), currentUser(c), c.Param("id"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Delete DELETE /api/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	if err := services.DeleteComment(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
