package handlers

import (
	"errors"
	"io"
	"net/http"

	"zugzwang/internal/middleware"
	"zugzwang/internal/models"
	"zugzwang/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// VoteHandler serves likes and dislikes on posts and comments. Each route is bound to
// one target kind.
type VoteHandler struct {
	reactions *services.Reactions
	log       *zap.Logger
}

func NewVoteHandler(reactions *services.Reactions, log *zap.Logger) *VoteHandler {
	return &VoteHandler{reactions: reactions, log: log}
}

type reactRequest struct {
	Type models.ReactionType `json:"type" binding:"required,oneof=like dislike"`
}

type unreactRequest struct {
	UserID uint `json:"user_id"`
}

func target(c *gin.Context, kind models.TargetKind) (models.Target, bool) {
	id, ok := parseID(c, "id")
	return models.Target{Kind: kind, ID: id}, ok
}

// React POST .../:id/like with {"type":"like"|"dislike"}
func (h *VoteHandler) React(kind models.TargetKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := target(c, kind)
		if !ok {
			return
		}
		var req reactRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalid(c, "type must be like or dislike")
			return
		}

		counts, err := h.reactions.React(c.Request.Context(), middleware.ViewerFrom(c), t, req.Type)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, counts)
	}
}

// Unreact DELETE .../:id/like; admins may pass {"user_id": n} to remove someone else's.
func (h *VoteHandler) Unreact(kind models.TargetKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := target(c, kind)
		if !ok {
			return
		}
		var req unreactRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			invalid(c, "user_id must be a positive integer")
			return
		}

		counts, err := h.reactions.Unreact(c.Request.Context(), middleware.ViewerFrom(c), t, req.UserID)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, counts)
	}
}

// List GET .../:id/like
func (h *VoteHandler) List(kind models.TargetKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := target(c, kind)
		if !ok {
			return
		}
		counts, items, err := h.reactions.List(c.Request.Context(), middleware.ViewerFrom(c), t)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"summary": counts, "items": items})
	}
}
