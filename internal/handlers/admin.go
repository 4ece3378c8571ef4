package handlers

import (
	"net/http"
	"strings"

	"zugzwang/internal/middleware"
	"zugzwang/internal/models"
	"zugzwang/internal/services"
	"zugzwang/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler 管理员操作：内容审核、评论总览、积分调整
type AdminHandler struct {
	svc *services.Services
	log *zap.Logger
}

func NewAdminHandler(svc *services.Services, log *zap.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, log: log}
}

// ModeratePost PATCH /api/posts/:id/admin with {status?, locked?, categories?}
func (h *AdminHandler) ModeratePost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	fields, ok := bindFields(c)
	if !ok {
		return
	}
	patch, err := moderationPatch(fields, true)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	post, err := h.svc.Posts.Moderate(c.Request.Context(), middleware.ViewerFrom(c), id, patch)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// ModerateComment PATCH /api/comments/:id/admin with {status?, locked?}
func (h *AdminHandler) ModerateComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	fields, ok := bindFields(c)
	if !ok {
		return
	}
	patch, err := moderationPatch(fields, false)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	comment, err := h.svc.Comments.Moderate(c.Request.Context(), middleware.ViewerFrom(c), id, patch)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Comments GET /api/comments lists every comment with optional filters.
func (h *AdminHandler) Comments(c *gin.Context) {
	crit := services.CommentCriteria{
		Status: models.ContentStatus(strings.ToLower(c.Query("status"))),
	}
	if raw := c.Query("sort"); raw != "" {
		crit.Sort = models.ParseSortKey(raw)
	}
	if raw := c.Query("order"); raw != "" {
		crit.Order = models.ParseSortOrder(raw)
	}
	crit.Page, crit.Limit = pageParams(c)
	for key, dst := range map[string]*uint{"post_id": &crit.PostID, "author_id": &crit.AuthorID} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		id, ok := utils.ParseID(raw)
		if !ok {
			invalid(c, "%s must be a positive integer", key)
			return
		}
		*dst = id
	}

	page, err := h.svc.Comments.ListAll(c.Request.Context(), middleware.ViewerFrom(c), crit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	writeList(c, page.Items, page.Paging)
}

type ratingRequest struct {
	Rating *int `json:"rating" binding:"required"`
}

// SetRating PATCH /api/users/:id/rating. The override lasts until the next recompute.
func (h *AdminHandler) SetRating(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, "rating is required")
		return
	}
	user, err := h.svc.Users.SetRating(c.Request.Context(), middleware.ViewerFrom(c), id, *req.Rating)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.Info("rating overridden", zap.Uint("user_id", id), zap.Int("rating", user.Rating))
	c.JSON(http.StatusOK, user)
}

// RecomputeRating POST /api/users/:id/rating/recompute
func (h *AdminHandler) RecomputeRating(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, err := h.svc.Users.Recompute(c.Request.Context(), middleware.ViewerFrom(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
