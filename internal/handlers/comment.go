package handlers

import (
	"net/http"

	"zugzwang/internal/middleware"
	"zugzwang/internal/models"
	"zugzwang/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CommentHandler struct {
	comments *services.Comments
	log      *zap.Logger
}

func NewCommentHandler(comments *services.Comments, log *zap.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, log: log}
}

type createCommentRequest struct {
	Content  string `json:"content" binding:"required"`
	ParentID *uint  `json:"parent_id"`
}

// Create POST /api/posts/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, "content is required")
		return
	}
	if req.ParentID != nil && *req.ParentID == 0 {
		req.ParentID = nil
	}

	comment, err := h.comments.Create(c.Request.Context(), middleware.ViewerFrom(c), postID, services.CommentInput{
		Content:  req.Content,
		ParentID: req.ParentID,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// ListForPost GET /api/posts/:id/comments, flat by default or ?view=tree for the thread.
func (h *CommentHandler) ListForPost(c *gin.Context) {
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}
	v := middleware.ViewerFrom(c)

	if c.Query("view") == "tree" {
		tree, err := h.comments.Thread(c.Request.Context(), v, postID)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, tree)
		return
	}

	list, err := h.comments.ListForPost(c.Request.Context(), v, postID,
		models.ParseSortKey(c.Query("sort")), models.ParseSortOrder(c.Query("order")))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CommentHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	comment, err := h.comments.Get(c.Request.Context(), middleware.ViewerFrom(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Update PATCH /api/comments/:id, the author endpoint.
func (h *CommentHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	fields, ok := bindFields(c)
	if !ok {
		return
	}

	patch, err := commentPatch(fields)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	comment, err := h.comments.UpdateByAuthor(c.Request.Context(), middleware.ViewerFrom(c), id, patch)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func commentPatch(fields jsonFields) (services.CommentPatch, error) {
	var (
		patch services.CommentPatch
		err   error
	)
	if err = fields.reject("status", "parent_id", "post_id"); err != nil {
		return patch, err
	}
	if patch.Content, err = fields.str("content"); err != nil {
		return patch, err
	}
	patch.Locked, err = fields.flag("locked")
	return patch, err
}

func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.comments.Delete(c.Request.Context(), middleware.ViewerFrom(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
