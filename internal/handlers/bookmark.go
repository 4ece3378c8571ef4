package handlers

import (
	"net/http"

	"zugzwang/internal/middleware"
	"zugzwang/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BookmarkHandler struct {
	bookmarks *services.Bookmarks
	log       *zap.Logger
}

func NewBookmarkHandler(bookmarks *services.Bookmarks, log *zap.Logger) *BookmarkHandler {
	return &BookmarkHandler{bookmarks: bookmarks, log: log}
}

// Add 收藏，重复收藏不报错
func (h *BookmarkHandler) Add(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.bookmarks.Add(c.Request.Context(), middleware.ViewerFrom(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post_id": id, "bookmarked": true})
}

// Remove 取消收藏
func (h *BookmarkHandler) Remove(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.bookmarks.Remove(c.Request.Context(), middleware.ViewerFrom(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post_id": id, "bookmarked": false})
}

// List GET /api/bookmarks
func (h *BookmarkHandler) List(c *gin.Context) {
	posts, err := h.bookmarks.List(c.Request.Context(), middleware.ViewerFrom(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}
