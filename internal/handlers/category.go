package handlers

import (
	"net/http"
	"strconv"

	"zugzwang/internal/middleware"
	"zugzwang/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CategoryHandler struct {
	categories *services.Categories
	posts      *services.Posts
	log        *zap.Logger
}

func NewCategoryHandler(categories *services.Categories, posts *services.Posts, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, posts: posts, log: log}
}

// List 所有分类
func (h *CategoryHandler) List(c *gin.Context) {
	cats, err := h.categories.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

func (h *CategoryHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	cat, err := h.categories.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

// Posts GET /api/categories/:id/posts runs the regular feed restricted to one category.
func (h *CategoryHandler) Posts(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, err := h.categories.Get(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	crit, err := feedCriteria(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	crit.Categories = []string{strconv.FormatUint(uint64(id), 10)}
	writeFeed(c, h.log, h.posts, crit)
}

type categoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == nil {
		invalid(c, "name is required")
		return
	}
	desc := ""
	if req.Description != nil {
		desc = *req.Description
	}
	cat, err := h.categories.Create(c.Request.Context(), middleware.ViewerFrom(c), *req.Name, desc)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, "body must be a JSON object")
		return
	}
	cat, err := h.categories.Update(c.Request.Context(), middleware.ViewerFrom(c), id, req.Name, req.Description)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.categories.Delete(c.Request.Context(), middleware.ViewerFrom(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
