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

type PostHandler struct {
	posts *services.Posts
	log   *zap.Logger
}

func NewPostHandler(posts *services.Posts, log *zap.Logger) *PostHandler {
	return &PostHandler{posts: posts, log: log}
}

// feedCriteria reads the listing query string shared by every post list.
func feedCriteria(c *gin.Context) (services.FeedCriteria, error) {
	crit := services.FeedCriteria{
		Viewer:     middleware.ViewerFrom(c),
		Categories: utils.SplitCSV(c.QueryArray("categories")...),
		Query:      strings.TrimSpace(c.Query("q")),
		Status:     models.ContentStatus(strings.ToLower(c.Query("status"))),
		Sort:       models.ParseSortKey(c.Query("sort")),
		Order:      models.ParseSortOrder(c.Query("order")),
	}
	crit.Page, crit.Limit = pageParams(c)

	if raw := c.Query("author_id"); raw != "" {
		id, ok := utils.ParseID(raw)
		if !ok {
			return crit, services.Invalid("author_id must be a positive integer")
		}
		crit.AuthorID = id
	}
	var err error
	if crit.DateFrom, err = parseDate(c.Query("date_from"), false); err != nil {
		return crit, err
	}
	if crit.DateTo, err = parseDate(c.Query("date_to"), true); err != nil {
		return crit, err
	}
	return crit, nil
}

func writeFeed(c *gin.Context, log *zap.Logger, posts *services.Posts, crit services.FeedCriteria) {
	page, err := posts.Feed(c.Request.Context(), crit)
	if err != nil {
		respondError(c, log, err)
		return
	}
	writeList(c, page.Items, page.Paging)
}

// List GET /api/posts
func (h *PostHandler) List(c *gin.Context) {
	crit, err := feedCriteria(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	writeFeed(c, h.log, h.posts, crit)
}

type createPostRequest struct {
	Title      string `json:"title" binding:"required"`
	Content    string `json:"content" binding:"required"`
	Categories any    `json:"categories" binding:"required"`
	Locked     any    `json:"locked"`
	Status     string `json:"status"`
}

// Create POST /api/posts
func (h *PostHandler) Create(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, "title, content and categories are required")
		return
	}
	cats, err := categoryTokens(req.Categories)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	in := services.PostInput{
		Title:      req.Title,
		Content:    req.Content,
		Categories: cats,
		Status:     models.ContentStatus(strings.ToLower(strings.TrimSpace(req.Status))),
	}
	if req.Locked != nil {
		locked, ok := utils.ParseFlag(req.Locked)
		if !ok {
			invalid(c, "locked must be a boolean")
			return
		}
		in.Locked = locked
	}

	post, err := h.posts.Create(c.Request.Context(), middleware.ViewerFrom(c), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// Get GET /api/posts/:id
func (h *PostHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	post, err := h.posts.Get(c.Request.Context(), middleware.ViewerFrom(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Update PATCH /api/posts/:id, the author endpoint. Status changes belong to moderation.
func (h *PostHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	fields, ok := bindFields(c)
	if !ok {
		return
	}
	patch, err := postPatch(fields)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	post, err := h.posts.UpdateByAuthor(c.Request.Context(), middleware.ViewerFrom(c), id, patch)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func postPatch(fields jsonFields) (services.PostPatch, error) {
	var (
		patch services.PostPatch
		err   error
	)
	if err = fields.reject("status"); err != nil {
		return patch, err
	}
	if patch.Title, err = fields.str("title"); err != nil {
		return patch, err
	}
	if patch.Content, err = fields.str("content"); err != nil {
		return patch, err
	}
	if patch.Categories, err = fields.categories("categories"); err != nil {
		return patch, err
	}
	patch.Locked, err = fields.flag("locked")
	return patch, err
}

func moderationPatch(fields jsonFields, withCategories bool) (services.ModerationPatch, error) {
	var (
		patch services.ModerationPatch
		err   error
	)
	if err = fields.reject("title", "content"); err != nil {
		return patch, err
	}
	if !withCategories {
		if err = fields.reject("categories"); err != nil {
			return patch, err
		}
	}
	if patch.Status, err = fields.status("status"); err != nil {
		return patch, err
	}
	if patch.Locked, err = fields.flag("locked"); err != nil {
		return patch, err
	}
	patch.Categories, err = fields.categories("categories")
	return patch, err
}

// Delete DELETE /api/posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.posts.Delete(c.Request.Context(), middleware.ViewerFrom(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
