package services

import (
	"context"
	"math"
	"time"

	"zugzwang/internal/models"
	"zugzwang/internal/store"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// FeedCriteria is a post listing request.
type FeedCriteria struct {
	Viewer     models.Viewer
	Categories []string // ids or names, any-of
	AuthorID   uint
	DateFrom   *time.Time
	DateTo     *time.Time
	Query      string
	Status     models.ContentStatus // honoured for admins only
	Sort       models.SortKey
	Order      models.SortOrder
	Page       int
	Limit      int
}

// PageMode reports whether the caller asked for a single page.
func (c FeedCriteria) PageMode() bool {
	return c.Page > 0 && c.Limit > 0
}

type Paging struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PerPage    int   `json:"perPage"`
	TotalPages int   `json:"totalPages"`
}

// FeedPage is either the full list (Paging nil) or one page.
type FeedPage struct {
	Items  []models.Post `json:"items"`
	Paging *Paging       `json:"paging,omitempty"`
}

// ClampPerPage keeps perPage within [1, MaxPerPage], DefaultPerPage for non-positive input.
func ClampPerPage(limit int) int {
	switch {
	case limit <= 0:
		return DefaultPerPage
	case limit > MaxPerPage:
		return MaxPerPage
	}
	return limit
}

// TotalPages is ceil(total/perPage), never below 1.
func TotalPages(total int64, perPage int) int {
	pages := int(math.Ceil(float64(total) / float64(perPage)))
	if pages < 1 {
		pages = 1
	}
	return pages
}

func newPaging(total int64, page, perPage int) *Paging {
	if page < 1 {
		page = 1
	}
	return &Paging{Total: total, Page: page, PerPage: perPage, TotalPages: TotalPages(total, perPage)}
}

// Feed plans and runs a post listing. Visibility and block exclusion are part of the
// store predicate, so totals and pages agree.
func (s *Posts) Feed(ctx context.Context, c FeedCriteria) (*FeedPage, error) {
	if c.DateFrom != nil && c.DateTo != nil && c.DateFrom.After(*c.DateTo) {
		return nil, Invalid("date_from must not be after date_to")
	}

	filter := store.PostFilter{
		Viewer:   c.Viewer,
		AuthorID: c.AuthorID,
		DateFrom: c.DateFrom,
		DateTo:   c.DateTo,
		Text:     c.Query,
	}
	if c.Viewer.IsAdmin() && c.Status != "" {
		if !c.Status.Valid() {
			return nil, Invalid("status must be active or inactive")
		}
		filter.Status = c.Status
	}

	perPage := ClampPerPage(c.Limit)
	if len(c.Categories) > 0 {
		ids, err := s.categories.Resolve(ctx, c.Categories)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			// none of the requested categories exist
			return emptyFeed(c, perPage), nil
		}
		filter.CategoryIDs = ids
	}

	q := store.PostQuery{Filter: filter, Sort: c.Sort, Order: c.Order}
	if q.Sort == "" {
		q.Sort = models.SortLikes
	}
	if q.Order == "" {
		q.Order = models.OrderDesc
	}

	page := &FeedPage{}
	if c.PageMode() {
		total, err := s.store.CountPosts(ctx, filter)
		if err != nil {
			return nil, err
		}
		page.Paging = newPaging(total, c.Page, perPage)
		q.Limit = perPage
		q.Offset = (page.Paging.Page - 1) * perPage
	}

	items, err := s.store.QueryPosts(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := s.decorateAll(ctx, items); err != nil {
		return nil, err
	}
	page.Items = items
	return page, nil
}

func emptyFeed(c FeedCriteria, perPage int) *FeedPage {
	page := &FeedPage{Items: []models.Post{}}
	if c.PageMode() {
		page.Paging = newPaging(0, c.Page, perPage)
	}
	return page
}
