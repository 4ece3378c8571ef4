package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"zugzwang/internal/models"
	"zugzwang/internal/store"
	"zugzwang/internal/utils"

	"go.uber.org/zap"
)

const (
	maxTitleLength       = 300
	maxPostContentLength = 20000
)

type PostInput struct {
	Title      string
	Content    string
	Categories []string
	Locked     bool
	Status     models.ContentStatus
}

// PostPatch is an author update; nil fields are left alone.
type PostPatch struct {
	Title      *string
	Content    *string
	Categories *[]string
	Locked     *bool
}

func (p PostPatch) edits() bool {
	return p.Title != nil || p.Content != nil || p.Categories != nil
}

// ModerationPatch is an admin update. Categories only apply to posts.
type ModerationPatch struct {
	Status     *models.ContentStatus
	Locked     *bool
	Categories *[]string
}

type Posts struct {
	store      store.Store
	visibility *Visibility
	categories *Categories
	reputation *Reputation
	log        *zap.Logger
}

func NewPosts(s store.Store, vis *Visibility, cats *Categories, rep *Reputation, log *zap.Logger) *Posts {
	return &Posts{store: s, visibility: vis, categories: cats, reputation: rep, log: log}
}

func validTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", Invalid("title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", Invalid("title must be at most %d characters", maxTitleLength)
	}
	return title, nil
}

func validPostContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", Invalid("content is required")
	}
	if utf8.RuneCountInString(content) > maxPostContentLength {
		return "", Invalid("content must be at most %d characters", maxPostContentLength)
	}
	return content, nil
}

func (s *Posts) Create(ctx context.Context, v models.Viewer, in PostInput) (*models.Post, error) {
	if v.IsAnonymous() {
		return nil, Unauthorized()
	}
	title, err := validTitle(in.Title)
	if err != nil {
		return nil, err
	}
	content, err := validPostContent(in.Content)
	if err != nil {
		return nil, err
	}

	status := models.StatusActive
	if in.Status != "" {
		if !in.Status.Valid() {
			return nil, Invalid("status must be active or inactive")
		}
		if in.Status != models.StatusActive && !v.IsAdmin() {
			return nil, Forbidden(msgAdminOnly)
		}
		status = in.Status
	}

	if len(in.Categories) == 0 {
		return nil, Invalid("at least one category is required")
	}
	categoryIDs, err := s.categories.ResolveStrict(ctx, in.Categories)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		AuthorID: v.ID,
		Title:    title,
		Content:  content,
		Status:   status,
		Locked:   in.Locked,
	}
	if err := s.store.CreatePost(ctx, post, categoryIDs); err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, []*models.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

// load returns the post if v may see it; invisible and missing posts are both NotFound.
func (s *Posts) load(ctx context.Context, v models.Viewer, id uint) (*models.Post, error) {
	p, err := s.store.GetPost(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "post")
	}
	ok, err := s.visibility.CanSeePost(ctx, v, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NotFound("post")
	}
	return p, nil
}

func (s *Posts) Get(ctx context.Context, v models.Viewer, id uint) (*models.Post, error) {
	p, err := s.load(ctx, v, id)
	if err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, []*models.Post{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateByAuthor edits content or toggles the lock. Editing requires the post to be
// unlocked, and an unlock cannot be combined with an edit.
func (s *Posts) UpdateByAuthor(ctx context.Context, v models.Viewer, id uint, patch PostPatch) (*models.Post, error) {
	if v.IsAnonymous() {
		return nil, Unauthorized()
	}
	p, err := s.load(ctx, v, id)
	if err != nil {
		return nil, err
	}
	if err := checkAuthorUpdate(v, postState(p), patch.Locked, patch.edits()); err != nil {
		return nil, err
	}

	ch := store.PostChanges{Locked: patch.Locked}
	if patch.Title != nil {
		title, err := validTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		ch.Title = &title
	}
	if patch.Content != nil {
		content, err := validPostContent(*patch.Content)
		if err != nil {
			return nil, err
		}
		ch.Content = &content
	}
	if patch.Categories != nil {
		if len(*patch.Categories) == 0 {
			return nil, Invalid("at least one category is required")
		}
		ids, err := s.categories.ResolveStrict(ctx, *patch.Categories)
		if err != nil {
			return nil, err
		}
		ch.CategoryIDs = &ids
	}

	if err := s.store.UpdatePost(ctx, id, ch); err != nil {
		return nil, notFoundOr(err, "post")
	}
	return s.Get(ctx, v, id)
}

// Moderate applies an admin status/lock/category change.
func (s *Posts) Moderate(ctx context.Context, v models.Viewer, id uint, patch ModerationPatch) (*models.Post, error) {
	if !v.IsAdmin() {
		return nil, Forbidden(msgAdminOnly)
	}
	p, err := s.load(ctx, v, id)
	if err != nil {
		return nil, err
	}
	if err := checkModeration(v, postState(p), patch.Status, patch.Locked, patch.Categories != nil); err != nil {
		return nil, err
	}

	ch := store.PostChanges{Status: patch.Status, Locked: patch.Locked}
	if patch.Categories != nil {
		ids, err := s.categories.ResolveStrict(ctx, *patch.Categories)
		if err != nil {
			return nil, err
		}
		ch.CategoryIDs = &ids
	}
	if err := s.store.UpdatePost(ctx, id, ch); err != nil {
		return nil, notFoundOr(err, "post")
	}

	s.log.Info("post moderated",
		zap.Uint("post_id", id),
		zap.Uint("admin_id", v.ID),
		zap.Stringp("status", (*string)(patch.Status)),
		zap.Boolp("locked", patch.Locked))
	return s.Get(ctx, v, id)
}

// Delete removes the post with its comments and reactions, then refreshes the ratings
// of everyone whose content went with it.
func (s *Posts) Delete(ctx context.Context, v models.Viewer, id uint) error {
	if v.IsAnonymous() {
		return Unauthorized()
	}
	p, err := s.load(ctx, v, id)
	if err != nil {
		return err
	}
	if !canDeletePost(v, p) {
		return Forbidden("only the author or an admin may delete this post")
	}

	comments, err := s.store.CommentsForPost(ctx, id)
	if err != nil {
		return err
	}
	affected := []uint{p.AuthorID}
	for _, c := range comments {
		affected = append(affected, c.AuthorID)
	}

	if err := s.store.DeletePost(ctx, id); err != nil {
		return notFoundOr(err, "post")
	}
	s.reputation.RecomputeQuietly(ctx, affected...)
	return nil
}

// decorate attaches reaction counts, active comment counts and rendered content.
func (s *Posts) decorate(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}

	counts, err := s.store.CountsForMany(ctx, models.TargetPost, ids)
	if err != nil {
		return err
	}
	comments, err := s.store.ActiveCommentCounts(ctx, ids)
	if err != nil {
		return err
	}
	for _, p := range posts {
		p.ApplyCounts(counts[p.ID])
		p.CommentCount = comments[p.ID]
		p.ContentHTML = utils.RenderMarkdown(p.Content)
	}
	return nil
}

func (s *Posts) decorateAll(ctx context.Context, posts []models.Post) error {
	ptrs := make([]*models.Post, len(posts))
	for i := range posts {
		ptrs[i] = &posts[i]
	}
	return s.decorate(ctx, ptrs)
}
