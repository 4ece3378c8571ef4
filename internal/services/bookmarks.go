package services

import (
	"context"

	"zugzwang/internal/models"
	"zugzwang/internal/store"
)

type Bookmarks struct {
	store      store.Store
	posts      *Posts
	visibility *Visibility
}

func NewBookmarks(s store.Store, posts *Posts, vis *Visibility) *Bookmarks {
	return &Bookmarks{store: s, posts: posts, visibility: vis}
}

// Add bookmarks a visible post; repeating it is a no-op.
func (s *Bookmarks) Add(ctx context.Context, v models.Viewer, postID uint) error {
	if v.IsAnonymous() {
		return Unauthorized()
	}
	if _, err := s.posts.load(ctx, v, postID); err != nil {
		return err
	}
	if err := s.store.AddBookmark(ctx, v.ID, postID); err != nil {
		return notFoundOr(err, "post")
	}
	return nil
}

// Remove is idempotent.
func (s *Bookmarks) Remove(ctx context.Context, v models.Viewer, postID uint) error {
	if v.IsAnonymous() {
		return Unauthorized()
	}
	_, err := s.store.RemoveBookmark(ctx, v.ID, postID)
	return err
}

// List returns v's bookmarks, newest first. Inactive posts only show up for admins and
// posts by blocked users are dropped.
func (s *Bookmarks) List(ctx context.Context, v models.Viewer) ([]models.Post, error) {
	if v.IsAnonymous() {
		return nil, Unauthorized()
	}
	posts, err := s.store.BookmarkedPosts(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	blocks, err := s.visibility.BlockSet(ctx, v)
	if err != nil {
		return nil, err
	}

	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if p.Status != models.StatusActive && !v.IsAdmin() {
			continue
		}
		if !Listed(v, p.AuthorID, p.Status, blocks) {
			continue
		}
		out = append(out, p)
	}
	if err := s.posts.decorateAll(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}
