package services

import (
	"context"

	"zugzwang/internal/models"
	"zugzwang/internal/store"
)

type Reactions struct {
	store      store.Store
	visibility *Visibility
	reputation *Reputation
}

func NewReactions(s store.Store, vis *Visibility, rep *Reputation) *Reactions {
	return &Reactions{store: s, visibility: vis, reputation: rep}
}

// visibleTarget loads t and returns its author if v may see it.
func (s *Reactions) visibleTarget(ctx context.Context, v models.Viewer, t models.Target) (uint, error) {
	if t.Kind == models.TargetComment {
		c, err := s.store.GetComment(ctx, t.ID)
		if err != nil {
			return 0, notFoundOr(err, "comment")
		}
		post, err := s.store.GetPost(ctx, c.PostID)
		if err != nil {
			return 0, notFoundOr(err, "comment")
		}
		ok, err := s.visibility.CanSeeComment(ctx, v, c, post)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, NotFound("comment")
		}
		return c.AuthorID, nil
	}

	p, err := s.store.GetPost(ctx, t.ID)
	if err != nil {
		return 0, notFoundOr(err, "post")
	}
	ok, err := s.visibility.CanSeePost(ctx, v, p)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, NotFound("post")
	}
	return p.AuthorID, nil
}

// React sets v's reaction on t, replacing any earlier one, and returns the new counts.
// Locks never block reactions.
func (s *Reactions) React(ctx context.Context, v models.Viewer, t models.Target, typ models.ReactionType) (models.Counts, error) {
	if v.IsAnonymous() {
		return models.Counts{}, Unauthorized()
	}
	if !typ.Valid() {
		return models.Counts{}, Invalid("type must be like or dislike")
	}
	authorID, err := s.visibleTarget(ctx, v, t)
	if err != nil {
		return models.Counts{}, err
	}

	if err := s.store.SetReaction(ctx, t, v.ID, typ); err != nil {
		return models.Counts{}, notFoundOr(err, string(t.Kind))
	}
	s.reputation.RecomputeQuietly(ctx, authorID)

	return s.store.CountsFor(ctx, t)
}

// Unreact removes a reaction. userID selects whose reaction goes: zero or v.ID means v's
// own, anything else requires an admin.
func (s *Reactions) Unreact(ctx context.Context, v models.Viewer, t models.Target, userID uint) (models.Counts, error) {
	if v.IsAnonymous() {
		return models.Counts{}, Unauthorized()
	}
	if userID == 0 {
		userID = v.ID
	}
	if userID != v.ID && !v.IsAdmin() {
		return models.Counts{}, Forbidden(msgAdminOnly)
	}
	authorID, err := s.visibleTarget(ctx, v, t)
	if err != nil {
		return models.Counts{}, err
	}

	removed, err := s.store.RemoveReaction(ctx, t, userID)
	if err != nil {
		return models.Counts{}, err
	}
	if !removed {
		return models.Counts{}, NotFound("reaction")
	}
	s.reputation.RecomputeQuietly(ctx, authorID)

	return s.store.CountsFor(ctx, t)
}

// List returns the counts and the individual reactions on t.
func (s *Reactions) List(ctx context.Context, v models.Viewer, t models.Target) (models.Counts, []models.Reaction, error) {
	if _, err := s.visibleTarget(ctx, v, t); err != nil {
		return models.Counts{}, nil, err
	}
	counts, err := s.store.CountsFor(ctx, t)
	if err != nil {
		return models.Counts{}, nil, err
	}
	items, err := s.store.ListReactors(ctx, t)
	if err != nil {
		return models.Counts{}, nil, err
	}
	return counts, items, nil
}
