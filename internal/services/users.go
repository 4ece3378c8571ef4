package services

import (
	"context"

	"zugzwang/internal/models"
	"zugzwang/internal/store"
)

type Users struct {
	store      store.Store
	reputation *Reputation
}

func NewUsers(s store.Store, rep *Reputation) *Users {
	return &Users{store: s, reputation: rep}
}

func (s *Users) Profile(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return u, nil
}

// SetRating is the admin override. The next reaction on the user's content recomputes
// the rating and replaces the override.
func (s *Users) SetRating(ctx context.Context, v models.Viewer, id uint, rating int) (*models.User, error) {
	if !v.IsAdmin() {
		return nil, Forbidden(msgAdminOnly)
	}
	if rating < 0 {
		return nil, Invalid("rating cannot be negative")
	}
	if err := s.store.SetRating(ctx, id, rating); err != nil {
		return nil, notFoundOr(err, "user")
	}
	return s.Profile(ctx, id)
}

// Recompute rebuilds a user's rating on demand.
func (s *Users) Recompute(ctx context.Context, v models.Viewer, id uint) (*models.User, error) {
	if !v.IsAdmin() {
		return nil, Forbidden(msgAdminOnly)
	}
	if _, err := s.Profile(ctx, id); err != nil {
		return nil, err
	}
	if _, err := s.reputation.Recompute(ctx, id); err != nil {
		return nil, err
	}
	return s.Profile(ctx, id)
}
