package services

import (
	"context"

	"zugzwang/internal/models"
	"zugzwang/internal/store"
)

type BlockStatus struct {
	TargetID      uint `json:"target_id"`
	BlockedByMe   bool `json:"blocked_by_me"`
	BlockedMe     bool `json:"blocked_me"`
	BlockedEither bool `json:"blocked_either"`
}

type Blocks struct {
	store store.Store
}

func NewBlocks(s store.Store) *Blocks {
	return &Blocks{store: s}
}

// Block is idempotent. Blocking yourself is rejected here; the store itself treats it
// as a zero-row no-op.
func (s *Blocks) Block(ctx context.Context, v models.Viewer, targetID uint) error {
	if v.IsAnonymous() {
		return Unauthorized()
	}
	if targetID == v.ID {
		return Invalid("you cannot block yourself")
	}
	if _, err := s.store.GetUser(ctx, targetID); err != nil {
		return notFoundOr(err, "user")
	}
	if _, err := s.store.Block(ctx, v.ID, targetID); err != nil {
		return notFoundOr(err, "user")
	}
	return nil
}

// Unblock is idempotent; removing a missing edge succeeds.
func (s *Blocks) Unblock(ctx context.Context, v models.Viewer, targetID uint) error {
	if v.IsAnonymous() {
		return Unauthorized()
	}
	_, err := s.store.Unblock(ctx, v.ID, targetID)
	return err
}

func (s *Blocks) Status(ctx context.Context, v models.Viewer, targetID uint) (*BlockStatus, error) {
	if v.IsAnonymous() {
		return nil, Unauthorized()
	}
	mine, err := s.store.BlockedBy(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	theirs, err := s.store.BlockersOf(ctx, v.ID)
	if err != nil {
		return nil, err
	}

	st := &BlockStatus{TargetID: targetID}
	for _, id := range mine {
		if id == targetID {
			st.BlockedByMe = true
		}
	}
	for _, id := range theirs {
		if id == targetID {
			st.BlockedMe = true
		}
	}
	st.BlockedEither = st.BlockedByMe || st.BlockedMe
	return st, nil
}

// Blocked lists the profiles v has blocked.
func (s *Blocks) Blocked(ctx context.Context, v models.Viewer) ([]models.User, error) {
	if v.IsAnonymous() {
		return nil, Unauthorized()
	}
	ids, err := s.store.BlockedBy(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	return s.store.FindUsers(ctx, ids)
}

// Blockers lists the profiles that blocked v.
func (s *Blocks) Blockers(ctx context.Context, v models.Viewer) ([]models.User, error) {
	if v.IsAnonymous() {
		return nil, Unauthorized()
	}
	ids, err := s.store.BlockersOf(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	return s.store.FindUsers(ctx, ids)
}
