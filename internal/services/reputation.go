package services

import (
	"context"
	"fmt"

	"zugzwang/internal/models"
	"zugzwang/internal/store"

	"go.uber.org/zap"
)

// Reputation derives a user's rating from the reactions on everything they authored.
type Reputation struct {
	store store.Store
	log   *zap.Logger
}

func NewReputation(s store.Store, log *zap.Logger) *Reputation {
	return &Reputation{store: s, log: log}
}

// ComputeRating sums likes minus dislikes over all counts, clamped at zero.
func ComputeRating(counts ...map[uint]models.Counts) int {
	total := 0
	for _, set := range counts {
		for _, c := range set {
			total += c.Score()
		}
	}
	if total < 0 {
		return 0
	}
	return total
}

// Recompute rebuilds the rating of userID from scratch and persists it.
// Concurrent recomputes are last-write-wins; each one reads the full current state.
func (r *Reputation) Recompute(ctx context.Context, userID uint) (int, error) {
	postIDs, err := r.store.PostIDsByAuthor(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("authored posts: %w", err)
	}
	commentIDs, err := r.store.CommentIDsByAuthor(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("authored comments: %w", err)
	}

	postCounts, err := r.store.CountsForMany(ctx, models.TargetPost, postIDs)
	if err != nil {
		return 0, fmt.Errorf("post reactions: %w", err)
	}
	commentCounts, err := r.store.CountsForMany(ctx, models.TargetComment, commentIDs)
	if err != nil {
		return 0, fmt.Errorf("comment reactions: %w", err)
	}

	rating := ComputeRating(postCounts, commentCounts)
	if err := r.store.SetRating(ctx, userID, rating); err != nil {
		return 0, fmt.Errorf("persist rating: %w", err)
	}
	return rating, nil
}

// RecomputeQuietly is the best-effort form used after mutations: failures are logged
// and never reach the caller.
func (r *Reputation) RecomputeQuietly(ctx context.Context, userIDs ...uint) {
	// the triggering write is already committed; a client hanging up must not skip this
	ctx = context.WithoutCancel(ctx)
	seen := make(map[uint]bool, len(userIDs))
	for _, id := range userIDs {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		if _, err := r.Recompute(ctx, id); err != nil {
			r.log.Warn("rating recompute failed", zap.Uint("user_id", id), zap.Error(err))
		}
	}
}
