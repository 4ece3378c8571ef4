package services

import (
	"context"

	"zugzwang/internal/models"
	"zugzwang/internal/store"
)

// BlockSet holds every user a viewer is blocked with, in either direction.
type BlockSet map[uint]struct{}

func (b BlockSet) Has(userID uint) bool {
	_, ok := b[userID]
	return ok
}

// Visible decides whether v may open a single item.
//
// Admins see everything. Inactive items are only shown to their author. An authenticated
// viewer never sees a non-own item whose author is blocked with them either way.
// Anonymous viewers see active items and skip the block rule.
func Visible(v models.Viewer, authorID uint, status models.ContentStatus, blocked bool) bool {
	if v.IsAdmin() {
		return true
	}
	own := v.Owns(authorID)
	if status != models.StatusActive && !own {
		return false
	}
	if !v.IsAnonymous() && !own && blocked {
		return false
	}
	return true
}

func PostVisible(v models.Viewer, p *models.Post, blocks BlockSet) bool {
	return Visible(v, p.AuthorID, p.Status, blocks.Has(p.AuthorID))
}

// CommentVisible also requires the parent post to be visible.
func CommentVisible(v models.Viewer, c *models.Comment, parent *models.Post, blocks BlockSet) bool {
	return PostVisible(v, parent, blocks) && Visible(v, c.AuthorID, c.Status, blocks.Has(c.AuthorID))
}

// Listed is the list-level rule: like Visible, except that block exclusion also
// applies to admins. It mirrors the predicate the stores push into SQL.
func Listed(v models.Viewer, authorID uint, status models.ContentStatus, blocks BlockSet) bool {
	if v.IsAdmin() {
		return v.Owns(authorID) || !blocks.Has(authorID)
	}
	return Visible(v, authorID, status, blocks.Has(authorID))
}

// Visibility loads the block relations the pure rules need.
type Visibility struct {
	blocks store.Blocks
}

func NewVisibility(blocks store.Blocks) *Visibility {
	return &Visibility{blocks: blocks}
}

// BlockSet returns the symmetric block set of v; empty for anonymous viewers.
func (vis *Visibility) BlockSet(ctx context.Context, v models.Viewer) (BlockSet, error) {
	set := make(BlockSet)
	if v.IsAnonymous() {
		return set, nil
	}
	mine, err := vis.blocks.BlockedBy(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	theirs, err := vis.blocks.BlockersOf(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	for _, id := range mine {
		set[id] = struct{}{}
	}
	for _, id := range theirs {
		set[id] = struct{}{}
	}
	delete(set, v.ID)
	return set, nil
}

// pairBlocks builds a BlockSet covering only the given authors, which is cheaper than
// the full set when checking a single item.
func (vis *Visibility) pairBlocks(ctx context.Context, v models.Viewer, authorIDs ...uint) (BlockSet, error) {
	set := make(BlockSet)
	if v.IsAnonymous() || v.IsAdmin() {
		return set, nil
	}
	for _, id := range authorIDs {
		if id == v.ID || set.Has(id) {
			continue
		}
		blocked, err := vis.blocks.IsBlockedEither(ctx, v.ID, id)
		if err != nil {
			return nil, err
		}
		if blocked {
			set[id] = struct{}{}
		}
	}
	return set, nil
}

func (vis *Visibility) CanSeePost(ctx context.Context, v models.Viewer, p *models.Post) (bool, error) {
	blocks, err := vis.pairBlocks(ctx, v, p.AuthorID)
	if err != nil {
		return false, err
	}
	return PostVisible(v, p, blocks), nil
}

func (vis *Visibility) CanSeeComment(ctx context.Context, v models.Viewer, c *models.Comment, parent *models.Post) (bool, error) {
	blocks, err := vis.pairBlocks(ctx, v, parent.AuthorID, c.AuthorID)
	if err != nil {
		return false, err
	}
	return CommentVisible(v, c, parent, blocks), nil
}
