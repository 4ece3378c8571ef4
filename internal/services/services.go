// Package services holds the forum engine: visibility, moderation, reputation,
// threading and the feed planner. Every operation takes the acting viewer explicitly.
package services

import (
	"zugzwang/internal/store"

	"go.uber.org/zap"
)

// Services bundles the engine around one store.
type Services struct {
	Posts      *Posts
	Comments   *Comments
	Reactions  *Reactions
	Blocks     *Blocks
	Categories *Categories
	Users      *Users
	Bookmarks  *Bookmarks
	Reputation *Reputation
	Visibility *Visibility
}

func New(s store.Store, log *zap.Logger, cacheSize int) (*Services, error) {
	cats, err := NewCategories(s, cacheSize)
	if err != nil {
		return nil, err
	}
	vis := NewVisibility(s)
	rep := NewReputation(s, log)
	posts := NewPosts(s, vis, cats, rep, log)

	return &Services{
		Posts:      posts,
		Comments:   NewComments(s, vis, rep, log),
		Reactions:  NewReactions(s, vis, rep),
		Blocks:     NewBlocks(s),
		Categories: cats,
		Users:      NewUsers(s, rep),
		Bookmarks:  NewBookmarks(s, posts, vis),
		Reputation: rep,
		Visibility: vis,
	}, nil
}
