// Package store is the persistence boundary of the forum. Two implementations share
// these interfaces: GormStore backed by postgres and Memory for development and tests.
package store

import (
	"context"
	"errors"
	"time"

	"zugzwang/internal/models"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique constraint rejects a write.
var ErrDuplicate = errors.New("duplicate record")

// PostFilter is the predicate shared by the counting and the fetching side of a feed query,
// so that totals always describe the same rows as the page.
type PostFilter struct {
	Viewer      models.Viewer
	CategoryIDs []uint // any-of
	AuthorID    uint
	DateFrom    *time.Time
	DateTo      *time.Time
	Text        string
	// Status only narrows results for admin viewers.
	Status models.ContentStatus
}

type PostQuery struct {
	Filter PostFilter
	Sort   models.SortKey
	Order  models.SortOrder
	Limit  int // 0 means no limit
	Offset int
}

type CommentFilter struct {
	PostID   uint
	AuthorID uint
	Status   models.ContentStatus
}

type CommentQuery struct {
	Filter CommentFilter
	Sort   models.SortKey
	Order  models.SortOrder
	Limit  int
	Offset int
}

// PostChanges lists the columns an update touches; nil means unchanged.
type PostChanges struct {
	Title       *string
	Content     *string
	Status      *models.ContentStatus
	Locked      *bool
	CategoryIDs *[]uint
}

type CommentChanges struct {
	Content *string
	Status  *models.ContentStatus
	Locked  *bool
}

type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	FindUsers(ctx context.Context, ids []uint) ([]models.User, error)
	SetRating(ctx context.Context, id uint, rating int) error
}

type Posts interface {
	CreatePost(ctx context.Context, p *models.Post, categoryIDs []uint) error
	GetPost(ctx context.Context, id uint) (*models.Post, error)
	UpdatePost(ctx context.Context, id uint, ch PostChanges) error
	DeletePost(ctx context.Context, id uint) error
	QueryPosts(ctx context.Context, q PostQuery) ([]models.Post, error)
	CountPosts(ctx context.Context, f PostFilter) (int64, error)
	PostIDsByAuthor(ctx context.Context, authorID uint) ([]uint, error)
	// ActiveCommentCounts returns only posts with at least one active comment.
	ActiveCommentCounts(ctx context.Context, postIDs []uint) (map[uint]int, error)
}

type Comments interface {
	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, id uint) (*models.Comment, error)
	UpdateComment(ctx context.Context, id uint, ch CommentChanges) error
	DeleteComment(ctx context.Context, id uint) error
	CommentsForPost(ctx context.Context, postID uint) ([]models.Comment, error)
	QueryComments(ctx context.Context, q CommentQuery) ([]models.Comment, int64, error)
	CommentIDsByAuthor(ctx context.Context, authorID uint) ([]uint, error)
}

type Reactions interface {
	SetReaction(ctx context.Context, t models.Target, userID uint, typ models.ReactionType) error
	// RemoveReaction reports whether a row was deleted.
	RemoveReaction(ctx context.Context, t models.Target, userID uint) (bool, error)
	CountsFor(ctx context.Context, t models.Target) (models.Counts, error)
	// CountsForMany returns only targets with at least one reaction.
	CountsForMany(ctx context.Context, kind models.TargetKind, ids []uint) (map[uint]models.Counts, error)
	ListReactors(ctx context.Context, t models.Target) ([]models.Reaction, error)
}

type Blocks interface {
	// Block returns the number of rows written; blocking yourself writes none.
	Block(ctx context.Context, blockerID, blockedID uint) (int64, error)
	Unblock(ctx context.Context, blockerID, blockedID uint) (int64, error)
	BlockedBy(ctx context.Context, blockerID uint) ([]uint, error)
	BlockersOf(ctx context.Context, blockedID uint) ([]uint, error)
	IsBlockedEither(ctx context.Context, a, b uint) (bool, error)
}

type Categories interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id uint) (*models.Category, error)
	FindCategoryByName(ctx context.Context, name string) (*models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id uint) error
}

type Bookmarks interface {
	AddBookmark(ctx context.Context, userID, postID uint) error
	RemoveBookmark(ctx context.Context, userID, postID uint) (bool, error)
	BookmarkedPosts(ctx context.Context, userID uint) ([]models.Post, error)
}

// Store is everything the services need.
type Store interface {
	Users
	Posts
	Comments
	Reactions
	Blocks
	Categories
	Bookmarks
}
