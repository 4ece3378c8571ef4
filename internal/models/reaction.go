package models

import (
	"time"
)

// ReactionType like / dislike
type ReactionType string

const (
	ReactionLike    ReactionType = "like"
	ReactionDislike ReactionType = "dislike"
)

func (t ReactionType) Valid() bool {
	return t == ReactionLike || t == ReactionDislike
}

// TargetKind 被反应的内容类型
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

// Target identifies a post or a comment.
type Target struct {
	Kind TargetKind
	ID   uint
}

func PostTarget(id uint) Target    { return Target{Kind: TargetPost, ID: id} }
func CommentTarget(id uint) Target { return Target{Kind: TargetComment, ID: id} }

// PostReaction 每个 (post, user) 仅一行，重复反应时原地覆盖 type
type PostReaction struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	PostID    uint         `gorm:"not null;uniqueIndex:idx_post_reaction_user" json:"post_id"`
	Post      Post         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    uint         `gorm:"not null;index;uniqueIndex:idx_post_reaction_user" json:"user_id"`
	Type      ReactionType `gorm:"size:8;not null" json:"type"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type CommentReaction struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	CommentID uint         `gorm:"not null;uniqueIndex:idx_comment_reaction_user" json:"comment_id"`
	Comment   Comment      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    uint         `gorm:"not null;index;uniqueIndex:idx_comment_reaction_user" json:"user_id"`
	Type      ReactionType `gorm:"size:8;not null" json:"type"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Reaction is the read shape shared by both reaction tables.
type Reaction struct {
	UserID    uint         `json:"user_id"`
	Type      ReactionType `json:"type"`
	CreatedAt time.Time    `json:"created_at"`
}

// Counts 聚合后的点赞/点踩数
type Counts struct {
	Like    int `json:"like"`
	Dislike int `json:"dislike"`
}

// Score is likes minus dislikes.
func (c Counts) Score() int {
	return c.Like - c.Dislike
}
