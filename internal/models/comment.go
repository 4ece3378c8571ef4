package models

import (
	"time"
)

type Comment struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	PostID    uint          `gorm:"not null;index" json:"post_id"`
	Post      *Post         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	AuthorID  uint          `gorm:"not null;index" json:"author_id"`
	Author    User          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	ParentID  *uint         `gorm:"index" json:"parent_id"` // Nullable for top-level comments
	Parent    *Comment      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Content   string        `gorm:"type:text;not null" json:"content"`
	Status    ContentStatus `gorm:"size:16;default:'active';not null;index" json:"status"`
	Locked    bool          `gorm:"default:false;not null" json:"locked"`
	CreatedAt time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	// 非数据库字段
	Likes       int    `gorm:"-" json:"likes"`
	Dislikes    int    `gorm:"-" json:"dislikes"`
	Score       int    `gorm:"-" json:"score"`
	ContentHTML string `gorm:"-" json:"content_html,omitempty"`
}

func (c *Comment) ApplyCounts(counts Counts) {
	c.Likes = counts.Like
	c.Dislikes = counts.Dislike
	c.Score = counts.Score()
}
