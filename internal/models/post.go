package models

import (
	"time"
)

// ContentStatus 帖子/评论的可见状态
type ContentStatus string

const (
	StatusActive   ContentStatus = "active"
	StatusInactive ContentStatus = "inactive"
)

func (s ContentStatus) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

type Post struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	AuthorID   uint          `gorm:"not null;index" json:"author_id"`
	Author     User          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Title      string        `gorm:"size:300;not null" json:"title"`
	Content    string        `gorm:"type:text" json:"content"`
	Status     ContentStatus `gorm:"size:16;default:'active';not null;index" json:"status"`
	Locked     bool          `gorm:"default:false;not null" json:"locked"`
	Categories []Category    `gorm:"many2many:post_categories;constraint:OnDelete:CASCADE;" json:"categories"`
	CreatedAt  time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`

	// 非数据库字段，用于查询时填充
	Likes        int    `gorm:"-" json:"likes"`
	Dislikes     int    `gorm:"-" json:"dislikes"`
	Score        int    `gorm:"-" json:"score"`
	CommentCount int    `gorm:"-" json:"comments"`
	ContentHTML  string `gorm:"-" json:"content_html,omitempty"`
}

func (p *Post) ApplyCounts(c Counts) {
	p.Likes = c.Like
	p.Dislikes = c.Dislike
	p.Score = c.Score()
}

// Category 扁平标签，与 Post 多对多
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:64;not null;uniqueIndex" json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategoryIDs returns the ids of the post's categories in their stored order.
func (p *Post) CategoryIDs() []uint {
	ids := make([]uint, 0, len(p.Categories))
	for _, c := range p.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}
