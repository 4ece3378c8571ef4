package models

import (
	"time"
)

// Block 有向屏蔽边 blocker -> blocked
type Block struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BlockerID uint      `gorm:"not null;uniqueIndex:idx_blocker_blocked" json:"blocker_id"`
	Blocker   User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	BlockedID uint      `gorm:"not null;index;uniqueIndex:idx_blocker_blocked" json:"blocked_id"`
	Blocked   User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
