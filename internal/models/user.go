package models

import (
	"time"
)

// Role 用户身份
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Login     string    `gorm:"size:64;uniqueIndex;not null" json:"login"`
	FullName  string    `gorm:"size:128" json:"full_name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"-"`
	Password  string    `gorm:"not null" json:"-"` // bcrypt hash
	Rating    int       `gorm:"default:0;not null" json:"rating"`                // derived from reactions, see services.Reputation
	Status    Role      `gorm:"size:20;default:'user';not null" json:"status"` // user, admin
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Status == RoleAdmin
}

// Viewer is the identity a request acts as. The zero value is the anonymous viewer.
type Viewer struct {
	ID   uint
	Role Role
}

func ViewerOf(u *User) Viewer {
	if u == nil {
		return Viewer{}
	}
	return Viewer{ID: u.ID, Role: u.Status}
}

func (v Viewer) IsAnonymous() bool {
	return v.ID == 0
}

func (v Viewer) IsAdmin() bool {
	return v.ID != 0 && v.Role == RoleAdmin
}

// Owns reports whether the viewer authored something written by authorID.
func (v Viewer) Owns(authorID uint) bool {
	return v.ID != 0 && v.ID == authorID
}
