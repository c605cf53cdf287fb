package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a login identity. Passwords are stored as bcrypt hashes
// and never serialised.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	SicilNo      string     `gorm:"uniqueIndex;size:50;not null" json:"sicilNo"`
	FullName     string     `gorm:"size:255;not null" json:"fullName"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         Role       `gorm:"size:20;not null;default:CHEF" json:"role"`
	State        Lifecycle  `gorm:"size:20;not null;default:ACTIVE;index" json:"state"`
	IsActive     bool       `gorm:"-" json:"isActive"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	SearchKey    string     `gorm:"size:320;index" json:"-"`
}

func (u *User) BeforeSave(*gorm.DB) error {
	u.State = u.State.orDefault()
	if u.Role == "" {
		u.Role = RoleChef
	}
	u.IsActive = !u.State.IsEffectivelyDeleted()
	u.SearchKey = SearchKey(u.SicilNo, u.FullName)
	return nil
}

func (u *User) AfterFind(*gorm.DB) error {
	u.IsActive = !u.State.IsEffectivelyDeleted()
	return nil
}
