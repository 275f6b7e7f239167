package models

import "time"

// User is an identity known to the sign-in flow. Its ID is the owner id that
// scopes every drink record.
type User struct {
	Base
	Email               string     `gorm:"uniqueIndex;not null" json:"email"`
	Password            string     `gorm:"not null" json:"-"`
	DisplayName         string     `json:"display_name"`
	IsActive            bool       `gorm:"default:true" json:"is_active"`
	RefreshTokenHash    string     `gorm:"size:64" json:"-"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	Drinks              []Drink    `gorm:"foreignKey:OwnerID" json:"-"`
}
