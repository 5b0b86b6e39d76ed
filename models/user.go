package models

import (
	"time"

	"gorm.io/gorm"
)

// Platform-level roles.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// User represents a platform account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"size:128;not null" json:"name"`
	Username     string `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255" json:"-"`
	Hometown     string `gorm:"size:128;not null" json:"hometown"`
	City         string `gorm:"size:128;not null" json:"city"`
	State        string `gorm:"size:128;not null" json:"state"`
	Role         string `gorm:"size:32;default:'user'" json:"role"`

	IsSuspended      bool   `gorm:"default:false" json:"is_suspended"`
	SuspensionReason string `gorm:"size:255" json:"suspension_reason,omitempty"`
	IsBanned         bool   `gorm:"default:false" json:"is_banned"`
	BanReason        string `gorm:"size:255" json:"ban_reason,omitempty"`

	// Password reset: only the SHA-256 of the token is stored.
	ResetPasswordToken  string     `gorm:"size:64;index" json:"-"`
	ResetPasswordExpire *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook ensures timestamps and the default role are set.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
