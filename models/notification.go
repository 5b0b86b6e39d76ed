package models

import "time"

// Notification types.
const (
	NotifyPost         = "post"
	NotifyComment      = "comment"
	NotifyEvent        = "event"
	NotifyCommunity    = "community"
	NotifySystem       = "system"
	NotifyAnnouncement = "announcement"
)

// Notification carries enough denormalized context for the client to
// deep-link without further joins.
type Notification struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"index:idx_notif_user_read;not null" json:"user_id"`
	Type               string    `gorm:"size:16;not null" json:"type"`
	Message            string    `gorm:"size:512;not null" json:"message"`
	RelatedID          uint      `json:"related_id,omitempty"`
	RelatedCommunityID uint      `json:"related_community_id,omitempty"`
	IsRead             bool      `gorm:"index:idx_notif_user_read;default:false" json:"is_read"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
