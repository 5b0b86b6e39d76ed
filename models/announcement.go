package models

import "time"

// Announcement is community-admin facing content with a single-pin rule:
// at most one announcement per community has IsPinned set.
type Announcement struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	AuthorID    uint       `gorm:"index;not null" json:"author_id"`
	CommunityID uint       `gorm:"index:idx_ann_comm_pin;not null" json:"community_id"`
	IsPinned    bool       `gorm:"index:idx_ann_comm_pin;default:false" json:"is_pinned"`
	PinnedAt    *time.Time `json:"pinned_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Author      User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Community   Community  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"community"`
}
