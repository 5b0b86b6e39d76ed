package models

import "time"

// Event lifecycle states.
const (
	EventUpcoming  = "upcoming"
	EventOngoing   = "ongoing"
	EventCompleted = "completed"
	EventCancelled = "cancelled"
)

// Event is a dated gathering scoped to a community.
type Event struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Date        time.Time       `gorm:"index;not null" json:"date"`
	Time        string          `gorm:"size:32;not null" json:"time"`
	Location    string          `gorm:"size:255;not null" json:"location"`
	CommunityID uint            `gorm:"index;not null" json:"community_id"`
	CreatorID   uint            `gorm:"index;not null" json:"creator_id"`
	Status      string          `gorm:"size:16;default:'upcoming'" json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Creator     User            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"creator"`
	Community   Community       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"community"`
	Attendees   []EventAttendee `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"attendees"`
}

// EventAttendee marks attendance; unique per (event_id, user_id).
type EventAttendee struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EventID   uint      `gorm:"uniqueIndex:idx_attend_event_user;not null" json:"event_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_attend_event_user;index;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
}
