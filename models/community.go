package models

import "time"

// Community approval states (platform-admin gated).
const (
	CommunityPending  = "pending"
	CommunityApproved = "approved"
	CommunityRejected = "rejected"
)

// Membership states within a community. A row is unique per
// (community_id, user_id), so a user is never both a member and pending.
const (
	MemberActive  = "member"
	MemberPending = "pending"
	MemberBanned  = "banned"
)

// Community is a named, location-scoped group with membership and content.
type Community struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"size:255;not null" json:"name"`
	Description      string    `gorm:"type:text;not null" json:"description"`
	City             string    `gorm:"size:128;index;not null" json:"city"`
	State            string    `gorm:"size:128;index;not null" json:"state"`
	CreatorID        uint      `gorm:"index;not null" json:"creator_id"`
	Status           string    `gorm:"size:16;index;default:'pending'" json:"status"`
	Rules            string    `gorm:"type:text" json:"rules"`
	RequiresApproval bool      `gorm:"default:false" json:"requires_approval"`
	MemberCount      int64     `gorm:"default:0" json:"member_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	Creator          User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"creator"`
}

// Membership links a user to a community with a state and moderator flag.
type Membership struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CommunityID uint      `gorm:"uniqueIndex:idx_member_comm_user;not null" json:"community_id"`
	UserID      uint      `gorm:"uniqueIndex:idx_member_comm_user;index;not null" json:"user_id"`
	State       string    `gorm:"size:16;index;not null" json:"state"`
	IsModerator bool      `gorm:"default:false" json:"is_moderator"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	User        User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
}
