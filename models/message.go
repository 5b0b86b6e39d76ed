package models

import "time"

// Message is a direct message between two members of the same community.
type Message struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	SenderID     uint          `gorm:"index:idx_msg_pair;not null" json:"sender_id"`
	ReceiverID   uint          `gorm:"index:idx_msg_pair;index:idx_msg_unread;not null" json:"receiver_id"`
	CommunityID  uint          `gorm:"index:idx_msg_pair;not null" json:"community_id"`
	Content      string        `gorm:"type:text" json:"content"`
	SharedPostID *uint         `json:"shared_post_id,omitempty"`
	IsRead       bool          `gorm:"index:idx_msg_unread;default:false" json:"is_read"`
	ReadAt       *time.Time    `json:"read_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Sender       User          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"sender"`
	Receiver     User          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"receiver"`
	SharedPost   *Post         `json:"shared_post,omitempty"`
	Files        []MessageFile `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"files"`
}

// MessageFile records one uploaded attachment on a message.
type MessageFile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	MessageID    uint      `gorm:"index;not null" json:"message_id"`
	Filename     string    `gorm:"size:255;not null" json:"filename"`
	OriginalName string    `gorm:"size:255" json:"original_name"`
	FileType     string    `gorm:"size:16" json:"file_type"`
	URL          string    `gorm:"size:512;not null" json:"url"`
	CreatedAt    time.Time `json:"created_at"`
}
