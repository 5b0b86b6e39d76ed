package models

import "time"

// Post is a piece of content scoped to a community.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	AuthorID    uint       `gorm:"index;not null" json:"author_id"`
	CommunityID uint       `gorm:"index;not null" json:"community_id"`
	IsPinned    bool       `gorm:"index;default:false" json:"is_pinned"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Author      User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Community   Community  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"community"`
	Files       []PostFile `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"files"`
	Comments    []Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments"`
	Likes       []PostLike `json:"-"`

	// Derived on read, not stored.
	LikeCount     int64 `gorm:"-" json:"like_count"`
	LikedByCaller bool  `gorm:"-" json:"liked_by_caller"`
}

// PostFile records one uploaded attachment on a post.
type PostFile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PostID       uint      `gorm:"index;not null" json:"post_id"`
	Filename     string    `gorm:"size:255;not null" json:"filename"`
	OriginalName string    `gorm:"size:255" json:"original_name"`
	FileType     string    `gorm:"size:16" json:"file_type"` // image, video, document, other
	URL          string    `gorm:"size:512;not null" json:"url"`
	Caption      string    `gorm:"size:255" json:"caption,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// PostLike marks that a user liked a post. Unique per (post_id, user_id),
// so a concurrent double toggle converges instead of losing updates.
type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"uniqueIndex:idx_like_post_user;not null" json:"post_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_like_post_user;index;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
