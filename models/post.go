package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post is the aggregate root. The nested replies and metadata are stored as
// JSON columns on the posts row, so saving a Post replaces the whole
// document. Version backs optimistic concurrency: a save only succeeds
// against the version it was loaded at.
type Post struct {
	PostID        string        `gorm:"primaryKey;size:36" json:"post_id"`
	UserID        int           `gorm:"index;not null" json:"user_id"`
	Title         string        `gorm:"size:255;not null" json:"title"`
	Content       string        `gorm:"type:text;not null" json:"content"`
	Accessibility Accessibility `gorm:"size:16;index;not null" json:"accessibility"`
	IsDeleted     bool          `json:"is_deleted"`
	Metadata      Metadata      `gorm:"serializer:json;type:json" json:"metadata"`
	PostReplies   []PostReply   `gorm:"serializer:json;type:json" json:"post_replies"`
	Version       int64         `gorm:"not null;default:0" json:"-"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// BeforeCreate assigns an identifier and fills defaults so a draft built
// from a request body is always a well-formed document.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if p.PostID == "" {
		p.PostID = uuid.NewString()
	}
	if p.Accessibility == "" {
		p.Accessibility = AccessibilityUnpublished
	}
	if p.Metadata.CreatedAt.IsZero() {
		p.Metadata = NewMetadata(now)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	return nil
}

// BeforeUpdate refreshes the UpdatedAt timestamp.
func (p *Post) BeforeUpdate(tx *gorm.DB) error {
	p.UpdatedAt = time.Now()
	return nil
}

// FindReply scans the post's replies for replyID. A nil collection is the
// same as an empty one. Returns nil when absent.
func (p *Post) FindReply(replyID string) *PostReply {
	if p == nil {
		return nil
	}
	for i := range p.PostReplies {
		if p.PostReplies[i].ReplyID == replyID {
			return &p.PostReplies[i]
		}
	}
	return nil
}
