package models

import "time"

// PostReply is a top-level reply owned by a post. Replies only exist inside
// their parent post document and are addressed by scanning for ReplyID.
type PostReply struct {
	ReplyID    string     `json:"reply_id"`
	UserID     int        `json:"user_id"`
	Comment    string     `json:"comment"`
	IsDeleted  bool       `json:"is_deleted"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	SubReplies []SubReply `json:"sub_replies"`
}

// SubReply is a second-level reply owned by a PostReply.
type SubReply struct {
	SubReplyID string    `json:"sub_reply_id"`
	UserID     int       `json:"user_id"`
	Comment    string    `json:"comment"`
	IsDeleted  bool      `json:"is_deleted"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FindSubReply scans the reply's sub-replies for id. A nil collection is the
// same as an empty one. Returns nil when absent.
func (r *PostReply) FindSubReply(subReplyID string) *SubReply {
	if r == nil {
		return nil
	}
	for i := range r.SubReplies {
		if r.SubReplies[i].SubReplyID == subReplyID {
			return &r.SubReplies[i]
		}
	}
	return nil
}
