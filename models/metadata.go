package models

import (
	"encoding/json"
	"sort"
	"time"
)

// UserIDSet is the set of user ids that liked a post. It marshals as a
// sorted JSON array so the stored document stays stable across saves.
type UserIDSet map[int]struct{}

// NewUserIDSet builds a set from the given ids, dropping duplicates.
func NewUserIDSet(ids ...int) UserIDSet {
	s := make(UserIDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports membership. Safe on a nil set.
func (s UserIDSet) Contains(userID int) bool {
	_, ok := s[userID]
	return ok
}

// Add inserts userID and reports whether it was newly added.
func (s UserIDSet) Add(userID int) bool {
	if s.Contains(userID) {
		return false
	}
	s[userID] = struct{}{}
	return true
}

// Remove deletes userID and reports whether it was present.
func (s UserIDSet) Remove(userID int) bool {
	if !s.Contains(userID) {
		return false
	}
	delete(s, userID)
	return true
}

// Len returns the cardinality. Safe on a nil set.
func (s UserIDSet) Len() int {
	return len(s)
}

// Clone returns an independent copy so merged metadata never aliases the
// changeset's set.
func (s UserIDSet) Clone() UserIDSet {
	out := make(UserIDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

func (s UserIDSet) sorted() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// MarshalJSON encodes the set as a sorted array of ids.
func (s UserIDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.sorted())
}

// UnmarshalJSON decodes an array of ids, deduplicating as it goes.
func (s *UserIDSet) UnmarshalJSON(b []byte) error {
	var ids []int
	if err := json.Unmarshal(b, &ids); err != nil {
		return err
	}
	*s = NewUserIDSet(ids...)
	return nil
}

// Metadata carries the post's view/like counters and like membership.
// Invariant: Likes always equals LikesByUsers.Len(); the like/unlike
// operations on PostService are the only writers that touch both.
type Metadata struct {
	Views        int64     `json:"views"`
	Likes        int64     `json:"likes"`
	LikesByUsers UserIDSet `json:"likes_by_users"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// NewMetadata returns zeroed metadata stamped at now.
func NewMetadata(now time.Time) Metadata {
	return Metadata{
		LikesByUsers: NewUserIDSet(),
		CreatedAt:    now,
		UpdatedAt:    now,
		LastActiveAt: now,
	}
}

// MetadataPatch is a changeset for Metadata. Nil fields mean "leave
// unchanged"; a non-nil LikesByUsers wholly replaces the existing set
// rather than merging into it, so like/unlike callers must supply the full
// next-state set.
type MetadataPatch struct {
	Views        *int64     `json:"views,omitempty"`
	Likes        *int64     `json:"likes,omitempty"`
	LikesByUsers *UserIDSet `json:"likes_by_users,omitempty"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
}

// MergeMetadata applies patch onto existing field by field and stamps the
// updated timestamp to now regardless of which fields changed. The input
// values are left untouched.
func MergeMetadata(existing Metadata, patch MetadataPatch, now time.Time) Metadata {
	merged := existing
	merged.LikesByUsers = existing.LikesByUsers.Clone()

	if patch.Views != nil {
		merged.Views = *patch.Views
	}
	if patch.Likes != nil {
		merged.Likes = *patch.Likes
	}
	if patch.LikesByUsers != nil {
		merged.LikesByUsers = patch.LikesByUsers.Clone()
	}
	if patch.LastActiveAt != nil {
		merged.LastActiveAt = *patch.LastActiveAt
	}
	merged.UpdatedAt = now
	return merged
}
