package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/forumhq/posts-service/models"
	"github.com/forumhq/posts-service/repository"
)

// PostManager is the aggregate-level API consumed by the HTTP handlers.
type PostManager interface {
	CreatePost(ctx context.Context, draft *models.Post) (*models.Post, error)
	GetPostByID(ctx context.Context, postID string) (*models.Post, error)
	GetAllPosts(ctx context.Context) ([]models.PostWithAuthor, error)
	UpdatePost(ctx context.Context, postID string, patch *models.Post) (*models.Post, error)
	UpdateAccessibility(ctx context.Context, postID string, state models.Accessibility, requesterID int) (*models.Post, error)
	DeletePost(ctx context.Context, postID string) error
	GetPostsByAccessibility(ctx context.Context, state models.Accessibility) ([]models.Post, error)
	GetPostsByUserID(ctx context.Context, userID int) ([]models.PostWithAuthor, error)
	UpdateMetadata(ctx context.Context, postID string, patch models.MetadataPatch) (*models.Post, error)
	LikePost(ctx context.Context, postID string, userID int) (*models.Post, error)
	UnlikePost(ctx context.Context, postID string, userID int) (*models.Post, error)
	IncrementViews(ctx context.Context, postID string) (*models.Post, error)
	AddReplyToPost(ctx context.Context, postID string, reply models.PostReply) (*models.Post, error)
	AddSubReplyToReply(ctx context.Context, postID, replyID string, sub models.SubReply) (*models.Post, error)
	UpdateReply(ctx context.Context, postID, replyID string, patch models.PostReply) (*models.Post, error)
	UpdateSubReply(ctx context.Context, postID, replyID, subReplyID string, patch models.SubReply) (*models.Post, error)
	SoftDeleteReply(ctx context.Context, postID, replyID string, requesterID int) error
}

// PostService orchestrates the post aggregate: authorization against the
// users service, the nested reply collections, metadata merging, and
// persistence through the PostStore. All writes follow load, mutate in
// memory, save the full document; the store's version check arbitrates
// concurrent writers.
type PostService struct {
	store repository.PostStore
	users UserGateway
	sugar *zap.SugaredLogger
}

// NewPostService wires the aggregate service.
func NewPostService(store repository.PostStore, users UserGateway, sugar *zap.SugaredLogger) *PostService {
	return &PostService{store: store, users: users, sugar: sugar}
}

var _ PostManager = (*PostService)(nil)

func notFoundPost(postID string) error {
	return fmt.Errorf("%w with ID: %s", ErrPostNotFound, postID)
}

func notFoundReply(kind error, id string) error {
	return fmt.Errorf("%w with ID: %s", kind, id)
}

// verifyActive resolves the authorization precondition. An unreachable
// users service reads the same as an inactive account.
func (s *PostService) verifyActive(ctx context.Context, userID int, action string) error {
	active, err := s.users.IsUserActive(ctx, userID)
	if err != nil {
		s.sugar.Warnf("user verification unavailable user=%d action=%s err=%v", userID, action, err)
		return fmt.Errorf("%w to %s", ErrUserNotVerified, action)
	}
	if !active {
		return fmt.Errorf("%w to %s", ErrUserNotVerified, action)
	}
	return nil
}

// mutate runs a read-modify-write cycle on one post. On a stale-version
// save it reloads once and reapplies. missing is the error returned when
// the post itself is absent; reply-update paths surface that absence as a
// reply-not-found per the service's taxonomy.
func (s *PostService) mutate(ctx context.Context, postID string, missing error, apply func(*models.Post) error) (*models.Post, error) {
	for attempt := 0; ; attempt++ {
		post, err := s.store.FindByID(ctx, postID)
		if err != nil {
			return nil, err
		}
		if post == nil {
			return nil, missing
		}
		if err := apply(post); err != nil {
			return nil, err
		}
		if err := s.store.Save(ctx, post); err != nil {
			if errors.Is(err, repository.ErrStaleVersion) && attempt == 0 {
				s.sugar.Debugf("stale save on post %s, retrying", postID)
				continue
			}
			return nil, err
		}
		return post, nil
	}
}

// CreatePost verifies the owner with the users service, fills identity and
// defaults, and persists the new aggregate.
func (s *PostService) CreatePost(ctx context.Context, draft *models.Post) (*models.Post, error) {
	if err := s.verifyActive(ctx, draft.UserID, "create a post"); err != nil {
		return nil, err
	}

	now := time.Now()
	draft.PostID = uuid.NewString()
	if draft.Accessibility == "" {
		draft.Accessibility = models.AccessibilityUnpublished
	}
	draft.Metadata = models.NewMetadata(now)
	draft.CreatedAt = now
	draft.UpdatedAt = now
	draft.Version = 0

	if err := s.store.Save(ctx, draft); err != nil {
		return nil, err
	}
	s.sugar.Infow("post created", "post_id", draft.PostID, "user_id", draft.UserID)
	return draft, nil
}

// GetPostByID loads one post.
func (s *PostService) GetPostByID(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.store.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, notFoundPost(postID)
	}
	return post, nil
}

// GetAllPosts lists every post with author display data where available.
func (s *PostService) GetAllPosts(ctx context.Context) ([]models.PostWithAuthor, error) {
	posts, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, posts), nil
}

// UpdatePost overwrites title, content and accessibility from patch after
// re-verifying the patch's owner.
func (s *PostService) UpdatePost(ctx context.Context, postID string, patch *models.Post) (*models.Post, error) {
	return s.mutate(ctx, postID, notFoundPost(postID), func(post *models.Post) error {
		if err := s.verifyActive(ctx, patch.UserID, "update a post"); err != nil {
			return err
		}
		post.Title = patch.Title
		post.Content = patch.Content
		if patch.Accessibility != "" {
			post.Accessibility = patch.Accessibility
		}
		post.UpdatedAt = time.Now()
		return nil
	})
}

// UpdateAccessibility applies the new state unconditionally. Ownership is
// not enforced here; requesterID is only recorded for the audit trail.
func (s *PostService) UpdateAccessibility(ctx context.Context, postID string, state models.Accessibility, requesterID int) (*models.Post, error) {
	post, err := s.mutate(ctx, postID, notFoundPost(postID), func(post *models.Post) error {
		post.Accessibility = state
		post.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.sugar.Infow("accessibility changed", "post_id", postID, "state", state, "requester", requesterID)
	return post, nil
}

// DeletePost transitions the post to DELETED. The record stays in storage;
// repeating the call on an already-deleted post succeeds again.
func (s *PostService) DeletePost(ctx context.Context, postID string) error {
	_, err := s.mutate(ctx, postID, notFoundPost(postID), func(post *models.Post) error {
		post.Accessibility = models.AccessibilityDeleted
		post.IsDeleted = true
		post.UpdatedAt = time.Now()
		return nil
	})
	return err
}

// GetPostsByAccessibility is a pure read filtered by state.
func (s *PostService) GetPostsByAccessibility(ctx context.Context, state models.Accessibility) ([]models.Post, error) {
	return s.store.FindByAccessibility(ctx, state)
}

// GetPostsByUserID reads the user's posts and enriches each with author
// display data. A failed lookup degrades that entry to post-only.
func (s *PostService) GetPostsByUserID(ctx context.Context, userID int) ([]models.PostWithAuthor, error) {
	posts, err := s.store.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, posts), nil
}

func (s *PostService) enrich(ctx context.Context, posts []models.Post) []models.PostWithAuthor {
	// small per-batch cache: the by-user read hits the same author repeatedly
	summaries := make(map[int]*models.AuthorSummary)
	out := make([]models.PostWithAuthor, 0, len(posts))
	for _, post := range posts {
		author, seen := summaries[post.UserID]
		if !seen {
			var err error
			author, err = s.users.GetUserSummary(ctx, post.UserID)
			if err != nil {
				s.sugar.Warnf("author enrichment failed user=%d err=%v", post.UserID, err)
				author = nil
			}
			summaries[post.UserID] = author
		}
		out = append(out, models.PostWithAuthor{Post: post, Author: author})
	}
	return out
}

// UpdateMetadata merges a partial metadata changeset into the post.
func (s *PostService) UpdateMetadata(ctx context.Context, postID string, patch models.MetadataPatch) (*models.Post, error) {
	return s.mutate(ctx, postID, notFoundPost(postID), func(post *models.Post) error {
		post.Metadata = models.MergeMetadata(post.Metadata, patch, time.Now())
		return nil
	})
}

// LikePost adds userID to the like set and bumps the counter by one. A
// second like from the same user is a conflict.
func (s *PostService) LikePost(ctx context.Context, postID string, userID int) (*models.Post, error) {
	return s.mutate(ctx, postID, notFoundPost(postID), func(post *models.Post) error {
		if post.Metadata.LikesByUsers.Contains(userID) {
			return fmt.Errorf("%w: user %d", ErrAlreadyLiked, userID)
		}
		next := post.Metadata.LikesByUsers.Clone()
		next.Add(userID)
		likes := int64(next.Len())
		post.Metadata = models.MergeMetadata(post.Metadata, models.MetadataPatch{
			Likes:        &likes,
			LikesByUsers: &next,
		}, time.Now())
		return nil
	})
}

// UnlikePost removes userID from the like set. Removing an absent member
// leaves the counter untouched; the counter never goes negative.
func (s *PostService) UnlikePost(ctx context.Context, postID string, userID int) (*models.Post, error) {
	return s.mutate(ctx, postID, notFoundPost(postID), func(post *models.Post) error {
		next := post.Metadata.LikesByUsers.Clone()
		likes := post.Metadata.Likes
		if next.Remove(userID) && likes > 0 {
			likes--
		}
		post.Metadata = models.MergeMetadata(post.Metadata, models.MetadataPatch{
			Likes:        &likes,
			LikesByUsers: &next,
		}, time.Now())
		return nil
	})
}

// IncrementViews bumps the view counter by one.
func (s *PostService) IncrementViews(ctx context.Context, postID string) (*models.Post, error) {
	return s.mutate(ctx, postID, notFoundPost(postID), func(post *models.Post) error {
		views := post.Metadata.Views + 1
		post.Metadata = models.MergeMetadata(post.Metadata, models.MetadataPatch{Views: &views}, time.Now())
		return nil
	})
}

// AddReplyToPost appends a reply after verifying its author with the users
// service. The reply collection is initialized on first use and insertion
// order is preserved.
func (s *PostService) AddReplyToPost(ctx context.Context, postID string, reply models.PostReply) (*models.Post, error) {
	return s.mutate(ctx, postID, notFoundPost(postID), func(post *models.Post) error {
		if err := s.verifyActive(ctx, reply.UserID, "reply to a post"); err != nil {
			return err
		}
		now := time.Now()
		if reply.ReplyID == "" {
			reply.ReplyID = uuid.NewString()
		}
		reply.CreatedAt = now
		reply.UpdatedAt = now
		if reply.SubReplies == nil {
			reply.SubReplies = []models.SubReply{}
		}
		post.PostReplies = append(post.PostReplies, reply)
		return nil
	})
}

// AddSubReplyToReply appends a sub-reply under the given reply.
func (s *PostService) AddSubReplyToReply(ctx context.Context, postID, replyID string, sub models.SubReply) (*models.Post, error) {
	return s.mutate(ctx, postID, notFoundPost(postID), func(post *models.Post) error {
		reply := post.FindReply(replyID)
		if reply == nil {
			return notFoundReply(ErrReplyNotFound, replyID)
		}
		now := time.Now()
		if sub.SubReplyID == "" {
			sub.SubReplyID = uuid.NewString()
		}
		sub.CreatedAt = now
		sub.UpdatedAt = now
		reply.SubReplies = append(reply.SubReplies, sub)
		return nil
	})
}

// UpdateReply replaces the comment text and author carried on patch and
// stamps the reply's updated timestamp. A missing post surfaces as a
// missing reply here, matching the service's historical behavior.
func (s *PostService) UpdateReply(ctx context.Context, postID, replyID string, patch models.PostReply) (*models.Post, error) {
	return s.mutate(ctx, postID, notFoundReply(ErrReplyNotFound, replyID), func(post *models.Post) error {
		reply := post.FindReply(replyID)
		if reply == nil {
			return notFoundReply(ErrReplyNotFound, replyID)
		}
		reply.Comment = patch.Comment
		if patch.UserID != 0 {
			reply.UserID = patch.UserID
		}
		reply.UpdatedAt = time.Now()
		return nil
	})
}

// UpdateSubReply replaces a sub-reply's comment text via the three-level
// lookup. Any missing level is a not-found.
func (s *PostService) UpdateSubReply(ctx context.Context, postID, replyID, subReplyID string, patch models.SubReply) (*models.Post, error) {
	return s.mutate(ctx, postID, notFoundReply(ErrReplyNotFound, replyID), func(post *models.Post) error {
		reply := post.FindReply(replyID)
		if reply == nil {
			return notFoundReply(ErrReplyNotFound, replyID)
		}
		sub := reply.FindSubReply(subReplyID)
		if sub == nil {
			return notFoundReply(ErrReplyNotFound, subReplyID)
		}
		sub.Comment = patch.Comment
		sub.UpdatedAt = time.Now()
		return nil
	})
}

// SoftDeleteReply marks a reply deleted on behalf of its author. The reply
// stays in the collection; filtering it out is a read-side concern.
func (s *PostService) SoftDeleteReply(ctx context.Context, postID, replyID string, requesterID int) error {
	_, err := s.mutate(ctx, postID, notFoundPost(postID), func(post *models.Post) error {
		reply := post.FindReply(replyID)
		if reply == nil {
			return notFoundReply(ErrReplyNotFound, replyID)
		}
		if reply.UserID != requesterID {
			return fmt.Errorf("%w: reply %s belongs to user %d", ErrNotReplyAuthor, replyID, reply.UserID)
		}
		reply.IsDeleted = true
		reply.UpdatedAt = time.Now()
		return nil
	})
	return err
}
