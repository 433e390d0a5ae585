package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/forumhq/posts-service/models"
)

// ErrStaleVersion is returned by Save when the row changed since the post
// was loaded. Callers reload and reapply their mutation.
var ErrStaleVersion = errors.New("post was modified by another operation")

// PostStore is the persistence contract for the post aggregate. FindByID
// returns (nil, nil) when the post does not exist; Save replaces the whole
// document.
type PostStore interface {
	FindByID(ctx context.Context, postID string) (*models.Post, error)
	FindAll(ctx context.Context) ([]models.Post, error)
	FindByUserID(ctx context.Context, userID int) ([]models.Post, error)
	FindByAccessibility(ctx context.Context, state models.Accessibility) ([]models.Post, error)
	Save(ctx context.Context, post *models.Post) error
}

// GormPostStore persists post documents in MySQL. Replies and metadata live
// in JSON columns, so a row is the full aggregate.
type GormPostStore struct {
	db *gorm.DB
}

// NewGormPostStore wraps an initialized gorm DB.
func NewGormPostStore(db *gorm.DB) *GormPostStore {
	return &GormPostStore{db: db}
}

// FindByID loads one post document.
func (s *GormPostStore) FindByID(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Where("post_id = ?", postID).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load post %s: %w", postID, err)
	}
	return &post, nil
}

// FindAll returns every post ordered by creation time, newest first.
func (s *GormPostStore) FindAll(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// FindByUserID returns posts owned by userID, newest first.
func (s *GormPostStore) FindByUserID(ctx context.Context, userID int) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts for user %d: %w", userID, err)
	}
	return posts, nil
}

// FindByAccessibility returns posts in the given state, newest first.
func (s *GormPostStore) FindByAccessibility(ctx context.Context, state models.Accessibility) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("accessibility = ?", state).
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts with accessibility %s: %w", state, err)
	}
	return posts, nil
}

// Save upserts the full document. New posts (version 0) are inserted;
// existing posts are replaced only if the stored version still matches the
// loaded one, otherwise ErrStaleVersion.
func (s *GormPostStore) Save(ctx context.Context, post *models.Post) error {
	if post.Version == 0 {
		post.Version = 1
		if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
			post.Version = 0
			return fmt.Errorf("insert post: %w", err)
		}
		return nil
	}

	loadedVersion := post.Version
	post.Version = loadedVersion + 1
	res := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("post_id = ? AND version = ?", post.PostID, loadedVersion).
		Select("*").
		Omit("created_at").
		Updates(post)
	if res.Error != nil {
		post.Version = loadedVersion
		return fmt.Errorf("save post %s: %w", post.PostID, res.Error)
	}
	if res.RowsAffected == 0 {
		post.Version = loadedVersion
		return fmt.Errorf("save post %s: %w", post.PostID, ErrStaleVersion)
	}
	return nil
}
