package services

import (
	"errors"

	"github.com/forumhq/posts-service/models"
	"github.com/forumhq/posts-service/repository"
)

var (
	// ErrPostNotFound indicates the requested post doesn't exist.
	ErrPostNotFound = errors.New("post not found")

	// ErrReplyNotFound indicates a reply or sub-reply is absent. Sub-reply
	// absence is surfaced under this same kind to keep the taxonomy small.
	ErrReplyNotFound = errors.New("reply not found")

	// ErrUserNotVerified indicates the users service reported the account
	// as inactive, or could not confirm it at all.
	ErrUserNotVerified = errors.New("user must verify their email")

	// ErrNotReplyAuthor indicates the requester does not own the reply.
	ErrNotReplyAuthor = errors.New("requester is not the reply author")

	// ErrAlreadyLiked indicates a duplicate like attempt.
	ErrAlreadyLiked = errors.New("post already liked by this user")
)

// IsNotFound reports whether err means a resource is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPostNotFound) || errors.Is(err, ErrReplyNotFound)
}

// IsUnauthorized reports whether err is an authorization failure, either a
// failed verification precondition or an ownership mismatch.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUserNotVerified) || errors.Is(err, ErrNotReplyAuthor)
}

// IsConflict reports whether err is a conflict the caller may retry or
// surface as a duplicate action.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyLiked) || errors.Is(err, repository.ErrStaleVersion)
}

// IsValidation reports whether err came from accessibility parsing.
func IsValidation(err error) bool {
	return errors.Is(err, models.ErrInvalidAccessibility) || errors.Is(err, models.ErrAccessibilityEmpty)
}
