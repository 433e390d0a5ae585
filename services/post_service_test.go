package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/forumhq/posts-service/models"
	"github.com/forumhq/posts-service/repository"
)

// fakeStore is an in-memory PostStore. staleOnce makes the next Save fail
// with ErrStaleVersion exactly once.
type fakeStore struct {
	posts     map[string]*models.Post
	saves     int
	staleOnce bool
	findErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{posts: make(map[string]*models.Post)}
}

func (f *fakeStore) FindByID(ctx context.Context, postID string) (*models.Post, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	post, ok := f.posts[postID]
	if !ok {
		return nil, nil
	}
	return clonePost(post), nil
}

// clonePost deep-copies the document so callers never share reply slices
// or the like set with the stored state.
func clonePost(post *models.Post) *models.Post {
	b, err := json.Marshal(post)
	if err != nil {
		panic(err)
	}
	var cp models.Post
	if err := json.Unmarshal(b, &cp); err != nil {
		panic(err)
	}
	cp.Version = post.Version
	return &cp
}

func (f *fakeStore) FindAll(ctx context.Context) ([]models.Post, error) {
	out := make([]models.Post, 0, len(f.posts))
	for _, p := range f.posts {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) FindByUserID(ctx context.Context, userID int) ([]models.Post, error) {
	var out []models.Post
	for _, p := range f.posts {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) FindByAccessibility(ctx context.Context, state models.Accessibility) ([]models.Post, error) {
	var out []models.Post
	for _, p := range f.posts {
		if p.Accessibility == state {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) Save(ctx context.Context, post *models.Post) error {
	f.saves++
	if f.staleOnce {
		f.staleOnce = false
		return repository.ErrStaleVersion
	}
	f.posts[post.PostID] = clonePost(post)
	return nil
}

// fakeGateway answers verification and enrichment from fixed maps.
type fakeGateway struct {
	active    map[int]bool
	summaries map[int]*models.AuthorSummary
	err       error
	calls     int
}

func (f *fakeGateway) IsUserActive(ctx context.Context, userID int) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.active[userID], nil
}

func (f *fakeGateway) GetUserSummary(ctx context.Context, userID int) (*models.AuthorSummary, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.summaries[userID], nil
}

func newTestService(store *fakeStore, gw *fakeGateway) *PostService {
	return NewPostService(store, gw, zap.NewNop().Sugar())
}

func seedPost(store *fakeStore, userID int) *models.Post {
	post := &models.Post{
		PostID:        "post-1",
		UserID:        userID,
		Title:         "Seed",
		Content:       "seed content",
		Accessibility: models.AccessibilityPublished,
		Metadata:      models.NewMetadata(time.Now()),
		PostReplies:   []models.PostReply{},
		Version:       1,
	}
	store.posts[post.PostID] = post
	return post
}

func TestCreatePost_ActiveUser(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{active: map[int]bool{7: true}}
	svc := newTestService(store, gw)

	post, err := svc.CreatePost(context.Background(), &models.Post{UserID: 7, Title: "Hello", Content: "World"})
	require.NoError(t, err)
	assert.NotEmpty(t, post.PostID)
	assert.Equal(t, models.AccessibilityUnpublished, post.Accessibility)
	assert.NotNil(t, post.Metadata.LikesByUsers)
	assert.Zero(t, post.Metadata.Views)
	assert.Len(t, store.posts, 1)
}

func TestCreatePost_InactiveUser(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{active: map[int]bool{}}
	svc := newTestService(store, gw)

	_, err := svc.CreatePost(context.Background(), &models.Post{UserID: 7, Title: "Hello"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUserNotVerified)
	assert.Zero(t, store.saves, "draft must not reach the store")
}

func TestCreatePost_GatewayDown(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{err: errors.New("connection refused")}
	svc := newTestService(store, gw)

	_, err := svc.CreatePost(context.Background(), &models.Post{UserID: 7, Title: "Hello"})
	assert.ErrorIs(t, err, ErrUserNotVerified)
	assert.Zero(t, store.saves)
}

func TestGetPostByID_NotFound(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeGateway{})

	_, err := svc.GetPostByID(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.Contains(t, err.Error(), "missing")
}

func TestUpdatePost_OverwritesFields(t *testing.T) {
	store := newFakeStore()
	seedPost(store, 7)
	gw := &fakeGateway{active: map[int]bool{7: true}}
	svc := newTestService(store, gw)

	patch := &models.Post{UserID: 7, Title: "New title", Content: "new content", Accessibility: models.AccessibilityHidden}
	post, err := svc.UpdatePost(context.Background(), "post-1", patch)
	require.NoError(t, err)
	assert.Equal(t, "New title", post.Title)
	assert.Equal(t, "new content", post.Content)
	assert.Equal(t, models.AccessibilityHidden, post.Accessibility)
}

func TestUpdateAccessibility_NoOwnershipCheck(t *testing.T) {
	store := newFakeStore()
	seedPost(store, 7)
	gw := &fakeGateway{}
	svc := newTestService(store, gw)

	post, err := svc.UpdateAccessibility(context.Background(), "post-1", models.AccessibilityBanned, 999)
	require.NoError(t, err)
	assert.Equal(t, models.AccessibilityBanned, post.Accessibility)
	assert.Zero(t, gw.calls, "no verification call for moderation changes")
}

func TestDeletePost_Idempotent(t *testing.T) {
	store := newFakeStore()
	seedPost(store, 7)
	svc := newTestService(store, &fakeGateway{})

	require.NoError(t, svc.DeletePost(context.Background(), "post-1"))
	assert.Equal(t, models.AccessibilityDeleted, store.posts["post-1"].Accessibility)
	assert.True(t, store.posts["post-1"].IsDeleted)

	// already deleted, deleting again still succeeds
	require.NoError(t, svc.DeletePost(context.Background(), "post-1"))
}

func TestDeletePost_Missing(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeGateway{})

	err := svc.DeletePost(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestLikePost(t *testing.T) {
	store := newFakeStore()
	seedPost(store, 7)
	svc := newTestService(store, &fakeGateway{})

	post, err := svc.LikePost(context.Background(), "post-1", 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), post.Metadata.Likes)
	assert.True(t, post.Metadata.LikesByUsers.Contains(42))

	// a second like by the same user is refused
	_, err = svc.LikePost(context.Background(), "post-1", 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyLiked)

	post, err = svc.LikePost(context.Background(), "post-1", 43)
	require.NoError(t, err)
	assert.Equal(t, int64(2), post.Metadata.Likes)
	assert.Equal(t, post.Metadata.LikesByUsers.Len(), int(post.Metadata.Likes))
}

func TestUnlikePost(t *testing.T) {
	store := newFakeStore()
	seedPost(store, 7)
	svc := newTestService(store, &fakeGateway{})

	_, err := svc.LikePost(context.Background(), "post-1", 42)
	require.NoError(t, err)

	post, err := svc.UnlikePost(context.Background(), "post-1", 42)
	require.NoError(t, err)
	assert.Equal(t, int64(0), post.Metadata.Likes)
	assert.False(t, post.Metadata.LikesByUsers.Contains(42))

	// unliking a non-member leaves the counter alone
	post, err = svc.UnlikePost(context.Background(), "post-1", 42)
	require.NoError(t, err)
	assert.Equal(t, int64(0), post.Metadata.Likes)
}

func TestIncrementViews(t *testing.T) {
	store := newFakeStore()
	seedPost(store, 7)
	svc := newTestService(store, &fakeGateway{})

	post, err := svc.IncrementViews(context.Background(), "post-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), post.Metadata.Views)

	post, err = svc.IncrementViews(context.Background(), "post-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), post.Metadata.Views)
}

func TestUpdateMetadata_PartialMerge(t *testing.T) {
	store := newFakeStore()
	seeded := seedPost(store, 7)
	seeded.Metadata.Views = 5
	seeded.Metadata.Likes = 20
	seeded.Metadata.LikesByUsers = models.NewUserIDSet(1, 2, 3)
	svc := newTestService(store, &fakeGateway{})

	likes := int64(10)
	set := models.NewUserIDSet(5, 6)
	post, err := svc.UpdateMetadata(context.Background(), "post-1", models.MetadataPatch{
		Likes:        &likes,
		LikesByUsers: &set,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), post.Metadata.Views, "untouched field survives")
	assert.Equal(t, int64(10), post.Metadata.Likes)
	assert.Equal(t, 2, post.Metadata.LikesByUsers.Len())
	assert.True(t, post.Metadata.LikesByUsers.Contains(5))
	assert.False(t, post.Metadata.LikesByUsers.Contains(1))
}

func TestAddReply_PostMissingBeforeVerification(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{active: map[int]bool{7: true}}
	svc := newTestService(store, gw)

	_, err := svc.AddReplyToPost(context.Background(), "missing", models.PostReply{UserID: 7, Comment: "hi"})
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.Zero(t, gw.calls, "post existence is checked before the users service")
}

func TestAddReply_InactiveAuthor(t *testing.T) {
	store := newFakeStore()
	seedPost(store, 7)
	gw := &fakeGateway{active: map[int]bool{}}
	svc := newTestService(store, gw)

	_, err := svc.AddReplyToPost(context.Background(), "post-1", models.PostReply{UserID: 8, Comment: "hi"})
	assert.ErrorIs(t, err, ErrUserNotVerified)
	assert.Zero(t, store.saves, "rejected reply must not reach the store")
}

func TestAddReplyAndSubReply(t *testing.T) {
	store := newFakeStore()
	seedPost(store, 7)
	gw := &fakeGateway{active: map[int]bool{8: true}}
	svc := newTestService(store, gw)

	post, err := svc.AddReplyToPost(context.Background(), "post-1", models.PostReply{UserID: 8, Comment: "first"})
	require.NoError(t, err)
	require.Len(t, post.PostReplies, 1)
	reply := post.PostReplies[0]
	assert.NotEmpty(t, reply.ReplyID)
	assert.NotNil(t, reply.SubReplies, "sub-reply collection is initialized")
	assert.Empty(t, reply.SubReplies)

	post, err = svc.AddSubReplyToReply(context.Background(), "post-1", reply.ReplyID, models.SubReply{UserID: 9, Comment: "nested"})
	require.NoError(t, err)
	require.Len(t, post.PostReplies[0].SubReplies, 1)
	assert.Equal(t, "nested", post.PostReplies[0].SubReplies[0].Comment)
	assert.NotEmpty(t, post.PostReplies[0].SubReplies[0].SubReplyID)
}

func TestAddSubReply_ReplyMissing(t *testing.T) {
	store := newFakeStore()
	seedPost(store, 7)
	svc := newTestService(store, &fakeGateway{})

	_, err := svc.AddSubReplyToReply(context.Background(), "post-1", "no-such-reply", models.SubReply{UserID: 9, Comment: "x"})
	assert.ErrorIs(t, err, ErrReplyNotFound)
}

func TestUpdateReply_MissingPostReportsReplyKind(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeGateway{})

	_, err := svc.UpdateReply(context.Background(), "missing-post", "reply-1", models.PostReply{Comment: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReplyNotFound)
	assert.NotErrorIs(t, err, ErrPostNotFound)
}

func TestUpdateReplyAndSubReply(t *testing.T) {
	store := newFakeStore()
	seeded := seedPost(store, 7)
	seeded.PostReplies = []models.PostReply{{
		ReplyID: "reply-1",
		UserID:  8,
		Comment: "before",
		SubReplies: []models.SubReply{
			{SubReplyID: "sub-1", UserID: 9, Comment: "sub before"},
		},
	}}
	svc := newTestService(store, &fakeGateway{})

	post, err := svc.UpdateReply(context.Background(), "post-1", "reply-1", models.PostReply{Comment: "after", UserID: 10})
	require.NoError(t, err)
	assert.Equal(t, "after", post.PostReplies[0].Comment)
	assert.Equal(t, 10, post.PostReplies[0].UserID)

	post, err = svc.UpdateSubReply(context.Background(), "post-1", "reply-1", "sub-1", models.SubReply{Comment: "sub after"})
	require.NoError(t, err)
	assert.Equal(t, "sub after", post.PostReplies[0].SubReplies[0].Comment)

	_, err = svc.UpdateSubReply(context.Background(), "post-1", "reply-1", "sub-missing", models.SubReply{Comment: "x"})
	assert.ErrorIs(t, err, ErrReplyNotFound)
}

func TestSoftDeleteReply(t *testing.T) {
	store := newFakeStore()
	seeded := seedPost(store, 7)
	seeded.PostReplies = []models.PostReply{{ReplyID: "reply-1", UserID: 8, Comment: "hi"}}
	svc := newTestService(store, &fakeGateway{})

	err := svc.SoftDeleteReply(context.Background(), "post-1", "reply-1", 999)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotReplyAuthor)
	assert.False(t, store.posts["post-1"].PostReplies[0].IsDeleted)

	require.NoError(t, svc.SoftDeleteReply(context.Background(), "post-1", "reply-1", 8))
	assert.True(t, store.posts["post-1"].PostReplies[0].IsDeleted)
}

func TestMutate_RetriesOnStaleVersion(t *testing.T) {
	store := newFakeStore()
	seedPost(store, 7)
	store.staleOnce = true
	svc := newTestService(store, &fakeGateway{})

	post, err := svc.IncrementViews(context.Background(), "post-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), post.Metadata.Views)
	assert.Equal(t, 2, store.saves, "one stale attempt plus the retry")
}

func TestGetPostsByUserID_EnrichmentDegrades(t *testing.T) {
	store := newFakeStore()
	seedPost(store, 7)
	gw := &fakeGateway{err: errors.New("users service down")}
	svc := newTestService(store, gw)

	posts, err := svc.GetPostsByUserID(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Nil(t, posts[0].Author, "lookup failure degrades to post-only")
}

func TestGetPostsByUserID_WithAuthor(t *testing.T) {
	store := newFakeStore()
	seedPost(store, 7)
	gw := &fakeGateway{summaries: map[int]*models.AuthorSummary{
		7: {ID: 7, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Active: true},
	}}
	svc := newTestService(store, gw)

	posts, err := svc.GetPostsByUserID(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.NotNil(t, posts[0].Author)
	assert.Equal(t, "Ada", posts[0].Author.FirstName)
}
