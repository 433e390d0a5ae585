package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/forumhq/posts-service/middleware"
	"github.com/forumhq/posts-service/models"
	"github.com/forumhq/posts-service/services"
	"github.com/forumhq/posts-service/utils"
)

// PostController exposes the post aggregate over HTTP. It translates
// service errors into the uniform envelope; all domain decisions live in
// the service.
type PostController struct {
	posts services.PostManager
}

// NewPostController creates a new PostController instance.
func NewPostController(posts services.PostManager) *PostController {
	return &PostController{posts: posts}
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// Unknown failures keep their underlying message but never crash the
// process; recovery middleware catches anything beyond that.
func respondServiceError(ctx *gin.Context, err error) {
	switch {
	case services.IsNotFound(err):
		utils.Fail(ctx, http.StatusNotFound, err.Error())
	case services.IsUnauthorized(err):
		utils.Fail(ctx, http.StatusForbidden, err.Error())
	case services.IsConflict(err):
		utils.Fail(ctx, http.StatusConflict, err.Error())
	case services.IsValidation(err):
		utils.Fail(ctx, http.StatusBadRequest, err.Error())
	default:
		utils.Fail(ctx, http.StatusInternalServerError, err.Error())
	}
}

type postRequest struct {
	Title         string `json:"title" binding:"required,min=1"`
	Content       string `json:"content" binding:"required"`
	UserID        int    `json:"user_id"`
	Accessibility string `json:"accessibility"`
}

// requesterOr falls back to the authenticated user when the body carries
// no explicit user id.
func requesterOr(ctx *gin.Context, bodyUserID int) int {
	if bodyUserID != 0 {
		return bodyUserID
	}
	if id, ok := middleware.RequesterID(ctx); ok {
		return id
	}
	return 0
}

// CreatePost creates a new post for a verified user.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "invalid request payload")
		return
	}

	title := utils.SanitizePlain(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Fail(ctx, http.StatusBadRequest, "title cannot be empty")
		return
	}
	content := utils.Sanitize(req.Content)

	draft := &models.Post{
		UserID:  requesterOr(ctx, req.UserID),
		Title:   title,
		Content: content,
	}
	if req.Accessibility != "" {
		state, err := models.ParseAccessibility(req.Accessibility)
		if err != nil {
			utils.Fail(ctx, http.StatusBadRequest, err.Error())
			return
		}
		draft.Accessibility = state
	}

	post, err := p.posts.CreatePost(ctx.Request.Context(), draft)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:posts:")
	utils.OK(ctx, "Post created successfully", post)
}

// ListPosts returns every post with author data; an optional accessibility
// query narrows the read to one state.
func (p *PostController) ListPosts(ctx *gin.Context) {
	if raw := strings.TrimSpace(ctx.Query("accessibility")); raw != "" {
		state, err := models.ParseAccessibility(raw)
		if err != nil {
			utils.Fail(ctx, http.StatusBadRequest, err.Error())
			return
		}
		posts, err := p.posts.GetPostsByAccessibility(ctx.Request.Context(), state)
		if err != nil {
			respondServiceError(ctx, err)
			return
		}
		utils.OK(ctx, "Posts retrieved successfully", posts)
		return
	}

	if b, ok := utils.CacheGetBytes("cache:posts:all"); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	posts, err := p.posts.GetAllPosts(ctx.Request.Context())
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	wrapper := utils.DataResponse{Success: true, Message: "Posts retrieved successfully", Data: posts}
	utils.CacheSetJSON("cache:posts:all", wrapper, time.Hour)
	utils.OK(ctx, "Posts retrieved successfully", posts)
}

// GetPost returns a single post document.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID := ctx.Param("id")

	if b, ok := utils.CacheGetBytes("cache:post:detail:" + postID); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	post, err := p.posts.GetPostByID(ctx.Request.Context(), postID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	wrapper := utils.DataResponse{Success: true, Message: "Post retrieved successfully", Data: post}
	// short TTL: the view counter moves on every read
	utils.CacheSetJSON("cache:post:detail:"+postID, wrapper, 5*time.Minute)
	utils.OK(ctx, "Post retrieved successfully", post)
}

// ListUserPosts returns posts for one owner enriched with author data.
func (p *PostController) ListUserPosts(ctx *gin.Context) {
	userID, err := strconv.Atoi(ctx.Param("userId"))
	if err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "invalid user id")
		return
	}

	posts, err := p.posts.GetPostsByUserID(ctx.Request.Context(), userID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	utils.OK(ctx, "Posts retrieved successfully", posts)
}

// UpdatePost overwrites title, content and accessibility.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	postID := ctx.Param("id")

	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "invalid request payload")
		return
	}

	title := utils.SanitizePlain(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Fail(ctx, http.StatusBadRequest, "title cannot be empty")
		return
	}

	patch := &models.Post{
		UserID:  requesterOr(ctx, req.UserID),
		Title:   title,
		Content: utils.Sanitize(req.Content),
	}
	if req.Accessibility != "" {
		state, err := models.ParseAccessibility(req.Accessibility)
		if err != nil {
			utils.Fail(ctx, http.StatusBadRequest, err.Error())
			return
		}
		patch.Accessibility = state
	}

	post, err := p.posts.UpdatePost(ctx.Request.Context(), postID, patch)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	p.invalidatePost(postID)
	utils.OK(ctx, "Post updated successfully", post)
}

// UpdateAccessibility applies a parsed accessibility state to the post.
func (p *PostController) UpdateAccessibility(ctx *gin.Context) {
	postID := ctx.Param("id")

	var req struct {
		Accessibility string `json:"accessibility" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusBadRequest, models.ErrAccessibilityEmpty.Error())
		return
	}

	state, err := models.ParseAccessibility(req.Accessibility)
	if err != nil {
		utils.Fail(ctx, http.StatusBadRequest, err.Error())
		return
	}

	requesterID, _ := middleware.RequesterID(ctx)
	post, err := p.posts.UpdateAccessibility(ctx.Request.Context(), postID, state, requesterID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	p.invalidatePost(postID)
	utils.OK(ctx, "Accessibility updated successfully", post)
}

// DeletePost soft-deletes a post by moving it to the DELETED state.
func (p *PostController) DeletePost(ctx *gin.Context) {
	postID := ctx.Param("id")

	if err := p.posts.DeletePost(ctx.Request.Context(), postID); err != nil {
		respondServiceError(ctx, err)
		return
	}

	p.invalidatePost(postID)
	utils.OK(ctx, "Post deleted successfully", nil)
}

// UpdateMetadata merges a partial metadata changeset into the post.
func (p *PostController) UpdateMetadata(ctx *gin.Context) {
	postID := ctx.Param("id")

	var patch models.MetadataPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "invalid request payload")
		return
	}

	post, err := p.posts.UpdateMetadata(ctx.Request.Context(), postID, patch)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	p.invalidatePost(postID)
	utils.OK(ctx, "Metadata updated successfully", post)
}

// LikePost records a like by the authenticated user.
func (p *PostController) LikePost(ctx *gin.Context) {
	postID := ctx.Param("id")
	userID, ok := middleware.RequesterID(ctx)
	if !ok {
		utils.Fail(ctx, http.StatusUnauthorized, "unauthorized")
		return
	}

	post, err := p.posts.LikePost(ctx.Request.Context(), postID, userID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	p.invalidatePost(postID)
	utils.OK(ctx, "Post liked successfully", post)
}

// UnlikePost removes the authenticated user's like.
func (p *PostController) UnlikePost(ctx *gin.Context) {
	postID := ctx.Param("id")
	userID, ok := middleware.RequesterID(ctx)
	if !ok {
		utils.Fail(ctx, http.StatusUnauthorized, "unauthorized")
		return
	}

	post, err := p.posts.UnlikePost(ctx.Request.Context(), postID, userID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	p.invalidatePost(postID)
	utils.OK(ctx, "Post unliked successfully", post)
}

// IncrementViews bumps the view counter explicitly.
func (p *PostController) IncrementViews(ctx *gin.Context) {
	postID := ctx.Param("id")

	post, err := p.posts.IncrementViews(ctx.Request.Context(), postID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	p.invalidatePost(postID)
	utils.OK(ctx, "Views incremented successfully", post)
}

type replyRequest struct {
	Comment string `json:"comment" binding:"required"`
	UserID  int    `json:"user_id"`
}

// AddReply appends a reply authored by a verified user.
func (p *PostController) AddReply(ctx *gin.Context) {
	postID := ctx.Param("id")

	var req replyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "comment must not be empty")
		return
	}
	comment := utils.Sanitize(strings.TrimSpace(req.Comment))
	if comment == "" {
		utils.Fail(ctx, http.StatusBadRequest, "comment must not be empty")
		return
	}

	reply := models.PostReply{
		UserID:  requesterOr(ctx, req.UserID),
		Comment: comment,
	}

	post, err := p.posts.AddReplyToPost(ctx.Request.Context(), postID, reply)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	p.invalidatePost(postID)
	utils.OK(ctx, "Reply added successfully", post)
}

// AddSubReply appends a sub-reply under an existing reply.
func (p *PostController) AddSubReply(ctx *gin.Context) {
	postID := ctx.Param("id")
	replyID := ctx.Param("replyId")

	var req replyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "comment must not be empty")
		return
	}
	comment := utils.Sanitize(strings.TrimSpace(req.Comment))
	if comment == "" {
		utils.Fail(ctx, http.StatusBadRequest, "comment must not be empty")
		return
	}

	sub := models.SubReply{
		UserID:  requesterOr(ctx, req.UserID),
		Comment: comment,
	}

	post, err := p.posts.AddSubReplyToReply(ctx.Request.Context(), postID, replyID, sub)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	p.invalidatePost(postID)
	utils.OK(ctx, "Sub-reply added successfully", post)
}

// UpdateReply replaces a reply's comment text.
func (p *PostController) UpdateReply(ctx *gin.Context) {
	postID := ctx.Param("id")
	replyID := ctx.Param("replyId")

	var req replyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "comment must not be empty")
		return
	}
	comment := utils.Sanitize(strings.TrimSpace(req.Comment))
	if comment == "" {
		utils.Fail(ctx, http.StatusBadRequest, "comment must not be empty")
		return
	}

	patch := models.PostReply{
		UserID:  req.UserID,
		Comment: comment,
	}

	post, err := p.posts.UpdateReply(ctx.Request.Context(), postID, replyID, patch)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	p.invalidatePost(postID)
	utils.OK(ctx, "Reply updated successfully", post)
}

// UpdateSubReply replaces a sub-reply's comment text.
func (p *PostController) UpdateSubReply(ctx *gin.Context) {
	postID := ctx.Param("id")
	replyID := ctx.Param("replyId")
	subReplyID := ctx.Param("subReplyId")

	var req replyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "comment must not be empty")
		return
	}
	comment := utils.Sanitize(strings.TrimSpace(req.Comment))
	if comment == "" {
		utils.Fail(ctx, http.StatusBadRequest, "comment must not be empty")
		return
	}

	patch := models.SubReply{
		UserID:  req.UserID,
		Comment: comment,
	}

	post, err := p.posts.UpdateSubReply(ctx.Request.Context(), postID, replyID, subReplyID, patch)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	p.invalidatePost(postID)
	utils.OK(ctx, "Sub-reply updated successfully", post)
}

// DeleteReply soft-deletes a reply on behalf of its author.
func (p *PostController) DeleteReply(ctx *gin.Context) {
	postID := ctx.Param("id")
	replyID := ctx.Param("replyId")

	requesterID, ok := middleware.RequesterID(ctx)
	if !ok {
		utils.Fail(ctx, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := p.posts.SoftDeleteReply(ctx.Request.Context(), postID, replyID, requesterID); err != nil {
		respondServiceError(ctx, err)
		return
	}

	p.invalidatePost(postID)
	utils.OK(ctx, "Reply deleted successfully", nil)
}

func (p *PostController) invalidatePost(postID string) {
	utils.InvalidateByPrefix("cache:post:detail:" + postID)
	utils.InvalidateByPrefix("cache:posts:")
}
