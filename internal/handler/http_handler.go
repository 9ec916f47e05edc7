package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-live/post-service/internal/consumer"
	"github.com/weiawesome/wes-io-live/post-service/internal/domain"
	"github.com/weiawesome/wes-io-live/post-service/internal/service"
	"github.com/weiawesome/wes-io-live/post-service/pkg/log"
	"github.com/weiawesome/wes-io-live/post-service/pkg/middleware"
	"github.com/weiawesome/wes-io-live/post-service/pkg/response"
)

// IngestorStatus reports the state of the user event ingestor.
type IngestorStatus interface {
	State() consumer.State
}

// Handler handles HTTP requests for post service.
type Handler struct {
	postService    service.PostService
	authMiddleware *middleware.AuthMiddleware
	ingestor       IngestorStatus
}

// NewHandler creates a new HTTP handler.
func NewHandler(postService service.PostService, authMiddleware *middleware.AuthMiddleware, ingestor IngestorStatus) *Handler {
	return &Handler{
		postService:    postService,
		authMiddleware: authMiddleware,
		ingestor:       ingestor,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	optional := h.authMiddleware.OptionalAuth()
	required := h.authMiddleware.RequireAuth()

	posts := r.Group("/posts")
	{
		posts.GET("", optional, h.ListPosts)
		posts.GET("/:postId", optional, h.GetPost)
		posts.GET("/:postId/likes/count", optional, h.GetLikeCount)

		posts.POST("", required, h.CreatePost)
		posts.PUT("/:postId", required, h.UpdatePost)
		posts.DELETE("/:postId", required, h.DeletePost)
		posts.POST("/:postId/like", required, h.LikePost)
		posts.DELETE("/:postId/like", required, h.UnlikePost)
		posts.GET("/:postId/like/status", required, h.GetLikeStatus)
	}

	r.GET("/users/:userId/posts", optional, h.ListUserPosts)
}

// Health reports the ingestor state. The service is not ready without it.
func (h *Handler) Health(c *gin.Context) {
	state := h.ingestor.State()
	if state != consumer.StateRunning {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "ingestor": state.String()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "ingestor": state.String()})
}

// CreatePost creates a post for the authenticated user.
func (h *Handler) CreatePost(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind create post request")
		response.BadRequest(c, "userId, title and content are required; title must be at most 255 characters")
		return
	}

	post, err := h.postService.CreatePost(ctx, middleware.GetUserID(c), &req)
	if err != nil {
		h.writeError(c, err, "failed to create post")
		return
	}

	response.Created(c, post)
}

// GetPost retrieves a post by ID.
func (h *Handler) GetPost(c *gin.Context) {
	ctx := c.Request.Context()

	post, err := h.postService.GetPost(ctx, c.Param("postId"), middleware.GetUserID(c))
	if err != nil {
		h.writeError(c, err, "failed to get post")
		return
	}

	response.Success(c, post)
}

// ListPosts lists all posts, newest first.
func (h *Handler) ListPosts(c *gin.Context) {
	ctx := c.Request.Context()

	var q domain.ListPostsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "limit and offset must be non-negative integers")
		return
	}

	result, err := h.postService.ListPosts(ctx, middleware.GetUserID(c), q.Page())
	if err != nil {
		h.writeError(c, err, "failed to list posts")
		return
	}

	response.Success(c, result)
}

// ListUserPosts lists one author's posts.
func (h *Handler) ListUserPosts(c *gin.Context) {
	ctx := c.Request.Context()

	var q domain.ListPostsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "limit and offset must be non-negative integers")
		return
	}

	result, err := h.postService.ListUserPosts(ctx, c.Param("userId"), middleware.GetUserID(c), q.Page())
	if err != nil {
		h.writeError(c, err, "failed to list user posts")
		return
	}

	response.Success(c, result)
}

// UpdatePost updates title and/or content. Author only.
func (h *Handler) UpdatePost(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind update post request")
		response.BadRequest(c, "title must be 1-255 characters and content must not be empty")
		return
	}

	post, err := h.postService.UpdatePost(ctx, middleware.GetUserID(c), c.Param("postId"), &req)
	if err != nil {
		h.writeError(c, err, "failed to update post")
		return
	}

	response.Success(c, post)
}

// DeletePost deletes a post and its likes. Author only.
func (h *Handler) DeletePost(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.postService.DeletePost(ctx, middleware.GetUserID(c), c.Param("postId")); err != nil {
		h.writeError(c, err, "failed to delete post")
		return
	}

	response.NoContent(c)
}

// LikePost likes a post. Liking twice returns the existing like.
func (h *Handler) LikePost(c *gin.Context) {
	ctx := c.Request.Context()

	like, _, err := h.postService.LikePost(ctx, middleware.GetUserID(c), c.Param("postId"))
	if err != nil {
		h.writeError(c, err, "failed to like post")
		return
	}

	response.Created(c, like)
}

// UnlikePost removes the caller's like, if any.
func (h *Handler) UnlikePost(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.postService.UnlikePost(ctx, middleware.GetUserID(c), c.Param("postId")); err != nil {
		h.writeError(c, err, "failed to unlike post")
		return
	}

	response.NoContent(c)
}

// GetLikeCount returns the number of likes on a post.
func (h *Handler) GetLikeCount(c *gin.Context) {
	ctx := c.Request.Context()

	count, err := h.postService.GetLikeCount(ctx, c.Param("postId"))
	if err != nil {
		h.writeError(c, err, "failed to count likes")
		return
	}

	response.Success(c, domain.LikeCountResponse{Count: count})
}

// GetLikeStatus reports whether the caller has liked a post.
func (h *Handler) GetLikeStatus(c *gin.Context) {
	ctx := c.Request.Context()

	liked, err := h.postService.GetLikeStatus(ctx, middleware.GetUserID(c), c.Param("postId"))
	if err != nil {
		h.writeError(c, err, "failed to get like status")
		return
	}

	response.Success(c, domain.LikeStatusResponse{HasLiked: liked})
}

// writeError maps service errors to responses. Unexpected errors are logged
// with the request logger and answered with a generic message.
func (h *Handler) writeError(c *gin.Context, err error, msg string) {
	l := log.Ctx(c.Request.Context())
	postID := c.Param("postId")

	switch {
	case errors.Is(err, service.ErrPostNotFound):
		response.NotFound(c, "post not found")
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, "only the author can modify this post")
	case errors.Is(err, service.ErrUserMismatch):
		response.Forbidden(c, "userId must match the authenticated user")
	case errors.Is(err, service.ErrUserNotFound):
		response.BadRequest(c, "User not found")
	case errors.Is(err, service.ErrNothingToUpdate):
		response.BadRequest(c, "at least one of title or content is required")
	case errors.Is(err, service.ErrUserCacheUnavailable):
		l.Error().Err(err).Str(log.FieldPostID, postID).Msg(msg)
		response.DependencyUnavailable(c, "user validation is temporarily unavailable")
	default:
		l.Error().Err(err).Str(log.FieldPostID, postID).Msg(msg)
		response.InternalError(c, msg)
	}
}
