package service

import (
	"context"
	"errors"

	"github.com/weiawesome/wes-io-live/post-service/internal/domain"
)

var (
	ErrPostNotFound         = errors.New("post not found")
	ErrForbidden            = errors.New("you are not the author of this post")
	ErrUserMismatch         = errors.New("userId does not match the authenticated user")
	ErrUserNotFound         = errors.New("user not found")
	ErrUserCacheUnavailable = errors.New("user validation temporarily unavailable")
	ErrNothingToUpdate      = errors.New("nothing to update")
)

// PostService defines the business logic for posts and likes.
// viewerID may be empty for anonymous reads.
type PostService interface {
	CreatePost(ctx context.Context, actorID string, req *domain.CreatePostRequest) (*domain.PostView, error)
	GetPost(ctx context.Context, postID, viewerID string) (*domain.PostView, error)
	ListPosts(ctx context.Context, viewerID string, page domain.Page) (*domain.ListPostsResponse, error)
	ListUserPosts(ctx context.Context, userID, viewerID string, page domain.Page) (*domain.ListPostsResponse, error)
	UpdatePost(ctx context.Context, actorID, postID string, req *domain.UpdatePostRequest) (*domain.PostView, error)
	DeletePost(ctx context.Context, actorID, postID string) error

	// LikePost reports created=false when the like already existed.
	LikePost(ctx context.Context, actorID, postID string) (like *domain.LikeView, created bool, err error)
	UnlikePost(ctx context.Context, actorID, postID string) error
	GetLikeCount(ctx context.Context, postID string) (int64, error)
	GetLikeStatus(ctx context.Context, actorID, postID string) (bool, error)
}

// UserSyncService applies user lifecycle events to the valid-user cache.
type UserSyncService interface {
	HandleUserEvent(ctx context.Context, event *domain.UserLifecycleEvent) error
}
