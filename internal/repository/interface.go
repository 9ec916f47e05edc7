package repository

import (
	"context"
	"errors"

	"github.com/weiawesome/wes-io-live/post-service/internal/domain"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrLikeNotFound = errors.New("like not found")
)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, postID string) (*domain.Post, error)
	List(ctx context.Context, page domain.Page) ([]*domain.Post, error)
	ListByUser(ctx context.Context, userID string, page domain.Page) ([]*domain.Post, error)
	Update(ctx context.Context, post *domain.Post) error
	// DeleteWithLikes removes a post and all of its likes in one transaction.
	DeleteWithLikes(ctx context.Context, postID string) error
}

// LikeRepository defines persistence operations for likes.
type LikeRepository interface {
	// Create inserts a like. If the (user, post) pair already exists the
	// stored like is returned with created=false.
	Create(ctx context.Context, like *domain.Like) (stored *domain.Like, created bool, err error)
	Delete(ctx context.Context, userID, postID string) error
	Exists(ctx context.Context, userID, postID string) (bool, error)
	CountByPost(ctx context.Context, postID string) (int64, error)
	CountByPosts(ctx context.Context, postIDs []string) (map[string]int64, error)
	LikedPosts(ctx context.Context, userID string, postIDs []string) (map[string]bool, error)
}
