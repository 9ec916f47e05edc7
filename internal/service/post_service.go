package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/weiawesome/wes-io-live/post-service/internal/audit"
	"github.com/weiawesome/wes-io-live/post-service/internal/domain"
	"github.com/weiawesome/wes-io-live/post-service/internal/gate"
	"github.com/weiawesome/wes-io-live/post-service/internal/publisher"
	"github.com/weiawesome/wes-io-live/post-service/internal/repository"
	pkglog "github.com/weiawesome/wes-io-live/post-service/pkg/log"
)

// AuthorGate is the write-path check against the valid-user cache.
type AuthorGate interface {
	Check(ctx context.Context, userID string) error
}

type postServiceImpl struct {
	posts     repository.PostRepository
	likes     repository.LikeRepository
	gate      AuthorGate
	publisher publisher.PostEventPublisher
	now       func() time.Time
}

// NewPostService creates a new post service.
func NewPostService(
	posts repository.PostRepository,
	likes repository.LikeRepository,
	g AuthorGate,
	pub publisher.PostEventPublisher,
) PostService {
	return &postServiceImpl{
		posts:     posts,
		likes:     likes,
		gate:      g,
		publisher: pub,
		now:       time.Now,
	}
}

// CreatePost checks the author against the cache, stores the post and
// queues a PostCreated event. The event is best-effort.
func (s *postServiceImpl) CreatePost(ctx context.Context, actorID string, req *domain.CreatePostRequest) (*domain.PostView, error) {
	if req.UserID != actorID {
		return nil, ErrUserMismatch
	}
	if err := s.checkAuthor(ctx, req.UserID); err != nil {
		return nil, err
	}

	post := &domain.Post{
		UserID:  req.UserID,
		Title:   req.Title,
		Content: req.Content,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	audit.Log(ctx, audit.ActionCreatePost, post.UserID, post.ID, "post created")

	if !s.publisher.PublishAsync(domain.NewPostCreatedEvent(post, s.now())) {
		l := pkglog.Ctx(ctx)
		l.Warn().Str(pkglog.FieldPostID, post.ID).Msg("post created event not queued")
	}

	return domain.NewPostView(post), nil
}

func (s *postServiceImpl) GetPost(ctx context.Context, postID, viewerID string) (*domain.PostView, error) {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	views, err := s.enrich(ctx, []*domain.Post{post}, viewerID)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *postServiceImpl) ListPosts(ctx context.Context, viewerID string, page domain.Page) (*domain.ListPostsResponse, error) {
	page = page.Normalize()
	posts, err := s.posts.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return s.toList(ctx, posts, viewerID, page)
}

func (s *postServiceImpl) ListUserPosts(ctx context.Context, userID, viewerID string, page domain.Page) (*domain.ListPostsResponse, error) {
	page = page.Normalize()
	posts, err := s.posts.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, fmt.Errorf("list user posts: %w", err)
	}
	return s.toList(ctx, posts, viewerID, page)
}

// UpdatePost applies the non-nil fields of req. Ownership is checked against the stored post.
func (s *postServiceImpl) UpdatePost(ctx context.Context, actorID, postID string, req *domain.UpdatePostRequest) (*domain.PostView, error) {
	if req.IsEmpty() {
		return nil, ErrNothingToUpdate
	}

	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != actorID {
		return nil, ErrForbidden
	}

	var changed []string
	if req.Title != nil {
		post.Title = *req.Title
		changed = append(changed, "title")
	}
	if req.Content != nil {
		post.Content = *req.Content
		changed = append(changed, "content")
	}

	if err := s.posts.Update(ctx, post); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("update post: %w", err)
	}

	audit.LogWithDetail(ctx, audit.ActionUpdatePost, actorID, post.ID, fmt.Sprint(changed), "post updated")

	views, err := s.enrich(ctx, []*domain.Post{post}, actorID)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// DeletePost removes the post and its likes atomically.
func (s *postServiceImpl) DeletePost(ctx context.Context, actorID, postID string) error {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != actorID {
		return ErrForbidden
	}

	if err := s.posts.DeleteWithLikes(ctx, postID); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("delete post: %w", err)
	}

	audit.Log(ctx, audit.ActionDeletePost, actorID, postID, "post deleted")
	return nil
}

// LikePost records a like. Liking twice returns the original like.
func (s *postServiceImpl) LikePost(ctx context.Context, actorID, postID string) (*domain.LikeView, bool, error) {
	if _, err := s.getPost(ctx, postID); err != nil {
		return nil, false, err
	}
	if err := s.checkAuthor(ctx, actorID); err != nil {
		return nil, false, err
	}

	like, created, err := s.likes.Create(ctx, &domain.Like{UserID: actorID, PostID: postID})
	if err != nil {
		return nil, false, fmt.Errorf("create like: %w", err)
	}

	if created {
		audit.Log(ctx, audit.ActionCreateLike, actorID, postID, "post liked")
	}
	return domain.NewLikeView(like), created, nil
}

// UnlikePost removes a like. Removing a missing like succeeds.
func (s *postServiceImpl) UnlikePost(ctx context.Context, actorID, postID string) error {
	if _, err := s.getPost(ctx, postID); err != nil {
		return err
	}

	if err := s.likes.Delete(ctx, actorID, postID); err != nil {
		if errors.Is(err, repository.ErrLikeNotFound) {
			return nil
		}
		return fmt.Errorf("delete like: %w", err)
	}

	audit.Log(ctx, audit.ActionDeleteLike, actorID, postID, "post unliked")
	return nil
}

func (s *postServiceImpl) GetLikeCount(ctx context.Context, postID string) (int64, error) {
	if _, err := s.getPost(ctx, postID); err != nil {
		return 0, err
	}
	count, err := s.likes.CountByPost(ctx, postID)
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}

func (s *postServiceImpl) GetLikeStatus(ctx context.Context, actorID, postID string) (bool, error) {
	if _, err := s.getPost(ctx, postID); err != nil {
		return false, err
	}
	liked, err := s.likes.Exists(ctx, actorID, postID)
	if err != nil {
		return false, fmt.Errorf("like status: %w", err)
	}
	return liked, nil
}

func (s *postServiceImpl) getPost(ctx context.Context, postID string) (*domain.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

func (s *postServiceImpl) checkAuthor(ctx context.Context, userID string) error {
	err := s.gate.Check(ctx, userID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gate.ErrUserNotFound):
		return ErrUserNotFound
	default:
		return fmt.Errorf("%w: %v", ErrUserCacheUnavailable, err)
	}
}

func (s *postServiceImpl) toList(ctx context.Context, posts []*domain.Post, viewerID string, page domain.Page) (*domain.ListPostsResponse, error) {
	views, err := s.enrich(ctx, posts, viewerID)
	if err != nil {
		return nil, err
	}
	return &domain.ListPostsResponse{
		Posts:  views,
		Limit:  page.Limit,
		Offset: page.Offset,
	}, nil
}

// enrich computes likeCount and the viewer's hasLiked from the likes table at read time.
func (s *postServiceImpl) enrich(ctx context.Context, posts []*domain.Post, viewerID string) ([]*domain.PostView, error) {
	views := make([]*domain.PostView, len(posts))
	if len(posts) == 0 {
		return views, nil
	}

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	var (
		counts map[string]int64
		liked  map[string]bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.likes.CountByPosts(gctx, ids)
		return err
	})
	if viewerID != "" {
		g.Go(func() error {
			var err error
			liked, err = s.likes.LikedPosts(gctx, viewerID, ids)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load like aggregates: %w", err)
	}

	for i, p := range posts {
		v := domain.NewPostView(p)
		v.LikeCount = counts[p.ID]
		v.HasLiked = liked[p.ID]
		views[i] = v
	}
	return views, nil
}
