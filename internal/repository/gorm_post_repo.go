package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/weiawesome/wes-io-live/post-service/internal/domain"
	"github.com/weiawesome/wes-io-live/post-service/pkg/database"
)

// GormPostRepository implements PostRepository using GORM.
type GormPostRepository struct {
	db *gorm.DB
}

// NewGormPostRepository creates a new GORM-backed post repository.
func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	return &GormPostRepository{db: db}
}

// Create inserts the post and fills in its id and timestamps.
func (r *GormPostRepository) Create(ctx context.Context, post *domain.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	model := domain.PostToModel(post)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	*post = *model.ToDomain()
	return nil
}

func (r *GormPostRepository) GetByID(ctx context.Context, postID string) (*domain.Post, error) {
	var model domain.PostModel
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).Take(&model).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns posts newest first.
func (r *GormPostRepository) List(ctx context.Context, page domain.Page) ([]*domain.Post, error) {
	return r.list(r.db.WithContext(ctx), page)
}

// ListByUser returns one author's posts newest first.
func (r *GormPostRepository) ListByUser(ctx context.Context, userID string, page domain.Page) ([]*domain.Post, error) {
	return r.list(r.db.WithContext(ctx).Where("user_id = ?", userID), page)
}

func (r *GormPostRepository) list(q *gorm.DB, page domain.Page) ([]*domain.Post, error) {
	page = page.Normalize()

	var models []domain.PostModel
	err := q.Order("created_at DESC").Order("post_id DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	posts := make([]*domain.Post, 0, len(models))
	for i := range models {
		posts = append(posts, models[i].ToDomain())
	}
	return posts, nil
}

// Update writes title and content and refreshes updated_at.
func (r *GormPostRepository) Update(ctx context.Context, post *domain.Post) error {
	result := r.db.WithContext(ctx).Model(&domain.PostModel{ID: post.ID}).
		Updates(map[string]interface{}{
			"title":   post.Title,
			"content": post.Content,
		})
	if result.Error != nil {
		return result.Error
	}

	// RowsAffected is not a reliable existence check: MySQL counts changed
	// rows, so an unchanged resend reports 0. The re-read decides.
	updated, err := r.GetByID(ctx, post.ID)
	if err != nil {
		return err
	}
	*post = *updated
	return nil
}

// DeleteWithLikes removes the post's likes, then the post. Either both happen or neither.
func (r *GormPostRepository) DeleteWithLikes(ctx context.Context, postID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&domain.LikeModel{}).Error; err != nil {
			return err
		}

		result := tx.Where("post_id = ?", postID).Delete(&domain.PostModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPostNotFound
		}
		return nil
	})
}

// Ensure interface is satisfied at compile time.
var _ PostRepository = (*GormPostRepository)(nil)
