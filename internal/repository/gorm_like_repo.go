package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/weiawesome/wes-io-live/post-service/internal/domain"
	"github.com/weiawesome/wes-io-live/post-service/pkg/database"
)

// GormLikeRepository implements LikeRepository using GORM.
type GormLikeRepository struct {
	db *gorm.DB
}

// NewGormLikeRepository creates a new GORM-backed like repository.
func NewGormLikeRepository(db *gorm.DB) *GormLikeRepository {
	return &GormLikeRepository{db: db}
}

// Create inserts a like for (userID, postID). A concurrent duplicate loses on the
// unique index and the winner's row is returned instead.
func (r *GormLikeRepository) Create(ctx context.Context, like *domain.Like) (*domain.Like, bool, error) {
	existing, err := r.find(ctx, like.UserID, like.PostID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	if like.ID == "" {
		like.ID = uuid.NewString()
	}
	model := domain.LikeToModel(like)
	if err := r.db.WithContext(ctx).Omit("Post").Create(model).Error; err != nil {
		if !database.IsUniqueViolation(err) {
			return nil, false, err
		}
		existing, findErr := r.find(ctx, like.UserID, like.PostID)
		if findErr != nil {
			return nil, false, findErr
		}
		if existing == nil {
			return nil, false, fmt.Errorf("like vanished after duplicate insert: %w", err)
		}
		return existing, false, nil
	}
	return model.ToDomain(), true, nil
}

func (r *GormLikeRepository) find(ctx context.Context, userID, postID string) (*domain.Like, error) {
	var model domain.LikeModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Take(&model).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Delete removes the like for (userID, postID).
func (r *GormLikeRepository) Delete(ctx context.Context, userID, postID string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&domain.LikeModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLikeNotFound
	}
	return nil
}

func (r *GormLikeRepository) Exists(ctx context.Context, userID, postID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.LikeModel{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormLikeRepository) CountByPost(ctx context.Context, postID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.LikeModel{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CountByPosts returns the like count of each post. Posts without likes map to 0.
func (r *GormLikeRepository) CountByPosts(ctx context.Context, postIDs []string) (map[string]int64, error) {
	result := make(map[string]int64, len(postIDs))
	for _, id := range postIDs {
		result[id] = 0
	}
	if len(postIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		PostID string
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&domain.LikeModel{}).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.PostID] = row.Count
	}
	return result, nil
}

// LikedPosts reports, for each post id, whether userID has liked it.
func (r *GormLikeRepository) LikedPosts(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(postIDs))
	for _, id := range postIDs {
		result[id] = false
	}
	if len(postIDs) == 0 || userID == "" {
		return result, nil
	}

	var liked []string
	err := r.db.WithContext(ctx).Model(&domain.LikeModel{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &liked).Error
	if err != nil {
		return nil, err
	}

	for _, id := range liked {
		result[id] = true
	}
	return result, nil
}

// Ensure interface is satisfied at compile time.
var _ LikeRepository = (*GormLikeRepository)(nil)
