package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weiawesome/wes-io-live/post-service/internal/domain"
)

// GormUserCacheStore keeps valid user ids in the cached_valid_users table.
type GormUserCacheStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormUserCacheStore creates a table-backed user cache store.
func NewGormUserCacheStore(db *gorm.DB) *GormUserCacheStore {
	return &GormUserCacheStore{db: db, now: time.Now}
}

// Upsert inserts the user, or refreshes updated_at if it is already present.
func (s *GormUserCacheStore) Upsert(ctx context.Context, userID string) error {
	now := s.now().UTC()
	model := domain.CachedUserModel{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"updated_at"}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("upsert cached user: %w", err)
	}
	return nil
}

// Remove deletes the user. Removing an absent user succeeds.
func (s *GormUserCacheStore) Remove(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.CachedUserModel{}).Error
	if err != nil {
		return fmt.Errorf("remove cached user: %w", err)
	}
	return nil
}

// Exists looks the user up by primary key.
func (s *GormUserCacheStore) Exists(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.CachedUserModel{}).
		Where("user_id = ?", userID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("lookup cached user: %w", err)
	}
	return count > 0, nil
}

// Count returns the number of cached users.
func (s *GormUserCacheStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.CachedUserModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count cached users: %w", err)
	}
	return count, nil
}

// Ensure interface is satisfied at compile time.
var _ UserCacheStore = (*GormUserCacheStore)(nil)
