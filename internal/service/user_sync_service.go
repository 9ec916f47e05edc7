package service

import (
	"context"
	"fmt"

	"github.com/weiawesome/wes-io-live/post-service/internal/audit"
	"github.com/weiawesome/wes-io-live/post-service/internal/domain"
	"github.com/weiawesome/wes-io-live/post-service/internal/store"
	pkglog "github.com/weiawesome/wes-io-live/post-service/pkg/log"
)

type userSyncServiceImpl struct {
	store store.UserCacheStore
}

// NewUserSyncService creates the handler that keeps the valid-user cache in step
// with the user service. Events are applied in delivery order; nothing is
// reordered by timestamp.
func NewUserSyncService(s store.UserCacheStore) UserSyncService {
	return &userSyncServiceImpl{store: s}
}

// HandleUserEvent upserts on UserCreated and UserUpdated and removes on
// UserDeleted. Unknown event types are ignored.
func (s *userSyncServiceImpl) HandleUserEvent(ctx context.Context, event *domain.UserLifecycleEvent) error {
	switch event.EventType {
	case domain.EventUserCreated, domain.EventUserUpdated:
		if err := s.store.Upsert(ctx, event.UserID); err != nil {
			return fmt.Errorf("apply %s: %w", event.EventType, err)
		}
		audit.LogWithDetail(ctx, audit.ActionUserCacheUpsert, event.UserID, event.UserID, event.EventType, "user cached as valid")

	case domain.EventUserDeleted:
		if err := s.store.Remove(ctx, event.UserID); err != nil {
			return fmt.Errorf("apply %s: %w", event.EventType, err)
		}
		audit.LogWithDetail(ctx, audit.ActionUserCacheRemove, event.UserID, event.UserID, event.EventType, "user removed from cache")

	default:
		l := pkglog.Ctx(ctx)
		l.Warn().
			Str(pkglog.FieldEventType, event.EventType).
			Str(pkglog.FieldUserID, event.UserID).
			Msg("ignoring unknown user event type")
	}
	return nil
}
