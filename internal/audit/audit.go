package audit

import (
	"context"

	"github.com/weiawesome/wes-io-live/post-service/pkg/log"
)

// Audit actions for post-service.
const (
	ActionCreatePost      = "post.create"
	ActionUpdatePost      = "post.update"
	ActionDeletePost      = "post.delete"
	ActionCreateLike      = "like.create"
	ActionDeleteLike      = "like.delete"
	ActionUserCacheUpsert = "usercache.upsert"
	ActionUserCacheRemove = "usercache.remove"
)

// Field constants for audit entries.
const (
	FieldAction   = "action"
	FieldTargetID = "target_id"
	FieldDetail   = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, userID string, targetID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldTargetID, targetID).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action string, userID string, targetID string, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldTargetID, targetID).
		Str(FieldDetail, detail).
		Msg(msg)
}
