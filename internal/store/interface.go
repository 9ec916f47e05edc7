package store

import (
	"context"
	"errors"
)

// ErrUnsupportedDriver is returned for an unknown user_cache.driver.
var ErrUnsupportedDriver = errors.New("unsupported user cache driver")

// UserCacheStore is the set of user ids considered valid for authoring content.
// Upsert and Remove are idempotent; Exists is a point lookup.
//
// There is no lock between a lifecycle event being applied and a gate read,
// so a request may observe a value that is about to change.
type UserCacheStore interface {
	Upsert(ctx context.Context, userID string) error
	Remove(ctx context.Context, userID string) error
	Exists(ctx context.Context, userID string) (bool, error)
	Count(ctx context.Context) (int64, error)
}
