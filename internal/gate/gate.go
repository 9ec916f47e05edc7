// Package gate decides whether a user may author posts and likes.
package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/weiawesome/wes-io-live/post-service/internal/store"
	pkglog "github.com/weiawesome/wes-io-live/post-service/pkg/log"
)

var (
	// ErrUserNotFound means the user is absent from the valid-user cache.
	ErrUserNotFound = errors.New("user not found")
	// ErrUnavailable means the cache could not be read. The gate denies in that case.
	ErrUnavailable = errors.New("user cache unavailable")
)

// sharedLookupTimeout bounds a coalesced lookup, which no single caller owns.
const sharedLookupTimeout = 3 * time.Second

// Gate checks authors against the valid-user cache. It never calls the user service.
type Gate struct {
	store    store.UserCacheStore
	coalesce bool
	sf       singleflight.Group
}

// New creates a gate over s. With coalesce set, concurrent checks for the
// same user share a single store lookup.
func New(s store.UserCacheStore, coalesce bool) *Gate {
	return &Gate{store: s, coalesce: coalesce}
}

// Check returns nil if userID is cached as valid, ErrUserNotFound if it is
// not, and an error wrapping ErrUnavailable if the store read failed.
func (g *Gate) Check(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrUserNotFound
	}

	ok, err := g.exists(ctx, userID)
	if err != nil {
		l := pkglog.Ctx(ctx)
		l.Error().Err(err).
			Str(pkglog.FieldUserID, userID).
			Msg("user cache lookup failed, denying")
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if !ok {
		return ErrUserNotFound
	}
	return nil
}

// IsAuthorValid is the boolean form of Check. Store failures read as false.
func (g *Gate) IsAuthorValid(ctx context.Context, userID string) bool {
	return g.Check(ctx, userID) == nil
}

func (g *Gate) exists(ctx context.Context, userID string) (bool, error) {
	if !g.coalesce {
		return g.store.Exists(ctx, userID)
	}

	// The shared lookup is detached from whichever caller started it, so one
	// cancelled request cannot fail the others waiting on the same user.
	ch := g.sf.DoChan(userID, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()
		return g.store.Exists(lookupCtx, userID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return false, res.Err
		}
		return res.Val.(bool), nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
