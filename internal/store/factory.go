package store

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New selects the store backend by driver name ("database" or "redis").
func New(driver string, db *gorm.DB, client *redis.Client, redisKey string) (UserCacheStore, error) {
	switch driver {
	case "", "database":
		return NewGormUserCacheStore(db), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("%w: redis driver requires a redis client", ErrUnsupportedDriver)
		}
		return NewRedisUserCacheStore(client, redisKey), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
}
