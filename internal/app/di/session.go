package di

import (
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authadapters "stock_portfolio/internal/feature/auth/adapters"
	"stock_portfolio/internal/feature/auth/usecase"
	"stock_portfolio/internal/platform/session"
)

// NewSessionRepository creates a SessionRepository implementation.
// If Redis is available, it returns a Redis-backed implementation.
// Otherwise, it falls back to the database.
func NewSessionRepository(rdb *redis.Client, db *gorm.DB) usecase.SessionRepository {
	if rdb != nil {
		return session.NewRedisStore(rdb, session.DefaultPrefix)
	}
	return authadapters.NewSessionRepository(db)
}

// SessionTTL reads SESSION_TTL, falling back to the usecase default.
func SessionTTL() time.Duration {
	v := os.Getenv("SESSION_TTL")
	if v == "" {
		return usecase.DefaultSessionTTL
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid SESSION_TTL, using default", "value", v, "default", usecase.DefaultSessionTTL)
		return usecase.DefaultSessionTTL
	}
	return d
}
