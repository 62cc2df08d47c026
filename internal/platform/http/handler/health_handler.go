// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const checkTimeout = 2 * time.Second

// Check は依存先の疎通確認を行う関数です。nilを返せば正常です。
type Check func(ctx context.Context) error

// DBCheck はデータベースへのPingを行うCheckを返します。
func DBCheck(db *gorm.DB) Check {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// RedisCheck はRedisへのPingを行うCheckを返します。
func RedisCheck(rdb redis.Cmdable) Check {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}

// HealthHandler は /healthz を処理します。
type HealthHandler struct {
	checks map[string]Check
}

// NewHealthHandler は名前付きのCheckでHealthHandlerを生成します。
func NewHealthHandler(checks map[string]Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health は登録されたCheckをすべて実行し、結果を返します。
// 1つでも失敗した場合は503を返します。キャッシュは常に禁止します。
func (h *HealthHandler) Health(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	if c.Request.Method == http.MethodOptions {
		c.Status(http.StatusNoContent)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			healthy = false
			continue
		}
		results[name] = "ok"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	if c.Request.Method == http.MethodHead {
		c.Status(status)
		return
	}
	if healthy {
		c.JSON(status, gin.H{"status": "ok"})
		return
	}
	c.JSON(status, gin.H{"status": "degraded", "checks": results})
}
