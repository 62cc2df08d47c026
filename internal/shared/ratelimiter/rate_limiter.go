// Package ratelimiter は認証エンドポイントへの試行回数をクライアントごとに制限します。
package ratelimiter

import (
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"stock_portfolio/internal/api"
	"stock_portfolio/internal/platform/web"
)

const (
	// DefaultLimit は1ウィンドウあたりの既定の試行回数です。
	DefaultLimit = 10
	// DefaultInterval はカウントをリセットする間隔です。
	DefaultInterval = time.Minute
)

type window struct {
	count     int
	lastReset time.Time
}

// RateLimiter はキーごとの固定ウィンドウで操作の頻度を制限します。
// 上限を超えた呼び出しは待機せず拒否されます。
type RateLimiter struct {
	limit    int           // 1ウィンドウあたりの上限
	interval time.Duration // どの単位でリセットするか
	now      func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// NewRateLimiter は新しいRateLimiterのインスタンスを生成します。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:    limit,
		interval: interval,
		now:      time.Now,
		windows:  make(map[string]*window),
	}
}

// LoadFromEnv は LOGIN_RATE_LIMIT（1分あたりの回数）から RateLimiter を作ります。
// 0 の場合は制限しないため nil を返します。
func LoadFromEnv() *RateLimiter {
	limit := DefaultLimit
	if v := os.Getenv("LOGIN_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			slog.Warn("invalid LOGIN_RATE_LIMIT, using default", "value", v, "default", DefaultLimit)
		} else {
			limit = n
		}
	}
	if limit == 0 {
		return nil
	}
	return NewRateLimiter(limit, DefaultInterval)
}

// Allow は key の試行を1回数え、上限内なら true を返します。
// 拒否した場合は次のリセットまでの時間も返します。
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	// interval を過ぎたらカウントリセット
	if !ok || now.Sub(w.lastReset) >= rl.interval {
		w = &window{lastReset: now}
		rl.windows[key] = w
	}

	w.count++
	if w.count > rl.limit {
		return false, rl.interval - now.Sub(w.lastReset)
	}
	return true, 0
}

// Sweep はリセット時刻を過ぎたウィンドウを破棄し、残りの件数を返します。
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for k, w := range rl.windows {
		if now.Sub(w.lastReset) >= rl.interval {
			delete(rl.windows, k)
		}
	}
	return len(rl.windows)
}

// Middleware はクライアントIPごとに試行を数え、超過時は429を返します。
// rl が nil の場合は何もしません。
func Middleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil {
			c.Next()
			return
		}
		ok, retry := rl.Allow(c.ClientIP())
		if ok {
			c.Next()
			return
		}
		secs := int(retry.Seconds())
		if secs < 1 {
			secs = 1
		}
		slog.Warn("rate limit exceeded", "path", c.FullPath(), "remote_addr", c.ClientIP(), "retry_after", secs)
		c.Header("Retry-After", strconv.Itoa(secs))
		msg := "too many attempts, try again later"
		web.Render(c, http.StatusTooManyRequests, "error.html",
			gin.H{"Title": http.StatusText(http.StatusTooManyRequests), "Message": msg},
			api.ErrorResponse{Error: msg})
		c.Abort()
	}
}
