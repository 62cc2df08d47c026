package ratelimiter

import (
	"net/http"
	"os"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_portfolio/internal/platform/web"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fakeClock は手動で進める時計です。
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func newTestLimiter(limit int) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, time.Minute)
	rl.now = clock.Now
	return rl, clock
}

func TestRateLimiter_Allow(t *testing.T) {
	t.Parallel()

	rl, clock := newTestLimiter(2)

	ok, _ := rl.Allow("1.2.3.4")
	assert.True(t, ok)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok)

	clock.Advance(20 * time.Second)
	ok, retry := rl.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, retry)

	ok, _ = rl.Allow("5.6.7.8")
	assert.True(t, ok, "keys are counted separately")

	clock.Advance(40 * time.Second)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok, "window resets after the interval")
}

func TestRateLimiter_Concurrent(t *testing.T) {
	t.Parallel()

	rl, _ := newTestLimiter(50)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := rl.Allow("k"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestRateLimiter_Sweep(t *testing.T) {
	t.Parallel()

	rl, clock := newTestLimiter(1)
	rl.Allow("a")
	clock.Advance(30 * time.Second)
	rl.Allow("b")
	clock.Advance(30 * time.Second)

	assert.Equal(t, 1, rl.Sweep())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LOGIN_RATE_LIMIT", "")
	rl := LoadFromEnv()
	require.NotNil(t, rl)
	assert.Equal(t, DefaultLimit, rl.limit)

	t.Setenv("LOGIN_RATE_LIMIT", "3")
	assert.Equal(t, 3, LoadFromEnv().limit)

	t.Setenv("LOGIN_RATE_LIMIT", "nope")
	assert.Equal(t, DefaultLimit, LoadFromEnv().limit)

	t.Setenv("LOGIN_RATE_LIMIT", "0")
	assert.Nil(t, LoadFromEnv())
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	rl, _ := newTestLimiter(1)
	r := gin.New()
	r.SetHTMLTemplate(web.Templates())
	r.POST("/api/token", Middleware(rl), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/token", nil)
		req.Header.Set("Accept", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send().Code)
	w := send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"too many attempts, try again later"}`, w.Body.String())
}

func TestMiddleware_NilDisables(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.POST("/x", Middleware(nil), func(c *gin.Context) { c.Status(http.StatusOK) })
	for range 3 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
