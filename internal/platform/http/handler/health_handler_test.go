package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func setupRouter(h *HealthHandler) *gin.Engine {
	r := gin.New()
	r.GET("/healthz", h.Health)
	r.HEAD("/healthz", h.Health)
	r.OPTIONS("/healthz", h.Health)
	return r
}

func okCheck(context.Context) error { return nil }

func TestHealth_Methods(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method     string
		wantStatus int
		wantBody   bool
	}{
		{http.MethodGet, http.StatusOK, true},
		{http.MethodHead, http.StatusOK, false},
		{http.MethodOptions, http.StatusNoContent, false},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			t.Parallel()
			router := setupRouter(NewHealthHandler(map[string]Check{"db": okCheck}))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, httptest.NewRequest(tt.method, "/healthz", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
			if tt.wantBody {
				assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
			} else {
				assert.Zero(t, w.Body.Len())
			}
		})
	}
}

func TestHealth_Degraded(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler(map[string]Check{
		"db":    okCheck,
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	w := httptest.NewRecorder()

	setupRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Checks["db"])
	assert.Equal(t, "connection refused", body.Checks["redis"])
}

func TestRedisCheck(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	mock.ExpectPing().SetVal("PONG")
	mock.ExpectPing().SetErr(errors.New("redis down"))

	check := RedisCheck(rdb)

	assert.NoError(t, check(context.Background()))
	assert.EqualError(t, check(context.Background()), "redis down")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBCheck(t *testing.T) {
	t.Parallel()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	check := DBCheck(db)

	assert.NoError(t, check(context.Background()))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	assert.Error(t, check(context.Background()))
}
