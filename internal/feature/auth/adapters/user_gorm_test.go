package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stock_portfolio/internal/feature/auth/domain/entity"
	"stock_portfolio/internal/feature/auth/usecase"
)

// newTestDB は models をマイグレーションしたインメモリSQLiteを返します。
func newTestDB(t *testing.T, models ...any) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// :memory: はコネクションごとに別DBになるため1本に制限する
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models...))
	return db
}

// seedUsers は渡したメールアドレスのユーザーを順に登録します。
func seedUsers(t *testing.T, repo *userRepository, emails ...string) []*entity.User {
	t.Helper()
	users := make([]*entity.User, 0, len(emails))
	for _, email := range emails {
		u := &entity.User{Email: email, Password: "$2a$10$hash-of-" + email}
		require.NoError(t, repo.Create(context.Background(), u))
		users = append(users, u)
	}
	return users
}

func TestUserRepository_Create(t *testing.T) {
	t.Parallel()

	repo := NewUserRepository(newTestDB(t, &entity.User{}))
	ctx := context.Background()

	u := &entity.User{Email: "alice@example.com", Password: "hashed"}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotZero(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	dup := &entity.User{Email: "alice@example.com", Password: "other"}
	assert.ErrorIs(t, repo.Create(ctx, dup), usecase.ErrEmailAlreadyExists)

	assert.Error(t, repo.Create(ctx, nil))
}

func TestUserRepository_FindByEmail(t *testing.T) {
	t.Parallel()

	repo := NewUserRepository(newTestDB(t, &entity.User{}))
	users := seedUsers(t, repo, "alice@example.com", "bob@example.com")

	tests := []struct {
		name    string
		email   string
		wantID  uint
		wantErr error
	}{
		{"exact match", "bob@example.com", users[1].ID, nil},
		{"unknown", "carol@example.com", 0, usecase.ErrUserNotFound},
		{"empty", "", 0, usecase.ErrUserNotFound},
		{"blank", "   ", 0, usecase.ErrUserNotFound},
		// 正規化は usecase の責務で、ストアは完全一致のみ
		{"not normalized", "Bob@Example.com", 0, usecase.ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindByEmail(context.Background(), tt.email)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
			assert.Equal(t, "$2a$10$hash-of-"+tt.email, got.Password)
		})
	}
}

func TestUserRepository_FindByID(t *testing.T) {
	t.Parallel()

	repo := NewUserRepository(newTestDB(t, &entity.User{}))
	users := seedUsers(t, repo, "alice@example.com", "bob@example.com")
	ctx := context.Background()

	got, err := repo.FindByID(ctx, users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, users[0].CreatedAt.Unix(), got.CreatedAt.Unix())

	for _, id := range []uint{0, 999} {
		got, err := repo.FindByID(ctx, id)
		assert.ErrorIs(t, err, usecase.ErrUserNotFound, "id %d", id)
		assert.Nil(t, got)
	}
}
