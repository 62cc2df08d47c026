package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"stock_portfolio/internal/feature/auth/domain/entity"
	"stock_portfolio/internal/feature/auth/usecase"
)

// sessionRepository はRedisが使えない環境向けの、GORMによるセッションストアです。
type sessionRepository struct {
	db *gorm.DB
}

var _ usecase.SessionRepository = (*sessionRepository)(nil)

// NewSessionRepository は指定されたDB接続でsessionRepositoryを生成します。
func NewSessionRepository(db *gorm.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

// activeScope は失効しておらず期限内のセッションに絞り込みます。
func activeScope(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("revoked_at IS NULL AND expires_at > ?", now)
	}
}

// Save は挿入と上限超過分の削除を1つのトランザクションで行います。
// 新しいセッション自身は削除対象になりません。
func (r *sessionRepository) Save(ctx context.Context, s *entity.Session, limit int) (int, error) {
	row := newSessionRow(s)
	evicted := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if limit <= 0 {
			return nil
		}

		var others []string
		if err := tx.Model(&SessionRow{}).
			Scopes(activeScope(time.Now())).
			Where("user_id = ? AND token_hash <> ?", row.UserID, row.TokenHash).
			Order("created_at DESC").
			Pluck("token_hash", &others).Error; err != nil {
			return err
		}
		if len(others) < limit {
			return nil
		}

		res := tx.Where("token_hash IN ?", others[limit-1:]).Delete(&SessionRow{})
		evicted = int(res.RowsAffected)
		return res.Error
	})
	if err != nil {
		return 0, err
	}
	return evicted, nil
}

// Get はクッキー値のダイジェストでセッションを検索します。
func (r *sessionRepository) Get(ctx context.Context, id string) (*entity.Session, error) {
	var row SessionRow
	err := r.db.WithContext(ctx).Where("token_hash = ?", entity.HashSessionID(id)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, usecase.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toEntity(id), nil
}

// Revoke はセッションを失効させます。失効済みの場合は最初の失効時刻を残します。
func (r *sessionRepository) Revoke(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	key := entity.HashSessionID(id)

	res := db.Model(&SessionRow{}).
		Where("token_hash = ? AND revoked_at IS NULL", key).
		Update("revoked_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := db.Model(&SessionRow{}).Where("token_hash = ?", key).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return usecase.ErrSessionNotFound
	}
	return nil
}

// RevokeUser はユーザーの有効なセッションをまとめて失効させます。
func (r *sessionRepository) RevokeUser(ctx context.Context, userID uint) (int64, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&SessionRow{}).
		Scopes(activeScope(now)).
		Where("user_id = ?", userID).
		Update("revoked_at", now)
	return res.RowsAffected, res.Error
}

// Purge は期限切れと失効済みの行を削除します。
func (r *sessionRepository) Purge(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ? OR revoked_at IS NOT NULL", time.Now()).
		Delete(&SessionRow{})
	return res.RowsAffected, res.Error
}
