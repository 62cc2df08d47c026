package usecase

import (
	"context"

	"stock_portfolio/internal/feature/auth/domain/entity"
)

// SessionRepository はクッキーで参照されるブラウザセッションの保存先です。
// 実装はRedis（platform/session）とGORM（adapters）の2つがあります。
type SessionRepository interface {
	// Save はセッションを保存し、同じユーザーの有効なセッションが limit 件を超えた分を
	// 古い順に削除します。削除した件数を返します。
	Save(ctx context.Context, session *entity.Session, limit int) (evicted int, err error)

	// Get はクッキー値に対応するセッションを返します。失効済みや期限切れでも返します。
	// 存在しない場合は ErrSessionNotFound を返します。
	Get(ctx context.Context, id string) (*entity.Session, error)

	// Revoke はセッションを失効済みにします。存在しない場合は ErrSessionNotFound を返します。
	Revoke(ctx context.Context, id string) error

	// RevokeUser はユーザーの有効なセッションをすべて失効させ、件数を返します。
	RevokeUser(ctx context.Context, userID uint) (int64, error)

	// Purge は期限切れと失効済みのセッションを削除し、件数を返します。
	Purge(ctx context.Context) (int64, error)
}
