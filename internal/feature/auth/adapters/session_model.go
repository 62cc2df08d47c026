package adapters

import (
	"time"
	"unicode/utf8"

	"stock_portfolio/internal/feature/auth/domain/entity"
)

const (
	maxUserAgentLength = 512
	maxIPLength        = 45
)

// SessionRow は sessions テーブルの1行です。
// クッキー値は保存せず、そのSHA-256ダイジェストを主キーにします。
type SessionRow struct {
	TokenHash string     `gorm:"primaryKey;size:64"`
	UserID    uint       `gorm:"not null;index:idx_sessions_user_created,priority:1"`
	CreatedAt time.Time  `gorm:"not null;index:idx_sessions_user_created,priority:2"`
	ExpiresAt time.Time  `gorm:"not null;index"`
	RevokedAt *time.Time
	UserAgent string `gorm:"size:512"`
	IPAddress string `gorm:"size:45"`
}

// TableName はGORMのテーブル名を返します。
func (SessionRow) TableName() string {
	return "sessions"
}

func newSessionRow(s *entity.Session) SessionRow {
	return SessionRow{
		TokenHash: entity.HashSessionID(s.ID),
		UserID:    s.UserID,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
		RevokedAt: s.RevokedAt,
		UserAgent: clip(s.UserAgent, maxUserAgentLength),
		IPAddress: clip(s.IPAddress, maxIPLength),
	}
}

// toEntity はクッキー値 id を補ってエンティティに戻します。
func (r SessionRow) toEntity(id string) *entity.Session {
	return &entity.Session{
		ID:        id,
		UserID:    r.UserID,
		UserAgent: r.UserAgent,
		IPAddress: r.IPAddress,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
		RevokedAt: r.RevokedAt,
	}
}

// clip は文字列をnバイト以内に切り詰めます。UTF-8の途中では切りません。
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
