// Package jwtmw はAPIクライアント向けのBearerトークン（HS256 JWT）の発行と検証を提供します。
package jwtmw

import (
	"log/slog"
	"os"
	"time"
)

const (
	EnvKeyJWTSecret     = "JWT_SECRET"
	EnvKeyJWTExpiration = "JWT_EXPIRATION"

	defaultExpiration = 24 * time.Hour
)

// Config はトークンの署名鍵と有効期間を保持します。
type Config struct {
	Secret     string
	Expiration time.Duration
}

// LoadConfig は環境変数からJWT設定を読み込みます。
// JWT_EXPIRATION が未設定・不正な場合は24時間を使用します。
func LoadConfig() Config {
	exp := defaultExpiration
	if v := os.Getenv(EnvKeyJWTExpiration); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			exp = d
		} else {
			slog.Warn("invalid JWT_EXPIRATION, using default", "value", v, "default", defaultExpiration)
		}
	}
	return Config{
		Secret:     os.Getenv(EnvKeyJWTSecret),
		Expiration: exp,
	}
}
