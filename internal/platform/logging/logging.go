// Package logging はslogの既定ロガーを設定します。
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel は LOG_LEVEL の値をslogのレベルに変換します。不明な値はInfoです。
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New は w にJSONを書き出すロガーを返します。
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Setup は LOG_LEVEL に従った標準エラー出力のJSONロガーを既定にします。
func Setup() *slog.Logger {
	logger := New(os.Stderr, ParseLevel(os.Getenv("LOG_LEVEL")))
	slog.SetDefault(logger)
	return logger
}
