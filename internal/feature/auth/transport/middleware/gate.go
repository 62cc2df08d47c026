// Package middleware は保護されたルートの認証ゲートを提供します。
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"stock_portfolio/internal/api"
	"stock_portfolio/internal/feature/auth/domain/entity"
	"stock_portfolio/internal/feature/auth/usecase"
	jwtmw "stock_portfolio/internal/platform/jwt"
)

const (
	// SessionCookieName はブラウザセッションIDを保持するクッキー名です。
	SessionCookieName = "sessionid"
	// LoginPath はログインページのパスです。
	LoginPath = "/accounts/login/"
)

// UserResolver はセッションIDまたはユーザーIDからユーザーを解決します。
type UserResolver interface {
	ResolveSession(ctx context.Context, sessionID string) (*entity.User, error)
	UserByID(ctx context.Context, id uint) (*entity.User, error)
}

// TokenParser はBearerトークンを検証してユーザーIDを返します。
type TokenParser interface {
	ParseToken(token string) (uint, error)
}

// AuthenticatedHandler は解決済みのユーザーを明示的に受け取るハンドラーです。
type AuthenticatedHandler func(c *gin.Context, user entity.User)

// Gate はハンドラーの前に認証を確認し、未認証のリクエストをハンドラーへ到達させません。
type Gate struct {
	users  UserResolver
	tokens TokenParser
}

// NewGate はGateを生成します。
func NewGate(users UserResolver, tokens TokenParser) *Gate {
	return &Gate{users: users, tokens: tokens}
}

// Protected は h を認証ゲートで包みます。
//   - Authorization: Bearer が不正な場合は401（JSON）
//   - セッションがない・無効な場合はログインページへ302（next付き）
func (g *Gate) Protected(h AuthenticatedHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if token, ok := jwtmw.BearerToken(c.Request); ok {
			user, err := g.fromToken(ctx, token)
			if err != nil {
				slog.Warn("bearer authentication failed", "error", err, "remote_addr", c.ClientIP())
				c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid token"})
				return
			}
			h(c, *user)
			return
		}

		sessionID, _ := c.Cookie(SessionCookieName)
		user, err := g.users.ResolveSession(ctx, sessionID)
		if err != nil {
			if !isAuthError(err) {
				slog.Error("session lookup failed", "error", err, "remote_addr", c.ClientIP())
				c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
				return
			}
			RedirectToLogin(c)
			return
		}
		h(c, *user)
	}
}

func (g *Gate) fromToken(ctx context.Context, token string) (*entity.User, error) {
	userID, err := g.tokens.ParseToken(token)
	if err != nil {
		return nil, err
	}
	return g.users.UserByID(ctx, userID)
}

// isAuthError はセッションが存在しない・無効であることを示すエラーかを返します。
func isAuthError(err error) bool {
	return errors.Is(err, usecase.ErrSessionNotFound) ||
		errors.Is(err, usecase.ErrSessionExpired) ||
		errors.Is(err, usecase.ErrSessionRevoked) ||
		errors.Is(err, usecase.ErrUserNotFound)
}

// RedirectToLogin は現在のパスを next に付けてログインページへリダイレクトします。
func RedirectToLogin(c *gin.Context) {
	q := url.Values{}
	q.Set("next", c.Request.URL.RequestURI())
	c.Redirect(http.StatusFound, LoginPath+"?"+q.Encode())
	c.Abort()
}
