// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stock_portfolio/internal/api"
	"stock_portfolio/internal/feature/auth/domain/entity"
	"stock_portfolio/internal/feature/auth/transport/http/dto"
	"stock_portfolio/internal/feature/auth/transport/middleware"
	"stock_portfolio/internal/feature/auth/usecase"
	"stock_portfolio/internal/platform/web"
)

// DefaultNext はログイン後の既定の遷移先です。
const DefaultNext = "/stocks/portfolio/"

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	// Signup は指定されたメールアドレスとパスワードで新規ユーザーを登録します。
	Signup(ctx context.Context, email, password string) error
	// Login はユーザーを認証し、新しいブラウザセッションを返します。
	Login(ctx context.Context, email, password, userAgent, ip string) (*entity.Session, error)
	// Logout はセッションを失効させます。
	Logout(ctx context.Context, sessionID string) error
	// IssueToken はユーザーを認証し、Bearerトークンを返します。
	IssueToken(ctx context.Context, email, password string) (string, error)
}

// AuthHandler はアカウント画面とトークン発行のHTTPリクエストを処理します。
type AuthHandler struct {
	auth     AuthUsecase
	tokenTTL time.Duration
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
// tokenTTL は発行するBearerトークンの有効期間で、レスポンスの expires_in に使われます。
func NewAuthHandler(auth AuthUsecase, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{auth: auth, tokenTTL: tokenTTL}
}

// SignupPage は登録フォームを表示します。
func (h *AuthHandler) SignupPage(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.html", gin.H{})
}

// Signup はユーザー登録を処理します。
// - バリデーションエラー時はフォームを再表示（JSONは400）
// - 登録失敗時（メール重複等）は詳細を伏せて再表示（JSONは409）
// - 成功時はログイン画面へ302（JSONは201）
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupReq
	if err := c.ShouldBind(&req); err != nil {
		slog.Warn("signup validation failed", "error", err, "remote_addr", c.ClientIP())
		renderForm(c, http.StatusBadRequest, "signup.html",
			gin.H{"Error": "enter a valid email and a password of at least 8 characters", "Email": req.Email},
			api.ErrorResponse{Error: "invalid request"})
		return
	}

	if err := h.auth.Signup(c.Request.Context(), req.Email, req.Password); err != nil {
		if !errors.Is(err, usecase.ErrEmailAlreadyExists) && !errors.Is(err, usecase.ErrWeakPassword) {
			slog.Error("signup failed", "error", err, "remote_addr", c.ClientIP())
			renderError(c, http.StatusInternalServerError, "internal server error")
			return
		}
		// ユーザー列挙攻撃を防止するため、実際のエラーを公開しない
		slog.Warn("signup rejected", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
		renderForm(c, http.StatusConflict, "signup.html",
			gin.H{"Error": "signup failed", "Email": req.Email},
			api.ErrorResponse{Error: "signup failed"})
		return
	}

	slog.Info("user signup successful", "email", req.Email, "remote_addr", c.ClientIP())
	if web.WantsJSON(c) {
		c.JSON(http.StatusCreated, api.MessageResponse{Message: "ok"})
		return
	}
	c.Redirect(http.StatusFound, middleware.LoginPath)
}

// LoginPage はログインフォームを表示します。
func (h *AuthHandler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{"Next": web.SafeNext(c.Query("next"), "")})
}

// Login はログインを処理し、成功時にセッションクッキーを設定します。
// - 認証失敗時は詳細を伏せてフォームを再表示（JSONは401）
// - 成功時は next（同一オリジンのみ）またはポートフォリオへ302（JSONは200）
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBind(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		renderForm(c, http.StatusBadRequest, "login.html",
			gin.H{"Error": "enter your email and password", "Email": req.Email, "Next": web.SafeNext(req.Next, "")},
			api.ErrorResponse{Error: "invalid request"})
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		if !errors.Is(err, usecase.ErrInvalidCredentials) {
			slog.Error("login failed", "error", err, "remote_addr", c.ClientIP())
			renderError(c, http.StatusInternalServerError, "internal server error")
			return
		}
		// ユーザー列挙攻撃を防止するため、実際のエラーを公開しない
		slog.Warn("login rejected", "email", req.Email, "remote_addr", c.ClientIP())
		renderForm(c, http.StatusUnauthorized, "login.html",
			gin.H{"Error": "invalid email or password", "Email": req.Email, "Next": web.SafeNext(req.Next, "")},
			api.ErrorResponse{Error: "invalid email or password"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, session.ID, int(session.TTL().Seconds()), "/", "", c.Request.TLS != nil, true)
	slog.Info("user login successful", "user_id", session.UserID, "remote_addr", c.ClientIP())

	if web.WantsJSON(c) {
		c.JSON(http.StatusOK, api.MessageResponse{Message: "ok"})
		return
	}
	c.Redirect(http.StatusFound, web.SafeNext(req.Next, DefaultNext))
}

// Logout はセッションを失効させ、クッキーを削除してログイン画面へ戻します。
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID, _ := c.Cookie(middleware.SessionCookieName)
	if err := h.auth.Logout(c.Request.Context(), sessionID); err != nil {
		slog.Error("logout failed", "error", err, "remote_addr", c.ClientIP())
		renderError(c, http.StatusInternalServerError, "internal server error")
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", c.Request.TLS != nil, true)

	if web.WantsJSON(c) {
		c.JSON(http.StatusOK, api.MessageResponse{Message: "ok"})
		return
	}
	c.Redirect(http.StatusFound, middleware.LoginPath)
}

// APIToken はJSONで受け取った認証情報からBearerトークンを発行します。
// - バリデーションエラー時は400
// - 認証失敗時は401
// - 成功時はトークン付きで200
func (h *AuthHandler) APIToken(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("token request validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}
	token, err := h.auth.IssueToken(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, usecase.ErrInvalidCredentials) {
			slog.Error("token issue failed", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
			return
		}
		slog.Warn("token request rejected", "email", req.Email, "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid email or password"})
		return
	}
	c.JSON(http.StatusOK, api.TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(h.tokenTTL.Seconds()),
	})
}

// renderForm はHTMLではフォームを200で再表示し、JSONでは jsonCode を返します。
func renderForm(c *gin.Context, jsonCode int, name string, htmlData gin.H, body api.ErrorResponse) {
	if web.WantsJSON(c) {
		c.JSON(jsonCode, body)
		return
	}
	c.HTML(http.StatusOK, name, htmlData)
}

func renderError(c *gin.Context, code int, msg string) {
	web.Render(c, code, "error.html",
		gin.H{"Title": http.StatusText(code), "Message": msg},
		api.ErrorResponse{Error: msg})
}
