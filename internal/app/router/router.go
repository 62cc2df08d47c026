// Package router はHTTPルーティング表を定義します。
package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	authhandler "stock_portfolio/internal/feature/auth/transport/handler"
	"stock_portfolio/internal/feature/auth/transport/middleware"
	portfoliohandler "stock_portfolio/internal/feature/portfolio/transport/handler"
	"stock_portfolio/internal/platform/http/handler"
	"stock_portfolio/internal/platform/web"
	"stock_portfolio/internal/shared/ratelimiter"
)

// NewRouter はテンプレートとすべてのルートを登録したエンジンを返します。
// limiter が nil の場合、認証エンドポイントの試行回数は制限されません。
// trustedProxies に含まれるピアから来たリクエストだけ X-Forwarded-For を信用します。
// 空の場合はソケットの接続元をクライアントIPとして扱います。
func NewRouter(authH *authhandler.AuthHandler, portfolioH *portfoliohandler.PortfolioHandler,
	health *handler.HealthHandler, gate *middleware.Gate, limiter *ratelimiter.RateLimiter,
	trustedProxies []string) (*gin.Engine, error) {
	r := gin.Default()
	// 試行制限・セッション・ログのクライアントIPを偽装させない
	if err := r.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	r.SetHTMLTemplate(web.Templates())

	// 認証不要
	// 導通確認用
	r.GET("/healthz", health.Health)
	r.HEAD("/healthz", health.Health)
	r.OPTIONS("/healthz", health.Health)

	// アカウント（認証情報を受け取るPOSTは試行回数を制限）
	throttle := ratelimiter.Middleware(limiter)
	accounts := r.Group("/accounts")
	{
		accounts.GET("/signup/", authH.SignupPage)
		accounts.POST("/signup/", throttle, authH.Signup)
		accounts.GET("/login/", authH.LoginPage)
		accounts.POST("/login/", throttle, authH.Login)
		accounts.POST("/logout/", authH.Logout)
	}
	// Bearerトークン発行（JSON）
	r.POST("/api/token", throttle, authH.APIToken)

	// 認証必須のルート
	// gate.Protected が解決済みユーザーをハンドラーへ渡す
	stocks := r.Group("/stocks")
	{
		stocks.GET("/", gate.Protected(portfolioH.Stocks))
		stocks.GET("/portfolio/", gate.Protected(portfolioH.Portfolio))
		stocks.GET("/add/", gate.Protected(portfolioH.AddStock))
		stocks.POST("/add/", gate.Protected(portfolioH.AddStock))
	}

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, portfoliohandler.PortfolioPath)
	})

	return r, nil
}
