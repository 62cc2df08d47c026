package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"stock_portfolio/internal/app/di"
	"stock_portfolio/internal/app/router"
	authadapters "stock_portfolio/internal/feature/auth/adapters"
	authhandler "stock_portfolio/internal/feature/auth/transport/handler"
	"stock_portfolio/internal/feature/auth/transport/middleware"
	authusecase "stock_portfolio/internal/feature/auth/usecase"
	portfolioadapters "stock_portfolio/internal/feature/portfolio/adapters"
	portfoliohandler "stock_portfolio/internal/feature/portfolio/transport/handler"
	portfoliousecase "stock_portfolio/internal/feature/portfolio/usecase"
	infradb "stock_portfolio/internal/platform/db"
	"stock_portfolio/internal/platform/http/handler"
	jwtmw "stock_portfolio/internal/platform/jwt"
	"stock_portfolio/internal/platform/logging"
	infraredis "stock_portfolio/internal/platform/redis"
	"stock_portfolio/internal/shared/ratelimiter"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .envを読み込む
	envErr := godotenv.Load(".env")
	logging.Setup()
	if envErr != nil {
		slog.Info(".env not found; using system environment variables")
	}

	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// db
	db, err := infradb.OpenDB(infradb.LoadConfigFromEnv())
	if err != nil {
		return err
	}

	// Redis（接続できなければDBセッションストアを使う）
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(ctx, infraredis.LoadConfig()); err != nil {
		slog.Warn("Redis unavailable. Sessions are stored in the database.", "error", err)
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("Failed to close Redis client", "error", err)
			}
		}()
	}

	// 相場プロバイダー
	provider := di.MarketProvider()
	fetcher, err := di.NewQuoteFetcher(provider)
	if err != nil {
		return err
	}
	slog.Info("market data provider selected", "provider", provider)

	// JWT_SECRETチェック（開発中の注意喚起）
	jwtCfg := jwtmw.LoadConfig()
	if jwtCfg.Secret == "" {
		slog.Warn("JWT_SECRET is not set. Bearer tokens are disabled until a strong secret is configured.")
	}

	// Repository
	userRepo := authadapters.NewUserRepository(db)
	sessionRepo := di.NewSessionRepository(rdb, db)
	stockRepo := portfolioadapters.NewStockRepository(db)
	portfolioRepo := portfolioadapters.NewPortfolioRepository(db)

	// Usecase
	authUC := authusecase.NewAuthUsecase(userRepo, sessionRepo, jwtmw.NewGenerator(jwtCfg.Secret, jwtCfg.Expiration), di.SessionTTL())
	portfolioUC := portfoliousecase.NewPortfolioUsecase(stockRepo, portfolioRepo, fetcher)

	// ログイン試行の制限
	limiter := ratelimiter.LoadFromEnv()
	if limiter != nil {
		go sweepLoop(ctx, limiter)
	}

	// Handler
	checks := map[string]handler.Check{"db": handler.DBCheck(db)}
	if rdb != nil {
		checks["redis"] = handler.RedisCheck(rdb)
	}
	r, err := router.NewRouter(
		authhandler.NewAuthHandler(authUC, jwtCfg.Expiration),
		portfoliohandler.NewPortfolioHandler(portfolioUC),
		handler.NewHealthHandler(checks),
		middleware.NewGate(authUC, jwtmw.NewParser(jwtCfg.Secret)),
		limiter,
		di.TrustedProxies(),
	)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// sweepLoop は期限切れのレート制限ウィンドウを定期的に破棄します。
func sweepLoop(ctx context.Context, limiter *ratelimiter.RateLimiter) {
	ticker := time.NewTicker(ratelimiter.DefaultInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep()
		}
	}
}
