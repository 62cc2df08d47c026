package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"stock_portfolio/internal/app/di"
	authadapters "stock_portfolio/internal/feature/auth/adapters"
	authusecase "stock_portfolio/internal/feature/auth/usecase"
	portfolioadapters "stock_portfolio/internal/feature/portfolio/adapters"
	"stock_portfolio/internal/feature/portfolio/domain/entity"
	portfoliousecase "stock_portfolio/internal/feature/portfolio/usecase"
	infradb "stock_portfolio/internal/platform/db"
	infraredis "stock_portfolio/internal/platform/redis"
)

// openDB は環境変数の設定でDBを開きます。migrate が true なら常にマイグレーションします。
func openDB(migrate bool) (*gorm.DB, error) {
	cfg := infradb.LoadConfigFromEnv()
	cfg.Migrate = cfg.Migrate || migrate
	return infradb.OpenDB(cfg)
}

func newPortfolioUsecase(db *gorm.DB, fetcher portfoliousecase.QuoteFetcher) *portfoliousecase.PortfolioUsecase {
	return portfoliousecase.NewPortfolioUsecase(
		portfolioadapters.NewStockRepository(db),
		portfolioadapters.NewPortfolioRepository(db),
		fetcher,
	)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update all tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := openDB(true); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newQuoteCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "quote SYMBOL",
		Short: "Fetch a quote from the market-data provider without storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if provider == "" {
				provider = di.MarketProvider()
			}
			fetcher, err := di.NewQuoteFetcher(provider)
			if err != nil {
				return err
			}
			// 相場取得だけなのでストアは使わない
			uc := portfoliousecase.NewPortfolioUsecase(nil, nil, fetcher)
			quote, err := uc.Quote(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderQuote(cmd.OutOrStdout(), entity.NormalizeSymbol(args[0]), quote)
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "twelvedata, yahoo or polygon (default $MARKET_PROVIDER)")
	return cmd
}

func newPortfolioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio EMAIL",
		Short: "Print a user's portfolio without creating one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(false)
			if err != nil {
				return err
			}
			user, err := newAuthUsecase(db, nil).FindUser(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			p, err := newPortfolioUsecase(db, nil).ViewPortfolio(cmd.Context(), user.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), user.PortfolioTitle())
			renderStocks(cmd.OutOrStdout(), p.Stocks)
			return nil
		},
	}
}

func newStocksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stocks",
		Short: "Print every stored stock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(false)
			if err != nil {
				return err
			}
			stocks, err := newPortfolioUsecase(db, nil).ListStocks(cmd.Context())
			if err != nil {
				return err
			}
			renderStocks(cmd.OutOrStdout(), stocks)
			return nil
		},
	}
}

func newSessionsCmd() *cobra.Command {
	sessions := &cobra.Command{
		Use:   "sessions",
		Short: "Manage login sessions",
	}
	sessions.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete expired and revoked sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSessionStore(cmd.Context(), func(uc *authusecase.AuthUsecase) error {
				n, err := uc.PurgeExpiredSessions(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d stale sessions deleted\n", n)
				return nil
			})
		},
	})
	sessions.AddCommand(&cobra.Command{
		Use:   "revoke EMAIL",
		Short: "Sign a user out of every browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSessionStore(cmd.Context(), func(uc *authusecase.AuthUsecase) error {
				n, err := uc.RevokeUserSessions(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d sessions revoked for %s\n", n, args[0])
				return nil
			})
		},
	})
	return sessions
}

func newAuthUsecase(db *gorm.DB, rdb *redis.Client) *authusecase.AuthUsecase {
	return authusecase.NewAuthUsecase(authadapters.NewUserRepository(db), di.NewSessionRepository(rdb, db), nil, 0)
}

// withSessionStore はサーバーと同じ選択規則（Redis優先、なければDB）でストアを選んで fn を実行します。
func withSessionStore(ctx context.Context, fn func(uc *authusecase.AuthUsecase) error) error {
	db, err := openDB(false)
	if err != nil {
		return err
	}
	rdb, err := infraredis.NewRedisClient(ctx, infraredis.LoadConfig())
	if err != nil {
		slog.Debug("Redis unavailable; using database sessions", "error", err)
		rdb = nil
	} else {
		defer func() { _ = rdb.Close() }()
	}
	return fn(newAuthUsecase(db, rdb))
}
