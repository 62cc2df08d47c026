// Package usecase implements adding stocks to a user's portfolio and reading it back.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"stock_portfolio/internal/feature/portfolio/domain/entity"
)

// AddResult describes the outcome of AddStock.
type AddResult struct {
	Stock        entity.Stock
	StockCreated bool // a new Stock row was inserted
	Added        bool // a new membership edge was inserted
}

// PortfolioUsecase orchestrates the market-data fetcher and the two stores.
type PortfolioUsecase struct {
	stocks     StockRepository
	portfolios PortfolioRepository
	fetcher    QuoteFetcher
}

// NewPortfolioUsecase creates a PortfolioUsecase.
func NewPortfolioUsecase(stocks StockRepository, portfolios PortfolioRepository, fetcher QuoteFetcher) *PortfolioUsecase {
	return &PortfolioUsecase{stocks: stocks, portfolios: portfolios, fetcher: fetcher}
}

// AddStock fetches rawSymbol and adds it to the user's portfolio.
//
// A quote without a price returns ErrSymbolNotFound and writes nothing.
// An existing Stock row keeps its stored attributes; the fetched ones are
// discarded.
func (u *PortfolioUsecase) AddStock(ctx context.Context, userID uint, rawSymbol string) (AddResult, error) {
	symbol := entity.NormalizeSymbol(rawSymbol)
	if symbol == "" || len(symbol) > entity.MaxSymbolLength {
		return AddResult{}, fmt.Errorf("%w: %q", ErrInvalidSymbol, rawSymbol)
	}

	quote, err := u.fetcher.FetchQuote(ctx, symbol)
	if err != nil {
		slog.Error("market data fetch failed", "symbol", symbol, "error", err)
		return AddResult{}, fmt.Errorf("%w: %w", ErrMarketData, err)
	}
	if !quote.HasPrice() {
		return AddResult{}, fmt.Errorf("%w: %q", ErrSymbolNotFound, symbol)
	}

	stock, created, err := u.stocks.GetOrCreateStock(ctx, quote.ToStock(symbol))
	if err != nil {
		return AddResult{}, fmt.Errorf("failed to store stock %s: %w", symbol, err)
	}

	portfolio, _, err := u.portfolios.GetOrCreatePortfolio(ctx, userID)
	if err != nil {
		return AddResult{}, fmt.Errorf("failed to load portfolio: %w", err)
	}

	added, err := u.portfolios.AddStock(ctx, portfolio.ID, stock.ID)
	if err != nil {
		return AddResult{}, fmt.Errorf("failed to add %s to portfolio: %w", symbol, err)
	}

	slog.Info("stock added to portfolio",
		"user_id", userID, "symbol", symbol, "stock_created", created, "added", added)
	return AddResult{Stock: stock, StockCreated: created, Added: added}, nil
}

// GetPortfolio returns the user's portfolio with its stocks, creating an
// empty one on first access.
func (u *PortfolioUsecase) GetPortfolio(ctx context.Context, userID uint) (entity.Portfolio, error) {
	p, created, err := u.portfolios.GetOrCreatePortfolio(ctx, userID)
	if err != nil {
		return entity.Portfolio{}, fmt.Errorf("failed to load portfolio: %w", err)
	}
	if created {
		slog.Info("portfolio created", "user_id", userID, "portfolio_id", p.ID)
	}

	stocks, err := u.portfolios.ListPortfolioStocks(ctx, p.ID)
	if err != nil {
		return entity.Portfolio{}, fmt.Errorf("failed to list portfolio stocks: %w", err)
	}
	p.Stocks = stocks
	return p, nil
}

// ViewPortfolio is the read-only variant of GetPortfolio. A user without a
// portfolio gets an empty one and nothing is written.
func (u *PortfolioUsecase) ViewPortfolio(ctx context.Context, userID uint) (entity.Portfolio, error) {
	p, err := u.portfolios.FindPortfolio(ctx, userID)
	if errors.Is(err, ErrPortfolioNotFound) {
		return entity.Portfolio{UserID: userID}, nil
	}
	if err != nil {
		return entity.Portfolio{}, fmt.Errorf("failed to load portfolio: %w", err)
	}

	stocks, err := u.portfolios.ListPortfolioStocks(ctx, p.ID)
	if err != nil {
		return entity.Portfolio{}, fmt.Errorf("failed to list portfolio stocks: %w", err)
	}
	p.Stocks = stocks
	return p, nil
}

// EnsurePortfolio get-or-creates the user's portfolio without loading its stocks.
func (u *PortfolioUsecase) EnsurePortfolio(ctx context.Context, userID uint) error {
	if _, _, err := u.portfolios.GetOrCreatePortfolio(ctx, userID); err != nil {
		return fmt.Errorf("failed to load portfolio: %w", err)
	}
	return nil
}

// ListStocks returns every Stock known to the service.
func (u *PortfolioUsecase) ListStocks(ctx context.Context) ([]entity.Stock, error) {
	return u.stocks.ListStocks(ctx)
}

// Quote performs an uncached lookup without touching any store.
func (u *PortfolioUsecase) Quote(ctx context.Context, rawSymbol string) (entity.Quote, error) {
	symbol := entity.NormalizeSymbol(rawSymbol)
	quote, err := u.fetcher.FetchQuote(ctx, symbol)
	if err != nil {
		return entity.Quote{}, fmt.Errorf("%w: %w", ErrMarketData, err)
	}
	if !quote.HasPrice() {
		return quote, fmt.Errorf("%w: %q", ErrSymbolNotFound, symbol)
	}
	return quote, nil
}
