package usecase

import (
	"context"

	"stock_portfolio/internal/feature/portfolio/domain/entity"
)

// QuoteFetcher performs a single remote market-data lookup.
// An unknown symbol yields a zero Quote and a nil error; transport and
// provider failures are returned as errors.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, symbol string) (entity.Quote, error)
}

// StockRepository abstracts the persistence of Stock records.
type StockRepository interface {
	// GetOrCreateStock inserts stock unless a row with the same symbol exists,
	// and returns the stored row. created is true only when this call inserted it.
	GetOrCreateStock(ctx context.Context, stock entity.Stock) (stored entity.Stock, created bool, err error)

	// FindStockBySymbol returns ErrStockNotFound when no row matches.
	FindStockBySymbol(ctx context.Context, symbol string) (entity.Stock, error)

	// ListStocks returns every stored Stock ordered by symbol.
	ListStocks(ctx context.Context) ([]entity.Stock, error)
}

// PortfolioRepository abstracts the persistence of portfolios and their membership.
type PortfolioRepository interface {
	// GetOrCreatePortfolio returns the user's portfolio, creating it on first access.
	GetOrCreatePortfolio(ctx context.Context, userID uint) (p entity.Portfolio, created bool, err error)

	// FindPortfolio returns ErrPortfolioNotFound when the user has none yet.
	FindPortfolio(ctx context.Context, userID uint) (entity.Portfolio, error)

	// AddStock adds a membership edge. Adding an existing edge is a no-op
	// and reports added=false.
	AddStock(ctx context.Context, portfolioID, stockID uint) (added bool, err error)

	// ListPortfolioStocks returns the portfolio's stocks ordered by symbol.
	ListPortfolioStocks(ctx context.Context, portfolioID uint) ([]entity.Stock, error)
}
