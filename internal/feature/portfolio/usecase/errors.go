package usecase

import "errors"

var (
	// ErrSymbolNotFound is returned when the provider has no price for a symbol.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrMarketData wraps failures of the remote market-data lookup.
	ErrMarketData = errors.New("market data unavailable")

	// ErrStockNotFound is returned by the store when no Stock has the symbol.
	ErrStockNotFound = errors.New("stock not found")

	// ErrPortfolioNotFound is returned by the store when the user has no portfolio yet.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrInvalidSymbol is returned for an empty or over-long symbol.
	ErrInvalidSymbol = errors.New("invalid symbol")
)
