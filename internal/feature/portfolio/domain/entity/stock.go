// Package entity defines the domain entities for the portfolio feature.
package entity

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxSymbolLength is the longest ticker symbol the store accepts.
const MaxSymbolLength = 10

// Stock is a ticker's metadata as first fetched from the market-data provider.
// Once stored it is never refreshed.
type Stock struct {
	ID        uint
	Symbol    string
	Name      string
	Market    string
	Price     decimal.NullDecimal
	MarketCap *string
	PERatio   decimal.NullDecimal
}

// String returns the symbol.
func (s Stock) String() string {
	return s.Symbol
}

// NormalizeSymbol trims surrounding space and upper-cases a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
