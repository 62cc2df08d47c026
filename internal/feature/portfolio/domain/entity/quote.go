package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Quote is the flat attribute set returned by a market-data lookup.
// Every field may be absent; a zero Quote means the provider knows nothing
// about the symbol.
type Quote struct {
	Name      string
	Symbol    string
	Market    string
	Price     decimal.NullDecimal
	MarketCap *string
	PERatio   decimal.NullDecimal
}

// HasPrice reports whether the provider returned a price.
func (q Quote) HasPrice() bool {
	return q.Price.Valid
}

// ToStock builds the Stock that would be stored for symbol from this quote.
// The normalized request symbol is used as the key rather than whatever
// symbol the provider echoed back.
func (q Quote) ToStock(symbol string) Stock {
	return Stock{
		Symbol:    symbol,
		Name:      q.Name,
		Market:    q.Market,
		Price:     q.Price,
		MarketCap: q.MarketCap,
		PERatio:   q.PERatio,
	}
}

// NewPrice wraps a float price.
func NewPrice(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}

// ParsePrice parses a decimal string. Empty or malformed input yields an
// absent value.
func ParsePrice(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// FormatMarketCap renders a market capitalisation as short text, e.g. 2.9T.
func FormatMarketCap(v float64) string {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1e12:
		return fmt.Sprintf("%.1fT", v/1e12)
	case abs >= 1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return fmt.Sprintf("%d", int64(v))
	}
}

// MarketCapText returns a pointer to the formatted market cap, or nil when
// the provider reported none.
func MarketCapText(v float64) *string {
	if v == 0 {
		return nil
	}
	s := FormatMarketCap(v)
	return &s
}
