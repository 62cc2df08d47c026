package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSymbol(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "AAPL", NormalizeSymbol(" aapl "))
	assert.Equal(t, "BRK.B", NormalizeSymbol("brk.b"))
}

func TestFormatMarketCap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{2_910_000_000_000, "2.9T"},
		{512_300_000_000, "512.3B"},
		{87_120_000, "87.1M"},
		{950_000, "950.0K"},
		{999, "999"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatMarketCap(tt.in))
		})
	}
}

func TestMarketCapText_ZeroIsAbsent(t *testing.T) {
	t.Parallel()

	assert.Nil(t, MarketCapText(0))
	if got := MarketCapText(2.9e12); assert.NotNil(t, got) {
		assert.Equal(t, "2.9T", *got)
	}
}

func TestParsePrice(t *testing.T) {
	t.Parallel()

	assert.False(t, ParsePrice("").Valid)
	assert.False(t, ParsePrice("n/a").Valid)
	p := ParsePrice("190.50")
	assert.True(t, p.Valid)
	assert.Equal(t, "190.5", p.Decimal.String())
}

func TestQuote_ToStock(t *testing.T) {
	t.Parallel()

	q := Quote{Name: "Apple Inc.", Symbol: "aapl", Market: "NASDAQ", Price: NewPrice(190.5)}
	s := q.ToStock("AAPL")

	assert.True(t, q.HasPrice())
	assert.False(t, Quote{}.HasPrice())
	assert.Equal(t, "AAPL", s.Symbol)
	assert.Equal(t, "Apple Inc.", s.Name)
	assert.Equal(t, "AAPL", s.String())
}

func TestPortfolio_Contains(t *testing.T) {
	t.Parallel()

	p := Portfolio{Stocks: []Stock{{Symbol: "AAPL"}, {Symbol: "MSFT"}}}
	assert.True(t, p.Contains("MSFT"))
	assert.False(t, p.Contains("TSLA"))
}
