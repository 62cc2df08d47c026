package main

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"stock_portfolio/internal/feature/portfolio/domain/entity"
)

var stockHeader = []string{"Symbol", "Name", "Market", "Price", "Market cap", "P/E"}

func renderStocks(w io.Writer, stocks []entity.Stock) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(stockHeader)
	table.SetAutoWrapText(false)
	for _, s := range stocks {
		table.Append([]string{s.Symbol, s.Name, s.Market, fixed(s.Price), deref(s.MarketCap), fixed(s.PERatio)})
	}
	table.Render()
}

func renderQuote(w io.Writer, symbol string, q entity.Quote) {
	renderStocks(w, []entity.Stock{q.ToStock(symbol)})
}

func fixed(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(2)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
