package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stock_portfolio/internal/feature/portfolio/adapters"
	"stock_portfolio/internal/feature/portfolio/domain/entity"
	"stock_portfolio/internal/feature/portfolio/usecase"
)

// stubFetcher は固定の相場を返すフェッチャーです。
type stubFetcher struct {
	quotes map[string]entity.Quote
	calls  []string
}

func (f *stubFetcher) FetchQuote(ctx context.Context, symbol string) (entity.Quote, error) {
	f.calls = append(f.calls, symbol)
	return f.quotes[symbol], nil
}

func setupStores(t *testing.T) (*gorm.DB, *usecase.PortfolioUsecase, *stubFetcher) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&adapters.StockModel{}, &adapters.PortfolioModel{}, &adapters.PortfolioStockModel{}))

	mc := "2.9T"
	fetcher := &stubFetcher{quotes: map[string]entity.Quote{
		"AAPL": {Name: "Apple Inc.", Symbol: "AAPL", Market: "NASDAQ", Price: entity.NewPrice(190.5), MarketCap: &mc, PERatio: entity.NewPrice(30.1)},
		"XYZ":  {Symbol: "XYZ"},
	}}
	uc := usecase.NewPortfolioUsecase(adapters.NewStockRepository(db), adapters.NewPortfolioRepository(db), fetcher)
	return db, uc, fetcher
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestEndToEnd_AddLowercaseSymbol(t *testing.T) {
	t.Parallel()

	db, uc, fetcher := setupStores(t)
	r := newRouter(uc)

	w := submit(r, "aapl", false)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/stocks/portfolio/", w.Header().Get("Location"))
	assert.Equal(t, []string{"AAPL"}, fetcher.calls)

	var stock adapters.StockModel
	require.NoError(t, db.Where("symbol = ?", "AAPL").First(&stock).Error)
	assert.Equal(t, "Apple Inc.", stock.Name)
	assert.Equal(t, "NASDAQ", stock.Market)
	assert.True(t, stock.Price.Valid)
	assert.Equal(t, "190.5", stock.Price.Decimal.String())
	require.NotNil(t, stock.MarketCap)
	assert.Equal(t, "2.9T", *stock.MarketCap)
	assert.Equal(t, "30.1", stock.PERatio.Decimal.String())

	var portfolio adapters.PortfolioModel
	require.NoError(t, db.Where("user_id = ?", alice.ID).First(&portfolio).Error)
	assert.Equal(t, int64(1), count(t, db, &adapters.PortfolioStockModel{}))

	p, err := uc.GetPortfolio(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.True(t, p.Contains("AAPL"))
}

func TestEndToEnd_DoubleAddKeepsOneRowAndOneEdge(t *testing.T) {
	t.Parallel()

	db, uc, _ := setupStores(t)
	r := newRouter(uc)

	assert.Equal(t, http.StatusFound, submit(r, "AAPL", false).Code)
	assert.Equal(t, http.StatusOK, submit(r, "aapl", true).Code)

	assert.Equal(t, int64(1), count(t, db, &adapters.StockModel{}))
	assert.Equal(t, int64(1), count(t, db, &adapters.PortfolioModel{}))
	assert.Equal(t, int64(1), count(t, db, &adapters.PortfolioStockModel{}))
}

func TestEndToEnd_MissingPriceWritesNoStock(t *testing.T) {
	t.Parallel()

	db, uc, _ := setupStores(t)
	r := newRouter(uc)

	w := submit(r, "xyz", false)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "not found")
	assert.Equal(t, int64(0), count(t, db, &adapters.StockModel{}))
	assert.Equal(t, int64(0), count(t, db, &adapters.PortfolioStockModel{}))
	assert.Equal(t, int64(1), count(t, db, &adapters.PortfolioModel{}), "portfolio is created on access")
}
