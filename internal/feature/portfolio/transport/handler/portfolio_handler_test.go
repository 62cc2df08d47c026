package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_portfolio/internal/api"
	authentity "stock_portfolio/internal/feature/auth/domain/entity"
	"stock_portfolio/internal/feature/portfolio/domain/entity"
	"stock_portfolio/internal/feature/portfolio/usecase"
	"stock_portfolio/internal/platform/web"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockPortfolioUsecase is a mock implementation of PortfolioUsecase.
type mockPortfolioUsecase struct {
	AddStockFunc        func(ctx context.Context, userID uint, raw string) (usecase.AddResult, error)
	GetPortfolioFunc    func(ctx context.Context, userID uint) (entity.Portfolio, error)
	EnsurePortfolioFunc func(ctx context.Context, userID uint) error
	ListStocksFunc      func(ctx context.Context) ([]entity.Stock, error)

	ensured int
	added   int
}

func (m *mockPortfolioUsecase) AddStock(ctx context.Context, userID uint, raw string) (usecase.AddResult, error) {
	m.added++
	if m.AddStockFunc != nil {
		return m.AddStockFunc(ctx, userID, raw)
	}
	return usecase.AddResult{}, errors.New("not implemented")
}

func (m *mockPortfolioUsecase) GetPortfolio(ctx context.Context, userID uint) (entity.Portfolio, error) {
	if m.GetPortfolioFunc != nil {
		return m.GetPortfolioFunc(ctx, userID)
	}
	return entity.Portfolio{ID: 1, UserID: userID}, nil
}

func (m *mockPortfolioUsecase) EnsurePortfolio(ctx context.Context, userID uint) error {
	m.ensured++
	if m.EnsurePortfolioFunc != nil {
		return m.EnsurePortfolioFunc(ctx, userID)
	}
	return nil
}

func (m *mockPortfolioUsecase) ListStocks(ctx context.Context) ([]entity.Stock, error) {
	if m.ListStocksFunc != nil {
		return m.ListStocksFunc(ctx)
	}
	return nil, nil
}

var alice = authentity.User{ID: 42, Email: "alice@example.com"}

// as は認証済みユーザーを固定で渡すテスト用ラッパーです。
func as(user authentity.User, h func(*gin.Context, authentity.User)) gin.HandlerFunc {
	return func(c *gin.Context) { h(c, user) }
}

func newRouter(uc PortfolioUsecase) *gin.Engine {
	h := NewPortfolioHandler(uc)
	r := gin.New()
	r.SetHTMLTemplate(web.Templates())
	r.GET("/stocks/", as(alice, h.Stocks))
	r.GET("/stocks/portfolio/", as(alice, h.Portfolio))
	r.GET("/stocks/add/", as(alice, h.AddStock))
	r.POST("/stocks/add/", as(alice, h.AddStock))
	return r
}

func submit(r http.Handler, symbol string, jsonClient bool) *httptest.ResponseRecorder {
	var req *http.Request
	if jsonClient {
		b, _ := json.Marshal(gin.H{"symbol": symbol})
		req = httptest.NewRequest(http.MethodPost, "/stocks/add/", bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
	} else {
		req = httptest.NewRequest(http.MethodPost, "/stocks/add/", strings.NewReader(url.Values{"symbol": {symbol}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func appleStock() entity.Stock {
	mc := "2.9T"
	return entity.Stock{ID: 1, Symbol: "AAPL", Name: "Apple Inc.", Market: "NASDAQ", Price: entity.NewPrice(189.5), MarketCap: &mc}
}

func TestPortfolioHandler_AddStockForm(t *testing.T) {
	t.Parallel()

	uc := &mockPortfolioUsecase{}
	w := httptest.NewRecorder()
	newRouter(uc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stocks/add/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="symbol"`)
	assert.Equal(t, 1, uc.ensured, "portfolio is created on first access")
	assert.Equal(t, 0, uc.added)
}

func TestPortfolioHandler_AddStock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		symbol       string
		result       usecase.AddResult
		err          error
		wantHTMLCode int
		wantLocation string
		wantHTMLBody string
		wantJSONCode int
		wantJSON     string
		wantCalled   bool
	}{
		{
			name:         "success",
			symbol:       "aapl",
			result:       usecase.AddResult{Stock: appleStock(), StockCreated: true, Added: true},
			wantHTMLCode: http.StatusFound,
			wantLocation: PortfolioPath,
			wantJSONCode: http.StatusCreated,
			wantCalled:   true,
		},
		{
			name:         "already in portfolio",
			symbol:       "AAPL",
			result:       usecase.AddResult{Stock: appleStock()},
			wantHTMLCode: http.StatusFound,
			wantLocation: PortfolioPath,
			wantJSONCode: http.StatusOK,
			wantCalled:   true,
		},
		{
			name:         "empty symbol",
			symbol:       "",
			wantHTMLCode: http.StatusOK,
			wantHTMLBody: "This field is required.",
			wantJSONCode: http.StatusUnprocessableEntity,
			wantJSON:     `{"error":"invalid request","fields":{"symbol":"This field is required."}}`,
		},
		{
			name:         "malformed symbol",
			symbol:       "TOO LONG SYMBOL",
			wantHTMLCode: http.StatusOK,
			wantHTMLBody: "Enter 1 to 10 letters",
			wantJSONCode: http.StatusUnprocessableEntity,
			wantJSON:     `{"error":"invalid request","fields":{"symbol":"Enter 1 to 10 letters, digits, dots or dashes."}}`,
		},
		{
			name:         "no price",
			symbol:       "xyz",
			err:          fmt.Errorf("%w: %q", usecase.ErrSymbolNotFound, "XYZ"),
			wantHTMLCode: http.StatusOK,
			wantHTMLBody: "not found",
			wantJSONCode: http.StatusNotFound,
			wantJSON:     `{"error":"symbol \"XYZ\" not found"}`,
			wantCalled:   true,
		},
		{
			name:         "provider failure",
			symbol:       "AAPL",
			err:          fmt.Errorf("%w: %w", usecase.ErrMarketData, errors.New("dial tcp: timeout")),
			wantHTMLCode: http.StatusBadGateway,
			wantJSONCode: http.StatusBadGateway,
			wantJSON:     `{"error":"market data provider is unavailable, try again later"}`,
			wantCalled:   true,
		},
		{
			name:         "storage failure",
			symbol:       "AAPL",
			err:          errors.New("failed to store stock AAPL: disk full"),
			wantHTMLCode: http.StatusInternalServerError,
			wantJSONCode: http.StatusInternalServerError,
			wantJSON:     `{"error":"internal server error"}`,
			wantCalled:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			uc := &mockPortfolioUsecase{AddStockFunc: func(ctx context.Context, userID uint, raw string) (usecase.AddResult, error) {
				assert.Equal(t, alice.ID, userID)
				return tt.result, tt.err
			}}
			r := newRouter(uc)

			w := submit(r, tt.symbol, false)
			assert.Equal(t, tt.wantHTMLCode, w.Code)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, w.Header().Get("Location"))
			}
			if tt.wantHTMLBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantHTMLBody)
			}

			w = submit(r, tt.symbol, true)
			assert.Equal(t, tt.wantJSONCode, w.Code)
			if tt.wantJSON != "" {
				assert.JSONEq(t, tt.wantJSON, w.Body.String())
			}

			assert.Equal(t, 2, uc.ensured)
			if tt.wantCalled {
				assert.Equal(t, 2, uc.added)
			} else {
				assert.Equal(t, 0, uc.added, "invalid input never reaches the usecase")
			}
		})
	}
}

func TestPortfolioHandler_AddStock_EnsureFails(t *testing.T) {
	t.Parallel()

	uc := &mockPortfolioUsecase{EnsurePortfolioFunc: func(ctx context.Context, userID uint) error {
		return errors.New("db down")
	}}
	w := submit(newRouter(uc), "AAPL", false)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 0, uc.added)
}

func TestPortfolioHandler_Portfolio(t *testing.T) {
	t.Parallel()

	uc := &mockPortfolioUsecase{GetPortfolioFunc: func(ctx context.Context, userID uint) (entity.Portfolio, error) {
		return entity.Portfolio{ID: 3, UserID: userID, Stocks: []entity.Stock{appleStock()}}, nil
	}}
	r := newRouter(uc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stocks/portfolio/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice@example.com&#39;s Portfolio")
	assert.Contains(t, w.Body.String(), "AAPL")
	assert.Contains(t, w.Body.String(), "189.50")

	req := httptest.NewRequest(http.MethodGet, "/stocks/portfolio/", nil)
	req.Header.Set("Accept", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body api.PortfolioResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "alice@example.com's Portfolio", body.Title)
	require.Len(t, body.Stocks, 1)
	assert.Equal(t, "AAPL", body.Stocks[0].Symbol)
	assert.Nil(t, body.Stocks[0].PERatio)
}

func TestPortfolioHandler_PortfolioError(t *testing.T) {
	t.Parallel()

	uc := &mockPortfolioUsecase{GetPortfolioFunc: func(ctx context.Context, userID uint) (entity.Portfolio, error) {
		return entity.Portfolio{}, errors.New("db down")
	}}
	w := httptest.NewRecorder()
	newRouter(uc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stocks/portfolio/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")
}

func TestPortfolioHandler_Stocks(t *testing.T) {
	t.Parallel()

	uc := &mockPortfolioUsecase{ListStocksFunc: func(ctx context.Context) ([]entity.Stock, error) {
		return []entity.Stock{appleStock(), {ID: 2, Symbol: "MSFT"}}, nil
	}}
	req := httptest.NewRequest(http.MethodGet, "/stocks/", nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	newRouter(uc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body api.StockListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Stocks, 2)
	assert.Equal(t, "MSFT", body.Stocks[1].Symbol)
	assert.Nil(t, body.Stocks[1].Price)
}
