// Package polygon adapts the Polygon.io REST client to the quote fetcher.
package polygon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	polygonrest "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"stock_portfolio/internal/feature/portfolio/domain/entity"
	"stock_portfolio/internal/feature/portfolio/usecase"
)

// Config holds the Polygon.io API key.
type Config struct {
	APIKey string
}

// LoadConfig loads Polygon configuration from environment variables.
func LoadConfig() Config {
	return Config{APIKey: os.Getenv("POLYGON_API_KEY")}
}

// restAPI is the subset of the Polygon REST client used here.
type restAPI interface {
	GetTickerDetails(ctx context.Context, params *models.GetTickerDetailsParams, opts ...models.RequestOption) (*models.GetTickerDetailsResponse, error)
	GetPreviousCloseAgg(ctx context.Context, params *models.GetPreviousCloseAggParams, opts ...models.RequestOption) (*models.GetPreviousCloseAggResponse, error)
}

// exchangeNames maps Polygon's MIC codes to the names users expect.
var exchangeNames = map[string]string{
	"XNAS": "NASDAQ",
	"XNYS": "NYSE",
	"ARCX": "NYSE ARCA",
	"XASE": "NYSE AMERICAN",
	"BATS": "CBOE BZX",
}

// Client fetches ticker details and the previous close from Polygon.io.
// Polygon has no trailing P/E, so PERatio is always absent.
type Client struct {
	api restAPI
}

var _ usecase.QuoteFetcher = (*Client)(nil)

// NewClient creates a Client backed by the official REST client.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	return &Client{api: polygonrest.NewWithClient(cfg.APIKey, httpClient)}
}

// FetchQuote returns a zero Quote when Polygon does not know the ticker.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (entity.Quote, error) {
	details, err := c.api.GetTickerDetails(ctx, &models.GetTickerDetailsParams{Ticker: symbol})
	if err != nil {
		if isNotFound(err) {
			return entity.Quote{}, nil
		}
		return entity.Quote{}, fmt.Errorf("polygon ticker details: %w", err)
	}

	t := details.Results
	market := t.PrimaryExchange
	if name, ok := exchangeNames[market]; ok {
		market = name
	}
	quote := entity.Quote{
		Name:      t.Name,
		Symbol:    t.Ticker,
		Market:    market,
		MarketCap: entity.MarketCapText(t.MarketCap),
	}

	prev, err := c.api.GetPreviousCloseAgg(ctx, models.GetPreviousCloseAggParams{Ticker: symbol}.WithAdjusted(true))
	if err != nil {
		if isNotFound(err) {
			return quote, nil
		}
		return entity.Quote{}, fmt.Errorf("polygon previous close: %w", err)
	}
	if len(prev.Results) > 0 {
		quote.Price = entity.NewPrice(prev.Results[0].Close)
	}
	return quote, nil
}

func isNotFound(err error) bool {
	var apiErr *models.ErrorResponse
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
