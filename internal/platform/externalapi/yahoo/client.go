// Package yahoo provides a quote client for the Yahoo Finance quote API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"stock_portfolio/internal/feature/portfolio/domain/entity"
	"stock_portfolio/internal/feature/portfolio/usecase"
)

// DefaultBaseURL is the public Yahoo Finance query host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Config holds configuration for the Yahoo client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// LoadConfig loads Yahoo configuration from environment variables.
func LoadConfig() Config {
	base := os.Getenv("YAHOO_BASE_URL")
	if base == "" {
		base = DefaultBaseURL
	}
	return Config{BaseURL: base, Timeout: 10 * time.Second}
}

// quoteResponse is the subset of /v7/finance/quote this client reads.
type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol             string   `json:"symbol"`
			LongName           string   `json:"longName"`
			ShortName          string   `json:"shortName"`
			Exchange           string   `json:"exchange"`
			FullExchangeName   string   `json:"fullExchangeName"`
			RegularMarketPrice *float64 `json:"regularMarketPrice"`
			MarketCap          *float64 `json:"marketCap"`
			TrailingPE         *float64 `json:"trailingPE"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

// Client fetches quotes from Yahoo Finance.
type Client struct {
	cfg    Config
	client *http.Client
}

var _ usecase.QuoteFetcher = (*Client)(nil)

// NewClient creates a Client.
func NewClient(cfg Config, client *http.Client) *Client {
	return &Client{cfg: cfg, client: client}
}

// FetchQuote looks up a single symbol. An empty result set means the symbol
// is unknown and yields a zero Quote.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (entity.Quote, error) {
	q := url.Values{}
	q.Set("symbols", symbol)
	endpoint := fmt.Sprintf("%s/v7/finance/quote?%s", strings.TrimRight(c.cfg.BaseURL, "/"), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return entity.Quote{}, fmt.Errorf("create yahoo request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return entity.Quote{}, fmt.Errorf("fetch yahoo quote: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		return entity.Quote{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return entity.Quote{}, fmt.Errorf("yahoo status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return entity.Quote{}, fmt.Errorf("decode yahoo quote: %w", err)
	}
	if e := payload.QuoteResponse.Error; e != nil {
		return entity.Quote{}, fmt.Errorf("yahoo error %s: %s", e.Code, e.Description)
	}
	if len(payload.QuoteResponse.Result) == 0 {
		return entity.Quote{}, nil
	}

	r := payload.QuoteResponse.Result[0]
	quote := entity.Quote{
		Name:   r.LongName,
		Symbol: r.Symbol,
		Market: r.FullExchangeName,
	}
	if quote.Name == "" {
		quote.Name = r.ShortName
	}
	if quote.Market == "" {
		quote.Market = r.Exchange
	}
	if r.RegularMarketPrice != nil {
		quote.Price = entity.NewPrice(*r.RegularMarketPrice)
	}
	if r.MarketCap != nil {
		quote.MarketCap = entity.MarketCapText(*r.MarketCap)
	}
	if r.TrailingPE != nil {
		quote.PERatio = entity.NewPrice(*r.TrailingPE)
	}
	return quote, nil
}
