// Package di provides dependency injection factories for creating application components.
package di

import (
	"fmt"
	"os"
	"strings"

	"stock_portfolio/internal/feature/portfolio/usecase"
	"stock_portfolio/internal/platform/externalapi/polygon"
	"stock_portfolio/internal/platform/externalapi/twelvedata"
	"stock_portfolio/internal/platform/externalapi/yahoo"
	infrahttp "stock_portfolio/internal/platform/http"
)

const (
	ProviderTwelveData = "twelvedata"
	ProviderYahoo      = "yahoo"
	ProviderPolygon    = "polygon"
)

// MarketProvider returns the MARKET_PROVIDER setting, defaulting to Twelve Data.
func MarketProvider() string {
	p := strings.ToLower(strings.TrimSpace(os.Getenv("MARKET_PROVIDER")))
	if p == "" {
		return ProviderTwelveData
	}
	return p
}

// NewQuoteFetcher creates the market-data client for provider with its own HTTP client.
func NewQuoteFetcher(provider string) (usecase.QuoteFetcher, error) {
	switch provider {
	case ProviderTwelveData:
		cfg := twelvedata.LoadConfig()
		return twelvedata.NewClient(cfg, infrahttp.NewHTTPClient(cfg.Timeout)), nil
	case ProviderYahoo:
		cfg := yahoo.LoadConfig()
		return yahoo.NewClient(cfg, infrahttp.NewHTTPClient(cfg.Timeout)), nil
	case ProviderPolygon:
		cfg := polygon.LoadConfig()
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("POLYGON_API_KEY is required for provider %q", provider)
		}
		return polygon.NewClient(cfg, infrahttp.NewHTTPClient(infrahttp.DefaultTimeout)), nil
	default:
		return nil, fmt.Errorf("unsupported MARKET_PROVIDER %q", provider)
	}
}
