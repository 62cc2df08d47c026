package twelvedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"stock_portfolio/internal/feature/portfolio/domain/entity"
	"stock_portfolio/internal/feature/portfolio/usecase"
	"stock_portfolio/internal/platform/externalapi/twelvedata/dto"
)

// errNoData は銘柄が存在しない、またはデータがないことを示す内部エラーです。
var errNoData = errors.New("twelvedata: no data")

// Client はTwelve Data外部APIから現在値とバリュエーションを取得するQuoteFetcher実装です。
type Client struct {
	cfg    Config
	client *http.Client
}

var _ usecase.QuoteFetcher = (*Client)(nil)

// NewClient は指定された設定とHTTPクライアントでClientを生成します。
func NewClient(cfg Config, client *http.Client) *Client {
	return &Client{cfg: cfg, client: client}
}

// FetchQuote は /quote で銘柄名・取引所・価格を取得し、
// /statistics で時価総額とPERを補完します。
// 未知の銘柄の場合は空のQuoteとnilを返します。
func (c *Client) FetchQuote(ctx context.Context, symbol string) (entity.Quote, error) {
	var q dto.QuoteResponse
	if err := c.get(ctx, "quote", symbol, &q); err != nil {
		if errors.Is(err, errNoData) {
			return entity.Quote{}, nil
		}
		return entity.Quote{}, err
	}

	quote := entity.Quote{
		Name:   q.Name,
		Symbol: q.Symbol,
		Market: q.Exchange,
		Price:  entity.ParsePrice(q.Close),
	}

	// /statistics はプランによって利用できないため、失敗しても価格は返す
	var s dto.StatisticsResponse
	if err := c.get(ctx, "statistics", symbol, &s); err != nil {
		slog.Warn("twelvedata statistics unavailable", "symbol", symbol, "error", err)
		return quote, nil
	}
	vm := s.Statistics.ValuationsMetrics
	if vm.MarketCapitalization != nil {
		quote.MarketCap = entity.MarketCapText(*vm.MarketCapitalization)
	}
	if vm.TrailingPE != nil {
		quote.PERatio = entity.NewPrice(*vm.TrailingPE)
	}
	return quote, nil
}

// apiResponse は共通のエラーフィールドを持つレスポンスDTOです。
type apiResponse interface {
	APIError() dto.ErrorFields
}

// get は endpoint に symbol と apikey を付けてGETし、out にデコードします。
func (c *Client) get(ctx context.Context, endpoint, symbol string, out apiResponse) error {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("apikey", c.cfg.TwelveDataAPIKey)
	u := fmt.Sprintf("%s/%s?%s", c.cfg.BaseURL, endpoint, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode == http.StatusNotFound {
		return errNoData
	}
	if res.StatusCode >= 400 {
		return fmt.Errorf("twelvedata http %d", res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("twelvedata: decode %s: %w", endpoint, err)
	}

	if st := out.APIError(); st.Status == "error" {
		// 400/404 は未知の銘柄
		if st.Code == http.StatusBadRequest || st.Code == http.StatusNotFound {
			return errNoData
		}
		return fmt.Errorf("twelvedata: %s (code %d)", st.Message, st.Code)
	}
	return nil
}
