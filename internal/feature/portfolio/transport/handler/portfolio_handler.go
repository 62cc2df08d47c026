// Package handler はportfolioフィーチャーのHTTPハンドラーを提供します。
// すべてのハンドラーは認証ゲートから解決済みのユーザーを受け取ります。
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"stock_portfolio/internal/api"
	authentity "stock_portfolio/internal/feature/auth/domain/entity"
	"stock_portfolio/internal/feature/portfolio/domain/entity"
	"stock_portfolio/internal/feature/portfolio/transport/http/dto"
	"stock_portfolio/internal/feature/portfolio/usecase"
	"stock_portfolio/internal/platform/web"
)

// PortfolioPath は追加成功後のリダイレクト先です。
const PortfolioPath = "/stocks/portfolio/"

// PortfolioUsecase はポートフォリオ操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはコンシューマー（handler）が定義します。
type PortfolioUsecase interface {
	AddStock(ctx context.Context, userID uint, rawSymbol string) (usecase.AddResult, error)
	GetPortfolio(ctx context.Context, userID uint) (entity.Portfolio, error)
	EnsurePortfolio(ctx context.Context, userID uint) error
	ListStocks(ctx context.Context) ([]entity.Stock, error)
}

// PortfolioHandler は銘柄追加・ポートフォリオ表示・銘柄一覧を処理します。
type PortfolioHandler struct {
	uc PortfolioUsecase
}

// NewPortfolioHandler は新しい PortfolioHandler を作成し、フォーム用のバリデーターを登録します。
func NewPortfolioHandler(uc PortfolioUsecase) *PortfolioHandler {
	dto.RegisterValidators()
	return &PortfolioHandler{uc: uc}
}

// addStockPage はフォーム画面のテンプレートデータです。
type addStockPage struct {
	Title       string
	Symbol      string
	Error       string
	FieldErrors map[string]string
}

const addStockTitle = "Add a stock"

// AddStock は GET でフォームを表示し、POST で銘柄を取得してポートフォリオに追加します。
// ポートフォリオはどちらのメソッドでも最初のアクセス時に作成されます。
//   - バリデーションエラー: フォーム再表示（JSONは422）
//   - 価格のない銘柄: "symbol \"XYZ\" not found" で再表示（JSONは404）
//   - プロバイダー障害: 502、ストレージ障害: 500
//   - 成功: /stocks/portfolio/ へ302（JSONは201、既に追加済みなら200）
func (h *PortfolioHandler) AddStock(c *gin.Context, user authentity.User) {
	ctx := c.Request.Context()

	if err := h.uc.EnsurePortfolio(ctx, user.ID); err != nil {
		slog.Error("failed to ensure portfolio", "user_id", user.ID, "error", err)
		renderError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	if c.Request.Method != http.MethodPost {
		web.Render(c, http.StatusOK, "add_stock.html",
			addStockPage{Title: addStockTitle},
			api.MessageResponse{Message: "POST a symbol to add it to your portfolio"})
		return
	}

	var form dto.AddStockForm
	if err := c.ShouldBind(&form); err != nil {
		fields := dto.FieldErrors(err)
		slog.Warn("add stock validation failed", "user_id", user.ID, "fields", fields, "remote_addr", c.ClientIP())
		renderForm(c, http.StatusUnprocessableEntity,
			addStockPage{Title: addStockTitle, Symbol: form.Symbol, FieldErrors: fields},
			api.ErrorResponse{Error: "invalid request", Fields: fields})
		return
	}

	res, err := h.uc.AddStock(ctx, user.ID, form.Symbol)
	if err != nil {
		symbol := entity.NormalizeSymbol(form.Symbol)
		switch {
		case errors.Is(err, usecase.ErrSymbolNotFound):
			msg := fmt.Sprintf("symbol %q not found", symbol)
			slog.Info("symbol not found", "user_id", user.ID, "symbol", symbol)
			renderForm(c, http.StatusNotFound,
				addStockPage{Title: addStockTitle, Symbol: form.Symbol, Error: msg},
				api.ErrorResponse{Error: msg})
		case errors.Is(err, usecase.ErrInvalidSymbol):
			fields := map[string]string{"symbol": "Enter 1 to 10 letters, digits, dots or dashes."}
			renderForm(c, http.StatusUnprocessableEntity,
				addStockPage{Title: addStockTitle, Symbol: form.Symbol, FieldErrors: fields},
				api.ErrorResponse{Error: "invalid request", Fields: fields})
		case errors.Is(err, usecase.ErrMarketData):
			renderError(c, http.StatusBadGateway, "market data provider is unavailable, try again later")
		default:
			slog.Error("add stock failed", "user_id", user.ID, "symbol", symbol, "error", err)
			renderError(c, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	if web.WantsJSON(c) {
		code := http.StatusOK
		if res.Added {
			code = http.StatusCreated
		}
		c.JSON(code, api.AddStockResponse{
			Stock:        dto.ToStock(res.Stock),
			StockCreated: res.StockCreated,
			Added:        res.Added,
		})
		return
	}
	c.Redirect(http.StatusFound, PortfolioPath)
}

// Portfolio はユーザーのポートフォリオを表示します。
func (h *PortfolioHandler) Portfolio(c *gin.Context, user authentity.User) {
	p, err := h.uc.GetPortfolio(c.Request.Context(), user.ID)
	if err != nil {
		slog.Error("failed to load portfolio", "user_id", user.ID, "error", err)
		renderError(c, http.StatusInternalServerError, "internal server error")
		return
	}
	title := user.PortfolioTitle()
	web.Render(c, http.StatusOK, "portfolio.html",
		gin.H{"Title": title, "Stocks": p.Stocks},
		api.PortfolioResponse{Title: title, Stocks: dto.ToStocks(p.Stocks)})
}

// Stocks は保存済みのすべての銘柄を表示します。
func (h *PortfolioHandler) Stocks(c *gin.Context, _ authentity.User) {
	stocks, err := h.uc.ListStocks(c.Request.Context())
	if err != nil {
		slog.Error("failed to list stocks", "error", err)
		renderError(c, http.StatusInternalServerError, "internal server error")
		return
	}
	web.Render(c, http.StatusOK, "stocks.html",
		gin.H{"Title": "All stocks", "Stocks": stocks},
		api.StockListResponse{Stocks: dto.ToStocks(stocks)})
}

// renderForm はHTMLではフォームを200で再表示し、JSONでは jsonCode を返します。
func renderForm(c *gin.Context, jsonCode int, page addStockPage, body api.ErrorResponse) {
	if web.WantsJSON(c) {
		c.JSON(jsonCode, body)
		return
	}
	c.HTML(http.StatusOK, "add_stock.html", page)
}

func renderError(c *gin.Context, code int, msg string) {
	web.Render(c, code, "error.html",
		gin.H{"Title": http.StatusText(code), "Message": msg},
		api.ErrorResponse{Error: msg})
}
