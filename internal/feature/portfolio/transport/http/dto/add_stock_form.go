// Package dto はportfolioフィーチャーのフォームとレスポンス変換を定義します。
package dto

import (
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"stock_portfolio/internal/api"
	"stock_portfolio/internal/feature/portfolio/domain/entity"
)

// AddStockForm は銘柄追加フォームの入力です。
type AddStockForm struct {
	Symbol string `form:"symbol" json:"symbol" binding:"required,ticker"`
}

// tickerPattern は前後の空白を除いたシンボルに一致する必要があります。
var tickerPattern = regexp.MustCompile(`^[A-Za-z0-9.\-]{1,10}$`)

var registerOnce sync.Once

// RegisterValidators はginのバリデーターに "ticker" ルールを登録します。複数回呼んでも安全です。
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("ticker", validTicker)
		}
	})
}

func validTicker(fl validator.FieldLevel) bool {
	return ValidTicker(fl.Field().String())
}

// ValidTicker は s が1〜10文字の英数字・ドット・ハイフンかを返します。
func ValidTicker(s string) bool {
	return tickerPattern.MatchString(strings.TrimSpace(s))
}

// FieldErrors はバインドエラーをフォームのフィールド名ごとのメッセージに変換します。
// バリデーション以外のエラー（不正なJSON等）は "symbol" ではなく "form" に入ります。
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"form": "invalid request"}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			out[field] = "This field is required."
		case "ticker":
			out[field] = "Enter 1 to 10 letters, digits, dots or dashes."
		default:
			out[field] = "Invalid value."
		}
	}
	return out
}

// ToStock はエンティティをJSONレスポンス用に変換します。値がないフィールドはnullになります。
func ToStock(s entity.Stock) api.Stock {
	out := api.Stock{
		Symbol:    s.Symbol,
		Name:      s.Name,
		Market:    s.Market,
		MarketCap: s.MarketCap,
	}
	if s.Price.Valid {
		p := s.Price.Decimal.String()
		out.Price = &p
	}
	if s.PERatio.Valid {
		pe := s.PERatio.Decimal.String()
		out.PERatio = &pe
	}
	return out
}

// ToStocks はスライスを変換します。nilでも空配列を返します。
func ToStocks(stocks []entity.Stock) []api.Stock {
	out := make([]api.Stock, 0, len(stocks))
	for _, s := range stocks {
		out = append(out, ToStock(s))
	}
	return out
}
