// Package api defines the JSON request and response bodies of the HTTP surface.
package api

// ErrorResponse is returned for every failed JSON request.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// TokenResponse carries a signed bearer token.
type TokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

// Stock is the JSON form of a stored stock. Absent values are null.
type Stock struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Market    string  `json:"market"`
	Price     *string `json:"price"`
	MarketCap *string `json:"market_cap"`
	PERatio   *string `json:"pe_ratio"`
}

// AddStockResponse is returned after a successful add.
type AddStockResponse struct {
	Stock        Stock `json:"stock"`
	StockCreated bool  `json:"stock_created"`
	Added        bool  `json:"added"`
}

// PortfolioResponse is the JSON form of a user's portfolio.
type PortfolioResponse struct {
	Title  string  `json:"title"`
	Stocks []Stock `json:"stocks"`
}

// StockListResponse is the JSON form of the stock catalog.
type StockListResponse struct {
	Stocks []Stock `json:"stocks"`
}
