// Package dto defines data transfer objects for the Twelve Data API responses.
package dto

// ErrorFields is embedded in every Twelve Data response; status is "error"
// when the request failed.
type ErrorFields struct {
	Status  string `json:"status,omitempty"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// APIError returns the error fields of the response.
func (e ErrorFields) APIError() ErrorFields {
	return e
}

// QuoteResponse represents the JSON response from the /quote endpoint.
// Numeric values are delivered as strings.
type QuoteResponse struct {
	ErrorFields
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Currency string `json:"currency"`
	Close    string `json:"close"`
}

// StatisticsResponse represents the JSON response from the /statistics endpoint.
type StatisticsResponse struct {
	ErrorFields
	Statistics struct {
		ValuationsMetrics struct {
			MarketCapitalization *float64 `json:"market_capitalization"`
			TrailingPE           *float64 `json:"trailing_pe"`
		} `json:"valuations_metrics"`
	} `json:"statistics"`
}
