package dto

// QuoteRequest is the optional body of POST /api/v1/quote and the query
// string of GET /api/v1/quote. An empty symbol selects the default.
type QuoteRequest struct {
	Symbol string `json:"symbol" form:"symbol" validate:"max=32"`
}
