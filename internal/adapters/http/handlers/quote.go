package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/stock-quote/internal/adapters/http/dto"
	"github.com/jsamuelsen/stock-quote/internal/domain"
	"github.com/jsamuelsen/stock-quote/internal/ports"
)

// QuoteHandler serves the quote pipeline over HTTP.
type QuoteHandler struct {
	service       ports.QuoteService
	defaultSymbol domain.Symbol
}

// NewQuoteHandler creates a new quote handler.
// defaultSymbol is echoed on error responses for blank requests.
func NewQuoteHandler(service ports.QuoteService, defaultSymbol domain.Symbol) *QuoteHandler {
	return &QuoteHandler{
		service:       service,
		defaultSymbol: domain.ParseSymbol(string(defaultSymbol), domain.DefaultSymbol),
	}
}

// GetQuote handles GET /api/v1/quote?symbol=MSFT.
// A missing symbol selects the default.
//
// @Summary Get a stock quote
// @Tags quotes
// @Produce json
// @Param symbol query string false "Ticker symbol"
// @Success 200 {object} domain.NormalizedQuote
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /api/v1/quote [get]
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	var req dto.QuoteRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		h.badRequest(c, err)
		return
	}

	h.respond(c, req.Symbol)
}

// GetQuoteBySymbol handles GET /api/v1/quote/:symbol.
//
// @Summary Get a stock quote by path symbol
// @Tags quotes
// @Produce json
// @Param symbol path string true "Ticker symbol"
// @Success 200 {object} domain.NormalizedQuote
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quote/{symbol} [get]
func (h *QuoteHandler) GetQuoteBySymbol(c *gin.Context) {
	req := dto.QuoteRequest{Symbol: c.Param("symbol")}
	if err := dto.Validate(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	h.respond(c, req.Symbol)
}

// PostQuote handles POST /api/v1/quote with an optional {"symbol": "..."} body.
//
// @Summary Get a stock quote from a JSON envelope
// @Tags quotes
// @Accept json
// @Produce json
// @Param request body dto.QuoteRequest false "Quote request"
// @Success 200 {object} domain.NormalizedQuote
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quote [post]
func (h *QuoteHandler) PostQuote(c *gin.Context) {
	var req dto.QuoteRequest
	if err := dto.BindOptionalJSON(c, &req); err != nil {
		h.badRequest(c, err)
		return
	}

	h.respond(c, req.Symbol)
}

// Preflight answers OPTIONS requests when no CORS middleware did.
func (h *QuoteHandler) Preflight(c *gin.Context) {
	c.Status(http.StatusOK)
}

func (h *QuoteHandler) respond(c *gin.Context, symbol string) {
	quote, err := h.service.GetQuote(c.Request.Context(), symbol)
	if err != nil {
		dto.HandleError(c, err, domain.ParseSymbol(symbol, h.defaultSymbol).String())
		return
	}

	c.JSON(http.StatusOK, quote)
}

func (h *QuoteHandler) badRequest(c *gin.Context, err error) {
	if dto.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithDetails(
			dto.ErrorCodeValidation,
			"request validation failed",
			dto.ValidationErrors(err),
		).WithTraceID(dto.GetTraceID(c)))

		return
	}

	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
		dto.ErrorCodeBadRequest,
		"request body must be a JSON object",
	).WithTraceID(dto.GetTraceID(c)))
}

// RegisterQuoteRoutes registers quote routes on the given router group.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	rg.GET("/quote", h.GetQuote)
	rg.POST("/quote", h.PostQuote)
	rg.OPTIONS("/quote", h.Preflight)
	rg.GET("/quote/:symbol", h.GetQuoteBySymbol)
	rg.OPTIONS("/quote/:symbol", h.Preflight)
}
