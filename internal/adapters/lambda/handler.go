// Package lambda adapts the quote pipeline to API Gateway style invocations.
//
// The handler accepts any JSON event. Direct invokes send {"symbol": "MSFT"};
// API Gateway proxy events carry the symbol in pathParameters or
// queryStringParameters. Every outcome, including failures, becomes a proxy
// response with the cross-origin headers and a JSON body.
package lambda

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/goccy/go-json"

	"github.com/jsamuelsen/stock-quote/internal/adapters/http/dto"
	"github.com/jsamuelsen/stock-quote/internal/adapters/http/middleware"
	"github.com/jsamuelsen/stock-quote/internal/domain"
	"github.com/jsamuelsen/stock-quote/internal/platform/logging"
	"github.com/jsamuelsen/stock-quote/internal/ports"
)

// internalErrorBody is sent when the response itself cannot be encoded.
const internalErrorBody = `{"error":{"code":"INTERNAL_ERROR","message":"an internal error occurred"}}`

// HandlerConfig contains the dependencies of Handler.
type HandlerConfig struct {
	// Service runs the quote pipeline.
	Service ports.QuoteService

	// DefaultSymbol is echoed on error bodies when the event names no symbol.
	DefaultSymbol domain.Symbol

	// Logger is used when the invocation context carries none.
	Logger *slog.Logger
}

// Handler is the serverless entry point.
type Handler struct {
	service       ports.QuoteService
	defaultSymbol domain.Symbol
	logger        *slog.Logger
}

// NewHandler creates a new serverless handler.
// Panics if Service is nil.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Service == nil {
		panic("lambda.NewHandler: Service is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service:       cfg.Service,
		defaultSymbol: domain.ParseSymbol(string(cfg.DefaultSymbol), domain.DefaultSymbol),
		logger:        logger,
	}
}

// Invoke implements the runtime's raw handler interface so events of any
// shape reach Handle undecoded.
func (h *Handler) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	resp, err := h.Handle(ctx, payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(resp)
}

// Handle processes one invocation. It never returns an error: failures are
// reported through the response status so API Gateway relays them verbatim.
func (h *Handler) Handle(ctx context.Context, event []byte) (events.APIGatewayProxyResponse, error) {
	env := decodeEnvelope(event)
	ctx = h.invocationContext(ctx, env)
	logger := logging.FromContext(ctx)

	if env.isPreflight() {
		logger.DebugContext(ctx, "answering preflight request")
		return respond(http.StatusOK, ""), nil
	}

	symbol := env.symbol()

	quote, err := h.service.GetQuote(ctx, symbol)
	if err != nil {
		status, errResp := dto.FromDomainError(err)
		errResp.WithSymbol(domain.ParseSymbol(symbol, h.defaultSymbol).String())

		logger.InfoContext(ctx, "quote invocation failed",
			slog.Int("status", status),
			slog.String("error_code", errResp.Error.Code),
		)

		return respondJSON(ctx, status, errResp), nil
	}

	logger.InfoContext(ctx, "quote invocation completed",
		slog.String("symbol", quote.Symbol.String()),
		slog.Int("status", http.StatusOK),
	)

	return respondJSON(ctx, http.StatusOK, quote), nil
}

// invocationContext attaches the logger and the invocation identifiers.
// The AWS request ID doubles as the outbound X-Request-ID; the API Gateway
// request ID, when present, becomes the correlation ID.
func (h *Handler) invocationContext(ctx context.Context, env envelope) context.Context {
	if !logging.HasLogger(ctx) {
		ctx = logging.WithContext(ctx, h.logger)
	}

	if lc, ok := lambdacontext.FromContext(ctx); ok {
		ctx = logging.WithInvocation(ctx, lc.AwsRequestID, lambdacontext.FunctionName)
		ctx = middleware.ContextWithRequestID(ctx, lc.AwsRequestID)
	}

	if id := env.RequestContext.RequestID; middleware.ValidID(id) {
		ctx = logging.WithCorrelationID(ctx, id)
		ctx = middleware.ContextWithCorrelationID(ctx, id)
	}

	return ctx
}

func respondJSON(ctx context.Context, status int, body any) events.APIGatewayProxyResponse {
	data, err := json.Marshal(body)
	if err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "encoding response body",
			slog.String("error", err.Error()),
		)

		return respond(http.StatusInternalServerError, internalErrorBody)
	}

	return respond(status, string(data))
}

func respond(status int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    dto.ResponseHeaders(),
		Body:       body,
	}
}

// envelope holds the event fields the handler understands. Fields of the
// wrong JSON type are left empty.
type envelope struct {
	Symbol                string
	HTTPMethod            string
	PathParameters        map[string]string
	QueryStringParameters map[string]string
	RequestContext        requestContext
}

type requestContext struct {
	RequestID string `json:"requestId"`

	// HTTP is set by HTTP API (payload v2) events.
	HTTP struct {
		Method string `json:"method"`
	} `json:"http"`
}

// decodeEnvelope never fails: non-object events decode to a zero envelope.
func decodeEnvelope(event []byte) envelope {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(event, &fields); err != nil {
		return envelope{}
	}

	var env envelope
	decodeField(fields, "symbol", &env.Symbol)
	decodeField(fields, "httpMethod", &env.HTTPMethod)
	decodeField(fields, "pathParameters", &env.PathParameters)
	decodeField(fields, "queryStringParameters", &env.QueryStringParameters)
	decodeField(fields, "requestContext", &env.RequestContext)

	return env
}

func decodeField(fields map[string]json.RawMessage, name string, dst any) {
	raw, ok := fields[name]
	if !ok {
		return
	}

	_ = json.Unmarshal(raw, dst)
}

func (e envelope) isPreflight() bool {
	method := e.HTTPMethod
	if method == "" {
		method = e.RequestContext.HTTP.Method
	}

	return strings.EqualFold(method, http.MethodOptions)
}

// symbol applies the lookup order: direct "symbol", then the path
// parameter, then the query string. Blank values fall through; an empty
// result selects the default symbol downstream.
func (e envelope) symbol() string {
	for _, candidate := range []string{
		e.Symbol,
		e.PathParameters["symbol"],
		e.QueryStringParameters["symbol"],
	} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}

	return ""
}
