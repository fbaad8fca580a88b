package acl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/jsamuelsen/stock-quote/internal/adapters/clients"
	"github.com/jsamuelsen/stock-quote/internal/domain"
)

// maxResponseBody bounds how much of a success body is read.
const maxResponseBody = 1 << 20

// BaseAdapter provides common functionality for ACL adapters.
type BaseAdapter struct {
	client      *clients.Client
	serviceName string
}

// NewBaseAdapter creates a new base adapter with the given client and service name.
func NewBaseAdapter(client *clients.Client, serviceName string) BaseAdapter {
	return BaseAdapter{
		client:      client,
		serviceName: serviceName,
	}
}

// Client returns the underlying HTTP client.
func (a *BaseAdapter) Client() *clients.Client {
	return a.client
}

// ServiceName returns the name of the external service.
func (a *BaseAdapter) ServiceName() string {
	return a.serviceName
}

// Get performs a GET request and returns the bounded response body.
// Non-2xx answers are mapped to domain errors; the provider's error message,
// if any, is returned alongside for logging.
func (a *BaseAdapter) Get(ctx context.Context, path string, query url.Values) ([]byte, *ErrorResponse, error) {
	resp, err := a.client.Get(ctx, path, query)
	if err != nil {
		return nil, nil, MapHTTPError(nil, err, a.serviceName)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, ParseErrorResponse(resp.Body), MapHTTPError(resp, nil, a.serviceName)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		if clients.IsTimeout(err) {
			return nil, nil, domain.NewNetworkError(a.serviceName, true, err)
		}

		return nil, nil, domain.NewDecodeError(err)
	}

	return body, nil, nil
}

// DecodeObject decodes body as a JSON object, keeping numbers verbatim as json.Number.
// Anything other than a single JSON object is a malformed response.
func DecodeObject(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, domain.NewDecodeError(err)
	}

	if dec.More() {
		return nil, domain.NewDecodeError(errors.New("trailing data after JSON value"))
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return nil, domain.NewDecodeError(fmt.Errorf("expected JSON object, got %T", value))
	}

	return obj, nil
}
