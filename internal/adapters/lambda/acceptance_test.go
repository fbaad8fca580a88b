package lambda_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/cucumber/godog"

	"github.com/jsamuelsen/stock-quote/internal/adapters/lambda"
	"github.com/jsamuelsen/stock-quote/internal/bootstrap"
	"github.com/jsamuelsen/stock-quote/internal/domain"
	"github.com/jsamuelsen/stock-quote/internal/platform/config"
)

const (
	explicitKey = "explicit-test-key"
	managedKey  = "managed-test-key"
	secretName  = "prod/finnhub/api_key"
)

// secretStore serves one JSON secret.
type secretStore struct {
	calls atomic.Int32
}

func (s *secretStore) GetSecretString(_ context.Context, secretID string) (string, error) {
	s.calls.Add(1)

	if secretID != secretName {
		return "", domain.NewSecretNotFoundError(secretID)
	}

	return fmt.Sprintf(`{"FINNHUB_API_KEY":%q}`, managedKey), nil
}

// scenarioState holds state shared across step definitions within a scenario.
type scenarioState struct {
	baseConfig config.Config

	mu        sync.Mutex
	quotes    map[string]float64
	reject    bool
	rateLimit bool
	lastToken string

	requests atomic.Int32
	server   *httptest.Server

	credentials config.CredentialsConfig
	store       *secretStore
	runtime     *bootstrap.Runtime

	response events.APIGatewayProxyResponse
	body     map[string]any
}

func newScenarioState(base config.Config) *scenarioState {
	s := &scenarioState{
		baseConfig: base,
		quotes:     make(map[string]float64),
		store:      &secretStore{},
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.serveQuote))

	return s
}

func (s *scenarioState) serveQuote(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastToken = r.URL.Query().Get("token")

	switch {
	case s.reject:
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid API key"}`))
		return
	case s.rateLimit:
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"API limit reached"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")

	price, ok := s.quotes[r.URL.Query().Get("symbol")]
	if !ok {
		_, _ = w.Write([]byte(`{"c":0,"d":null,"dp":null,"h":0,"l":0,"o":0,"pc":0,"t":0}`))
		return
	}

	_, _ = fmt.Fprintf(w, `{"c":%v,"d":1.5,"dp":0.5,"h":%v,"l":%v,"o":%v,"pc":%v,"t":1700000000}`,
		price, price+1, price-1, price, price-1.5)
}

func (s *scenarioState) close() {
	if s.runtime != nil {
		_ = s.runtime.Shutdown(context.Background())
	}

	s.server.Close()
}

func (s *scenarioState) theProviderQuotesAt(symbol string, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.quotes[symbol] = price

	return nil
}

func (s *scenarioState) theProviderRejectsEveryKey() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reject = true

	return nil
}

func (s *scenarioState) theProviderIsRateLimiting() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rateLimit = true

	return nil
}

func (s *scenarioState) theAPIKeyIsConfiguredExplicitly() error {
	s.credentials.APIKey = explicitKey
	return nil
}

func (s *scenarioState) theManagedSecretHoldsTheAPIKey() error {
	s.credentials.SecretName = secretName
	s.credentials.Region = "us-east-1"

	return nil
}

func (s *scenarioState) noAPIKeyIsConfigured() error {
	s.credentials = config.CredentialsConfig{}
	return nil
}

func (s *scenarioState) theHandlerIsInvokedWith(event *godog.DocString) error {
	cfg := s.baseConfig
	cfg.Provider.BaseURL = s.server.URL
	cfg.Credentials.APIKey = s.credentials.APIKey
	cfg.Credentials.SecretName = s.credentials.SecretName
	cfg.Credentials.Region = s.credentials.Region

	rt, err := bootstrap.New(context.Background(), &cfg, bootstrap.Options{
		Version: "test",
		Logger:  slog.New(slog.DiscardHandler),
		Store:   s.store,
	})
	if err != nil {
		return fmt.Errorf("wiring pipeline: %w", err)
	}

	s.runtime = rt

	handler := lambda.NewHandler(lambda.HandlerConfig{
		Service:       rt.Service,
		DefaultSymbol: domain.Symbol(cfg.Provider.DefaultSymbol),
	})

	s.response, err = handler.Handle(context.Background(), []byte(event.Content))
	if err != nil {
		return err
	}

	s.body = nil
	if s.response.Body != "" {
		if err := json.Unmarshal([]byte(s.response.Body), &s.body); err != nil {
			return fmt.Errorf("response body is not JSON: %w", err)
		}
	}

	return nil
}

func (s *scenarioState) theResponseStatusShouldBe(expected int) error {
	if s.response.StatusCode != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, s.response.StatusCode, s.response.Body)
	}

	return nil
}

func (s *scenarioState) theResponseShouldAllowAnyOrigin() error {
	if got := s.response.Headers["Access-Control-Allow-Origin"]; got != "*" {
		return fmt.Errorf("expected Access-Control-Allow-Origin *, got %q", got)
	}

	return nil
}

func (s *scenarioState) theResponseBodyShouldBeEmpty() error {
	if s.response.Body != "" {
		return fmt.Errorf("expected empty body, got %q", s.response.Body)
	}

	return nil
}

func (s *scenarioState) theBodyFieldShouldBe(field, expected string) error {
	got, ok := s.body[field]
	if !ok {
		return fmt.Errorf("body has no field %q: %s", field, s.response.Body)
	}

	if fmt.Sprint(got) != expected {
		return fmt.Errorf("expected %s=%s, got %v", field, expected, got)
	}

	return nil
}

func (s *scenarioState) theBodyErrorCodeShouldBe(expected string) error {
	detail, ok := s.body["error"].(map[string]any)
	if !ok {
		return fmt.Errorf("body has no error object: %s", s.response.Body)
	}

	if detail["code"] != expected {
		return fmt.Errorf("expected error code %s, got %v", expected, detail["code"])
	}

	return nil
}

func (s *scenarioState) theResponseBodyShouldNotContainTheAPIKey() error {
	if strings.Contains(s.response.Body, explicitKey) || strings.Contains(s.response.Body, managedKey) {
		return errors.New("response body leaks the API key")
	}

	return nil
}

func (s *scenarioState) theProviderShouldHaveReceivedRequests(expected int) error {
	if got := int(s.requests.Load()); got != expected {
		return fmt.Errorf("expected %d provider requests, got %d", expected, got)
	}

	return nil
}

func (s *scenarioState) theProviderShouldHaveReceivedTheManagedKey() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastToken != managedKey {
		return fmt.Errorf("provider received token %q", s.lastToken)
	}

	if calls := s.store.calls.Load(); calls != 1 {
		return fmt.Errorf("expected one secret store call, got %d", calls)
	}

	return nil
}

// initializeScenario registers step definitions for each scenario.
func initializeScenario(base config.Config) func(*godog.ScenarioContext) {
	return func(ctx *godog.ScenarioContext) {
		var s *scenarioState

		ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
			s = newScenarioState(base)
			return ctx, nil
		})

		ctx.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
			s.close()
			return ctx, nil
		})

		ctx.Step(`^the provider quotes "([^"]*)" at ([\d.]+)$`, func(symbol string, price float64) error {
			return s.theProviderQuotesAt(symbol, price)
		})
		ctx.Step(`^the provider rejects every key$`, func() error { return s.theProviderRejectsEveryKey() })
		ctx.Step(`^the provider is rate limiting$`, func() error { return s.theProviderIsRateLimiting() })
		ctx.Step(`^the API key is configured explicitly$`, func() error { return s.theAPIKeyIsConfiguredExplicitly() })
		ctx.Step(`^the managed secret holds the API key$`, func() error { return s.theManagedSecretHoldsTheAPIKey() })
		ctx.Step(`^no API key is configured$`, func() error { return s.noAPIKeyIsConfigured() })
		ctx.Step(`^the handler is invoked with:$`, func(doc *godog.DocString) error {
			return s.theHandlerIsInvokedWith(doc)
		})
		ctx.Step(`^the response status should be (\d+)$`, func(status int) error {
			return s.theResponseStatusShouldBe(status)
		})
		ctx.Step(`^the response should allow any origin$`, func() error { return s.theResponseShouldAllowAnyOrigin() })
		ctx.Step(`^the response body should be empty$`, func() error { return s.theResponseBodyShouldBeEmpty() })
		ctx.Step(`^the body field "([^"]*)" should be "([^"]*)"$`, func(field, expected string) error {
			return s.theBodyFieldShouldBe(field, expected)
		})
		ctx.Step(`^the body field "([^"]*)" should be ([\d.]+)$`, func(field, expected string) error {
			return s.theBodyFieldShouldBe(field, expected)
		})
		ctx.Step(`^the body error code should be "([^"]*)"$`, func(code string) error {
			return s.theBodyErrorCodeShouldBe(code)
		})
		ctx.Step(`^the response body should not contain the API key$`, func() error {
			return s.theResponseBodyShouldNotContainTheAPIKey()
		})
		ctx.Step(`^the provider should have received (\d+) requests$`, func(n int) error {
			return s.theProviderShouldHaveReceivedRequests(n)
		})
		ctx.Step(`^the provider should have received the managed key$`, func() error {
			return s.theProviderShouldHaveReceivedTheManagedKey()
		})
	}
}

// TestFeatures runs the godog scenarios against the fully wired pipeline.
func TestFeatures(t *testing.T) {
	for _, name := range []string{"FINNHUB_API_KEY", "SECRET_NAME", "AWS_REGION", "LOG_LEVEL", "ENVIRONMENT", "API_TIMEOUT"} {
		t.Setenv(name, "")
	}

	base, err := config.Load("")
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	suite := godog.TestSuite{
		ScenarioInitializer: initializeScenario(*base),
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Tags:     os.Getenv("GODOG_TAGS"),
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
