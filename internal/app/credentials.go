package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"github.com/jsamuelsen/stock-quote/internal/domain"
	"github.com/jsamuelsen/stock-quote/internal/platform/config"
	"github.com/jsamuelsen/stock-quote/internal/platform/logging"
	"github.com/jsamuelsen/stock-quote/internal/ports"
)

const defaultSecretTimeout = 5 * time.Second

// Credential sources reported by Source.
const (
	SourceEnvironment    = "environment"
	SourceSecretsManager = "secrets_manager"
	SourceNotConfigured  = "not_configured"
)

// CredentialResolverConfig contains configuration for the credential resolver.
type CredentialResolverConfig struct {
	// Credentials is read once at startup and never re-read from the environment.
	Credentials config.CredentialsConfig

	// Store is consulted only when no explicit key is configured.
	// It may be nil when Credentials.APIKey is set.
	Store ports.SecretStore

	Logger *slog.Logger
}

// CredentialResolver implements ports.CredentialResolver.
//
// An explicit key always wins and the store is never contacted. Otherwise the
// key is read from the secret store; with Memoize set, the first successful
// lookup is kept for the process lifetime and concurrent cold lookups collapse
// into a single store call.
type CredentialResolver struct {
	cfg      config.CredentialsConfig
	store    ports.SecretStore
	logger   *slog.Logger
	validate *validator.Validate

	mu     sync.RWMutex
	cached domain.Credential
	group  singleflight.Group
}

// NewCredentialResolver creates a resolver. Defaults logger to slog.Default() if nil.
func NewCredentialResolver(cfg CredentialResolverConfig) *CredentialResolver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	creds := cfg.Credentials
	if creds.SecretField == "" {
		creds.SecretField = config.DefaultSecretField
	}

	if creds.Timeout <= 0 {
		creds.Timeout = defaultSecretTimeout
	}

	return &CredentialResolver{
		cfg:      creds,
		store:    cfg.Store,
		logger:   logger.With(slog.String("component", "app.CredentialResolver")),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Resolve returns the provider API key.
// Implements ports.CredentialResolver.
func (r *CredentialResolver) Resolve(ctx context.Context) (domain.Credential, error) {
	if r.cfg.APIKey != "" {
		return domain.Credential(r.cfg.APIKey), nil
	}

	if err := r.checkManagedConfig(); err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "no credential source configured",
			slog.String("error_kind", domain.KindOf(err)),
			slog.Any("error", err),
		)

		return "", err
	}

	if key, ok := r.memoized(); ok {
		return key, nil
	}

	v, err, shared := r.group.Do(r.cfg.SecretName, func() (any, error) {
		return r.fetch(ctx)
	})
	if err != nil {
		return "", err
	}

	if shared {
		logging.FromContext(ctx).DebugContext(ctx, "joined in-flight secret lookup")
	}

	return v.(domain.Credential), nil
}

// Invalidate drops the memoized key.
// Implements ports.CredentialResolver.
func (r *CredentialResolver) Invalidate() {
	r.mu.Lock()
	r.cached = ""
	r.mu.Unlock()

	r.group.Forget(r.cfg.SecretName)
}

// Source names where the key comes from.
// Implements ports.CredentialResolver.
func (r *CredentialResolver) Source() string {
	switch {
	case r.cfg.APIKey != "":
		return SourceEnvironment
	case r.cfg.SecretName != "" && r.cfg.Region != "":
		return SourceSecretsManager
	default:
		return SourceNotConfigured
	}
}

// Name returns the health check name.
// Implements ports.HealthChecker.
func (r *CredentialResolver) Name() string {
	return "credentials"
}

// Check reports whether a key can currently be resolved.
// Implements ports.HealthChecker.
func (r *CredentialResolver) Check(ctx context.Context) error {
	_, err := r.Resolve(ctx)

	return err
}

func (r *CredentialResolver) checkManagedConfig() error {
	switch {
	case r.cfg.SecretName == "" && r.cfg.Region == "":
		return domain.NewConfigurationError("credentials", "set api_key, or secret_name and region")
	case r.cfg.SecretName == "":
		return domain.NewConfigurationError("credentials.secret_name", "is required when api_key is unset")
	case r.cfg.Region == "":
		return domain.NewConfigurationError("credentials.region", "is required when api_key is unset")
	case r.store == nil:
		return domain.NewConfigurationError("credentials", "no secret store available")
	default:
		return nil
	}
}

func (r *CredentialResolver) memoized() (domain.Credential, bool) {
	if !r.cfg.Memoize {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.cached, r.cached != ""
}

// fetch reads and parses the secret. It runs detached from the caller's
// cancellation because other callers may be waiting on the same lookup.
func (r *CredentialResolver) fetch(ctx context.Context) (domain.Credential, error) {
	logger := logging.FromContext(ctx)

	if key, ok := r.memoized(); ok {
		return key, nil
	}

	lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.Timeout)
	defer cancel()

	secret, err := r.store.GetSecretString(lookupCtx, r.cfg.SecretName)
	if err != nil {
		if domain.KindOf(err) == domain.KindInternal {
			err = domain.NewSecretAccessError(r.cfg.SecretName, err)
		}

		logger.ErrorContext(ctx, "secret lookup failed",
			slog.String("secret_id", r.cfg.SecretName),
			slog.String("error_kind", domain.KindOf(err)),
		)

		return "", err
	}

	key, err := r.extract(secret)
	if err != nil {
		logger.ErrorContext(ctx, "secret payload rejected",
			slog.String("secret_id", r.cfg.SecretName),
			slog.String("field", r.cfg.SecretField),
			slog.String("error_kind", domain.KindOf(err)),
		)

		return "", err
	}

	if r.cfg.Memoize {
		r.mu.Lock()
		r.cached = key
		r.mu.Unlock()
	}

	logger.DebugContext(ctx, "credential resolved from secret store",
		slog.String("secret_id", r.cfg.SecretName),
		slog.Bool("memoized", r.cfg.Memoize),
	)

	return key, nil
}

// secretPayload is the one field the resolver needs from the secret JSON.
type secretPayload struct {
	APIKey string `validate:"required"`
}

// extract pulls the configured field out of a JSON object secret.
func (r *CredentialResolver) extract(secret string) (domain.Credential, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(secret), &fields); err != nil {
		return "", domain.NewSecretFormatError(r.cfg.SecretName, "", "secret is not a JSON object")
	}

	raw, ok := fields[r.cfg.SecretField]
	if !ok {
		return "", domain.NewSecretFormatError(r.cfg.SecretName, r.cfg.SecretField, "field is missing")
	}

	var payload secretPayload
	if err := json.Unmarshal(raw, &payload.APIKey); err != nil {
		return "", domain.NewSecretFormatError(r.cfg.SecretName, r.cfg.SecretField, "field is not a string")
	}

	if err := r.validate.Struct(payload); err != nil {
		return "", domain.NewSecretFormatError(r.cfg.SecretName, r.cfg.SecretField, "field is empty")
	}

	return domain.Credential(payload.APIKey), nil
}
