package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/jsamuelsen/stock-quote/internal/bootstrap"
	"github.com/jsamuelsen/stock-quote/internal/domain"
	"github.com/jsamuelsen/stock-quote/internal/platform/config"
	"github.com/jsamuelsen/stock-quote/internal/ports"
)

// cliOptions carries the dependencies the commands need. Tests replace the
// loader, logger and secret store.
type cliOptions struct {
	Version string

	// Load reads configuration without validating it. Defaults to loadConfig.
	Load func(profile string) (*config.Config, error)

	// Logger overrides the configured logger. Defaults to stderr output.
	Logger *slog.Logger

	Store ports.SecretStore
}

// kindError tags a failure with its domain kind for the exit message.
type kindError struct {
	kind string
	err  error
}

func (e *kindError) Error() string {
	return e.kind + ": " + e.err.Error()
}

func (e *kindError) Unwrap() error {
	return e.err
}

// Exit codes follow sysexits(3) so scripts can tell a bad setup from a
// provider outage without parsing stderr.
const (
	exitFailure     = 1
	exitDataErr     = 65
	exitUnavailable = 69
	exitNoPerm      = 77
	exitConfig      = 78
)

// exitCode maps a command failure to the process exit status.
func exitCode(err error) int {
	var kerr *kindError
	if !errors.As(err, &kerr) {
		return exitFailure
	}

	switch kerr.kind {
	case domain.KindConfiguration, domain.KindSecretNotFound, domain.KindSecretFormat:
		return exitConfig
	case domain.KindAuthentication:
		return exitNoPerm
	case domain.KindUnknownSymbol:
		return exitDataErr
	case domain.KindSecretAccess, domain.KindNetwork, domain.KindRateLimit,
		domain.KindProviderHTTP, domain.KindMalformedResponse:
		return exitUnavailable
	default:
		return exitFailure
	}
}

func loadConfig(profile string) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	return config.Load(profile)
}

func newRootCmd(opts cliOptions) *cobra.Command {
	if opts.Load == nil {
		opts.Load = loadConfig
	}

	var (
		profile  string
		asJSON   bool
		logLevel string
	)

	root := &cobra.Command{
		Use:   "quote [SYMBOL]",
		Short: "Fetch a normalized stock quote",
		Long: `Fetches the current quote for SYMBOL from the market-data provider and
prints it. The API key is read from FINNHUB_API_KEY, or from the managed
secret named by SECRET_NAME in AWS_REGION. Without SYMBOL the configured
default symbol is used.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       opts.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.Load(profile)
			if err != nil {
				return &kindError{kind: domain.KindConfiguration, err: err}
			}

			if logLevel != "" {
				cfg.Log.Level = logLevel
			}

			if err := cfg.Validate(); err != nil {
				return &kindError{kind: domain.KindConfiguration, err: err}
			}

			logger := opts.Logger
			if logger == nil {
				logger = bootstrap.NewLogger(cfg, opts.Version, cmd.ErrOrStderr())
			}

			rt, err := bootstrap.New(cmd.Context(), cfg, bootstrap.Options{
				Version: opts.Version,
				Logger:  logger,
				Store:   opts.Store,
			})
			if err != nil {
				return err
			}
			defer func() { _ = rt.Shutdown(cmd.Context()) }()

			var symbol string
			if len(args) > 0 {
				symbol = args[0]
			}

			quote, err := rt.Service.GetQuote(cmd.Context(), symbol)
			if err != nil {
				return &kindError{kind: domain.KindOf(err), err: err}
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), quote)
			}

			return writeQuote(cmd.OutOrStdout(), quote)
		},
	}

	root.PersistentFlags().StringVar(&profile, "profile", bootstrap.Profile(), "configuration profile (configs/<profile>.yaml)")
	root.Flags().BoolVar(&asJSON, "json", false, "print the normalized quote as JSON")
	root.Flags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(newConfigCmd(opts, &profile))

	return root
}

// configStatus reports whether the loaded configuration can serve quotes.
type configStatus struct {
	Valid        bool     `json:"valid"`
	Errors       []string `json:"errors"`
	Warnings     []string `json:"warnings"`
	Environment  string   `json:"environment"`
	APIKeySource string   `json:"api_key_source"`
}

func newConfigCmd(opts cliOptions, profile *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Report configuration status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.Load(*profile)
			if err != nil {
				return &kindError{kind: domain.KindConfiguration, err: err}
			}

			status := checkConfig(cfg)

			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), status); err != nil {
					return err
				}
			} else {
				writeStatus(cmd.OutOrStdout(), status)
			}

			if !status.Valid {
				return &kindError{
					kind: domain.KindConfiguration,
					err:  fmt.Errorf("%d configuration error(s)", len(status.Errors)),
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the status as JSON")

	return cmd
}

func checkConfig(cfg *config.Config) configStatus {
	status := configStatus{
		Valid:        true,
		Errors:       []string{},
		Warnings:     []string{},
		Environment:  cfg.App.Environment,
		APIKeySource: cfg.Credentials.Source(),
	}

	if err := cfg.Validate(); err != nil {
		status.Valid = false
		status.Errors = append(status.Errors, err.Error())
	}

	if err := cfg.ValidateCredentials(); err != nil {
		if cfg.App.IsProduction() {
			status.Valid = false
			status.Errors = append(status.Errors, err.Error())
		} else {
			status.Warnings = append(status.Warnings, "FINNHUB_API_KEY not set for local development")
		}
	}

	if cfg.Credentials.APIKey != "" && cfg.Credentials.SecretName != "" {
		status.Warnings = append(status.Warnings, "FINNHUB_API_KEY is set; SECRET_NAME is ignored")
	}

	return status
}

func writeStatus(w io.Writer, status configStatus) {
	state := "valid"
	if !status.Valid {
		state = "invalid"
	}

	fmt.Fprintf(w, "environment:    %s\n", status.Environment)
	fmt.Fprintf(w, "api key source: %s\n", status.APIKeySource)
	fmt.Fprintf(w, "configuration:  %s\n", state)

	for _, e := range status.Errors {
		fmt.Fprintf(w, "  error:   %s\n", e)
	}

	for _, warning := range status.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warning)
	}
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}
