package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

// Values that carry the provider key even when the attribute name looks harmless.
var (
	// Provider URLs authenticate with a token query parameter.
	tokenQueryPattern = regexp.MustCompile(`(?i)[?&](token|api_?key)=[^&\s]+`)

	// Secrets Manager payloads are JSON documents naming the key field.
	secretJSONPattern = regexp.MustCompile(`(?i)"[a-z_]*(api_?key|token|secret)[a-z_]*"\s*:`)

	authHeaderPattern = regexp.MustCompile(`(?i)^(bearer|basic)\s+.+$`)
)

// redactOptions lists the attribute names and value shapes that are never
// written to any log destination.
func redactOptions() []masq.Option {
	return []masq.Option{
		masq.WithFieldName("token"),
		masq.WithFieldName("api_key"),
		masq.WithFieldName("apiKey"),
		masq.WithFieldName("apikey"),
		masq.WithFieldName("FINNHUB_API_KEY"),
		masq.WithFieldName("X-Finnhub-Token"),
		masq.WithFieldName("SecretString"),
		masq.WithFieldName("secret_string"),
		masq.WithFieldName("credential"),
		masq.WithFieldName("authorization"),
		masq.WithFieldName("password"),
		masq.WithFieldPrefix("secret_value"),

		masq.WithRegex(tokenQueryPattern),
		masq.WithRegex(secretJSONPattern),
		masq.WithRegex(authHeaderPattern),
	}
}

// replaceAttr builds the slog ReplaceAttr hook that applies redactOptions
// plus extra, such as masq.WithType for credential types.
func replaceAttr(extra ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	opts := append(redactOptions(), extra...)
	return masq.New(opts...)
}
