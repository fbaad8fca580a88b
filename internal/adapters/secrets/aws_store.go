// Package secrets adapts the AWS Secrets Manager API to ports.SecretStore.
package secrets

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/smithy-go"

	"github.com/jsamuelsen/stock-quote/internal/domain"
	"github.com/jsamuelsen/stock-quote/internal/platform/logging"
)

// API is the subset of the Secrets Manager client used by AWSStore.
type API interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSStore reads secret strings from AWS Secrets Manager.
type AWSStore struct {
	api API
}

// NewAWSStore wraps an existing Secrets Manager client.
// Panics if api is nil.
func NewAWSStore(api API) *AWSStore {
	if api == nil {
		panic("AWSStore: api is required")
	}

	return &AWSStore{api: api}
}

// NewAWSStoreForRegion builds a Secrets Manager client from the default
// credential chain pinned to region.
func NewAWSStoreForRegion(ctx context.Context, region string) (*AWSStore, error) {
	if region == "" {
		return nil, domain.NewConfigurationError("credentials.region", "is required for the secret store")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, domain.NewSecretAccessError("", err)
	}

	return NewAWSStore(secretsmanager.NewFromConfig(cfg)), nil
}

// GetSecretString returns the SecretString of the current version of secretID.
// Implements ports.SecretStore.
func (s *AWSStore) GetSecretString(ctx context.Context, secretID string) (string, error) {
	out, err := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		mapped := mapAWSError(secretID, err)

		logging.FromContext(ctx).WarnContext(ctx, "secret lookup failed",
			slog.String("secret_id", secretID),
			slog.String("error_kind", domain.KindOf(mapped)),
			slog.String("aws_error_code", errorCode(err)),
		)

		return "", mapped
	}

	if out == nil || out.SecretString == nil {
		return "", domain.NewSecretFormatError(secretID, "", "secret has no string value")
	}

	return aws.ToString(out.SecretString), nil
}

// mapAWSError distinguishes a missing secret from every other failure.
func mapAWSError(secretID string, err error) error {
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return domain.NewSecretNotFoundError(secretID)
	}

	return domain.NewSecretAccessError(secretID, err)
}

// errorCode returns the AWS error code when err carries one.
func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}

	return ""
}
