/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	awsv1 "github.com/aws/aws-sdk-go/aws"
	credv1 "github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/simpledb"
	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"go.uber.org/zap"

	"github.com/suparena/cloudadapter/config"
	apperrors "github.com/suparena/cloudadapter/errors"
)

// Provider names a client kind the factory can build.
type Provider string

const (
	ProviderDynamoDB Provider = "dynamodb"
	ProviderSimpleDB Provider = "simpledb"
	ProviderS3       Provider = "s3"
	ProviderSNS      Provider = "sns"
)

// IdentityClient is the STS subset used to verify credentials.
type IdentityClient interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

var _ IdentityClient = (*sts.Client)(nil)

// Factory builds provider clients from one set of credentials.
type Factory struct {
	creds       config.Credentials
	endpoint    string
	maxAttempts int
	logger      *zap.Logger
	identity    func(aws.Config) IdentityClient
	builders    map[Provider]func(context.Context) (any, error)
}

// Option configures a Factory.
type Option func(*Factory)

// WithEndpoint points every client at a custom endpoint, e.g. a local emulator.
func WithEndpoint(endpoint string) Option {
	return func(f *Factory) {
		f.endpoint = endpoint
	}
}

// WithRetryMaxAttempts overrides the SDK retry budget.
func WithRetryMaxAttempts(n int) Option {
	return func(f *Factory) {
		f.maxAttempts = n
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithIdentityClient replaces the STS client used by Verify.
func WithIdentityClient(c IdentityClient) Option {
	return func(f *Factory) {
		f.identity = func(aws.Config) IdentityClient { return c }
	}
}

// NewFactory creates a client factory for creds.
func NewFactory(creds config.Credentials, opts ...Option) *Factory {
	f := &Factory{
		creds:  creds,
		logger: zap.NewNop(),
		identity: func(cfg aws.Config) IdentityClient {
			return sts.NewFromConfig(cfg)
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.creds.Region == "" {
		f.creds.Region = config.DefaultRegion
	}

	f.builders = map[Provider]func(context.Context) (any, error){
		ProviderDynamoDB: func(ctx context.Context) (any, error) { return f.DynamoDB(ctx) },
		ProviderS3:       func(ctx context.Context) (any, error) { return f.S3(ctx) },
		ProviderSNS:      func(ctx context.Context) (any, error) { return f.SNS(ctx) },
		ProviderSimpleDB: func(context.Context) (any, error) { return f.SimpleDB() },
	}
	return f
}

// Credentials returns the credentials the factory was built with.
func (f *Factory) Credentials() config.Credentials {
	return f.creds
}

// Create builds the client for a provider name.
func (f *Factory) Create(ctx context.Context, provider Provider) (any, error) {
	build, ok := f.builders[provider]
	if !ok {
		return nil, apperrors.NewBadRequestError("unknown provider %q", provider)
	}
	return build(ctx)
}

// AWSConfig loads the SDK v2 configuration. Failures are reported as service unavailable for provider.
func (f *Factory) AWSConfig(ctx context.Context, provider Provider) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(f.creds.Region),
	}
	if !f.creds.Anonymous() {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(f.creds.Key, f.creds.Secret, ""),
		))
	}
	if f.creds.Proxy != "" {
		proxyURL, err := url.Parse(f.creds.Proxy)
		if err != nil {
			return aws.Config{}, apperrors.NewServiceUnavailableError(string(provider), fmt.Errorf("invalid proxy %q: %w", f.creds.Proxy, err))
		}
		httpClient := awshttp.NewBuildableClient().WithTransportOptions(func(tr *http.Transport) {
			tr.Proxy = http.ProxyURL(proxyURL)
		})
		opts = append(opts, awsconfig.WithHTTPClient(httpClient))
	}
	if f.maxAttempts > 0 {
		opts = append(opts,
			awsconfig.WithRetryMaxAttempts(f.maxAttempts),
			awsconfig.WithRetryMode(aws.RetryModeAdaptive),
		)
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, apperrors.NewServiceUnavailableError(string(provider), err)
	}
	return cfg, nil
}

// DynamoDB builds a DynamoDB client.
func (f *Factory) DynamoDB(ctx context.Context) (*dynamodb.Client, error) {
	cfg, err := f.AWSConfig(ctx, ProviderDynamoDB)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("dynamodb client initialized", zap.String("region", f.creds.Region))
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if f.endpoint != "" {
			o.BaseEndpoint = aws.String(f.endpoint)
		}
	}), nil
}

// S3 builds an S3 client. Path-style addressing is used with a custom endpoint.
func (f *Factory) S3(ctx context.Context) (*s3.Client, error) {
	cfg, err := f.AWSConfig(ctx, ProviderS3)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("s3 client initialized", zap.String("region", f.creds.Region))
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if f.endpoint != "" {
			o.BaseEndpoint = aws.String(f.endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// SNS builds an SNS client.
func (f *Factory) SNS(ctx context.Context) (*sns.Client, error) {
	cfg, err := f.AWSConfig(ctx, ProviderSNS)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("sns client initialized", zap.String("region", f.creds.Region))
	return sns.NewFromConfig(cfg, func(o *sns.Options) {
		if f.endpoint != "" {
			o.BaseEndpoint = aws.String(f.endpoint)
		}
	}), nil
}

// SimpleDB builds a SimpleDB client. SimpleDB is only served by the v1 SDK.
func (f *Factory) SimpleDB() (*simpledb.SimpleDB, error) {
	cfg := awsv1.NewConfig().WithRegion(f.creds.Region)
	if !f.creds.Anonymous() {
		cfg = cfg.WithCredentials(credv1.NewStaticCredentials(f.creds.Key, f.creds.Secret, ""))
	}
	if f.creds.Proxy != "" {
		proxyURL, err := url.Parse(f.creds.Proxy)
		if err != nil {
			return nil, apperrors.NewServiceUnavailableError(string(ProviderSimpleDB), fmt.Errorf("invalid proxy %q: %w", f.creds.Proxy, err))
		}
		cfg = cfg.WithHTTPClient(&http.Client{
			Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
		})
	}
	if f.endpoint != "" {
		cfg = cfg.WithEndpoint(f.endpoint)
	}
	if f.maxAttempts > 0 {
		cfg = cfg.WithMaxRetries(f.maxAttempts)
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, apperrors.NewServiceUnavailableError(string(ProviderSimpleDB), err)
	}
	f.logger.Debug("simpledb client initialized", zap.String("region", f.creds.Region))
	return simpledb.New(sess), nil
}

// Verify checks the credentials against STS and returns the caller ARN.
func (f *Factory) Verify(ctx context.Context) (string, error) {
	cfg, err := f.AWSConfig(ctx, "sts")
	if err != nil {
		return "", err
	}
	out, err := f.identity(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", apperrors.NewServiceUnavailableError("sts", err)
	}
	return aws.ToString(out.Arn), nil
}
