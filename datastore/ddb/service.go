/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"github.com/suparena/cloudadapter/datastore"
	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/registry"
	"github.com/suparena/cloudadapter/storagemodels"
)

// Service is a DynamoDB database service instance.
type Service struct {
	mu     sync.RWMutex
	client Client

	logger        *zap.Logger
	names         *registry.NameCache
	serverFilters map[string]*storagemodels.ServerFilters
	retry         storagemodels.ListOptions

	waiterMinDelay time.Duration
	waiterMaxDelay time.Duration
	waitTimeout    time.Duration
}

var _ datastore.Service = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithServerFilters sets the mandatory filters per table name.
func WithServerFilters(filters map[string]*storagemodels.ServerFilters) Option {
	return func(s *Service) {
		s.serverFilters = filters
	}
}

// WithBatchRetry configures the retry of unprocessed batch items.
func WithBatchRetry(opts ...storagemodels.ListOption) Option {
	return func(s *Service) {
		s.retry = storagemodels.NewListOptions(opts...)
	}
}

// WithWaiter configures the table exists/not exists polling.
func WithWaiter(minDelay, maxDelay, timeout time.Duration) Option {
	return func(s *Service) {
		s.waiterMinDelay = minDelay
		s.waiterMaxDelay = maxDelay
		s.waitTimeout = timeout
	}
}

// New creates a DynamoDB service around client.
func New(client Client, opts ...Option) *Service {
	s := &Service{
		client:         client,
		logger:         zap.NewNop(),
		retry:          storagemodels.DefaultListOptions(),
		waiterMinDelay: 2 * time.Second,
		waiterMaxDelay: 20 * time.Second,
		waitTimeout:    5 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.names = registry.NewNameCache("table", s.listTableNames)
	return s
}

// conn returns the live client.
func (s *Service) conn() (Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return nil, apperrors.NewServiceUnavailableError("dynamodb", fmt.Errorf("client is closed"))
	}
	return s.client, nil
}

// Close drops the client.
func (s *Service) Close() {
	s.mu.Lock()
	s.client = nil
	s.mu.Unlock()
}

// RefreshNames reloads the cached table names.
func (s *Service) RefreshNames(ctx context.Context) error {
	return s.names.Refresh(ctx)
}

// Schema returns the schema resource of this service.
func (s *Service) Schema() datastore.Schema {
	return &Schema{svc: s}
}

// Table resolves name and loads its key schema.
func (s *Service) Table(ctx context.Context, name string) (datastore.Table, error) {
	return s.table(ctx, name)
}

func (s *Service) table(ctx context.Context, name string) (*Table, error) {
	client, err := s.conn()
	if err != nil {
		return nil, err
	}
	corrected, err := s.names.Correct(ctx, name)
	if err != nil {
		return nil, err
	}

	desc, err := s.describe(ctx, client, corrected)
	if err != nil {
		return nil, err
	}
	keys := desc.KeyNames()
	if len(keys) == 0 {
		return nil, apperrors.NewInternalError("load key schema", corrected, fmt.Errorf("table has no key schema"))
	}

	return &Table{
		svc:    s,
		client: client,
		name:   corrected,
		desc:   desc,
		keys:   keys,
		logger: s.logger.With(zap.String("table", corrected)),
		tx:     &transaction{},
	}, nil
}

func (s *Service) describe(ctx context.Context, client Client, name string) (*storagemodels.TableDescriptor, error) {
	out, err := client.DescribeTable(ctx, &sdk.DescribeTableInput{TableName: aws.String(name)})
	if err != nil {
		return nil, translateError("describe table", name, err)
	}
	return descriptorFromTable(out.Table), nil
}

// listTableNames pages through ListTables until the provider stops returning a start name.
func (s *Service) listTableNames(ctx context.Context) ([]string, error) {
	client, err := s.conn()
	if err != nil {
		return nil, err
	}

	var names []string
	input := &sdk.ListTablesInput{}
	for {
		out, err := client.ListTables(ctx, input)
		if err != nil {
			return nil, translateError("list tables", "", err)
		}
		names = append(names, out.TableNames...)
		if aws.ToString(out.LastEvaluatedTableName) == "" {
			break
		}
		input.ExclusiveStartTableName = out.LastEvaluatedTableName
	}
	s.logger.Debug("table names loaded", zap.Int("count", len(names)))
	return names, nil
}

func (s *Service) serverFiltersFor(table string, opts storagemodels.Options) *storagemodels.ServerFilters {
	if !opts.ServerFilters.Empty() {
		return opts.ServerFilters
	}
	return s.serverFilters[table]
}
