/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sdb

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/simpledb"
	"go.uber.org/zap"

	"github.com/suparena/cloudadapter/datastore"
	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/registry"
	"github.com/suparena/cloudadapter/storagemodels"
)

// DefaultIDField is the record field that carries the item name.
const DefaultIDField = "id"

// Service is a SimpleDB database service instance.
type Service struct {
	mu     sync.RWMutex
	client Client

	logger        *zap.Logger
	names         *registry.NameCache
	serverFilters map[string]*storagemodels.ServerFilters
	idField       string
	listPageSize  int64
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

// WithServerFilters sets the mandatory filters per domain name.
func WithServerFilters(filters map[string]*storagemodels.ServerFilters) Option {
	return func(s *Service) {
		s.serverFilters = filters
	}
}

// WithIDField changes the default id field.
func WithIDField(field string) Option {
	return func(s *Service) {
		s.idField = field
	}
}

// WithListPageSize sets MaxNumberOfDomains for ListDomains.
func WithListPageSize(n int64) Option {
	return func(s *Service) {
		s.listPageSize = n
	}
}

// New creates a SimpleDB service around client.
func New(client Client, opts ...Option) *Service {
	s := &Service{
		client:       client,
		logger:       zap.NewNop(),
		idField:      DefaultIDField,
		listPageSize: 100,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.names = registry.NewNameCache("domain", s.listDomainNames)
	return s
}

func (s *Service) conn() (Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return nil, apperrors.NewServiceUnavailableError("simpledb", fmt.Errorf("client is closed"))
	}
	return s.client, nil
}

// Close drops the client.
func (s *Service) Close() {
	s.mu.Lock()
	s.client = nil
	s.mu.Unlock()
}

// RefreshNames reloads the cached domain names.
func (s *Service) RefreshNames(ctx context.Context) error {
	return s.names.Refresh(ctx)
}

// Schema returns the domain lifecycle resource.
func (s *Service) Schema() datastore.Schema {
	return &Schema{svc: s}
}

// Table resolves name against the cached domain names.
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
	return &Table{
		svc:    s,
		client: client,
		name:   corrected,
		logger: s.logger.With(zap.String("domain", corrected)),
		tx:     &transaction{},
	}, nil
}

// listDomainNames follows NextToken until ListDomains stops returning one.
func (s *Service) listDomainNames(ctx context.Context) ([]string, error) {
	client, err := s.conn()
	if err != nil {
		return nil, err
	}

	var names []string
	input := &simpledb.ListDomainsInput{MaxNumberOfDomains: aws.Int64(s.listPageSize)}
	for {
		out, err := client.ListDomainsWithContext(ctx, input)
		if err != nil {
			return nil, translateError("list domains", "", err)
		}
		names = append(names, aws.StringValueSlice(out.DomainNames)...)
		if aws.StringValue(out.NextToken) == "" {
			break
		}
		input.NextToken = out.NextToken
	}
	s.logger.Debug("domain names loaded", zap.Int("count", len(names)))
	return names, nil
}

func (s *Service) serverFiltersFor(domain string, opts storagemodels.Options) *storagemodels.ServerFilters {
	if !opts.ServerFilters.Empty() {
		return opts.ServerFilters
	}
	return s.serverFilters[domain]
}
