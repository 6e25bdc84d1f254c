/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cloudadapter

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/suparena/cloudadapter/blobstore"
	"github.com/suparena/cloudadapter/datastore"
	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/notification"
)

// Kind classifies a registered service.
type Kind string

const (
	KindDatabase     Kind = "database"
	KindBlob         Kind = "blob"
	KindNotification Kind = "notification"
)

// KindOf reports the kind of a service value.
func KindOf(svc any) (Kind, bool) {
	switch svc.(type) {
	case datastore.Service:
		return KindDatabase, true
	case *blobstore.Store:
		return KindBlob, true
	case *notification.Service:
		return KindNotification, true
	}
	return "", false
}

// Manager is a thread-safe registry of named service instances.
type Manager struct {
	mu       sync.RWMutex
	services map[string]any
	logger   *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates an empty Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		services: make(map[string]any),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register stores svc under name. svc must be a datastore.Service,
// a *blobstore.Store or a *notification.Service.
func (m *Manager) Register(name string, svc any) error {
	kind, ok := KindOf(svc)
	if !ok {
		return fmt.Errorf("service %q has unsupported type %T", name, svc)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.services[name]; exists {
		return fmt.Errorf("service %q already registered", name)
	}
	m.services[name] = svc
	m.logger.Debug("service registered", zap.String("service", name), zap.String("kind", string(kind)))
	return nil
}

// Get retrieves the service registered under name.
func (m *Manager) Get(name string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	svc, exists := m.services[name]
	if !exists {
		return nil, apperrors.NewNotFoundError("service", name)
	}
	return svc, nil
}

// Remove unregisters name, closing it when it is a database service.
func (m *Manager) Remove(name string) error {
	m.mu.Lock()
	svc, exists := m.services[name]
	delete(m.services, name)
	m.mu.Unlock()

	if !exists {
		return apperrors.NewNotFoundError("service", name)
	}
	if db, ok := svc.(datastore.Service); ok {
		db.Close()
	}
	return nil
}

// Names lists the registered service names in order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.services))
	for k := range m.services {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Close closes every database service and empties the registry.
func (m *Manager) Close() {
	m.mu.Lock()
	services := m.services
	m.services = make(map[string]any)
	m.mu.Unlock()

	for _, svc := range services {
		if db, ok := svc.(datastore.Service); ok {
			db.Close()
		}
	}
}
