/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cloudadapter

import (
	"github.com/suparena/cloudadapter/blobstore"
	"github.com/suparena/cloudadapter/datastore"
	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/notification"
)

// Lookup returns the service registered under name as a T.
// A service of another type is a BadRequest.
func Lookup[T any](m *Manager, name string) (T, error) {
	var zero T
	svc, err := m.Get(name)
	if err != nil {
		return zero, err
	}
	typed, ok := svc.(T)
	if !ok {
		kind, _ := KindOf(svc)
		return zero, apperrors.NewBadRequestError("service %q is a %s service", name, kind)
	}
	return typed, nil
}

// Database returns the named database service.
func (m *Manager) Database(name string) (datastore.Service, error) {
	return Lookup[datastore.Service](m, name)
}

// Blob returns the named blob service.
func (m *Manager) Blob(name string) (*blobstore.Store, error) {
	return Lookup[*blobstore.Store](m, name)
}

// Notification returns the named notification service.
func (m *Manager) Notification(name string) (*notification.Service, error) {
	return Lookup[*notification.Service](m, name)
}

// NamesOf lists the registered names whose service is a T.
func NamesOf[T any](m *Manager) []string {
	var out []string
	for _, name := range m.Names() {
		if svc, err := m.Get(name); err == nil {
			if _, ok := svc.(T); ok {
				out = append(out, name)
			}
		}
	}
	return out
}
