/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"context"
	"strings"
	"sync"

	apperrors "github.com/suparena/cloudadapter/errors"
)

// LoadFunc enumerates the names known to a provider.
type LoadFunc func(ctx context.Context) ([]string, error)

// NameCache holds the table or domain names of one service instance.
// It is populated on first use and only reloaded by Refresh or after Invalidate.
type NameCache struct {
	mu     sync.RWMutex
	kind   string
	load   LoadFunc
	names  []string
	loaded bool
}

// NewNameCache creates a cache for names of the given kind ("table", "domain").
func NewNameCache(kind string, load LoadFunc) *NameCache {
	return &NameCache{kind: kind, load: load}
}

// Names returns the cached names, loading them on first use.
func (c *NameCache) Names(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	if c.loaded {
		out := append([]string(nil), c.names...)
		c.mu.RUnlock()
		return out, nil
	}
	c.mu.RUnlock()

	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.names...), nil
}

// Refresh reloads the names from the provider.
func (c *NameCache) Refresh(ctx context.Context) error {
	names, err := c.load(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.names = names
	c.loaded = true
	c.mu.Unlock()
	return nil
}

// Invalidate drops the cached names so the next lookup reloads them.
func (c *NameCache) Invalidate() {
	c.mu.Lock()
	c.names = nil
	c.loaded = false
	c.mu.Unlock()
}

// Correct returns the cached spelling of name, matching case-insensitively.
// An exact match wins over a case-insensitive one.
func (c *NameCache) Correct(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", apperrors.NewBadRequestError("%s name can not be empty", c.kind)
	}

	names, err := c.Names(ctx)
	if err != nil {
		return "", err
	}

	folded := ""
	for _, n := range names {
		if n == name {
			return n, nil
		}
		if folded == "" && strings.EqualFold(n, name) {
			folded = n
		}
	}
	if folded != "" {
		return folded, nil
	}
	return "", apperrors.NewNotFoundError(c.kind, name)
}
