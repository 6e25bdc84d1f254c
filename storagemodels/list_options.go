/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"
)

// ListOptions configures paginated listing of blobs and table scans.
type ListOptions struct {
	Prefix       string        // Only keys with this prefix (blobs)
	Delimiter    string        // Groups keys into virtual folders (blobs)
	PageSize     int32         // Items per provider page (default: 1000)
	MaxRetries   int           // Retry attempts for unprocessed batch items (default: 5)
	RetryBackoff time.Duration // Initial backoff between retries (default: 50ms)
	MaxBackoff   time.Duration // Backoff cap (default: 2s)
	SkipMetadata bool          // Skip the per-object head calls when listing blobs
}

// ListOption is a functional option for configuring listing
type ListOption func(*ListOptions)

// DefaultListOptions returns default listing options
func DefaultListOptions() ListOptions {
	return ListOptions{
		PageSize:     1000,
		MaxRetries:   5,
		RetryBackoff: 50 * time.Millisecond,
		MaxBackoff:   2 * time.Second,
	}
}

// NewListOptions applies opts over the defaults.
func NewListOptions(opts ...ListOption) ListOptions {
	o := DefaultListOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithPrefix restricts a listing to keys starting with prefix
func WithPrefix(prefix string) ListOption {
	return func(opts *ListOptions) {
		opts.Prefix = prefix
	}
}

// WithDelimiter sets the folder delimiter, usually "/"
func WithDelimiter(delimiter string) ListOption {
	return func(opts *ListOptions) {
		opts.Delimiter = delimiter
	}
}

// WithPageSize sets the provider page size
func WithPageSize(size int32) ListOption {
	return func(opts *ListOptions) {
		opts.PageSize = size
	}
}

// WithMaxRetries sets the maximum retry attempts
func WithMaxRetries(retries int) ListOption {
	return func(opts *ListOptions) {
		opts.MaxRetries = retries
	}
}

// WithRetryBackoff sets the initial and maximum retry backoff
func WithRetryBackoff(initial, max time.Duration) ListOption {
	return func(opts *ListOptions) {
		opts.RetryBackoff = initial
		opts.MaxBackoff = max
	}
}

// WithoutMetadata skips the per-object metadata calls
func WithoutMetadata() ListOption {
	return func(opts *ListOptions) {
		opts.SkipMetadata = true
	}
}
