/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/cloudadapter/storagemodels"
)

// Table is the record capability of one table or domain.
// Every method accepts one or many records; a single record without
// continue/rollback is applied immediately, many records go through a batch.
type Table interface {
	Name() string

	Retrieve(ctx context.Context, opts storagemodels.Options) ([]storagemodels.Record, error)

	// RetrieveByIDs accepts scalar ids or records carrying the key fields.
	RetrieveByIDs(ctx context.Context, ids []any, opts storagemodels.Options) ([]storagemodels.Record, error)

	Create(ctx context.Context, records []storagemodels.Record, opts storagemodels.Options) ([]storagemodels.Record, error)

	Update(ctx context.Context, records []storagemodels.Record, opts storagemodels.Options) ([]storagemodels.Record, error)

	Patch(ctx context.Context, records []storagemodels.Record, opts storagemodels.Options) ([]storagemodels.Record, error)

	Delete(ctx context.Context, ids []any, opts storagemodels.Options) ([]storagemodels.Record, error)
}

// Schema is the table lifecycle capability.
type Schema interface {
	List(ctx context.Context) ([]string, error)

	Describe(ctx context.Context, name string) (*storagemodels.TableDescriptor, error)

	// Create returns only once the table is ready.
	Create(ctx context.Context, spec storagemodels.TableSpec) (*storagemodels.TableDescriptor, error)

	Update(ctx context.Context, name string, changes storagemodels.Record) (*storagemodels.TableDescriptor, error)

	// Delete returns only once the table is gone.
	Delete(ctx context.Context, name string) (*storagemodels.TableDescriptor, error)
}

// Service is a database service instance owning one provider client.
type Service interface {
	// Table resolves name against the cached table names.
	Table(ctx context.Context, name string) (Table, error)

	Schema() Schema

	// RefreshNames reloads the cached table names.
	RefreshNames(ctx context.Context) error

	// Close drops the provider client.
	Close()
}
