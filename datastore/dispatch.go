/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

// RecordRequest is one record-level request against a table.
type RecordRequest struct {
	Verb    storagemodels.Verb
	IDs     []any
	Records []storagemodels.Record
	Options storagemodels.Options
}

// Handler serves one verb.
type Handler func(ctx context.Context, t Table, req RecordRequest) ([]storagemodels.Record, error)

var handlers = map[storagemodels.Verb]Handler{
	storagemodels.VerbGet:    handleGet,
	storagemodels.VerbPost:   handlePost,
	storagemodels.VerbPut:    handlePut,
	storagemodels.VerbPatch:  handlePatch,
	storagemodels.VerbMerge:  handlePatch,
	storagemodels.VerbDelete: handleDelete,
}

// Dispatch routes req to the handler registered for its verb.
func Dispatch(ctx context.Context, t Table, req RecordRequest) ([]storagemodels.Record, error) {
	h, ok := handlers[req.Verb]
	if !ok {
		return nil, apperrors.NewBadRequestError("verb %q is not supported on table %q", req.Verb, t.Name())
	}
	return h(ctx, t, req)
}

func handleGet(ctx context.Context, t Table, req RecordRequest) ([]storagemodels.Record, error) {
	if ids := req.ids(); len(ids) > 0 {
		return t.RetrieveByIDs(ctx, ids, req.Options)
	}
	return t.Retrieve(ctx, req.Options)
}

func handlePost(ctx context.Context, t Table, req RecordRequest) ([]storagemodels.Record, error) {
	if len(req.Records) == 0 {
		return nil, apperrors.NewBadRequestError("no record(s) detected in request")
	}
	return t.Create(ctx, req.Records, req.Options)
}

func handlePut(ctx context.Context, t Table, req RecordRequest) ([]storagemodels.Record, error) {
	if len(req.Records) == 0 {
		return nil, apperrors.NewBadRequestError("no record(s) detected in request")
	}
	return t.Update(ctx, req.Records, req.Options)
}

func handlePatch(ctx context.Context, t Table, req RecordRequest) ([]storagemodels.Record, error) {
	if len(req.Records) == 0 {
		return nil, apperrors.NewBadRequestError("no record(s) detected in request")
	}
	return t.Patch(ctx, req.Records, req.Options)
}

// handleDelete deletes by ids, by records carrying their keys, or by filter.
func handleDelete(ctx context.Context, t Table, req RecordRequest) ([]storagemodels.Record, error) {
	ids := req.ids()
	if len(ids) == 0 && req.Options.Filter != nil {
		matchOpts := req.Options
		matchOpts.Fields = nil
		matched, err := t.Retrieve(ctx, matchOpts)
		if err != nil {
			return nil, err
		}
		if len(matched) == 0 {
			return []storagemodels.Record{}, nil
		}
		for _, m := range matched {
			ids = append(ids, m)
		}
	}
	if len(ids) == 0 {
		return nil, apperrors.NewBadRequestError("no record(s) or filter detected in request")
	}
	return t.Delete(ctx, ids, req.Options)
}

func (r RecordRequest) ids() []any {
	if len(r.IDs) > 0 {
		return r.IDs
	}
	if len(r.Records) == 0 {
		return nil
	}
	ids := make([]any, 0, len(r.Records))
	for _, rec := range r.Records {
		ids = append(ids, rec)
	}
	return ids
}
