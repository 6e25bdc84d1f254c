/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sdb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/simpledb"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suparena/cloudadapter/datastore"
	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

// maxSelectLimit is the largest limit a select expression accepts.
const maxSelectLimit = 2500

// Table is the record resource of one SimpleDB domain. The item name is
// exposed as the id field.
type Table struct {
	svc    *Service
	client Client
	name   string
	logger *zap.Logger
	tx     *transaction
}

var _ datastore.Table = (*Table)(nil)

// Name returns the domain name.
func (t *Table) Name() string {
	return t.name
}

// Retrieve runs a select with the translated filter, following NextToken
// until the limit plus offset is satisfied.
func (t *Table) Retrieve(ctx context.Context, opts storagemodels.Options) ([]storagemodels.Record, error) {
	pred, err := TranslateFilter(opts.Filter, opts.Params, t.svc.serverFiltersFor(t.name, opts))
	if err != nil {
		return nil, err
	}

	want := 0
	if opts.Limit > 0 {
		want = opts.Limit + opts.Offset
	}
	expr := t.selectExpression(opts, pred, want)
	t.logger.Debug("select", zap.String("expression", expr))

	input := &simpledb.SelectInput{SelectExpression: aws.String(expr), ConsistentRead: aws.Bool(true)}
	var records []storagemodels.Record
	for {
		out, err := t.client.SelectWithContext(ctx, input)
		if err != nil {
			return nil, translateError("select", t.name, err)
		}
		for _, item := range out.Items {
			rec, err := t.itemRecord(item, opts)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
		if want > 0 && len(records) >= want {
			break
		}
		if aws.StringValue(out.NextToken) == "" {
			break
		}
		input.NextToken = out.NextToken
	}
	return window(records, opts.Offset, opts.Limit), nil
}

// RetrieveByIDs reads items by name.
func (t *Table) RetrieveByIDs(ctx context.Context, ids []any, opts storagemodels.Options) ([]storagemodels.Record, error) {
	if len(ids) == 0 {
		return nil, apperrors.NewBadRequestError("no record ids detected in request")
	}
	if len(ids) == 1 {
		id, err := t.idOf(ids[0], opts)
		if err != nil {
			return nil, err
		}
		rec, err := t.get(ctx, id, opts)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, apperrors.NewNotFoundError("record", id)
		}
		return []storagemodels.Record{t.shape(rec, opts)}, nil
	}

	t.tx.begin(storagemodels.VerbGet, opts)
	defer t.tx.reset()
	for _, raw := range ids {
		id, err := t.idOf(raw, opts)
		if err != nil {
			return nil, err
		}
		t.tx.collectID(id)
	}
	return t.commit(ctx)
}

// Create inserts records. A record without an id gets a generated one.
func (t *Table) Create(ctx context.Context, records []storagemodels.Record, opts storagemodels.Options) ([]storagemodels.Record, error) {
	idField := t.idField(opts)
	prepared := make([]storagemodels.Record, 0, len(records))
	for _, rec := range records {
		if v, ok := rec[idField]; !ok || v == nil || v == "" {
			rec = copyRecord(rec)
			rec[idField] = uuid.NewString()
		}
		prepared = append(prepared, rec)
	}
	return t.write(ctx, storagemodels.VerbPost, prepared, opts)
}

// Update replaces whole items. Attributes missing from the record are removed.
func (t *Table) Update(ctx context.Context, records []storagemodels.Record, opts storagemodels.Options) ([]storagemodels.Record, error) {
	return t.write(ctx, storagemodels.VerbPut, records, opts)
}

// Patch merges fields into existing items. A nil field removes the attribute.
func (t *Table) Patch(ctx context.Context, records []storagemodels.Record, opts storagemodels.Options) ([]storagemodels.Record, error) {
	return t.write(ctx, storagemodels.VerbPatch, records, opts)
}

// Delete removes whole items.
func (t *Table) Delete(ctx context.Context, ids []any, opts storagemodels.Options) ([]storagemodels.Record, error) {
	idField := t.idField(opts)
	records := make([]storagemodels.Record, 0, len(ids))
	for _, raw := range ids {
		id, err := t.idOf(raw, opts)
		if err != nil {
			return nil, err
		}
		records = append(records, storagemodels.Record{idField: id})
	}
	return t.write(ctx, storagemodels.VerbDelete, records, opts)
}

func (t *Table) write(ctx context.Context, verb storagemodels.Verb, records []storagemodels.Record, opts storagemodels.Options) ([]storagemodels.Record, error) {
	if len(records) == 0 {
		return nil, apperrors.NewBadRequestError("no record(s) detected in request")
	}

	if len(records) == 1 && !opts.Transactional() {
		out, err := t.apply(ctx, verb, records[0], opts)
		if err != nil {
			return nil, err
		}
		return []storagemodels.Record{out}, nil
	}

	if verb == storagemodels.VerbPatch && !opts.Transactional() {
		return nil, apperrors.NewBadRequestError("batch PATCH is not supported on domain %q; use continue or rollback to patch record by record", t.name)
	}

	t.tx.begin(verb, opts)
	defer t.tx.reset()

	if !opts.Transactional() {
		for _, rec := range records {
			if err := t.collect(verb, rec, opts); err != nil {
				return nil, err
			}
		}
		return t.commit(ctx)
	}

	results := make([]storagemodels.Record, len(records))
	failed := make(map[int]error)
	for i, rec := range records {
		out, err := t.apply(ctx, verb, rec, opts)
		if err != nil {
			if opts.Rollback {
				return nil, t.abort(ctx, err)
			}
			t.logger.Warn("record failed, continuing", zap.Int("index", i), zap.Error(err))
			failed[i] = err
			continue
		}
		results[i] = out
	}
	if len(failed) > 0 {
		return results, &apperrors.BatchError{Results: results, Failed: failed}
	}
	return results, nil
}

func (t *Table) abort(ctx context.Context, cause error) error {
	t.logger.Warn("rolling back", zap.Int("entries", len(t.tx.rollbackLog)), zap.Error(cause))
	if err := t.rollback(ctx); err != nil {
		t.logger.Error("rollback failed", zap.Error(err))
		return fmt.Errorf("%w; rollback failed: %v", cause, err)
	}
	return cause
}

// apply performs one record's provider calls. The pre-image read before the
// write feeds the rollback log when rollback is enabled.
func (t *Table) apply(ctx context.Context, verb storagemodels.Verb, rec storagemodels.Record, opts storagemodels.Options) (storagemodels.Record, error) {
	id, err := t.idOf(rec, opts)
	if err != nil {
		return nil, err
	}
	pre, err := t.get(ctx, id, opts)
	if err != nil {
		return nil, err
	}

	switch verb {
	case storagemodels.VerbPost:
		if pre != nil {
			return nil, apperrors.NewBadRequestError("record %q already exists in domain %q", id, t.name)
		}
		if err := t.put(ctx, id, rec, opts); err != nil {
			return nil, err
		}
		t.logRollback(opts, id, nil)
		return t.shape(rec, opts), nil

	case storagemodels.VerbPut:
		if err := t.put(ctx, id, rec, opts); err != nil {
			return nil, err
		}
		var stale []string
		for name := range pre {
			if v, ok := rec[name]; name != t.idField(opts) && (!ok || v == nil) {
				stale = append(stale, name)
			}
		}
		if err := t.deleteAttributes(ctx, id, stale); err != nil {
			return nil, err
		}
		t.logRollback(opts, id, pre)
		return t.shape(rec, opts), nil

	case storagemodels.VerbPatch:
		if pre == nil {
			return nil, apperrors.NewNotFoundError("record", id)
		}
		attrs, nulls, err := encodeAttributes(rec, t.idField(opts))
		if err != nil {
			return nil, err
		}
		if len(attrs) == 0 && len(nulls) == 0 {
			return nil, apperrors.NewBadRequestError("no fields to update for record %q", id)
		}
		if len(attrs) > 0 {
			if _, err := t.client.PutAttributesWithContext(ctx, &simpledb.PutAttributesInput{
				DomainName: aws.String(t.name),
				ItemName:   aws.String(id),
				Attributes: attrs,
			}); err != nil {
				return nil, translateError("patch item", t.name, err)
			}
		}
		if err := t.deleteAttributes(ctx, id, nulls); err != nil {
			return nil, err
		}
		t.logRollback(opts, id, pre)

		merged := copyRecord(pre)
		for k, v := range rec {
			if v == nil {
				delete(merged, k)
			} else {
				merged[k] = v
			}
		}
		return t.shape(merged, opts), nil

	case storagemodels.VerbDelete:
		if pre == nil {
			return nil, apperrors.NewNotFoundError("record", id)
		}
		if _, err := t.client.DeleteAttributesWithContext(ctx, &simpledb.DeleteAttributesInput{
			DomainName: aws.String(t.name),
			ItemName:   aws.String(id),
		}); err != nil {
			return nil, translateError("delete item", t.name, err)
		}
		t.logRollback(opts, id, pre)
		return t.shape(pre, opts), nil
	}
	return nil, apperrors.NewBadRequestError("verb %q is not supported for writes", verb)
}

func (t *Table) logRollback(opts storagemodels.Options, id string, pre storagemodels.Record) {
	if opts.Rollback {
		t.tx.addRollback(id, pre)
	}
}

func (t *Table) put(ctx context.Context, id string, rec storagemodels.Record, opts storagemodels.Options) error {
	attrs, _, err := encodeAttributes(rec, t.idField(opts))
	if err != nil {
		return err
	}
	if len(attrs) == 0 {
		return apperrors.NewBadRequestError("record %q needs at least one field besides %q", id, t.idField(opts))
	}
	if _, err := t.client.PutAttributesWithContext(ctx, &simpledb.PutAttributesInput{
		DomainName: aws.String(t.name),
		ItemName:   aws.String(id),
		Attributes: attrs,
	}); err != nil {
		return translateError("put item", t.name, err)
	}
	return nil
}

func (t *Table) deleteAttributes(ctx context.Context, id string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	attrs := make([]*simpledb.DeletableAttribute, 0, len(names))
	for _, n := range names {
		attrs = append(attrs, &simpledb.DeletableAttribute{Name: aws.String(n)})
	}
	if _, err := t.client.DeleteAttributesWithContext(ctx, &simpledb.DeleteAttributesInput{
		DomainName: aws.String(t.name),
		ItemName:   aws.String(id),
		Attributes: attrs,
	}); err != nil {
		return translateError("delete attributes", t.name, err)
	}
	return nil
}

// get reads every attribute of one item; a missing item is a nil record.
func (t *Table) get(ctx context.Context, id string, opts storagemodels.Options) (storagemodels.Record, error) {
	out, err := t.client.GetAttributesWithContext(ctx, &simpledb.GetAttributesInput{
		DomainName:     aws.String(t.name),
		ItemName:       aws.String(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, translateError("get item", t.name, err)
	}
	if len(out.Attributes) == 0 {
		return nil, nil
	}
	rec, err := DecodeAttributes(out.Attributes)
	if err != nil {
		return nil, err
	}
	rec[t.idField(opts)] = id
	return rec, nil
}

func (t *Table) selectExpression(opts storagemodels.Options, pred string, limit int) string {
	var b strings.Builder
	b.WriteString("select ")
	b.WriteString(t.output(opts))
	b.WriteString(" from ")
	b.WriteString(quoteName(t.name))
	if pred != "" {
		b.WriteString(" where ")
		b.WriteString(pred)
	}
	if limit > 0 {
		b.WriteString(fmt.Sprintf(" limit %d", min(limit, maxSelectLimit)))
	}
	return b.String()
}

// output is the select list for opts: every attribute, the item name only,
// or the requested attributes.
func (t *Table) output(opts storagemodels.Options) string {
	if opts.AllFields() {
		return "*"
	}
	var names []string
	for _, f := range opts.Fields {
		if f != t.idField(opts) {
			names = append(names, quoteName(f))
		}
	}
	if len(names) == 0 {
		return "itemName()"
	}
	return strings.Join(names, ", ")
}

func (t *Table) itemRecord(item *simpledb.Item, opts storagemodels.Options) (storagemodels.Record, error) {
	rec, err := DecodeAttributes(item.Attributes)
	if err != nil {
		return nil, err
	}
	rec[t.idField(opts)] = aws.StringValue(item.Name)
	return t.shape(rec, opts), nil
}

func (t *Table) idField(opts storagemodels.Options) string {
	if opts.IDField != "" {
		return opts.IDField
	}
	return t.svc.idField
}

// idOf extracts the item name from a record or a scalar id.
func (t *Table) idOf(id any, opts storagemodels.Options) (string, error) {
	if rec, ok := id.(storagemodels.Record); ok {
		id = rec[t.idField(opts)]
	}
	switch v := id.(type) {
	case nil:
		return "", apperrors.NewBadRequestError("required id field %q is missing from record", t.idField(opts))
	case string:
		if v == "" {
			return "", apperrors.NewBadRequestError("required id field %q is empty", t.idField(opts))
		}
		return v, nil
	default:
		return fmt.Sprint(v), nil
	}
}

// shape trims rec to the requested fields. The id field is always kept.
func (t *Table) shape(rec storagemodels.Record, opts storagemodels.Options) storagemodels.Record {
	if opts.AllFields() {
		return rec
	}
	idField := t.idField(opts)
	out := storagemodels.Record{idField: rec[idField]}
	for _, f := range opts.Fields {
		if v, ok := rec[f]; ok {
			out[f] = v
		}
	}
	return out
}

func window(records []storagemodels.Record, offset, limit int) []storagemodels.Record {
	if offset > 0 {
		if offset >= len(records) {
			return []storagemodels.Record{}
		}
		records = records[offset:]
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	if records == nil {
		return []storagemodels.Record{}
	}
	return records
}

func copyRecord(rec storagemodels.Record) storagemodels.Record {
	out := make(storagemodels.Record, len(rec)+1)
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func sortedFields(rec storagemodels.Record) []string {
	names := make([]string, 0, len(rec))
	for k := range rec {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
