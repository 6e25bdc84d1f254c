/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/suparena/cloudadapter/datastore"
	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

// Table is the record resource of one DynamoDB table.
// It is created per request and owns that request's transaction buffer.
type Table struct {
	svc    *Service
	client Client
	name   string
	desc   *storagemodels.TableDescriptor
	keys   []string
	logger *zap.Logger
	tx     *transaction
}

var _ datastore.Table = (*Table)(nil)

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Descriptor returns the table descriptor loaded with the table.
func (t *Table) Descriptor() *storagemodels.TableDescriptor {
	return t.desc
}

// Retrieve scans the table with the translated filter. Pages are read until
// the limit plus offset is satisfied or the table is exhausted.
func (t *Table) Retrieve(ctx context.Context, opts storagemodels.Options) ([]storagemodels.Record, error) {
	filter, err := TranslateFilter(opts.Filter, opts.Params, t.svc.serverFiltersFor(t.name, opts))
	if err != nil {
		return nil, err
	}

	want := 0
	if opts.Limit > 0 {
		want = opts.Limit + opts.Offset
	}

	seen := make(map[string]bool)
	var records []storagemodels.Record
	for _, conds := range filter.Alternatives() {
		input := &sdk.ScanInput{
			TableName:       aws.String(t.name),
			AttributesToGet: t.attributesToGet(opts),
		}
		if len(conds) > 0 {
			input.ScanFilter = conds
			if len(conds) > 1 {
				input.ConditionalOperator = types.ConditionalOperatorAnd
			}
		}
		if want > 0 {
			input.Limit = aws.Int32(int32(want))
		}

		for {
			out, err := t.client.Scan(ctx, input)
			if err != nil {
				return nil, translateError("scan", t.name, err)
			}
			for _, item := range out.Items {
				k := keyString(item, t.keys)
				if seen[k] {
					continue
				}
				seen[k] = true
				rec, err := DecodeRecord(item)
				if err != nil {
					return nil, err
				}
				records = append(records, t.shape(rec, opts))
			}
			if want > 0 && len(records) >= want {
				break
			}
			if len(out.LastEvaluatedKey) == 0 {
				break
			}
			input.ExclusiveStartKey = out.LastEvaluatedKey
		}
		if want > 0 && len(records) >= want {
			break
		}
	}

	t.logger.Debug("scan completed", zap.Int("count", len(records)), zap.Int("alternatives", len(filter.Alternatives())))
	return window(records, opts.Offset, opts.Limit), nil
}

// RetrieveByIDs reads records by key. One id is a GetItem; many ids go through a batch get.
func (t *Table) RetrieveByIDs(ctx context.Context, ids []any, opts storagemodels.Options) ([]storagemodels.Record, error) {
	if len(ids) == 0 {
		return nil, apperrors.NewBadRequestError("no record ids detected in request")
	}
	if len(ids) == 1 {
		rec, err := t.getItem(ctx, ids[0], opts)
		if err != nil {
			return nil, err
		}
		return []storagemodels.Record{rec}, nil
	}

	t.tx.begin(storagemodels.VerbGet, opts)
	defer t.tx.reset()
	for _, id := range ids {
		key, err := t.keyOf(id)
		if err != nil {
			return nil, err
		}
		t.tx.collectID(key)
	}
	return t.commit(ctx)
}

// Create inserts new records. Existing keys are rejected on the single-record path.
func (t *Table) Create(ctx context.Context, records []storagemodels.Record, opts storagemodels.Options) ([]storagemodels.Record, error) {
	return t.write(ctx, storagemodels.VerbPost, records, opts)
}

// Update replaces whole records.
func (t *Table) Update(ctx context.Context, records []storagemodels.Record, opts storagemodels.Options) ([]storagemodels.Record, error) {
	return t.write(ctx, storagemodels.VerbPut, records, opts)
}

// Patch merges fields into existing records, one UpdateItem per record.
func (t *Table) Patch(ctx context.Context, records []storagemodels.Record, opts storagemodels.Options) ([]storagemodels.Record, error) {
	return t.write(ctx, storagemodels.VerbPatch, records, opts)
}

// Delete removes records by id or by records carrying their keys.
func (t *Table) Delete(ctx context.Context, ids []any, opts storagemodels.Options) ([]storagemodels.Record, error) {
	records := make([]storagemodels.Record, 0, len(ids))
	for _, id := range ids {
		key, err := t.keyOf(id)
		if err != nil {
			return nil, err
		}
		rec, err := DecodeRecord(key)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return t.write(ctx, storagemodels.VerbDelete, records, opts)
}

// write runs a mutating request through the fast path, the batch path or the
// record-by-record transactional path.
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

	t.tx.begin(verb, opts)
	defer t.tx.reset()

	if !opts.Transactional() {
		if verb == storagemodels.VerbPatch {
			return t.applyEach(ctx, verb, records, opts)
		}
		for _, rec := range records {
			if err := t.collect(verb, rec); err != nil {
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

// applyEach applies records one by one and stops at the first failure.
func (t *Table) applyEach(ctx context.Context, verb storagemodels.Verb, records []storagemodels.Record, opts storagemodels.Options) ([]storagemodels.Record, error) {
	results := make([]storagemodels.Record, 0, len(records))
	for _, rec := range records {
		out, err := t.apply(ctx, verb, rec, opts)
		if err != nil {
			return nil, err
		}
		results = append(results, out)
	}
	return results, nil
}

// abort replays the rollback log after cause and returns cause.
func (t *Table) abort(ctx context.Context, cause error) error {
	t.logger.Warn("rolling back", zap.Int("entries", len(t.tx.rollbackLog)), zap.Error(cause))
	if err := t.rollback(ctx); err != nil {
		t.logger.Error("rollback failed", zap.Error(err))
		return fmt.Errorf("%w; rollback failed: %v", cause, err)
	}
	return cause
}

// apply performs one provider call for rec. With rollback enabled the
// pre-image is captured into the transaction's rollback log.
func (t *Table) apply(ctx context.Context, verb storagemodels.Verb, rec storagemodels.Record, opts storagemodels.Options) (storagemodels.Record, error) {
	switch verb {
	case storagemodels.VerbPost:
		return t.putItem(ctx, rec, opts, true)
	case storagemodels.VerbPut:
		return t.putItem(ctx, rec, opts, false)
	case storagemodels.VerbPatch:
		return t.updateItem(ctx, rec, opts)
	case storagemodels.VerbDelete:
		return t.deleteItem(ctx, rec, opts)
	default:
		return nil, apperrors.NewBadRequestError("verb %q is not supported for writes", verb)
	}
}

func (t *Table) putItem(ctx context.Context, rec storagemodels.Record, opts storagemodels.Options, create bool) (storagemodels.Record, error) {
	item, key, err := t.encodeItem(rec)
	if err != nil {
		return nil, err
	}

	input := &sdk.PutItemInput{
		TableName: aws.String(t.name),
		Item:      item,
	}
	op := "update item"
	if create {
		op = "create item"
		cond, err := expression.NewBuilder().
			WithCondition(expression.AttributeNotExists(expression.Name(t.keys[0]))).
			Build()
		if err != nil {
			return nil, apperrors.NewInternalError("build condition", t.name, err)
		}
		input.ConditionExpression = cond.Condition()
		input.ExpressionAttributeNames = cond.Names()
	} else if opts.Rollback {
		input.ReturnValues = types.ReturnValueAllOld
	}

	out, err := t.client.PutItem(ctx, input)
	if err != nil {
		if create && isConditionFailed(err) {
			return nil, apperrors.WrapBadRequest(fmt.Sprintf("record %s already exists in table %q", keyString(key, t.keys), t.name), err)
		}
		return nil, translateError(op, t.name, err)
	}

	if opts.Rollback {
		if create {
			t.tx.addRollback(key, nil)
		} else {
			t.tx.addRollback(key, out.Attributes)
		}
	}
	return t.shape(rec, opts), nil
}

func (t *Table) updateItem(ctx context.Context, rec storagemodels.Record, opts storagemodels.Options) (storagemodels.Record, error) {
	key, err := t.keyOf(rec)
	if err != nil {
		return nil, err
	}
	updates, err := EncodeUpdates(rec, t.keys)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, apperrors.NewBadRequestError("no fields to update for record %s", keyString(key, t.keys))
	}

	input := &sdk.UpdateItemInput{
		TableName:        aws.String(t.name),
		Key:              key,
		AttributeUpdates: updates,
		Expected: map[string]types.ExpectedAttributeValue{
			t.keys[0]: {Exists: aws.Bool(true), Value: key[t.keys[0]]},
		},
		ReturnValues: types.ReturnValueAllNew,
	}
	if opts.Rollback {
		input.ReturnValues = types.ReturnValueAllOld
	}

	out, err := t.client.UpdateItem(ctx, input)
	if err != nil {
		if isConditionFailed(err) {
			return nil, apperrors.WrapNotFound("record", keyString(key, t.keys), err)
		}
		return nil, translateError("patch item", t.name, err)
	}

	if opts.Rollback {
		t.tx.addRollback(key, out.Attributes)
		return t.shape(rec, opts), nil
	}
	merged, err := DecodeRecord(out.Attributes)
	if err != nil {
		return nil, err
	}
	return t.shape(merged, opts), nil
}

func (t *Table) deleteItem(ctx context.Context, rec storagemodels.Record, opts storagemodels.Options) (storagemodels.Record, error) {
	key, err := t.keyOf(rec)
	if err != nil {
		return nil, err
	}
	out, err := t.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName:    aws.String(t.name),
		Key:          key,
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, translateError("delete item", t.name, err)
	}
	if len(out.Attributes) == 0 {
		return nil, apperrors.NewNotFoundError("record", keyString(key, t.keys))
	}
	if opts.Rollback {
		t.tx.addRollback(key, out.Attributes)
	}

	old, err := DecodeRecord(out.Attributes)
	if err != nil {
		return nil, err
	}
	return t.shape(old, opts), nil
}

func (t *Table) getItem(ctx context.Context, id any, opts storagemodels.Options) (storagemodels.Record, error) {
	key, err := t.keyOf(id)
	if err != nil {
		return nil, err
	}
	input := &sdk.GetItemInput{
		TableName:      aws.String(t.name),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	}
	if names := t.projection(opts); len(names) > 0 {
		proj, attrNames, err := projectionExpression(names)
		if err != nil {
			return nil, apperrors.NewInternalError("build projection", t.name, err)
		}
		input.ProjectionExpression = proj
		input.ExpressionAttributeNames = attrNames
	}

	out, err := t.client.GetItem(ctx, input)
	if err != nil {
		return nil, translateError("get item", t.name, err)
	}
	if len(out.Item) == 0 {
		return nil, apperrors.NewNotFoundError("record", keyString(key, t.keys))
	}
	rec, err := DecodeRecord(out.Item)
	if err != nil {
		return nil, err
	}
	return t.shape(rec, opts), nil
}

// encodeItem encodes rec with its key attributes coerced to their declared types.
func (t *Table) encodeItem(rec storagemodels.Record) (item, key map[string]types.AttributeValue, err error) {
	if key, err = t.keyOf(rec); err != nil {
		return nil, nil, err
	}
	if item, err = EncodeRecord(rec); err != nil {
		return nil, nil, err
	}
	for k, av := range key {
		item[k] = av
	}
	return item, key, nil
}

// keyOf builds the primary key of id, which is either a record or a scalar
// hash key value.
func (t *Table) keyOf(id any) (map[string]types.AttributeValue, error) {
	rec, ok := id.(storagemodels.Record)
	if !ok {
		if len(t.keys) > 1 {
			return nil, apperrors.NewBadRequestError("table %q has a composite key; ids must be records carrying %s", t.name, strings.Join(t.keys, ", "))
		}
		rec = storagemodels.Record{t.keys[0]: id}
	}

	key := make(map[string]types.AttributeValue, len(t.keys))
	for _, k := range t.keys {
		v, ok := rec[k]
		if !ok || v == nil {
			return nil, apperrors.NewBadRequestError("required key field %q is missing from record", k)
		}
		v, err := t.keyValue(k, v)
		if err != nil {
			return nil, err
		}
		av, err := EncodeValue(v)
		if err != nil {
			return nil, apperrors.WrapBadRequest(fmt.Sprintf("key field %q can not be encoded", k), err)
		}
		key[k] = av
	}
	return key, nil
}

// keyValue coerces v to the declared type of key attribute name. Ids taken
// from a path or query string arrive as strings whatever the key type is.
func (t *Table) keyValue(name string, v any) (any, error) {
	var want storagemodels.ScalarType
	if t.desc != nil {
		want = t.desc.AttributeDefinitions[name]
	}
	str, isString := v.(string)
	switch want {
	case storagemodels.ScalarNumber:
		if !isString {
			return v, nil
		}
		n, err := decodeNumber(strings.TrimSpace(str))
		if err != nil {
			return nil, apperrors.NewBadRequestError("key field %q must be a number, got %q", name, str)
		}
		return n, nil
	case storagemodels.ScalarBinary:
		if !isString {
			return v, nil
		}
		b, err := base64.StdEncoding.DecodeString(str)
		if err != nil {
			return nil, apperrors.NewBadRequestError("key field %q must be base64 encoded binary", name)
		}
		return b, nil
	case storagemodels.ScalarString:
		switch v.(type) {
		case string:
			return v, nil
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool:
			return fmt.Sprint(v), nil
		}
	}
	return v, nil
}

// projection lists the attributes to read; nil means all of them.
func (t *Table) projection(opts storagemodels.Options) []string {
	if opts.AllFields() {
		return nil
	}
	names := append([]string(nil), t.keys...)
	for _, f := range opts.Fields {
		if !contains(names, f) {
			names = append(names, f)
		}
	}
	return names
}

func (t *Table) attributesToGet(opts storagemodels.Options) []string {
	return t.projection(opts)
}

// shape trims rec to the requested fields. The key fields are always kept.
func (t *Table) shape(rec storagemodels.Record, opts storagemodels.Options) storagemodels.Record {
	if opts.AllFields() {
		return rec
	}
	out := make(storagemodels.Record, len(t.keys)+len(opts.Fields))
	for _, k := range t.keys {
		if v, ok := rec[k]; ok {
			out[k] = v
		}
	}
	for _, f := range opts.Fields {
		if v, ok := rec[f]; ok {
			out[f] = v
		}
	}
	return out
}

func projectionExpression(names []string) (*string, map[string]string, error) {
	list := make([]expression.NameBuilder, 0, len(names))
	for _, n := range names {
		list = append(list, expression.Name(n))
	}
	proj := expression.NamesList(list[0], list[1:]...)
	expr, err := expression.NewBuilder().WithProjection(proj).Build()
	if err != nil {
		return nil, nil, err
	}
	return expr.Projection(), expr.Names(), nil
}

// keyString renders a key deterministically for de-duplication and messages.
func keyString(item map[string]types.AttributeValue, keys []string) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+scalarString(item[k]))
	}
	return strings.Join(parts, ",")
}

func scalarString(av types.AttributeValue) string {
	switch tv := av.(type) {
	case *types.AttributeValueMemberS:
		return tv.Value
	case *types.AttributeValueMemberN:
		return tv.Value
	case *types.AttributeValueMemberB:
		return fmt.Sprintf("%x", tv.Value)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", tv)
	}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
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

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
