/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

const (
	maxBatchWrite = 25
	maxBatchGet   = 100
)

type txState int

const (
	txIdle txState = iota
	txCollecting
	txCommitting
	txRollingBack
)

func (s txState) String() string {
	switch s {
	case txCollecting:
		return "collecting"
	case txCommitting:
		return "committing"
	case txRollingBack:
		return "rolling back"
	default:
		return "idle"
	}
}

type rollbackEntry struct {
	key map[string]types.AttributeValue
	// old is nil when the record did not exist before the request.
	old map[string]types.AttributeValue
}

// transaction buffers one request's records. It moves from idle to
// collecting on begin, to committing on commit and to rolling back when a
// transactional request fails. reset returns it to idle.
type transaction struct {
	state       txState
	verb        storagemodels.Verb
	opts        storagemodels.Options
	records     []storagemodels.Record
	ids         []map[string]types.AttributeValue
	rollbackLog []rollbackEntry
}

func (tx *transaction) begin(verb storagemodels.Verb, opts storagemodels.Options) {
	tx.reset()
	tx.state = txCollecting
	tx.verb = verb
	tx.opts = opts
}

func (tx *transaction) collectRecord(rec storagemodels.Record) {
	tx.records = append(tx.records, rec)
}

func (tx *transaction) collectID(key map[string]types.AttributeValue) {
	tx.ids = append(tx.ids, key)
}

func (tx *transaction) addRollback(key, old map[string]types.AttributeValue) {
	tx.rollbackLog = append(tx.rollbackLog, rollbackEntry{key: key, old: old})
}

func (tx *transaction) reset() {
	tx.state = txIdle
	tx.verb = ""
	tx.opts = storagemodels.Options{}
	tx.records = nil
	tx.ids = nil
	tx.rollbackLog = nil
}

// collect stages rec for the batch commit. Deletes and reads stage keys only.
func (t *Table) collect(verb storagemodels.Verb, rec storagemodels.Record) error {
	if t.tx.state != txCollecting {
		return apperrors.NewInternalError("collect record", t.name, fmt.Errorf("transaction is %s", t.tx.state))
	}
	key, err := t.keyOf(rec)
	if err != nil {
		return err
	}
	switch verb {
	case storagemodels.VerbDelete, storagemodels.VerbGet:
		t.tx.collectID(key)
	default:
		t.tx.collectRecord(rec)
	}
	return nil
}

// commit flushes the buffered records with batch calls.
func (t *Table) commit(ctx context.Context) ([]storagemodels.Record, error) {
	tx := t.tx
	if tx.state != txCollecting {
		return nil, apperrors.NewInternalError("commit", t.name, fmt.Errorf("transaction is %s", tx.state))
	}
	tx.state = txCommitting
	t.logger.Debug("committing batch",
		zap.String("verb", string(tx.verb)),
		zap.Int("records", len(tx.records)),
		zap.Int("ids", len(tx.ids)))

	switch tx.verb {
	case storagemodels.VerbGet:
		return t.batchGet(ctx, tx.ids, tx.opts)

	case storagemodels.VerbPost, storagemodels.VerbPut:
		requests := make([]types.WriteRequest, 0, len(tx.records))
		for _, rec := range tx.records {
			item, _, err := t.encodeItem(rec)
			if err != nil {
				return nil, err
			}
			requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
		}
		if err := t.writeBatch(ctx, requests); err != nil {
			return nil, err
		}
		out := make([]storagemodels.Record, 0, len(tx.records))
		for _, rec := range tx.records {
			out = append(out, t.shape(rec, tx.opts))
		}
		return out, nil

	case storagemodels.VerbDelete:
		old, err := t.batchGet(ctx, tx.ids, storagemodels.Options{})
		if err != nil {
			return nil, err
		}
		requests := make([]types.WriteRequest, 0, len(tx.ids))
		for _, key := range tx.ids {
			requests = append(requests, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: key}})
		}
		if err := t.writeBatch(ctx, requests); err != nil {
			return nil, err
		}
		out := make([]storagemodels.Record, 0, len(old))
		for _, rec := range old {
			out = append(out, t.shape(rec, tx.opts))
		}
		return out, nil
	}

	return nil, apperrors.NewBadRequestError("verb %q can not be batched", tx.verb)
}

// rollback restores the pre-image of every record touched by the request.
// Records that did not exist before are deleted. The first pre-image per key wins.
func (t *Table) rollback(ctx context.Context) error {
	tx := t.tx
	tx.state = txRollingBack
	if len(tx.rollbackLog) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(tx.rollbackLog))
	requests := make([]types.WriteRequest, 0, len(tx.rollbackLog))
	for _, entry := range tx.rollbackLog {
		k := keyString(entry.key, t.keys)
		if seen[k] {
			continue
		}
		seen[k] = true
		if len(entry.old) == 0 {
			requests = append(requests, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: entry.key}})
		} else {
			requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: entry.old}})
		}
	}
	return t.writeBatch(ctx, requests)
}

// writeBatch sends requests in chunks and retries unprocessed items with
// exponential backoff.
func (t *Table) writeBatch(ctx context.Context, requests []types.WriteRequest) error {
	for start := 0; start < len(requests); start += maxBatchWrite {
		end := min(start+maxBatchWrite, len(requests))
		pending := requests[start:end]

		err := backoff.Retry(func() error {
			out, err := t.client.BatchWriteItem(ctx, &sdk.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{t.name: pending},
			})
			if err != nil {
				if isRetryableError(err) {
					return err
				}
				return backoff.Permanent(translateError("batch write", t.name, err))
			}
			pending = out.UnprocessedItems[t.name]
			if len(pending) > 0 {
				t.logger.Debug("retrying unprocessed writes", zap.Int("count", len(pending)))
				return fmt.Errorf("%d items left unprocessed", len(pending))
			}
			return nil
		}, t.retryPolicy(ctx))
		if err != nil {
			if apperrors.IsDomainError(err) {
				return err
			}
			if len(pending) > 0 {
				return apperrors.NewInternalError("batch write", t.name,
					fmt.Errorf("%d items left unprocessed after %d retries", len(pending), t.svc.retry.MaxRetries))
			}
			return translateError("batch write", t.name, err)
		}
	}
	return nil
}

// batchGet reads keys in chunks and returns the records in key order.
// A key with no record is NotFound.
func (t *Table) batchGet(ctx context.Context, keys []map[string]types.AttributeValue, opts storagemodels.Options) ([]storagemodels.Record, error) {
	found := make(map[string]map[string]types.AttributeValue, len(keys))
	for start := 0; start < len(keys); start += maxBatchGet {
		end := min(start+maxBatchGet, len(keys))
		pending := keys[start:end]

		err := backoff.Retry(func() error {
			ka := types.KeysAndAttributes{Keys: pending, ConsistentRead: aws.Bool(true)}
			if names := t.projection(opts); len(names) > 0 {
				proj, attrNames, err := projectionExpression(names)
				if err != nil {
					return backoff.Permanent(apperrors.NewInternalError("build projection", t.name, err))
				}
				ka.ProjectionExpression = proj
				ka.ExpressionAttributeNames = attrNames
			}
			out, err := t.client.BatchGetItem(ctx, &sdk.BatchGetItemInput{
				RequestItems: map[string]types.KeysAndAttributes{t.name: ka},
			})
			if err != nil {
				if isRetryableError(err) {
					return err
				}
				return backoff.Permanent(translateError("batch get", t.name, err))
			}
			for _, item := range out.Responses[t.name] {
				found[keyString(item, t.keys)] = item
			}
			pending = out.UnprocessedKeys[t.name].Keys
			if len(pending) > 0 {
				t.logger.Debug("retrying unprocessed reads", zap.Int("count", len(pending)))
				return fmt.Errorf("%d keys left unprocessed", len(pending))
			}
			return nil
		}, t.retryPolicy(ctx))
		if err != nil {
			if apperrors.IsDomainError(err) {
				return nil, err
			}
			if len(pending) > 0 {
				return nil, apperrors.NewInternalError("batch get", t.name,
					fmt.Errorf("%d keys left unprocessed after %d retries", len(pending), t.svc.retry.MaxRetries))
			}
			return nil, translateError("batch get", t.name, err)
		}
	}

	records := make([]storagemodels.Record, 0, len(keys))
	for _, key := range keys {
		k := keyString(key, t.keys)
		item, ok := found[k]
		if !ok {
			return nil, apperrors.NewNotFoundError("record", k)
		}
		rec, err := DecodeRecord(item)
		if err != nil {
			return nil, err
		}
		records = append(records, t.shape(rec, opts))
	}
	return records, nil
}

func (t *Table) retryPolicy(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = t.svc.retry.RetryBackoff
	eb.MaxInterval = t.svc.retry.MaxBackoff
	eb.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(t.svc.retry.MaxRetries)), ctx)
}
