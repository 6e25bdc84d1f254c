/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/simpledb"
	"go.uber.org/zap"

	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

const (
	maxBatchItems = 25
	// an itemName() IN predicate takes at most 20 values
	maxInValues = 20
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
	id string
	// pre is nil when the item did not exist before the request.
	pre storagemodels.Record
}

// transaction buffers one request's records. begin moves it from idle to
// collecting, commit to committing and a failed rollback request to rolling
// back; reset returns it to idle.
type transaction struct {
	state       txState
	verb        storagemodels.Verb
	opts        storagemodels.Options
	records     []storagemodels.Record
	ids         []string
	rollbackLog []rollbackEntry
}

func (tx *transaction) begin(verb storagemodels.Verb, opts storagemodels.Options) {
	tx.reset()
	tx.state = txCollecting
	tx.verb = verb
	tx.opts = opts
}

func (tx *transaction) collectID(id string) {
	tx.ids = append(tx.ids, id)
}

func (tx *transaction) addRollback(id string, pre storagemodels.Record) {
	tx.rollbackLog = append(tx.rollbackLog, rollbackEntry{id: id, pre: pre})
}

func (tx *transaction) reset() {
	*tx = transaction{}
}

func (t *Table) collect(verb storagemodels.Verb, rec storagemodels.Record, opts storagemodels.Options) error {
	if t.tx.state != txCollecting {
		return apperrors.NewInternalError("collect record", t.name, fmt.Errorf("transaction is %s", t.tx.state))
	}
	id, err := t.idOf(rec, opts)
	if err != nil {
		return err
	}
	switch verb {
	case storagemodels.VerbDelete, storagemodels.VerbGet:
		t.tx.collectID(id)
	default:
		t.tx.records = append(t.tx.records, rec)
	}
	return nil
}

// commit flushes the buffer with BatchPutAttributes, BatchDeleteAttributes or
// an itemName() select.
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
		return t.selectByNames(ctx, tx.ids, tx.opts)

	case storagemodels.VerbPost, storagemodels.VerbPut:
		items := make([]*simpledb.ReplaceableItem, 0, len(tx.records))
		out := make([]storagemodels.Record, 0, len(tx.records))
		for _, rec := range tx.records {
			item, err := t.replaceableItem(rec, tx.opts)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
			out = append(out, t.shape(rec, tx.opts))
		}
		if err := t.batchPut(ctx, items); err != nil {
			return nil, err
		}
		return out, nil

	case storagemodels.VerbDelete:
		old, err := t.selectByNames(ctx, tx.ids, tx.opts)
		if err != nil {
			return nil, err
		}
		if err := t.batchDelete(ctx, tx.ids); err != nil {
			return nil, err
		}
		return old, nil
	}
	return nil, apperrors.NewBadRequestError("verb %q can not be batched", tx.verb)
}

// rollback deletes every touched item and puts back the first pre-image
// recorded for it.
func (t *Table) rollback(ctx context.Context) error {
	tx := t.tx
	tx.state = txRollingBack
	if len(tx.rollbackLog) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(tx.rollbackLog))
	var ids []string
	var restore []*simpledb.ReplaceableItem
	for _, entry := range tx.rollbackLog {
		if seen[entry.id] {
			continue
		}
		seen[entry.id] = true
		ids = append(ids, entry.id)
		if entry.pre != nil {
			item, err := t.replaceableItem(entry.pre, tx.opts)
			if err != nil {
				return err
			}
			restore = append(restore, item)
		}
	}

	if err := t.batchDelete(ctx, ids); err != nil {
		return err
	}
	return t.batchPut(ctx, restore)
}

func (t *Table) replaceableItem(rec storagemodels.Record, opts storagemodels.Options) (*simpledb.ReplaceableItem, error) {
	id, err := t.idOf(rec, opts)
	if err != nil {
		return nil, err
	}
	attrs, _, err := encodeAttributes(rec, t.idField(opts))
	if err != nil {
		return nil, err
	}
	if len(attrs) == 0 {
		return nil, apperrors.NewBadRequestError("record %q needs at least one field besides %q", id, t.idField(opts))
	}
	return &simpledb.ReplaceableItem{Name: aws.String(id), Attributes: attrs}, nil
}

func (t *Table) batchPut(ctx context.Context, items []*simpledb.ReplaceableItem) error {
	for start := 0; start < len(items); start += maxBatchItems {
		end := min(start+maxBatchItems, len(items))
		if _, err := t.client.BatchPutAttributesWithContext(ctx, &simpledb.BatchPutAttributesInput{
			DomainName: aws.String(t.name),
			Items:      items[start:end],
		}); err != nil {
			return translateError("batch put", t.name, err)
		}
	}
	return nil
}

func (t *Table) batchDelete(ctx context.Context, ids []string) error {
	for start := 0; start < len(ids); start += maxBatchItems {
		end := min(start+maxBatchItems, len(ids))
		items := make([]*simpledb.DeletableItem, 0, end-start)
		for _, id := range ids[start:end] {
			items = append(items, &simpledb.DeletableItem{Name: aws.String(id)})
		}
		if _, err := t.client.BatchDeleteAttributesWithContext(ctx, &simpledb.BatchDeleteAttributesInput{
			DomainName: aws.String(t.name),
			Items:      items,
		}); err != nil {
			return translateError("batch delete", t.name, err)
		}
	}
	return nil
}

// selectByNames reads items by name in ids order. A missing item is NotFound.
func (t *Table) selectByNames(ctx context.Context, ids []string, opts storagemodels.Options) ([]storagemodels.Record, error) {
	found := make(map[string]storagemodels.Record, len(ids))
	for start := 0; start < len(ids); start += maxInValues {
		end := min(start+maxInValues, len(ids))
		quoted := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			quoted = append(quoted, quoteValue(id))
		}
		pred := "itemName() in (" + strings.Join(quoted, ", ") + ")"
		input := &simpledb.SelectInput{
			SelectExpression: aws.String(t.selectExpression(opts, pred, 0)),
			ConsistentRead:   aws.Bool(true),
		}
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
				found[aws.StringValue(item.Name)] = rec
			}
			if aws.StringValue(out.NextToken) == "" {
				break
			}
			input.NextToken = out.NextToken
		}
	}

	records := make([]storagemodels.Record, 0, len(ids))
	for _, id := range ids {
		rec, ok := found[id]
		if !ok {
			return nil, apperrors.NewNotFoundError("record", id)
		}
		records = append(records, rec)
	}
	return records, nil
}
