/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/cloudadapter/datastore"
	"github.com/suparena/cloudadapter/datastore/mock"
	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

func newTestService(db *mock.DynamoDB) *Service {
	return New(db,
		WithBatchRetry(
			storagemodels.WithMaxRetries(2),
			storagemodels.WithRetryBackoff(time.Millisecond, 2*time.Millisecond),
		),
		WithWaiter(time.Millisecond, 5*time.Millisecond, 2*time.Second),
	)
}

func seedUsers() *mock.DynamoDB {
	return mock.NewDynamoDB().
		AddTable("users", "id", "").
		Seed("users",
			map[string]types.AttributeValue{"id": s("u1"), "name": s("Ann"), "age": n("30")},
			map[string]types.AttributeValue{"id": s("u2"), "name": s("Bob"), "age": n("25")},
			map[string]types.AttributeValue{"id": s("u3"), "name": s("Cid"), "age": n("41")},
		)
}

func openTable(t *testing.T, db *mock.DynamoDB, name string) *Table {
	t.Helper()
	tbl, err := newTestService(db).table(context.Background(), name)
	require.NoError(t, err)
	return tbl
}

func boom() error {
	return &types.InternalServerError{Message: aws.String("boom")}
}

func itemsByID(db *mock.DynamoDB, table string) map[string]map[string]types.AttributeValue {
	out := map[string]map[string]types.AttributeValue{}
	for _, it := range db.Items(table) {
		out[it["id"].(*types.AttributeValueMemberS).Value] = it
	}
	return out
}

func TestTableNameCorrection(t *testing.T) {
	db := seedUsers()
	svc := newTestService(db)

	tbl, err := svc.Table(context.Background(), "USERS")
	require.NoError(t, err)
	assert.Equal(t, "users", tbl.Name())

	_, err = svc.Table(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRetrieveWithFilterAndWindow(t *testing.T) {
	tbl := openTable(t, seedUsers(), "users")
	ctx := context.Background()

	recs, err := tbl.Retrieve(ctx, storagemodels.Options{Filter: "age > 26", Fields: []string{"*"}})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "u1", recs[0]["id"])
	assert.Equal(t, "u3", recs[1]["id"])

	recs, err = tbl.Retrieve(ctx, storagemodels.Options{Fields: []string{"name"}, Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, storagemodels.Record{"id": "u2", "name": "Bob"}, recs[0])
}

func TestRetrieveServerFiltersOr(t *testing.T) {
	db := seedUsers()
	svc := New(db, WithServerFilters(map[string]*storagemodels.ServerFilters{
		"users": {
			Combiner: storagemodels.CombineOr,
			Clauses: []storagemodels.FilterClause{
				{Name: "name", Operator: "=", Value: "Ann"},
				{Name: "age", Operator: "<", Value: 30},
			},
		},
	}))
	tbl, err := svc.Table(context.Background(), "users")
	require.NoError(t, err)

	recs, err := tbl.Retrieve(context.Background(), storagemodels.Options{Fields: []string{"*"}})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.Equal(t, 2, db.Calls("Scan"))
}

func TestCreateSingle(t *testing.T) {
	db := seedUsers()
	tbl := openTable(t, db, "users")
	ctx := context.Background()

	out, err := tbl.Create(ctx, []storagemodels.Record{{"id": "u9", "name": "Dee"}}, storagemodels.Options{})
	require.NoError(t, err)
	assert.Equal(t, []storagemodels.Record{{"id": "u9"}}, out)
	assert.Equal(t, 1, db.Calls("PutItem"))

	_, err = tbl.Create(ctx, []storagemodels.Record{{"id": "u9"}}, storagemodels.Options{})
	assert.True(t, apperrors.IsBadRequest(err), "got %v", err)

	_, err = tbl.Create(ctx, []storagemodels.Record{{"name": "nokey"}}, storagemodels.Options{})
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestCreateManyUsesBatch(t *testing.T) {
	db := seedUsers()
	tbl := openTable(t, db, "users")

	records := []storagemodels.Record{{"id": "a"}, {"id": "b"}, {"id": "c"}}
	out, err := tbl.Create(context.Background(), records, storagemodels.Options{})
	require.NoError(t, err)
	assert.Len(t, out, 3)
	assert.Equal(t, 1, db.Calls("BatchWriteItem"))
	assert.Equal(t, 0, db.Calls("PutItem"))
	assert.Len(t, db.Items("users"), 6)
	assert.Equal(t, &transaction{}, tbl.tx, "the transaction is reset after commit")
}

func TestBatchWriteRetriesUnprocessed(t *testing.T) {
	db := seedUsers().DropWrites(1)
	tbl := openTable(t, db, "users")

	_, err := tbl.Create(context.Background(), []storagemodels.Record{{"id": "a"}, {"id": "b"}}, storagemodels.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, db.Calls("BatchWriteItem"))
	assert.Len(t, db.Items("users"), 5)

	db.DropWrites(10)
	_, err = tbl.Create(context.Background(), []storagemodels.Record{{"id": "c"}, {"id": "d"}}, storagemodels.Options{})
	require.Error(t, err)
	assert.True(t, apperrors.IsInternal(err))
	assert.Contains(t, err.Error(), "unprocessed")
}

func TestCreateRollback(t *testing.T) {
	db := seedUsers().FailOn("PutItem", 3, boom())
	tbl := openTable(t, db, "users")

	records := []storagemodels.Record{{"id": "a"}, {"id": "b"}, {"id": "c"}}
	_, err := tbl.Create(context.Background(), records, storagemodels.Options{Rollback: true})
	require.Error(t, err)

	items := itemsByID(db, "users")
	assert.Len(t, items, 3)
	assert.NotContains(t, items, "a")
	assert.NotContains(t, items, "b")
	assert.Equal(t, &transaction{}, tbl.tx, "the transaction is reset after rollback")
}

func TestUpdateRollbackRestoresPreImage(t *testing.T) {
	db := seedUsers().FailOn("PutItem", 3, boom())
	tbl := openTable(t, db, "users")

	records := []storagemodels.Record{
		{"id": "u1", "name": "Changed"},
		{"id": "new", "name": "Fresh"},
		{"id": "u2", "name": "Never"},
	}
	_, err := tbl.Update(context.Background(), records, storagemodels.Options{Rollback: true})
	require.Error(t, err)

	items := itemsByID(db, "users")
	assert.Equal(t, s("Ann"), items["u1"]["name"])
	assert.Equal(t, n("30"), items["u1"]["age"])
	assert.NotContains(t, items, "new")
	assert.Equal(t, s("Bob"), items["u2"]["name"])
}

func TestPatchRollback(t *testing.T) {
	db := seedUsers().FailOn("UpdateItem", 2, boom())
	tbl := openTable(t, db, "users")

	records := []storagemodels.Record{{"id": "u1", "age": 99}, {"id": "u2", "age": 98}}
	_, err := tbl.Patch(context.Background(), records, storagemodels.Options{Rollback: true})
	require.Error(t, err)

	items := itemsByID(db, "users")
	assert.Equal(t, n("30"), items["u1"]["age"])
	assert.Equal(t, n("25"), items["u2"]["age"])
}

func TestContinueCollectsFailures(t *testing.T) {
	db := seedUsers().FailOn("PutItem", 2, boom())
	tbl := openTable(t, db, "users")

	records := []storagemodels.Record{{"id": "a"}, {"id": "b"}, {"id": "c"}}
	out, err := tbl.Create(context.Background(), records, storagemodels.Options{Continue: true})
	require.Error(t, err)

	var batchErr *apperrors.BatchError
	require.True(t, errors.As(err, &batchErr))
	assert.Len(t, batchErr.Failed, 1)
	assert.Contains(t, batchErr.Failed, 1)
	assert.Equal(t, "a", out[0]["id"])
	assert.Nil(t, out[1])
	assert.Equal(t, "c", out[2]["id"])
	assert.Equal(t, 400, apperrors.StatusCode(err))
	assert.Len(t, db.Items("users"), 5)
}

func TestPatch(t *testing.T) {
	db := seedUsers()
	tbl := openTable(t, db, "users")
	ctx := context.Background()

	out, err := tbl.Patch(ctx, []storagemodels.Record{{"id": "u1", "age": 31, "name": nil}}, storagemodels.Options{Fields: []string{"*"}})
	require.NoError(t, err)
	assert.Equal(t, storagemodels.Record{"id": "u1", "age": int64(31)}, out[0])

	_, err = tbl.Patch(ctx, []storagemodels.Record{{"id": "ghost", "age": 1}}, storagemodels.Options{})
	assert.True(t, apperrors.IsNotFound(err), "got %v", err)
	assert.NotContains(t, itemsByID(db, "users"), "ghost")
}

func TestRetrieveByIDs(t *testing.T) {
	db := seedUsers()
	tbl := openTable(t, db, "users")
	ctx := context.Background()

	out, err := tbl.RetrieveByIDs(ctx, []any{"u2"}, storagemodels.Options{Fields: []string{"name"}})
	require.NoError(t, err)
	assert.Equal(t, []storagemodels.Record{{"id": "u2", "name": "Bob"}}, out)

	out, err = tbl.RetrieveByIDs(ctx, []any{"u3", "u1"}, storagemodels.Options{Fields: []string{"*"}})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "u3", out[0]["id"])
	assert.Equal(t, "u1", out[1]["id"])
	assert.Equal(t, 1, db.Calls("BatchGetItem"))

	_, err = tbl.RetrieveByIDs(ctx, []any{"u1", "nope"}, storagemodels.Options{})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = tbl.RetrieveByIDs(ctx, []any{"nope"}, storagemodels.Options{})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDelete(t *testing.T) {
	db := seedUsers()
	tbl := openTable(t, db, "users")
	ctx := context.Background()

	out, err := tbl.Delete(ctx, []any{"u1"}, storagemodels.Options{Fields: []string{"*"}})
	require.NoError(t, err)
	assert.Equal(t, "Ann", out[0]["name"])

	_, err = tbl.Delete(ctx, []any{"u1"}, storagemodels.Options{})
	assert.True(t, apperrors.IsNotFound(err))

	out, err = tbl.Delete(ctx, []any{"u2", "u3"}, storagemodels.Options{})
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Empty(t, db.Items("users"))
}

func TestCompositeKey(t *testing.T) {
	db := mock.NewDynamoDB().AddTable("scores", "player", "game")
	tbl := openTable(t, db, "scores")
	ctx := context.Background()

	_, err := tbl.Create(ctx, []storagemodels.Record{{"player": "p1", "game": "g1", "pts": 10}}, storagemodels.Options{})
	require.NoError(t, err)

	_, err = tbl.RetrieveByIDs(ctx, []any{"p1"}, storagemodels.Options{})
	assert.True(t, apperrors.IsBadRequest(err))

	out, err := tbl.RetrieveByIDs(ctx, []any{storagemodels.Record{"player": "p1", "game": "g1"}}, storagemodels.Options{Fields: []string{"*"}})
	require.NoError(t, err)
	assert.Equal(t, int64(10), out[0]["pts"])
}

func TestNumericKeyFromStringIDs(t *testing.T) {
	db := mock.NewDynamoDB().WithActivateAfter(0)
	svc := newTestService(db)
	ctx := context.Background()

	_, err := svc.Schema().Create(ctx, storagemodels.TableSpec{
		Name:                 "orders",
		AttributeDefinitions: map[string]storagemodels.ScalarType{"oid": storagemodels.ScalarNumber},
		KeySchema:            []storagemodels.KeyElement{{AttributeName: "oid", KeyRole: storagemodels.KeyRoleHash}},
	})
	require.NoError(t, err)
	tbl := openTable(t, db, "orders")

	_, err = tbl.Create(ctx, []storagemodels.Record{
		{"oid": int64(42), "item": "lamp"},
		{"oid": "43", "item": "desk"},
	}, storagemodels.Options{})
	require.NoError(t, err)
	assert.Equal(t, &types.AttributeValueMemberN{Value: "43"}, db.Items("orders")[1]["oid"])

	out, err := tbl.RetrieveByIDs(ctx, []any{"42"}, storagemodels.Options{Fields: []string{"*"}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, storagemodels.Record{"oid": int64(42), "item": "lamp"}, out[0])

	out, err = tbl.RetrieveByIDs(ctx, []any{"42", "43"}, storagemodels.Options{})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	_, err = tbl.RetrieveByIDs(ctx, []any{"abc"}, storagemodels.Options{})
	assert.True(t, apperrors.IsBadRequest(err))

	_, err = tbl.Delete(ctx, []any{"42"}, storagemodels.Options{})
	require.NoError(t, err)
	assert.Len(t, db.Items("orders"), 1)
}

func TestKeyTypeMismatchIsBadRequest(t *testing.T) {
	db := mock.NewDynamoDB().AddTable("users", "id", "")
	tbl := openTable(t, db, "users")
	tbl.desc.AttributeDefinitions = nil

	_, err := tbl.Create(context.Background(), []storagemodels.Record{{"id": 7, "name": "x"}}, storagemodels.Options{})
	assert.True(t, apperrors.IsBadRequest(err))

	tbl = openTable(t, db, "users")
	_, err = tbl.Create(context.Background(), []storagemodels.Record{{"id": 7, "name": "x"}}, storagemodels.Options{})
	require.NoError(t, err)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "7"}, db.Items("users")[0]["id"])
}

func TestDispatchDeleteByFilter(t *testing.T) {
	db := seedUsers()
	tbl := openTable(t, db, "users")

	out, err := datastore.Dispatch(context.Background(), tbl, datastore.RecordRequest{
		Verb:    storagemodels.VerbDelete,
		Options: storagemodels.Options{Filter: "age >= 30"},
	})
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, []string{"u2"}, keysOf(db.Items("users")))
}

func TestClosedService(t *testing.T) {
	svc := newTestService(seedUsers())
	svc.Close()
	_, err := svc.Table(context.Background(), "users")
	assert.True(t, apperrors.IsServiceUnavailable(err))
}

func keysOf(items []map[string]types.AttributeValue) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it["id"].(*types.AttributeValueMemberS).Value)
	}
	return out
}
