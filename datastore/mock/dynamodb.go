/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

type item = map[string]types.AttributeValue

type ddbTable struct {
	desc  types.TableDescription
	keys  []string
	items map[string]item
	// describes left before a CREATING table turns ACTIVE or a DELETING table disappears
	pending int
}

// DynamoDB is an in-memory DynamoDB client for testing.
type DynamoDB struct {
	mu     sync.Mutex
	tables map[string]*ddbTable
	*failures

	pageSize      int
	activateAfter int
	dropWrites    int
}

// NewDynamoDB creates an empty fake.
func NewDynamoDB() *DynamoDB {
	return &DynamoDB{
		tables:        make(map[string]*ddbTable),
		failures:      newFailures(),
		pageSize:      100,
		activateAfter: 1,
	}
}

// WithPageSize caps the items returned per Scan and names per ListTables.
func (m *DynamoDB) WithPageSize(n int) *DynamoDB {
	m.pageSize = n
	return m
}

// WithActivateAfter sets how many describes a new table stays CREATING.
func (m *DynamoDB) WithActivateAfter(n int) *DynamoDB {
	m.activateAfter = n
	return m
}

// DropWrites makes the next n BatchWriteItem calls return every request unprocessed.
func (m *DynamoDB) DropWrites(n int) *DynamoDB {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropWrites = n
	return m
}

// FailOn makes the nth call (1-based) of op return err. nth 0 fails every call.
func (m *DynamoDB) FailOn(op string, nth int, err error) *DynamoDB {
	m.failures.add(op, nth, err)
	return m
}

// AddTable creates an ACTIVE table with a hash key and an optional range key.
func (m *DynamoDB) AddTable(name, hashKey, rangeKey string) *DynamoDB {
	m.mu.Lock()
	defer m.mu.Unlock()

	schema := []types.KeySchemaElement{{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash}}
	defs := []types.AttributeDefinition{{AttributeName: aws.String(hashKey), AttributeType: types.ScalarAttributeTypeS}}
	if rangeKey != "" {
		schema = append(schema, types.KeySchemaElement{AttributeName: aws.String(rangeKey), KeyType: types.KeyTypeRange})
		defs = append(defs, types.AttributeDefinition{AttributeName: aws.String(rangeKey), AttributeType: types.ScalarAttributeTypeS})
	}
	m.tables[name] = newDDBTable(name, schema, defs, types.TableStatusActive)
	return m
}

// Seed stores items directly.
func (m *DynamoDB) Seed(table string, items ...item) *DynamoDB {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tables[table]
	for _, it := range items {
		t.items[t.keyString(it)] = copyItem(it)
	}
	return m
}

// Items returns a copy of a table's items ordered by key.
func (m *DynamoDB) Items(table string) []item {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[table]
	if !ok {
		return nil
	}
	out := make([]item, 0, len(t.items))
	for _, k := range t.sortedKeys() {
		out = append(out, copyItem(t.items[k]))
	}
	return out
}

func newDDBTable(name string, schema []types.KeySchemaElement, defs []types.AttributeDefinition, status types.TableStatus) *ddbTable {
	t := &ddbTable{
		desc: types.TableDescription{
			TableName:            aws.String(name),
			TableArn:             aws.String("arn:aws:dynamodb:us-east-1:000000000000:table/" + name),
			KeySchema:            schema,
			AttributeDefinitions: defs,
			TableStatus:          status,
			CreationDateTime:     aws.Time(time.Now().UTC()),
		},
		items: make(map[string]item),
	}
	for _, role := range []types.KeyType{types.KeyTypeHash, types.KeyTypeRange} {
		for _, k := range schema {
			if k.KeyType == role {
				t.keys = append(t.keys, aws.ToString(k.AttributeName))
			}
		}
	}
	return t
}

func (t *ddbTable) keyString(it item) string {
	parts := make([]string, 0, len(t.keys))
	for _, k := range t.keys {
		parts = append(parts, k+"="+scalar(it[k]))
	}
	return strings.Join(parts, ",")
}

// validateKey rejects a key whose attributes are missing or do not carry the
// declared scalar type, like the service does.
func (t *ddbTable) validateKey(key item) error {
	for _, k := range t.keys {
		v, ok := key[k]
		if !ok || attributeType(v) != t.attributeType(k) {
			return &smithy.GenericAPIError{
				Code:    "ValidationException",
				Message: "The provided key element does not match the schema",
			}
		}
	}
	return nil
}

func (t *ddbTable) attributeType(name string) types.ScalarAttributeType {
	for _, d := range t.desc.AttributeDefinitions {
		if aws.ToString(d.AttributeName) == name {
			return d.AttributeType
		}
	}
	return ""
}

func attributeType(v types.AttributeValue) types.ScalarAttributeType {
	switch v.(type) {
	case *types.AttributeValueMemberS:
		return types.ScalarAttributeTypeS
	case *types.AttributeValueMemberN:
		return types.ScalarAttributeTypeN
	case *types.AttributeValueMemberB:
		return types.ScalarAttributeTypeB
	}
	return ""
}

func (t *ddbTable) sortedKeys() []string {
	keys := make([]string, 0, len(t.items))
	for k := range t.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (t *ddbTable) describe() *types.TableDescription {
	d := t.desc
	d.ItemCount = aws.Int64(int64(len(t.items)))
	return &d
}

func (m *DynamoDB) table(name *string) (*ddbTable, error) {
	t, ok := m.tables[aws.ToString(name)]
	if !ok || t.desc.TableStatus == types.TableStatusDeleting {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found: Table: " + aws.ToString(name) + " not found")}
	}
	return t, nil
}

// GetItem implements the DynamoDB API.
func (m *DynamoDB) GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("GetItem"); err != nil {
		return nil, err
	}
	t, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}
	if err := t.validateKey(params.Key); err != nil {
		return nil, err
	}
	it, ok := t.items[t.keyString(params.Key)]
	if !ok {
		return &sdk.GetItemOutput{}, nil
	}
	return &sdk.GetItemOutput{Item: project(it, projectionNames(params.ProjectionExpression, params.ExpressionAttributeNames))}, nil
}

// PutItem implements the DynamoDB API. Only attribute_not_exists conditions are understood.
func (m *DynamoDB) PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("PutItem"); err != nil {
		return nil, err
	}
	t, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}
	if err := t.validateKey(params.Item); err != nil {
		return nil, err
	}
	k := t.keyString(params.Item)
	old, exists := t.items[k]
	if cond := aws.ToString(params.ConditionExpression); strings.Contains(cond, "attribute_not_exists") && exists {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	t.items[k] = copyItem(params.Item)

	out := &sdk.PutItemOutput{}
	if params.ReturnValues == types.ReturnValueAllOld && exists {
		out.Attributes = copyItem(old)
	}
	return out, nil
}

// UpdateItem implements the DynamoDB API with legacy AttributeUpdates and Expected.
func (m *DynamoDB) UpdateItem(ctx context.Context, params *sdk.UpdateItemInput, optFns ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("UpdateItem"); err != nil {
		return nil, err
	}
	t, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}
	if err := t.validateKey(params.Key); err != nil {
		return nil, err
	}
	k := t.keyString(params.Key)
	old, exists := t.items[k]
	for name, exp := range params.Expected {
		if aws.ToBool(exp.Exists) && (!exists || !equal(old[name], exp.Value)) {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}

	updated := copyItem(old)
	if updated == nil {
		updated = copyItem(params.Key)
	}
	for name, u := range params.AttributeUpdates {
		switch u.Action {
		case types.AttributeActionDelete:
			delete(updated, name)
		case types.AttributeActionAdd:
			updated[name] = add(updated[name], u.Value)
		default:
			updated[name] = u.Value
		}
	}
	t.items[k] = updated

	out := &sdk.UpdateItemOutput{}
	switch params.ReturnValues {
	case types.ReturnValueAllOld:
		out.Attributes = copyItem(old)
	case types.ReturnValueAllNew:
		out.Attributes = copyItem(updated)
	}
	return out, nil
}

// DeleteItem implements the DynamoDB API.
func (m *DynamoDB) DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("DeleteItem"); err != nil {
		return nil, err
	}
	t, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}
	if err := t.validateKey(params.Key); err != nil {
		return nil, err
	}
	k := t.keyString(params.Key)
	old, exists := t.items[k]
	delete(t.items, k)

	out := &sdk.DeleteItemOutput{}
	if params.ReturnValues == types.ReturnValueAllOld && exists {
		out.Attributes = old
	}
	return out, nil
}

// Scan implements the DynamoDB API with ScanFilter evaluation. Limit counts
// evaluated items the way the service does.
func (m *DynamoDB) Scan(ctx context.Context, params *sdk.ScanInput, optFns ...func(*sdk.Options)) (*sdk.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("Scan"); err != nil {
		return nil, err
	}
	t, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}

	limit := m.pageSize
	if params.Limit != nil && int(*params.Limit) < limit {
		limit = int(*params.Limit)
	}
	start := ""
	if len(params.ExclusiveStartKey) > 0 {
		start = t.keyString(params.ExclusiveStartKey)
	}

	out := &sdk.ScanOutput{}
	evaluated := 0
	keys := t.sortedKeys()
	for i, k := range keys {
		if start != "" && k <= start {
			continue
		}
		it := t.items[k]
		evaluated++
		if matchAll(it, params.ScanFilter, params.ConditionalOperator) {
			out.Items = append(out.Items, project(it, params.AttributesToGet))
		}
		if evaluated == limit && i < len(keys)-1 {
			last := make(item, len(t.keys))
			for _, name := range t.keys {
				last[name] = it[name]
			}
			out.LastEvaluatedKey = last
			break
		}
	}
	out.Count = int32(len(out.Items))
	out.ScannedCount = int32(evaluated)
	return out, nil
}

// BatchWriteItem implements the DynamoDB API.
func (m *DynamoDB) BatchWriteItem(ctx context.Context, params *sdk.BatchWriteItemInput, optFns ...func(*sdk.Options)) (*sdk.BatchWriteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("BatchWriteItem"); err != nil {
		return nil, err
	}
	if m.dropWrites > 0 {
		m.dropWrites--
		return &sdk.BatchWriteItemOutput{UnprocessedItems: params.RequestItems}, nil
	}

	for name, requests := range params.RequestItems {
		if len(requests) > 25 {
			return nil, fmt.Errorf("ValidationException: too many items requested for the BatchWriteItem call")
		}
		t, err := m.table(aws.String(name))
		if err != nil {
			return nil, err
		}
		for _, r := range requests {
			switch {
			case r.PutRequest != nil:
				t.items[t.keyString(r.PutRequest.Item)] = copyItem(r.PutRequest.Item)
			case r.DeleteRequest != nil:
				delete(t.items, t.keyString(r.DeleteRequest.Key))
			}
		}
	}
	return &sdk.BatchWriteItemOutput{}, nil
}

// BatchGetItem implements the DynamoDB API.
func (m *DynamoDB) BatchGetItem(ctx context.Context, params *sdk.BatchGetItemInput, optFns ...func(*sdk.Options)) (*sdk.BatchGetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("BatchGetItem"); err != nil {
		return nil, err
	}

	out := &sdk.BatchGetItemOutput{Responses: make(map[string][]item)}
	for name, ka := range params.RequestItems {
		t, err := m.table(aws.String(name))
		if err != nil {
			return nil, err
		}
		names := projectionNames(ka.ProjectionExpression, ka.ExpressionAttributeNames)
		for _, key := range ka.Keys {
			if err := t.validateKey(key); err != nil {
				return nil, err
			}
			if it, ok := t.items[t.keyString(key)]; ok {
				out.Responses[name] = append(out.Responses[name], project(it, names))
			}
		}
	}
	return out, nil
}

// CreateTable implements the DynamoDB API. The table stays CREATING for the
// configured number of describes.
func (m *DynamoDB) CreateTable(ctx context.Context, params *sdk.CreateTableInput, optFns ...func(*sdk.Options)) (*sdk.CreateTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("CreateTable"); err != nil {
		return nil, err
	}
	name := aws.ToString(params.TableName)
	if _, ok := m.tables[name]; ok {
		return nil, &types.ResourceInUseException{Message: aws.String("Table already exists: " + name)}
	}
	t := newDDBTable(name, params.KeySchema, params.AttributeDefinitions, types.TableStatusCreating)
	t.pending = m.activateAfter
	if t.pending == 0 {
		t.desc.TableStatus = types.TableStatusActive
	}
	m.tables[name] = t
	return &sdk.CreateTableOutput{TableDescription: t.describe()}, nil
}

// DescribeTable implements the DynamoDB API.
func (m *DynamoDB) DescribeTable(ctx context.Context, params *sdk.DescribeTableInput, optFns ...func(*sdk.Options)) (*sdk.DescribeTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("DescribeTable"); err != nil {
		return nil, err
	}
	name := aws.ToString(params.TableName)
	t, ok := m.tables[name]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found: Table: " + name + " not found")}
	}

	desc := t.describe()
	switch t.desc.TableStatus {
	case types.TableStatusCreating:
		if t.pending--; t.pending <= 0 {
			t.desc.TableStatus = types.TableStatusActive
		}
	case types.TableStatusDeleting:
		if t.pending--; t.pending <= 0 {
			delete(m.tables, name)
		}
	}
	return &sdk.DescribeTableOutput{Table: desc}, nil
}

// DeleteTable implements the DynamoDB API. The table stays DELETING for the
// configured number of describes.
func (m *DynamoDB) DeleteTable(ctx context.Context, params *sdk.DeleteTableInput, optFns ...func(*sdk.Options)) (*sdk.DeleteTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("DeleteTable"); err != nil {
		return nil, err
	}
	t, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}
	desc := t.describe()
	t.desc.TableStatus = types.TableStatusDeleting
	t.pending = m.activateAfter
	if t.pending == 0 {
		delete(m.tables, aws.ToString(params.TableName))
	}
	desc.TableStatus = types.TableStatusDeleting
	return &sdk.DeleteTableOutput{TableDescription: desc}, nil
}

// ListTables implements the DynamoDB API, paging by the configured page size.
func (m *DynamoDB) ListTables(ctx context.Context, params *sdk.ListTablesInput, optFns ...func(*sdk.Options)) (*sdk.ListTablesOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("ListTables"); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(m.tables))
	for name, t := range m.tables {
		if t.desc.TableStatus != types.TableStatusDeleting {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	start := aws.ToString(params.ExclusiveStartTableName)
	out := &sdk.ListTablesOutput{}
	for i, name := range names {
		if start != "" && name <= start {
			continue
		}
		out.TableNames = append(out.TableNames, name)
		if len(out.TableNames) == m.pageSize && i < len(names)-1 {
			out.LastEvaluatedTableName = aws.String(name)
			break
		}
	}
	return out, nil
}

func matchAll(it item, filter map[string]types.Condition, op types.ConditionalOperator) bool {
	if len(filter) == 0 {
		return true
	}
	or := op == types.ConditionalOperatorOr
	for name, cond := range filter {
		ok := match(it[name], cond)
		if or && ok {
			return true
		}
		if !or && !ok {
			return false
		}
	}
	return !or
}

func match(v types.AttributeValue, cond types.Condition) bool {
	args := cond.AttributeValueList
	switch cond.ComparisonOperator {
	case types.ComparisonOperatorNull:
		return v == nil
	case types.ComparisonOperatorNotNull:
		return v != nil
	}
	if v == nil {
		return cond.ComparisonOperator == types.ComparisonOperatorNe || cond.ComparisonOperator == types.ComparisonOperatorNotContains
	}

	switch cond.ComparisonOperator {
	case types.ComparisonOperatorEq:
		return equal(v, args[0])
	case types.ComparisonOperatorNe:
		return !equal(v, args[0])
	case types.ComparisonOperatorLt:
		c, ok := compare(v, args[0])
		return ok && c < 0
	case types.ComparisonOperatorLe:
		c, ok := compare(v, args[0])
		return ok && c <= 0
	case types.ComparisonOperatorGt:
		c, ok := compare(v, args[0])
		return ok && c > 0
	case types.ComparisonOperatorGe:
		c, ok := compare(v, args[0])
		return ok && c >= 0
	case types.ComparisonOperatorBetween:
		lo, ok1 := compare(v, args[0])
		hi, ok2 := compare(v, args[1])
		return ok1 && ok2 && lo >= 0 && hi <= 0
	case types.ComparisonOperatorIn:
		for _, a := range args {
			if equal(v, a) {
				return true
			}
		}
		return false
	case types.ComparisonOperatorBeginsWith:
		s, ok := v.(*types.AttributeValueMemberS)
		return ok && strings.HasPrefix(s.Value, scalar(args[0]))
	case types.ComparisonOperatorContains:
		return contains(v, args[0])
	case types.ComparisonOperatorNotContains:
		return !contains(v, args[0])
	}
	return false
}

func contains(v, arg types.AttributeValue) bool {
	switch tv := v.(type) {
	case *types.AttributeValueMemberS:
		return strings.Contains(tv.Value, scalar(arg))
	case *types.AttributeValueMemberSS:
		for _, s := range tv.Value {
			if s == scalar(arg) {
				return true
			}
		}
	case *types.AttributeValueMemberNS:
		for _, n := range tv.Value {
			if equal(&types.AttributeValueMemberN{Value: n}, arg) {
				return true
			}
		}
	case *types.AttributeValueMemberL:
		for _, el := range tv.Value {
			if equal(el, arg) {
				return true
			}
		}
	}
	return false
}

func equal(a, b types.AttributeValue) bool {
	if c, ok := compare(a, b); ok {
		return c == 0
	}
	return false
}

func compare(a, b types.AttributeValue) (int, bool) {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		if !ok {
			return 0, false
		}
		return strings.Compare(av.Value, bv.Value), true
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		if !ok {
			return 0, false
		}
		x, err1 := strconv.ParseFloat(av.Value, 64)
		y, err2 := strconv.ParseFloat(bv.Value, 64)
		if err1 != nil || err2 != nil {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case *types.AttributeValueMemberB:
		bv, ok := b.(*types.AttributeValueMemberB)
		if !ok {
			return 0, false
		}
		return bytes.Compare(av.Value, bv.Value), true
	case *types.AttributeValueMemberBOOL:
		bv, ok := b.(*types.AttributeValueMemberBOOL)
		if !ok || av.Value != bv.Value {
			return 1, ok
		}
		return 0, true
	}
	return 0, false
}

func add(current, delta types.AttributeValue) types.AttributeValue {
	switch dv := delta.(type) {
	case *types.AttributeValueMemberN:
		x := 0.0
		if cv, ok := current.(*types.AttributeValueMemberN); ok {
			x, _ = strconv.ParseFloat(cv.Value, 64)
		}
		y, _ := strconv.ParseFloat(dv.Value, 64)
		return &types.AttributeValueMemberN{Value: strconv.FormatFloat(x+y, 'f', -1, 64)}
	case *types.AttributeValueMemberSS:
		set := map[string]bool{}
		var out []string
		if cv, ok := current.(*types.AttributeValueMemberSS); ok {
			for _, s := range cv.Value {
				set[s] = true
				out = append(out, s)
			}
		}
		for _, s := range dv.Value {
			if !set[s] {
				out = append(out, s)
			}
		}
		return &types.AttributeValueMemberSS{Value: out}
	}
	return delta
}

func scalar(av types.AttributeValue) string {
	switch tv := av.(type) {
	case *types.AttributeValueMemberS:
		return tv.Value
	case *types.AttributeValueMemberN:
		return tv.Value
	case *types.AttributeValueMemberB:
		return fmt.Sprintf("%x", tv.Value)
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", av)
}

// projectionNames resolves a "#0, #1" projection expression.
func projectionNames(expr *string, names map[string]string) []string {
	if aws.ToString(expr) == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(aws.ToString(expr), ",") {
		p = strings.TrimSpace(p)
		if n, ok := names[p]; ok {
			p = n
		}
		out = append(out, p)
	}
	return out
}

func project(it item, names []string) item {
	if len(names) == 0 {
		return copyItem(it)
	}
	out := make(item, len(names))
	for _, n := range names {
		if v, ok := it[n]; ok {
			out[n] = v
		}
	}
	return out
}

func copyItem(it item) item {
	if it == nil {
		return nil
	}
	out := make(item, len(it))
	for k, v := range it {
		out[k] = v
	}
	return out
}
