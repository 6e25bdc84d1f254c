/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/simpledb"
)

// attributes maps an attribute name to its values.
type attributes = map[string][]string

type sdbDomain struct {
	created time.Time
	items   map[string]attributes
}

// SimpleDB is an in-memory SimpleDB client for testing. Select expressions
// are parsed and evaluated against the stored items in item name order.
type SimpleDB struct {
	mu      sync.Mutex
	domains map[string]*sdbDomain
	*failures

	pageSize int
}

// NewSimpleDB creates a fake without domains.
func NewSimpleDB() *SimpleDB {
	return &SimpleDB{
		domains:  make(map[string]*sdbDomain),
		failures: newFailures(),
		pageSize: 100,
	}
}

// WithPageSize caps the items returned per Select and names per ListDomains.
func (m *SimpleDB) WithPageSize(n int) *SimpleDB {
	m.pageSize = n
	return m
}

// FailOn makes the nth call (1-based) of op return err. nth 0 fails every call.
func (m *SimpleDB) FailOn(op string, nth int, err error) *SimpleDB {
	m.failures.add(op, nth, err)
	return m
}

// AddDomain creates an empty domain.
func (m *SimpleDB) AddDomain(name string) *SimpleDB {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.domains[name] = &sdbDomain{created: time.Now().UTC(), items: make(map[string]attributes)}
	return m
}

// Seed stores an item directly, replacing any item with the same name.
func (m *SimpleDB) Seed(domain, name string, attrs map[string]string) *SimpleDB {
	m.mu.Lock()
	defer m.mu.Unlock()
	it := make(attributes, len(attrs))
	for k, v := range attrs {
		it[k] = []string{v}
	}
	m.domains[domain].items[name] = it
	return m
}

// Item returns a copy of an item's attributes, nil when it does not exist.
func (m *SimpleDB) Item(domain, name string) map[string][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.domains[domain]
	if !ok {
		return nil
	}
	it, ok := d.items[name]
	if !ok {
		return nil
	}
	return copyAttributes(it)
}

// ItemNames returns the sorted item names of a domain.
func (m *SimpleDB) ItemNames(domain string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.domains[domain]
	if !ok {
		return nil
	}
	return d.sortedNames()
}

func (d *sdbDomain) sortedNames() []string {
	names := make([]string, 0, len(d.items))
	for n := range d.items {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (m *SimpleDB) domain(name *string) (*sdbDomain, error) {
	d, ok := m.domains[aws.StringValue(name)]
	if !ok {
		return nil, awserr.New("NoSuchDomain", "The specified domain does not exist.", nil)
	}
	return d, nil
}

func (m *SimpleDB) SelectWithContext(ctx aws.Context, input *simpledb.SelectInput, opts ...request.Option) (*simpledb.SelectOutput, error) {
	if err := m.check("Select"); err != nil {
		return nil, err
	}
	stmt, err := parseSelect(aws.StringValue(input.SelectExpression))
	if err != nil {
		return nil, awserr.New("InvalidQueryExpression", err.Error(), err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.domains[stmt.domain]
	if !ok {
		return nil, awserr.New("NoSuchDomain", "The specified domain does not exist.", nil)
	}

	var matched []string
	for _, name := range d.sortedNames() {
		if stmt.where == nil || stmt.where.eval(name, d.items[name]) {
			matched = append(matched, name)
		}
	}

	start := 0
	if tok := aws.StringValue(input.NextToken); tok != "" {
		if start, err = strconv.Atoi(tok); err != nil || start > len(matched) {
			return nil, awserr.New("InvalidNextToken", "The specified next token is not valid.", err)
		}
	}
	page := m.pageSize
	if stmt.limit > 0 && stmt.limit < page {
		page = stmt.limit
	}
	end := min(start+page, len(matched))

	out := &simpledb.SelectOutput{}
	for _, name := range matched[start:end] {
		out.Items = append(out.Items, &simpledb.Item{
			Name:       aws.String(name),
			Attributes: stmt.project(d.items[name]),
		})
	}
	if end < len(matched) {
		out.NextToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func (m *SimpleDB) GetAttributesWithContext(ctx aws.Context, input *simpledb.GetAttributesInput, opts ...request.Option) (*simpledb.GetAttributesOutput, error) {
	if err := m.check("GetAttributes"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, err := m.domain(input.DomainName)
	if err != nil {
		return nil, err
	}
	it, ok := d.items[aws.StringValue(input.ItemName)]
	if !ok {
		return &simpledb.GetAttributesOutput{}, nil
	}
	wanted := aws.StringValueSlice(input.AttributeNames)
	return &simpledb.GetAttributesOutput{Attributes: toAttributes(it, wanted)}, nil
}

func (m *SimpleDB) PutAttributesWithContext(ctx aws.Context, input *simpledb.PutAttributesInput, opts ...request.Option) (*simpledb.PutAttributesOutput, error) {
	if err := m.check("PutAttributes"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, err := m.domain(input.DomainName)
	if err != nil {
		return nil, err
	}
	d.put(aws.StringValue(input.ItemName), input.Attributes)
	return &simpledb.PutAttributesOutput{}, nil
}

func (m *SimpleDB) DeleteAttributesWithContext(ctx aws.Context, input *simpledb.DeleteAttributesInput, opts ...request.Option) (*simpledb.DeleteAttributesOutput, error) {
	if err := m.check("DeleteAttributes"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, err := m.domain(input.DomainName)
	if err != nil {
		return nil, err
	}
	d.delete(aws.StringValue(input.ItemName), input.Attributes)
	return &simpledb.DeleteAttributesOutput{}, nil
}

func (m *SimpleDB) BatchPutAttributesWithContext(ctx aws.Context, input *simpledb.BatchPutAttributesInput, opts ...request.Option) (*simpledb.BatchPutAttributesOutput, error) {
	if err := m.check("BatchPutAttributes"); err != nil {
		return nil, err
	}
	if len(input.Items) > 25 {
		return nil, awserr.New("NumberSubmittedItemsExceeded", "Too many items in a single call.", nil)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, err := m.domain(input.DomainName)
	if err != nil {
		return nil, err
	}
	for _, it := range input.Items {
		d.put(aws.StringValue(it.Name), it.Attributes)
	}
	return &simpledb.BatchPutAttributesOutput{}, nil
}

func (m *SimpleDB) BatchDeleteAttributesWithContext(ctx aws.Context, input *simpledb.BatchDeleteAttributesInput, opts ...request.Option) (*simpledb.BatchDeleteAttributesOutput, error) {
	if err := m.check("BatchDeleteAttributes"); err != nil {
		return nil, err
	}
	if len(input.Items) > 25 {
		return nil, awserr.New("NumberSubmittedItemsExceeded", "Too many items in a single call.", nil)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, err := m.domain(input.DomainName)
	if err != nil {
		return nil, err
	}
	for _, it := range input.Items {
		d.delete(aws.StringValue(it.Name), it.Attributes)
	}
	return &simpledb.BatchDeleteAttributesOutput{}, nil
}

// CreateDomain is idempotent, like the real service.
func (m *SimpleDB) CreateDomainWithContext(ctx aws.Context, input *simpledb.CreateDomainInput, opts ...request.Option) (*simpledb.CreateDomainOutput, error) {
	if err := m.check("CreateDomain"); err != nil {
		return nil, err
	}
	name := aws.StringValue(input.DomainName)
	if name == "" {
		return nil, awserr.New("MissingParameter", "The request must contain the parameter DomainName.", nil)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.domains[name]; !ok {
		m.domains[name] = &sdbDomain{created: time.Now().UTC(), items: make(map[string]attributes)}
	}
	return &simpledb.CreateDomainOutput{}, nil
}

func (m *SimpleDB) DeleteDomainWithContext(ctx aws.Context, input *simpledb.DeleteDomainInput, opts ...request.Option) (*simpledb.DeleteDomainOutput, error) {
	if err := m.check("DeleteDomain"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.domains, aws.StringValue(input.DomainName))
	return &simpledb.DeleteDomainOutput{}, nil
}

func (m *SimpleDB) DomainMetadataWithContext(ctx aws.Context, input *simpledb.DomainMetadataInput, opts ...request.Option) (*simpledb.DomainMetadataOutput, error) {
	if err := m.check("DomainMetadata"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, err := m.domain(input.DomainName)
	if err != nil {
		return nil, err
	}

	var nameBytes, attrNameBytes, valueBytes, valueCount int64
	attrNames := map[string]bool{}
	for name, it := range d.items {
		nameBytes += int64(len(name))
		for k, values := range it {
			if !attrNames[k] {
				attrNames[k] = true
				attrNameBytes += int64(len(k))
			}
			for _, v := range values {
				valueBytes += int64(len(v))
				valueCount++
			}
		}
	}
	return &simpledb.DomainMetadataOutput{
		ItemCount:                aws.Int64(int64(len(d.items))),
		ItemNamesSizeBytes:       aws.Int64(nameBytes),
		AttributeNameCount:       aws.Int64(int64(len(attrNames))),
		AttributeNamesSizeBytes:  aws.Int64(attrNameBytes),
		AttributeValueCount:      aws.Int64(valueCount),
		AttributeValuesSizeBytes: aws.Int64(valueBytes),
		Timestamp:                aws.Int64(d.created.Unix()),
	}, nil
}

func (m *SimpleDB) ListDomainsWithContext(ctx aws.Context, input *simpledb.ListDomainsInput, opts ...request.Option) (*simpledb.ListDomainsOutput, error) {
	if err := m.check("ListDomains"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.domains))
	for n := range m.domains {
		names = append(names, n)
	}
	sort.Strings(names)

	start := 0
	if tok := aws.StringValue(input.NextToken); tok != "" {
		var err error
		if start, err = strconv.Atoi(tok); err != nil || start > len(names) {
			return nil, awserr.New("InvalidNextToken", "The specified next token is not valid.", err)
		}
	}
	page := m.pageSize
	if n := int(aws.Int64Value(input.MaxNumberOfDomains)); n > 0 && n < page {
		page = n
	}
	end := min(start+page, len(names))

	out := &simpledb.ListDomainsOutput{DomainNames: aws.StringSlice(names[start:end])}
	if end < len(names) {
		out.NextToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func (d *sdbDomain) put(name string, attrs []*simpledb.ReplaceableAttribute) {
	it, ok := d.items[name]
	if !ok {
		it = make(attributes)
		d.items[name] = it
	}
	for _, a := range attrs {
		k, v := aws.StringValue(a.Name), aws.StringValue(a.Value)
		if aws.BoolValue(a.Replace) {
			it[k] = []string{v}
			continue
		}
		if !containsString(it[k], v) {
			it[k] = append(it[k], v)
		}
	}
}

// delete removes the named values, the named attributes, or the whole item
// when attrs is empty. An item left without attributes disappears.
func (d *sdbDomain) delete(name string, attrs []*simpledb.DeletableAttribute) {
	it, ok := d.items[name]
	if !ok {
		return
	}
	if len(attrs) == 0 {
		delete(d.items, name)
		return
	}
	for _, a := range attrs {
		k := aws.StringValue(a.Name)
		if a.Value == nil {
			delete(it, k)
			continue
		}
		kept := it[k][:0]
		for _, v := range it[k] {
			if v != aws.StringValue(a.Value) {
				kept = append(kept, v)
			}
		}
		if len(kept) == 0 {
			delete(it, k)
		} else {
			it[k] = kept
		}
	}
	if len(it) == 0 {
		delete(d.items, name)
	}
}

func toAttributes(it attributes, wanted []string) []*simpledb.Attribute {
	names := wanted
	if len(names) == 0 {
		names = make([]string, 0, len(it))
		for k := range it {
			names = append(names, k)
		}
		sort.Strings(names)
	}
	var out []*simpledb.Attribute
	for _, k := range names {
		for _, v := range it[k] {
			out = append(out, &simpledb.Attribute{Name: aws.String(k), Value: aws.String(v)})
		}
	}
	return out
}

func copyAttributes(it attributes) attributes {
	out := make(attributes, len(it))
	for k, v := range it {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
