/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"strings"

	"github.com/go-openapi/strfmt"
)

// Record is the plain mapping representation shared by every table resource.
type Record = map[string]any

// Verb is the request method a resource dispatches on.
type Verb string

const (
	VerbGet    Verb = "GET"
	VerbPost   Verb = "POST"
	VerbPut    Verb = "PUT"
	VerbPatch  Verb = "PATCH"
	VerbMerge  Verb = "MERGE"
	VerbDelete Verb = "DELETE"
)

// ParseVerb normalizes an HTTP method. MERGE is folded into PATCH.
func ParseVerb(method string) (Verb, bool) {
	switch v := Verb(strings.ToUpper(method)); v {
	case VerbGet, VerbPost, VerbPut, VerbPatch, VerbDelete:
		return v, true
	case VerbMerge:
		return VerbPatch, true
	default:
		return "", false
	}
}

// Options carries the query options of a single request.
type Options struct {
	// Fields selects the returned fields. "*" returns every field; empty returns the identifiers only.
	Fields []string
	// Limit caps the number of returned records; zero means unlimited.
	Limit int
	// Offset skips that many matching records.
	Offset int
	// Filter is either a string in the filter DSL or a provider-native structure.
	Filter any
	// Params holds the values bound to ":name" placeholders in Filter.
	Params map[string]any
	// IDField names the identifier field for stores with a single distinguished id.
	IDField string
	// Continue keeps processing the remaining records after a failure.
	Continue bool
	// Rollback reverts the records already applied when a later one fails.
	Rollback bool
	// ServerFilters are mandatory clauses added by the host, never by the caller.
	ServerFilters *ServerFilters
}

// AllFields reports whether the caller asked for every field.
func (o Options) AllFields() bool {
	for _, f := range o.Fields {
		if f == "*" {
			return true
		}
	}
	return false
}

// Transactional reports whether a multi-record request must be applied record by record.
func (o Options) Transactional() bool {
	return o.Continue || o.Rollback
}

// Combiner joins server filter clauses.
type Combiner string

const (
	CombineAnd Combiner = "AND"
	CombineOr  Combiner = "OR"
)

// FilterClause is one server-side comparison, e.g. {Name: "owner", Operator: "=", Value: "me"}.
type FilterClause struct {
	Name     string `json:"name" yaml:"name"`
	Operator string `json:"operator" yaml:"operator"`
	Value    any    `json:"value" yaml:"value"`
}

// ServerFilters is a clause set the host forces onto every query of a table.
type ServerFilters struct {
	Combiner Combiner       `json:"combiner" yaml:"combiner"`
	Clauses  []FilterClause `json:"clauses" yaml:"clauses"`
}

// Empty reports whether there is nothing to apply.
func (s *ServerFilters) Empty() bool {
	return s == nil || len(s.Clauses) == 0
}

// Or reports whether the clauses are OR-combined.
func (s *ServerFilters) Or() bool {
	return s != nil && strings.EqualFold(string(s.Combiner), string(CombineOr))
}

// KeyRole is the role of a key attribute.
type KeyRole string

const (
	KeyRoleHash  KeyRole = "HASH"
	KeyRoleRange KeyRole = "RANGE"
)

// ScalarType is a key attribute type.
type ScalarType string

const (
	ScalarString ScalarType = "S"
	ScalarNumber ScalarType = "N"
	ScalarBinary ScalarType = "B"
)

// KeyElement is one entry of a key schema.
type KeyElement struct {
	AttributeName string  `json:"attributeName" yaml:"attributeName"`
	KeyRole       KeyRole `json:"keyType" yaml:"keyType"`
}

// TableDescriptor describes a table or domain.
type TableDescriptor struct {
	Name                 string                `json:"name"`
	KeySchema            []KeyElement          `json:"keySchema,omitempty"`
	AttributeDefinitions map[string]ScalarType `json:"attributeDefinitions,omitempty"`
	Status               string                `json:"status,omitempty"`
	ItemCount            int64                 `json:"itemCount"`
	SizeBytes            int64                 `json:"sizeBytes,omitempty"`
	CreatedAt            strfmt.DateTime       `json:"createdAt,omitempty"`
}

// KeyNames returns the key attributes, hash first.
func (d *TableDescriptor) KeyNames() []string {
	names := make([]string, 0, len(d.KeySchema))
	for _, role := range []KeyRole{KeyRoleHash, KeyRoleRange} {
		for _, k := range d.KeySchema {
			if k.KeyRole == role {
				names = append(names, k.AttributeName)
			}
		}
	}
	return names
}

// Throughput is the optional provisioned capacity of a new table.
type Throughput struct {
	ReadCapacityUnits  int64 `json:"readCapacityUnits" yaml:"readCapacityUnits"`
	WriteCapacityUnits int64 `json:"writeCapacityUnits" yaml:"writeCapacityUnits"`
}

// TableSpec is the input of a schema create.
type TableSpec struct {
	Name                 string                `json:"name" validate:"required"`
	AttributeDefinitions map[string]ScalarType `json:"attributeDefinitions"`
	KeySchema            []KeyElement          `json:"keySchema"`
	Throughput           *Throughput           `json:"throughput,omitempty"`
}

// UpdateAction is the action of a partial attribute update.
type UpdateAction string

const (
	ActionPut    UpdateAction = "PUT"
	ActionAdd    UpdateAction = "ADD"
	ActionDelete UpdateAction = "DELETE"
)

// AttributeUpdate is an explicit partial update of one field.
type AttributeUpdate struct {
	Action UpdateAction `json:"action"`
	Value  any          `json:"value,omitempty"`
}

// BlobProperties is the metadata of an object or virtual folder.
type BlobProperties struct {
	Name          string          `json:"name"`
	Path          string          `json:"path"`
	Folder        bool            `json:"folder,omitempty"`
	ContentType   string          `json:"contentType,omitempty"`
	ContentLength int64           `json:"contentLength"`
	LastModified  strfmt.DateTime `json:"lastModified,omitempty"`
	ETag          string          `json:"etag,omitempty"`
}

// ContainerInfo describes a bucket.
type ContainerInfo struct {
	Name         string          `json:"name"`
	Path         string          `json:"path"`
	LastModified strfmt.DateTime `json:"lastModified,omitempty"`
}
