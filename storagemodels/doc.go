/*
Package storagemodels defines the data structures used throughout cloudadapter.

Key Types:

Record:
The plain mapping every table resource reads and writes:

	rec := storagemodels.Record{"id": "42", "total": 12.5, "tags": []string{"a", "b"}}

Options:
Query options of one request:

	opts := storagemodels.Options{
	    Fields:   []string{"id", "total"},
	    Limit:    50,
	    Filter:   "total >= :min and status = 'open'",
	    Params:   map[string]any{":min": 10},
	    Rollback: true,
	}

ServerFilters:
Mandatory clauses supplied by the host and combined with the user filter:

	&ServerFilters{
	    Combiner: CombineAnd,
	    Clauses:  []FilterClause{{Name: "tenant", Operator: "=", Value: "acme"}},
	}

TableDescriptor and TableSpec:
Schema read and create shapes shared by the DynamoDB and SimpleDB resources.

ListOptions:
Configuration for paginated listing:

	opts := NewListOptions(
	    WithPrefix("reports/"),
	    WithDelimiter("/"),
	    WithPageSize(500),
	)

These types provide a consistent interface across different provider implementations.
*/
package storagemodels
