/*
Package sdb provides the SimpleDB database service.

Each domain is exposed as a table whose item name is the id field, "id"
unless configured otherwise. SimpleDB stores strings only, so non-string
values are stored with a sentinel prefix:

	#DFB#1        true
	#DFI#42       42
	#DFF#1.5      1.5
	#DFJ#{"a":1}  map[a:1]

Filters are SQL-like predicates and are passed through to select after
normalization: "&&" and "||" become "and" and "or", "= null" becomes
"is null", and ":name" parameters are inlined as quoted, encoded literals.

Batch writes use BatchPutAttributes and BatchDeleteAttributes. A batch PUT
does not remove attributes that are missing from the new record; use
continue or rollback to get full replacement per record. Batch PATCH is not
supported.
*/
package sdb
