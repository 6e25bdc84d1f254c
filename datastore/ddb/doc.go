/*
Package ddb provides the DynamoDB database service.

A Service owns one DynamoDB client and a cache of table names. Tables are
resolved case-insensitively against that cache; RefreshNames reloads it.

Records are translated with a typed-attribute codec: strings, numbers and
binaries keep their wire type, homogeneous sequences become sets and nested
maps become M attributes.

Filters:
String filters are parsed into a legacy ScanFilter. Operators are matched in
a fixed priority order so that ">=" is never read as ">" followed by "=":

	age >= 21 AND name LIKE 'Bo%'

Only AND joins are supported. OR, NOR and NOT fail with a bad request since a
ScanFilter can not express them. OR-combined server filters are run as one
scan per clause and merged by key.

Writes:
A single record without continue or rollback is written immediately. Many
records are buffered and flushed through BatchWriteItem, retrying unprocessed
items with exponential backoff. With continue or rollback every record is
written on its own; on failure a rollback request restores the pre-image of
every record it touched.
*/
package ddb
