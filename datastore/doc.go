/*
Package datastore defines the capability interfaces shared by the NoSQL table resources.

A Service owns one provider client and hands out Table and Schema resources:

	type Table interface {
	    Name() string
	    Retrieve(ctx, opts) ([]storagemodels.Record, error)
	    RetrieveByIDs(ctx, ids, opts) ([]storagemodels.Record, error)
	    Create(ctx, records, opts) ([]storagemodels.Record, error)
	    Update(ctx, records, opts) ([]storagemodels.Record, error)
	    Patch(ctx, records, opts) ([]storagemodels.Record, error)
	    Delete(ctx, ids, opts) ([]storagemodels.Record, error)
	}

Dispatch maps a request verb to the matching Table method through a fixed
handler table:

	out, err := datastore.Dispatch(ctx, table, datastore.RecordRequest{
	    Verb:    storagemodels.VerbPut,
	    Records: records,
	    Options: storagemodels.Options{Rollback: true},
	})

Implementations:
  - ddb: DynamoDB tables with ScanFilter translation and batch write/get
  - sdb: SimpleDB domains with select predicates and sentinel-string values
  - mock: in-memory provider clients for testing both
*/
package datastore
