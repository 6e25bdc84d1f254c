/*
Package cloudadapter exposes AWS storage and messaging services behind one
uniform resource model.

Four provider families are supported:
  - DynamoDB tables (datastore/ddb)
  - SimpleDB domains (datastore/sdb)
  - S3 buckets and objects (blobstore)
  - SNS topics, subscriptions, platform applications and endpoints (notification)

Database services share the record model of the datastore package: records
are plain maps, a request carries one or many of them, and the continue and
rollback options control how a multi-record request behaves on failure.
Provider failures are reported through the taxonomy in the errors package.

Basic Usage:

	cfg, err := config.Load("cloudadapter.yaml")
	if err != nil {
		return err
	}
	m, err := cloudadapter.Open(ctx, cfg, cloudadapter.WithLogger(logger))
	if err != nil {
		return err
	}
	defer m.Close()

	db, _ := m.Database("orders")
	table, _ := db.Table(ctx, "Orders")
	recs, err := table.Retrieve(ctx, storagemodels.Options{
		Fields: []string{"*"},
		Filter: "status = :s",
		Params: map[string]any{":s": "open"},
	})

The httpapi package serves a Manager over HTTP and cmd/cloudadapter is the
command line entry point.
*/
package cloudadapter
