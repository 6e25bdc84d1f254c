// Package blobstore provides the blob resource over S3.
//
// A Store is bound to a default container, created on construction when it
// does not exist yet. Containers map to buckets and blobs to object keys;
// keys containing the listing delimiter show up as virtual folders:
//
//	store, err := blobstore.New(ctx, s3Client, "media")
//	blobs, err := store.ListBlobs(ctx, "", storagemodels.NewListOptions(
//	    storagemodels.WithPrefix("docs/"),
//	    storagemodels.WithDelimiter("/"),
//	))
package blobstore
