/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package blobstore

import (
	"context"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

// ListBlobs lists a container in two passes. The first follows the
// continuation token until the listing is no longer truncated, merging
// virtual folders and objects into one set keyed by name. The second reads
// each object's metadata with HeadObject unless opts.SkipMetadata is set.
// Results are sorted by name.
func (s *Store) ListBlobs(ctx context.Context, container string, opts storagemodels.ListOptions) ([]storagemodels.BlobProperties, error) {
	bucket, err := s.bucket(container)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]*storagemodels.BlobProperties)
	input := &s3.ListObjectsV2Input{Bucket: aws.String(bucket)}
	if opts.Prefix != "" {
		input.Prefix = aws.String(opts.Prefix)
	}
	if opts.Delimiter != "" {
		input.Delimiter = aws.String(opts.Delimiter)
	}
	if opts.PageSize > 0 {
		input.MaxKeys = aws.Int32(opts.PageSize)
	}

	pages := 0
	for {
		out, err := s.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, translateError("list blobs", bucket, err)
		}
		pages++
		for _, p := range out.CommonPrefixes {
			name := aws.ToString(p.Prefix)
			merged[name] = &storagemodels.BlobProperties{
				Name:   name,
				Path:   bucket + "/" + name,
				Folder: true,
			}
		}
		for _, obj := range out.Contents {
			name := aws.ToString(obj.Key)
			merged[name] = &storagemodels.BlobProperties{
				Name:          name,
				Path:          bucket + "/" + name,
				ContentLength: aws.ToInt64(obj.Size),
				ETag:          strings.Trim(aws.ToString(obj.ETag), `"`),
			}
		}
		if !aws.ToBool(out.IsTruncated) || aws.ToString(out.NextContinuationToken) == "" {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)

	blobs := make([]storagemodels.BlobProperties, 0, len(names))
	for _, name := range names {
		b := merged[name]
		if !b.Folder && !opts.SkipMetadata {
			props, err := s.GetBlobProperties(ctx, bucket, name)
			switch {
			case apperrors.IsNotFound(err):
				// deleted between the list and the head call
				continue
			case err != nil:
				return nil, err
			}
			b = props
		}
		blobs = append(blobs, *b)
	}
	s.logger.Debug("blobs listed",
		zap.String("bucket", bucket),
		zap.Int("pages", pages),
		zap.Int("count", len(blobs)))
	return blobs, nil
}
