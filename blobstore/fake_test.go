/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package blobstore

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// fakeS3 keeps buckets in memory. Listing pages over keys, so a common
// prefix shows up again on every page holding one of its keys.
type fakeS3 struct {
	mu       sync.Mutex
	buckets  map[string]map[string]fakeObject
	created  map[string]time.Time
	pageSize int
	calls    map[string]int
	fail     map[string]error

	lastCreate *s3.CreateBucketInput
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		buckets:  map[string]map[string]fakeObject{},
		created:  map[string]time.Time{},
		pageSize: 1000,
		calls:    map[string]int{},
		fail:     map[string]error{},
	}
}

func (f *fakeS3) addBucket(name string) *fakeS3 {
	f.buckets[name] = map[string]fakeObject{}
	f.created[name] = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return f
}

func (f *fakeS3) addObject(bucket, key, body, contentType string) *fakeS3 {
	f.buckets[bucket][key] = fakeObject{
		data:        []byte(body),
		contentType: contentType,
		modified:    time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
	}
	return f
}

func (f *fakeS3) call(op string) error {
	f.calls[op]++
	return f.fail[op]
}

func (f *fakeS3) object(bucket, key *string) (fakeObject, error) {
	b, ok := f.buckets[aws.ToString(bucket)]
	if !ok {
		return fakeObject{}, &types.NoSuchBucket{Message: aws.String("no such bucket")}
	}
	obj, ok := b[aws.ToString(key)]
	if !ok {
		return fakeObject{}, &types.NoSuchKey{Message: aws.String("no such key")}
	}
	return obj, nil
}

func (f *fakeS3) ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("ListBuckets"); err != nil {
		return nil, err
	}
	out := &s3.ListBucketsOutput{}
	for name, created := range f.created {
		out.Buckets = append(out.Buckets, types.Bucket{Name: aws.String(name), CreationDate: aws.Time(created)})
	}
	return out, nil
}

func (f *fakeS3) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("HeadBucket"); err != nil {
		return nil, err
	}
	if _, ok := f.buckets[aws.ToString(params.Bucket)]; !ok {
		return nil, &types.NotFound{Message: aws.String("not found")}
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("CreateBucket"); err != nil {
		return nil, err
	}
	f.lastCreate = params
	name := aws.ToString(params.Bucket)
	if _, ok := f.buckets[name]; ok {
		return nil, &types.BucketAlreadyOwnedByYou{Message: aws.String("owned")}
	}
	f.buckets[name] = map[string]fakeObject{}
	f.created[name] = time.Now().UTC()
	return &s3.CreateBucketOutput{}, nil
}

func (f *fakeS3) DeleteBucket(ctx context.Context, params *s3.DeleteBucketInput, optFns ...func(*s3.Options)) (*s3.DeleteBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("DeleteBucket"); err != nil {
		return nil, err
	}
	name := aws.ToString(params.Bucket)
	b, ok := f.buckets[name]
	if !ok {
		return nil, &types.NoSuchBucket{Message: aws.String("no such bucket")}
	}
	if len(b) > 0 {
		return nil, apiError("BucketNotEmpty")
	}
	delete(f.buckets, name)
	delete(f.created, name)
	return &s3.DeleteBucketOutput{}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("PutObject"); err != nil {
		return nil, err
	}
	b, ok := f.buckets[aws.ToString(params.Bucket)]
	if !ok {
		return nil, &types.NoSuchBucket{Message: aws.String("no such bucket")}
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	b[aws.ToString(params.Key)] = fakeObject{data: data, contentType: aws.ToString(params.ContentType), modified: time.Now().UTC()}
	return &s3.PutObjectOutput{ETag: aws.String(`"etag-` + strconv.Itoa(len(data)) + `"`)}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("GetObject"); err != nil {
		return nil, err
	}
	obj, err := f.object(params.Bucket, params.Key)
	if err != nil {
		return nil, err
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.data)),
		ContentType:   aws.String(obj.contentType),
		ContentLength: aws.Int64(int64(len(obj.data))),
		LastModified:  aws.Time(obj.modified),
	}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("HeadObject"); err != nil {
		return nil, err
	}
	obj, err := f.object(params.Bucket, params.Key)
	if err != nil {
		return nil, &types.NotFound{Message: aws.String("not found")}
	}
	return &s3.HeadObjectOutput{
		ContentType:   aws.String(obj.contentType),
		ContentLength: aws.Int64(int64(len(obj.data))),
		LastModified:  aws.Time(obj.modified),
	}, nil
}

func (f *fakeS3) CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("CopyObject"); err != nil {
		return nil, err
	}
	bucket, key, _ := strings.Cut(aws.ToString(params.CopySource), "/")
	obj, err := f.object(aws.String(bucket), aws.String(key))
	if err != nil {
		return nil, err
	}
	dst, ok := f.buckets[aws.ToString(params.Bucket)]
	if !ok {
		return nil, &types.NoSuchBucket{Message: aws.String("no such bucket")}
	}
	dst[aws.ToString(params.Key)] = obj
	return &s3.CopyObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("DeleteObject"); err != nil {
		return nil, err
	}
	b, ok := f.buckets[aws.ToString(params.Bucket)]
	if !ok {
		return nil, &types.NoSuchBucket{Message: aws.String("no such bucket")}
	}
	delete(b, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("ListObjectsV2"); err != nil {
		return nil, err
	}
	b, ok := f.buckets[aws.ToString(params.Bucket)]
	if !ok {
		return nil, &types.NoSuchBucket{Message: aws.String("no such bucket")}
	}

	prefix, delim := aws.ToString(params.Prefix), aws.ToString(params.Delimiter)
	var keys []string
	for k := range b {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start, _ := strconv.Atoi(aws.ToString(params.ContinuationToken))
	page := f.pageSize
	if n := int(aws.ToInt32(params.MaxKeys)); n > 0 && n < page {
		page = n
	}
	end := min(start+page, len(keys))

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(keys))}
	seen := map[string]bool{}
	for _, k := range keys[start:end] {
		rest := strings.TrimPrefix(k, prefix)
		if delim != "" {
			if i := strings.Index(rest, delim); i >= 0 {
				p := prefix + rest[:i+len(delim)]
				if !seen[p] {
					seen[p] = true
					out.CommonPrefixes = append(out.CommonPrefixes, types.CommonPrefix{Prefix: aws.String(p)})
				}
				continue
			}
		}
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k), Size: aws.Int64(int64(len(b[k].data)))})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}
