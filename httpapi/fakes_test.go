/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package httpapi

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/suparena/cloudadapter/blobstore"
	"github.com/suparena/cloudadapter/notification"
)

var modified = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

type object struct {
	data        []byte
	contentType string
}

// fakeS3 implements the calls the routes make; anything else panics
// through the nil embedded interface.
type fakeS3 struct {
	blobstore.Client

	mu      sync.Mutex
	buckets map[string]map[string]object
}

func newFakeS3(buckets ...string) *fakeS3 {
	f := &fakeS3{buckets: map[string]map[string]object{}}
	for _, b := range buckets {
		f.buckets[b] = map[string]object{}
	}
	return f
}

func (f *fakeS3) ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &s3.ListBucketsOutput{}
	for name := range f.buckets {
		out.Buckets = append(out.Buckets, s3types.Bucket{Name: aws.String(name), CreationDate: aws.Time(modified)})
	}
	return out, nil
}

func (f *fakeS3) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.buckets[aws.ToString(params.Bucket)]; !ok {
		return nil, &s3types.NotFound{}
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[aws.ToString(params.Bucket)] = map[string]object{}
	return &s3.CreateBucketOutput{}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bucket, ok := f.buckets[aws.ToString(params.Bucket)]
	if !ok {
		return nil, &s3types.NoSuchBucket{}
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	bucket[aws.ToString(params.Key)] = object{data: data, contentType: aws.ToString(params.ContentType)}
	return &s3.PutObjectOutput{ETag: aws.String(`"etag"`)}, nil
}

func (f *fakeS3) lookup(bucket, key *string) (object, error) {
	b, ok := f.buckets[aws.ToString(bucket)]
	if !ok {
		return object{}, &s3types.NoSuchBucket{}
	}
	obj, ok := b[aws.ToString(key)]
	if !ok {
		return object{}, &s3types.NoSuchKey{}
	}
	return obj, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, err := f.lookup(params.Bucket, params.Key)
	if err != nil {
		return nil, err
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.data)),
		ContentType:   aws.String(obj.contentType),
		ContentLength: aws.Int64(int64(len(obj.data))),
		LastModified:  aws.Time(modified),
	}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, err := f.lookup(params.Bucket, params.Key)
	if err != nil {
		return nil, &s3types.NotFound{}
	}
	return &s3.HeadObjectOutput{
		ContentType:   aws.String(obj.contentType),
		ContentLength: aws.Int64(int64(len(obj.data))),
		LastModified:  aws.Time(modified),
	}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.buckets[aws.ToString(params.Bucket)], aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.buckets[aws.ToString(params.Bucket)]
	if !ok {
		return nil, &s3types.NoSuchBucket{}
	}
	keys := make([]string, 0, len(b))
	for k := range b {
		if strings.HasPrefix(k, aws.ToString(params.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, s3types.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(b[k].data))),
			LastModified: aws.Time(modified),
		})
	}
	return out, nil
}

// fakeSNS records published messages.
type fakeSNS struct {
	notification.Client

	mu        sync.Mutex
	published []*sns.PublishInput
	topics    []string
}

func (f *fakeSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, params)
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

func (f *fakeSNS) ListTopics(ctx context.Context, params *sns.ListTopicsInput, optFns ...func(*sns.Options)) (*sns.ListTopicsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &sns.ListTopicsOutput{}
	for _, t := range f.topics {
		out.Topics = append(out.Topics, snstypes.Topic{TopicArn: aws.String(t)})
	}
	return out, nil
}
