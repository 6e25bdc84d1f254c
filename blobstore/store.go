/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package blobstore

import (
	"context"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/go-openapi/strfmt"
	"go.uber.org/zap"

	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

// DefaultRegion needs no location constraint when creating a bucket.
const DefaultRegion = "us-east-1"

// Store is the blob resource of one S3 client. Every method takes a
// container (bucket) name; an empty name means the default container.
type Store struct {
	client    Client
	container string
	region    string
	logger    *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithRegion sets the region new buckets are created in.
func WithRegion(region string) Option {
	return func(s *Store) {
		s.region = region
	}
}

// New creates a Store and makes sure the default container exists,
// creating it when it does not.
func New(ctx context.Context, client Client, container string, opts ...Option) (*Store, error) {
	s := &Store{
		client:    client,
		container: container,
		region:    DefaultRegion,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if container != "" && !s.ContainerExists(ctx, container) {
		if _, err := s.CreateContainer(ctx, container); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// DefaultContainer returns the configured container name.
func (s *Store) DefaultContainer() string {
	return s.container
}

func (s *Store) bucket(container string) (string, error) {
	if container != "" {
		return container, nil
	}
	if s.container != "" {
		return s.container, nil
	}
	return "", apperrors.NewBadRequestError("no container specified and no default container configured")
}

// ListContainers returns every bucket visible to the credentials, sorted by name.
func (s *Store) ListContainers(ctx context.Context) ([]storagemodels.ContainerInfo, error) {
	out, err := s.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, translateError("list containers", "", err)
	}
	containers := make([]storagemodels.ContainerInfo, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		containers = append(containers, containerInfo(aws.ToString(b.Name), b.CreationDate))
	}
	sort.Slice(containers, func(i, j int) bool { return containers[i].Name < containers[j].Name })
	s.logger.Debug("containers listed", zap.Int("count", len(containers)))
	return containers, nil
}

// ContainerExists checks a bucket with HeadBucket. Every failure reads as false.
func (s *Store) ContainerExists(ctx context.Context, container string) bool {
	name, err := s.bucket(container)
	if err != nil {
		return false
	}
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(name)}); err != nil {
		s.logger.Debug("container check failed", zap.String("bucket", name), zap.Error(err))
		return false
	}
	return true
}

// CreateContainer creates a bucket in the store's region.
func (s *Store) CreateContainer(ctx context.Context, container string) (*storagemodels.ContainerInfo, error) {
	if container == "" {
		return nil, apperrors.NewBadRequestError("container name can not be empty")
	}
	input := &s3.CreateBucketInput{Bucket: aws.String(container)}
	if s.region != "" && s.region != DefaultRegion {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}
	if _, err := s.client.CreateBucket(ctx, input); err != nil {
		return nil, translateError("create container", container, err)
	}
	s.logger.Info("container created", zap.String("bucket", container))
	now := time.Now().UTC()
	info := containerInfo(container, &now)
	return &info, nil
}

// DeleteContainer deletes an empty bucket.
func (s *Store) DeleteContainer(ctx context.Context, container string) error {
	if container == "" {
		return apperrors.NewBadRequestError("container name can not be empty")
	}
	if _, err := s.client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(container)}); err != nil {
		return translateError("delete container", container, err)
	}
	s.logger.Info("container deleted", zap.String("bucket", container))
	return nil
}

func containerInfo(name string, created *time.Time) storagemodels.ContainerInfo {
	info := storagemodels.ContainerInfo{Name: name, Path: name}
	if created != nil {
		info.LastModified = strfmt.DateTime(*created)
	}
	return info
}
