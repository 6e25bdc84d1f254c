/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package blobstore

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-openapi/strfmt"
	"go.uber.org/zap"

	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

const defaultContentType = "application/octet-stream"

// PutBlob uploads data. An empty contentType is guessed from the name's extension.
func (s *Store) PutBlob(ctx context.Context, container, name string, data []byte, contentType string) (*storagemodels.BlobProperties, error) {
	bucket, err := s.bucket(container)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, apperrors.NewBadRequestError("blob name can not be empty")
	}
	if contentType == "" {
		contentType = guessContentType(name)
	}

	out, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(name),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return nil, translateError("put blob", bucket+"/"+name, err)
	}
	s.logger.Debug("blob stored", zap.String("bucket", bucket), zap.String("key", name), zap.Int("bytes", len(data)))
	return &storagemodels.BlobProperties{
		Name:          name,
		Path:          bucket + "/" + name,
		ContentType:   contentType,
		ContentLength: int64(len(data)),
		LastModified:  strfmt.DateTime(time.Now().UTC()),
		ETag:          strings.Trim(aws.ToString(out.ETag), `"`),
	}, nil
}

// PutBlobFromFile uploads the contents of a local file.
func (s *Store) PutBlobFromFile(ctx context.Context, container, name, path, contentType string) (*storagemodels.BlobProperties, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.WrapBadRequest("read local file "+path, err)
	}
	if contentType == "" {
		contentType = guessContentType(path)
	}
	return s.PutBlob(ctx, container, name, data, contentType)
}

// GetBlob downloads a whole blob into memory.
func (s *Store) GetBlob(ctx context.Context, container, name string) ([]byte, error) {
	body, _, err := s.open(ctx, container, name)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, apperrors.NewInternalError("read blob", name, err)
	}
	return data, nil
}

// GetBlobToFile downloads a blob into a local file, creating parent directories.
func (s *Store) GetBlobToFile(ctx context.Context, container, name, path string) error {
	body, _, err := s.open(ctx, container, name)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.NewInternalError("create directory", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewInternalError("create file", path, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return apperrors.NewInternalError("write file", path, err)
	}
	return f.Close()
}

// open starts a download. The caller closes the body.
func (s *Store) open(ctx context.Context, container, name string) (io.ReadCloser, *storagemodels.BlobProperties, error) {
	bucket, err := s.bucket(container)
	if err != nil {
		return nil, nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(name)})
	if err != nil {
		return nil, nil, translateError("get blob", bucket+"/"+name, err)
	}
	props := &storagemodels.BlobProperties{
		Name:          name,
		Path:          bucket + "/" + name,
		ContentType:   aws.ToString(out.ContentType),
		ContentLength: aws.ToInt64(out.ContentLength),
		ETag:          strings.Trim(aws.ToString(out.ETag), `"`),
	}
	if out.LastModified != nil {
		props.LastModified = strfmt.DateTime(*out.LastModified)
	}
	return out.Body, props, nil
}

// CopyBlob copies a blob, possibly across containers.
func (s *Store) CopyBlob(ctx context.Context, srcContainer, srcName, dstContainer, dstName string) (*storagemodels.BlobProperties, error) {
	src, err := s.bucket(srcContainer)
	if err != nil {
		return nil, err
	}
	dst, err := s.bucket(dstContainer)
	if err != nil {
		return nil, err
	}
	if srcName == "" || dstName == "" {
		return nil, apperrors.NewBadRequestError("source and destination blob names are required")
	}

	if _, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(dst),
		Key:        aws.String(dstName),
		CopySource: aws.String(src + "/" + escapeKey(srcName)),
	}); err != nil {
		return nil, translateError("copy blob", src+"/"+srcName, err)
	}
	s.logger.Debug("blob copied", zap.String("from", src+"/"+srcName), zap.String("to", dst+"/"+dstName))
	return s.GetBlobProperties(ctx, dst, dstName)
}

// DeleteBlob deletes one blob.
func (s *Store) DeleteBlob(ctx context.Context, container, name string) error {
	bucket, err := s.bucket(container)
	if err != nil {
		return err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(bucket), Key: aws.String(name)}); err != nil {
		return translateError("delete blob", bucket+"/"+name, err)
	}
	s.logger.Debug("blob deleted", zap.String("bucket", bucket), zap.String("key", name))
	return nil
}

// BlobExists checks a blob with HeadObject. Every failure reads as false.
func (s *Store) BlobExists(ctx context.Context, container, name string) bool {
	if _, err := s.GetBlobProperties(ctx, container, name); err != nil {
		s.logger.Debug("blob check failed", zap.String("key", name), zap.Error(err))
		return false
	}
	return true
}

// GetBlobProperties reads a blob's metadata with HeadObject.
func (s *Store) GetBlobProperties(ctx context.Context, container, name string) (*storagemodels.BlobProperties, error) {
	bucket, err := s.bucket(container)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, apperrors.NewBadRequestError("blob name can not be empty")
	}
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(name)})
	if err != nil {
		return nil, translateError("get blob properties", bucket+"/"+name, err)
	}
	props := &storagemodels.BlobProperties{
		Name:          name,
		Path:          bucket + "/" + name,
		ContentType:   aws.ToString(out.ContentType),
		ContentLength: aws.ToInt64(out.ContentLength),
		ETag:          strings.Trim(aws.ToString(out.ETag), `"`),
	}
	if out.LastModified != nil {
		props.LastModified = strfmt.DateTime(*out.LastModified)
	}
	return props, nil
}

// escapeKey URL-encodes each segment of a key for CopySource.
func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func guessContentType(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return defaultContentType
}
