/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package blobstore

import (
	"errors"

	"github.com/aws/smithy-go"

	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/registry"
)

var errorTable = registry.NewErrorTable(internalError).
	Register(notFoundError, "NoSuchBucket", "NoSuchKey", "NotFound").
	Register(badRequestError,
		"AccessDenied",
		"BucketAlreadyExists",
		"BucketAlreadyOwnedByYou",
		"BucketNotEmpty",
		"EntityTooLarge",
		"InvalidArgument",
		"InvalidBucketName",
		"InvalidObjectState",
		"InvalidRequest",
		"KeyTooLongError",
		"TooManyBuckets",
	)

func notFoundError(op, resource string, err error) error {
	return apperrors.WrapNotFound("blob", resource, err)
}

func badRequestError(op, resource string, err error) error {
	return apperrors.WrapBadRequest(op+" "+resource, err)
}

func internalError(op, resource string, err error) error {
	return apperrors.NewInternalError(op, resource, err)
}

// translateError maps an S3 failure onto the domain taxonomy. resource is
// the container, or container/blob for object operations.
func translateError(op, resource string, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsDomainError(err) {
		return err
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return errorTable.Translate(apiErr.ErrorCode(), op, resource, err)
	}
	return internalError(op, resource, err)
}
