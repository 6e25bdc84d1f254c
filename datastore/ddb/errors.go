/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/registry"
)

var errorTable = registry.NewErrorTable(internalError).
	Register(notFoundError, "ResourceNotFoundException", "TableNotFoundException").
	Register(badRequestError,
		"ValidationException",
		"ConditionalCheckFailedException",
		"ItemCollectionSizeLimitExceededException",
		"ResourceInUseException",
		"LimitExceededException",
		"TransactionConflictException",
		"SerializationException",
	)

func notFoundError(op, table string, err error) error {
	return apperrors.WrapNotFound("table", table, err)
}

func badRequestError(op, table string, err error) error {
	return apperrors.WrapBadRequest(op+" on table "+table, err)
}

func internalError(op, table string, err error) error {
	return apperrors.NewInternalError(op, table, err)
}

// translateError maps a DynamoDB failure onto the domain taxonomy.
func translateError(op, table string, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsDomainError(err) {
		return err
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return errorTable.Translate(apiErr.ErrorCode(), op, table, err)
	}
	return internalError(op, table, err)
}

// isRetryableError reports whether a failure is worth another attempt.
func isRetryableError(err error) bool {
	var throughput *types.ProvisionedThroughputExceededException
	var limit *types.RequestLimitExceeded
	var internal *types.InternalServerError
	switch {
	case errors.As(err, &throughput), errors.As(err, &limit), errors.As(err, &internal):
		return true
	}

	if awsErr, ok := err.(interface{ IsRetryable() bool }); ok {
		return awsErr.IsRetryable()
	}
	return false
}
