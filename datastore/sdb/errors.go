/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sdb

import (
	"errors"

	"github.com/aws/aws-sdk-go/aws/awserr"

	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/registry"
)

var errorTable = registry.NewErrorTable(internalError).
	Register(notFoundError, "NoSuchDomain").
	Register(badRequestError,
		"AttributeDoesNotExist",
		"ConditionalCheckFailed",
		"DuplicateItemName",
		"InvalidNextToken",
		"InvalidNumberPredicates",
		"InvalidNumberValueTests",
		"InvalidParameterCombination",
		"InvalidParameterValue",
		"InvalidQueryExpression",
		"MissingParameter",
		"NumberDomainAttributesExceeded",
		"NumberDomainBytesExceeded",
		"NumberDomainsExceeded",
		"NumberItemAttributesExceeded",
		"NumberSubmittedAttributesExceeded",
		"NumberSubmittedItemsExceeded",
		"TooManyRequestedAttributes",
	)

func notFoundError(op, domain string, err error) error {
	return apperrors.WrapNotFound("domain", domain, err)
}

func badRequestError(op, domain string, err error) error {
	return apperrors.WrapBadRequest(op+" on domain "+domain, err)
}

func internalError(op, domain string, err error) error {
	return apperrors.NewInternalError(op, domain, err)
}

// translateError maps a SimpleDB failure onto the domain taxonomy.
func translateError(op, domain string, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsDomainError(err) {
		return err
	}

	var awsErr awserr.Error
	if errors.As(err, &awsErr) {
		return errorTable.Translate(awsErr.Code(), op, domain, err)
	}
	return internalError(op, domain, err)
}
