/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package notification

import (
	"errors"

	"github.com/aws/smithy-go"

	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/registry"
)

// errorTable has no fallback: an unmapped code comes back unchanged from
// Translate and translateError wraps it as an internal error.
var errorTable = registry.NewErrorTable(nil).
	Register(notFoundError, "NotFound", "ResourceNotFound").
	Register(badRequestError,
		"AuthorizationError",
		"EndpointDisabled",
		"FilterPolicyLimitExceeded",
		"InvalidParameter",
		"InvalidParameterValue",
		"InvalidSecurity",
		"OptInRequired",
		"PlatformApplicationDisabled",
		"SubscriptionLimitExceeded",
		"TagLimitExceeded",
		"TagPolicy",
		"Throttled",
		"TopicLimitExceeded",
		"ValidationException",
	).
	Register(internalError,
		"InternalError",
		"KMSAccessDenied",
		"KMSDisabled",
		"KMSInvalidState",
		"KMSNotFound",
		"KMSOptInRequired",
		"KMSThrottling",
	)

func notFoundError(op, resource string, err error) error {
	return apperrors.WrapNotFound("notification resource", resource, err)
}

func badRequestError(op, resource string, err error) error {
	return apperrors.WrapBadRequest(op+" "+resource, err)
}

func internalError(op, resource string, err error) error {
	return apperrors.NewInternalError(op, resource, err)
}

// translateError maps an SNS failure onto the domain taxonomy.
func translateError(op, resource string, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsDomainError(err) {
		return err
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if mapped := errorTable.Translate(apiErr.ErrorCode(), op, resource, err); apperrors.IsDomainError(mapped) {
			return mapped
		}
	}
	return internalError(op, resource, err)
}
