/*
Package errors provides the domain error taxonomy shared by every cloudadapter resource.

Provider exceptions are caught at the resource boundary and translated into
one of four kinds, each backed by a sentinel that can be checked with the
standard errors.Is() function or the provided helper functions.

Common Errors:

	var (
	    ErrBadRequest         = errors.New("bad request")
	    ErrNotFound           = errors.New("resource not found")
	    ErrInternal           = errors.New("internal error")
	    ErrServiceUnavailable = errors.New("service unavailable")
	)

Usage:

	records, err := table.Retrieve(ctx, opts)
	if err != nil {
	    if errors.IsNotFound(err) {
	        // table is gone
	    }
	    return nil, err
	}

	// Create typed errors
	err := errors.NewBadRequestError("filter %q is not supported", filter)
	err := errors.NewNotFoundError("table", "orders")
	err := errors.NewInternalError("put item", "orders", providerErr)
	err := errors.NewServiceUnavailableError("dynamodb", loadErr)

A BatchError is returned by multi-record writes running with continue
enabled. It carries the partial results and unwraps to every individual
failure, so errors.Is(batchErr, ErrNotFound) reports whether any record
failed with a missing resource.

StatusCode converts any error into the HTTP status used by the httpapi
package.
*/
package errors
