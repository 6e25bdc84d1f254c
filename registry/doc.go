/*
Package registry holds the per-service lookup state of cloudadapter.

Name Cache:
Table and domain names are listed once per service instance and reused to
validate and case-correct table references. The cache is never invalidated
behind the caller's back; call Refresh to pick up tables created elsewhere:

	names := registry.NewNameCache("table", svc.listTableNames)
	table, err := names.Correct(ctx, "Orders")   // "orders" when that is the real name
	err = names.Refresh(ctx)

Error Table:
Maps provider exception codes to domain error constructors, replacing
switches over exception class names:

	table := registry.NewErrorTable(internalError).
	    Register(notFound, "ResourceNotFoundException").
	    Register(badRequest, "ValidationException", "ConditionalCheckFailedException")

	err = table.Translate(apiErr.ErrorCode(), "scan", "orders", apiErr)
*/
package registry
