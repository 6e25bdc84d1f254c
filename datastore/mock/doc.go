// Package mock provides in-memory DynamoDB and SimpleDB clients for testing.
//
// The fakes keep their data in maps, evaluate scan filters and select
// predicates, and let tests inject a failure into the nth call of any
// operation:
//
//	db := mock.NewDynamoDB().
//	    AddTable("users", "id", "").
//	    FailOn("PutItem", 2, &types.InternalServerError{Message: aws.String("boom")})
package mock
