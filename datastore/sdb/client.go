/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sdb

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/simpledb"
)

// Client is the subset of the SimpleDB API used by the table and schema resources.
type Client interface {
	SelectWithContext(ctx aws.Context, input *simpledb.SelectInput, opts ...request.Option) (*simpledb.SelectOutput, error)
	GetAttributesWithContext(ctx aws.Context, input *simpledb.GetAttributesInput, opts ...request.Option) (*simpledb.GetAttributesOutput, error)
	PutAttributesWithContext(ctx aws.Context, input *simpledb.PutAttributesInput, opts ...request.Option) (*simpledb.PutAttributesOutput, error)
	DeleteAttributesWithContext(ctx aws.Context, input *simpledb.DeleteAttributesInput, opts ...request.Option) (*simpledb.DeleteAttributesOutput, error)
	BatchPutAttributesWithContext(ctx aws.Context, input *simpledb.BatchPutAttributesInput, opts ...request.Option) (*simpledb.BatchPutAttributesOutput, error)
	BatchDeleteAttributesWithContext(ctx aws.Context, input *simpledb.BatchDeleteAttributesInput, opts ...request.Option) (*simpledb.BatchDeleteAttributesOutput, error)

	CreateDomainWithContext(ctx aws.Context, input *simpledb.CreateDomainInput, opts ...request.Option) (*simpledb.CreateDomainOutput, error)
	DeleteDomainWithContext(ctx aws.Context, input *simpledb.DeleteDomainInput, opts ...request.Option) (*simpledb.DeleteDomainOutput, error)
	DomainMetadataWithContext(ctx aws.Context, input *simpledb.DomainMetadataInput, opts ...request.Option) (*simpledb.DomainMetadataOutput, error)
	ListDomainsWithContext(ctx aws.Context, input *simpledb.ListDomainsInput, opts ...request.Option) (*simpledb.ListDomainsOutput, error)
}

var _ Client = (*simpledb.SimpleDB)(nil)
