/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Client is the subset of the DynamoDB API used by the table and schema resources.
type Client interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *sdk.UpdateItemInput, optFns ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	Scan(ctx context.Context, params *sdk.ScanInput, optFns ...func(*sdk.Options)) (*sdk.ScanOutput, error)
	BatchWriteItem(ctx context.Context, params *sdk.BatchWriteItemInput, optFns ...func(*sdk.Options)) (*sdk.BatchWriteItemOutput, error)
	BatchGetItem(ctx context.Context, params *sdk.BatchGetItemInput, optFns ...func(*sdk.Options)) (*sdk.BatchGetItemOutput, error)

	CreateTable(ctx context.Context, params *sdk.CreateTableInput, optFns ...func(*sdk.Options)) (*sdk.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *sdk.DescribeTableInput, optFns ...func(*sdk.Options)) (*sdk.DescribeTableOutput, error)
	DeleteTable(ctx context.Context, params *sdk.DeleteTableInput, optFns ...func(*sdk.Options)) (*sdk.DeleteTableOutput, error)
	ListTables(ctx context.Context, params *sdk.ListTablesInput, optFns ...func(*sdk.Options)) (*sdk.ListTablesOutput, error)
}

var _ Client = (*sdk.Client)(nil)
