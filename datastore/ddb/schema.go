/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/suparena/cloudadapter/datastore"
	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

var validate = validator.New()

// Schema manages the tables of a Service.
type Schema struct {
	svc *Service
}

var _ datastore.Schema = (*Schema)(nil)

// List returns the cached table names.
func (s *Schema) List(ctx context.Context) ([]string, error) {
	return s.svc.names.Names(ctx)
}

// Describe returns the descriptor of a table.
func (s *Schema) Describe(ctx context.Context, name string) (*storagemodels.TableDescriptor, error) {
	client, err := s.svc.conn()
	if err != nil {
		return nil, err
	}
	corrected, err := s.svc.names.Correct(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.svc.describe(ctx, client, corrected)
}

// Create creates a table and polls until it is ACTIVE.
func (s *Schema) Create(ctx context.Context, spec storagemodels.TableSpec) (*storagemodels.TableDescriptor, error) {
	client, err := s.svc.conn()
	if err != nil {
		return nil, err
	}
	input, err := createTableInput(spec)
	if err != nil {
		return nil, err
	}

	if _, err := client.CreateTable(ctx, input); err != nil {
		return nil, translateError("create table", spec.Name, err)
	}
	s.svc.logger.Info("table created, waiting for it to become active", zap.String("table", spec.Name))

	waiter := sdk.NewTableExistsWaiter(client, func(o *sdk.TableExistsWaiterOptions) {
		o.MinDelay = s.svc.waiterMinDelay
		o.MaxDelay = s.svc.waiterMaxDelay
	})
	out, err := waiter.WaitForOutput(ctx, &sdk.DescribeTableInput{TableName: aws.String(spec.Name)}, s.svc.waitTimeout)
	if err != nil {
		return nil, apperrors.NewInternalError("wait for table", spec.Name, err)
	}
	s.svc.names.Invalidate()
	return descriptorFromTable(out.Table), nil
}

// Update only supports the empty change set, which returns the current descriptor.
func (s *Schema) Update(ctx context.Context, name string, changes storagemodels.Record) (*storagemodels.TableDescriptor, error) {
	if len(changes) > 0 {
		return nil, apperrors.NewBadRequestError("schema update not supported for table %q", name)
	}
	return s.Describe(ctx, name)
}

// Delete deletes a table and polls until it is gone. The descriptor read
// before the delete is returned.
func (s *Schema) Delete(ctx context.Context, name string) (*storagemodels.TableDescriptor, error) {
	client, err := s.svc.conn()
	if err != nil {
		return nil, err
	}
	corrected, err := s.svc.names.Correct(ctx, name)
	if err != nil {
		return nil, err
	}

	out, err := client.DeleteTable(ctx, &sdk.DeleteTableInput{TableName: aws.String(corrected)})
	if err != nil {
		return nil, translateError("delete table", corrected, err)
	}
	s.svc.logger.Info("table deleted, waiting for it to disappear", zap.String("table", corrected))

	waiter := sdk.NewTableNotExistsWaiter(client, func(o *sdk.TableNotExistsWaiterOptions) {
		o.MinDelay = s.svc.waiterMinDelay
		o.MaxDelay = s.svc.waiterMaxDelay
	})
	if err := waiter.Wait(ctx, &sdk.DescribeTableInput{TableName: aws.String(corrected)}, s.svc.waitTimeout); err != nil {
		return nil, apperrors.NewInternalError("wait for table deletion", corrected, err)
	}
	s.svc.names.Invalidate()
	return descriptorFromTable(out.TableDescription), nil
}

func createTableInput(spec storagemodels.TableSpec) (*sdk.CreateTableInput, error) {
	if err := validate.Struct(spec); err != nil {
		return nil, apperrors.WrapBadRequest("invalid table definition", err)
	}
	if len(spec.KeySchema) == 0 {
		return nil, apperrors.NewBadRequestError("table %q requires a key schema", spec.Name)
	}

	var hashes, ranges int
	keySchema := make([]types.KeySchemaElement, 0, len(spec.KeySchema))
	for _, k := range spec.KeySchema {
		switch k.KeyRole {
		case storagemodels.KeyRoleHash:
			hashes++
		case storagemodels.KeyRoleRange:
			ranges++
		default:
			return nil, apperrors.NewBadRequestError("unknown key type %q for %q", k.KeyRole, k.AttributeName)
		}
		if _, ok := spec.AttributeDefinitions[k.AttributeName]; !ok {
			return nil, apperrors.NewBadRequestError("key attribute %q has no attribute definition", k.AttributeName)
		}
		keySchema = append(keySchema, types.KeySchemaElement{
			AttributeName: aws.String(k.AttributeName),
			KeyType:       types.KeyType(k.KeyRole),
		})
	}
	if hashes != 1 || ranges > 1 {
		return nil, apperrors.NewBadRequestError("table %q needs exactly one HASH key and at most one RANGE key", spec.Name)
	}

	names := make([]string, 0, len(spec.AttributeDefinitions))
	for name := range spec.AttributeDefinitions {
		names = append(names, name)
	}
	sort.Strings(names)
	defs := make([]types.AttributeDefinition, 0, len(names))
	for _, name := range names {
		st := spec.AttributeDefinitions[name]
		switch st {
		case storagemodels.ScalarString, storagemodels.ScalarNumber, storagemodels.ScalarBinary:
		default:
			return nil, apperrors.NewBadRequestError("attribute %q has unsupported type %q", name, st)
		}
		defs = append(defs, types.AttributeDefinition{
			AttributeName: aws.String(name),
			AttributeType: types.ScalarAttributeType(st),
		})
	}

	input := &sdk.CreateTableInput{
		TableName:            aws.String(spec.Name),
		KeySchema:            keySchema,
		AttributeDefinitions: defs,
		BillingMode:          types.BillingModePayPerRequest,
	}
	if tp := spec.Throughput; tp != nil {
		if tp.ReadCapacityUnits <= 0 || tp.WriteCapacityUnits <= 0 {
			return nil, apperrors.NewBadRequestError("table %q throughput must be positive", spec.Name)
		}
		input.BillingMode = types.BillingModeProvisioned
		input.ProvisionedThroughput = &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(tp.ReadCapacityUnits),
			WriteCapacityUnits: aws.Int64(tp.WriteCapacityUnits),
		}
	}
	return input, nil
}

func descriptorFromTable(td *types.TableDescription) *storagemodels.TableDescriptor {
	if td == nil {
		return &storagemodels.TableDescriptor{}
	}
	desc := &storagemodels.TableDescriptor{
		Name:                 aws.ToString(td.TableName),
		Status:               string(td.TableStatus),
		ItemCount:            aws.ToInt64(td.ItemCount),
		SizeBytes:            aws.ToInt64(td.TableSizeBytes),
		AttributeDefinitions: make(map[string]storagemodels.ScalarType, len(td.AttributeDefinitions)),
	}
	if td.CreationDateTime != nil {
		desc.CreatedAt = strfmt.DateTime(*td.CreationDateTime)
	}
	for _, k := range td.KeySchema {
		desc.KeySchema = append(desc.KeySchema, storagemodels.KeyElement{
			AttributeName: aws.ToString(k.AttributeName),
			KeyRole:       storagemodels.KeyRole(k.KeyType),
		})
	}
	for _, d := range td.AttributeDefinitions {
		desc.AttributeDefinitions[aws.ToString(d.AttributeName)] = storagemodels.ScalarType(d.AttributeType)
	}
	return desc
}
