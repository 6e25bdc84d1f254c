/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sdb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/simpledb"
	"github.com/go-openapi/strfmt"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/suparena/cloudadapter/datastore"
	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

var validate = validator.New()

// Schema manages the domains of a Service.
type Schema struct {
	svc *Service
}

var _ datastore.Schema = (*Schema)(nil)

// List returns the cached domain names.
func (s *Schema) List(ctx context.Context) ([]string, error) {
	return s.svc.names.Names(ctx)
}

// Describe returns the domain metadata.
func (s *Schema) Describe(ctx context.Context, name string) (*storagemodels.TableDescriptor, error) {
	client, err := s.svc.conn()
	if err != nil {
		return nil, err
	}
	corrected, err := s.svc.names.Correct(ctx, name)
	if err != nil {
		return nil, err
	}
	return describe(ctx, client, corrected)
}

// Create creates a domain. Domains are usable as soon as CreateDomain returns.
func (s *Schema) Create(ctx context.Context, spec storagemodels.TableSpec) (*storagemodels.TableDescriptor, error) {
	if err := validate.Struct(spec); err != nil {
		return nil, apperrors.WrapBadRequest("invalid domain spec", err)
	}
	client, err := s.svc.conn()
	if err != nil {
		return nil, err
	}
	if _, err := client.CreateDomainWithContext(ctx, &simpledb.CreateDomainInput{DomainName: aws.String(spec.Name)}); err != nil {
		return nil, translateError("create domain", spec.Name, err)
	}
	s.svc.logger.Info("domain created", zap.String("domain", spec.Name))
	s.svc.names.Invalidate()
	return describe(ctx, client, spec.Name)
}

// Update only supports the empty change set; domains have no mutable settings.
func (s *Schema) Update(ctx context.Context, name string, changes storagemodels.Record) (*storagemodels.TableDescriptor, error) {
	if len(changes) > 0 {
		return nil, apperrors.NewBadRequestError("schema update not supported for domain %q", name)
	}
	return s.Describe(ctx, name)
}

// Delete deletes a domain and returns its last metadata.
func (s *Schema) Delete(ctx context.Context, name string) (*storagemodels.TableDescriptor, error) {
	desc, err := s.Describe(ctx, name)
	if err != nil {
		return nil, err
	}
	client, err := s.svc.conn()
	if err != nil {
		return nil, err
	}
	if _, err := client.DeleteDomainWithContext(ctx, &simpledb.DeleteDomainInput{DomainName: aws.String(desc.Name)}); err != nil {
		return nil, translateError("delete domain", desc.Name, err)
	}
	s.svc.logger.Info("domain deleted", zap.String("domain", desc.Name))
	s.svc.names.Invalidate()
	desc.Status = "DELETED"
	return desc, nil
}

func describe(ctx context.Context, client Client, name string) (*storagemodels.TableDescriptor, error) {
	out, err := client.DomainMetadataWithContext(ctx, &simpledb.DomainMetadataInput{DomainName: aws.String(name)})
	if err != nil {
		return nil, translateError("describe domain", name, err)
	}
	desc := &storagemodels.TableDescriptor{
		Name:      name,
		Status:    "ACTIVE",
		ItemCount: aws.Int64Value(out.ItemCount),
		SizeBytes: aws.Int64Value(out.ItemNamesSizeBytes) +
			aws.Int64Value(out.AttributeNamesSizeBytes) +
			aws.Int64Value(out.AttributeValuesSizeBytes),
	}
	if ts := aws.Int64Value(out.Timestamp); ts > 0 {
		desc.CreatedAt = strfmt.DateTime(time.Unix(ts, 0).UTC())
	}
	return desc, nil
}
