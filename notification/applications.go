/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package notification

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"

	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

// Applications is the platform application resource.
type Applications struct {
	svc *Service
}

var _ Resource = (*Applications)(nil)

func (r *Applications) record(arn string, attrs map[string]string) storagemodels.Record {
	rec := storagemodels.Record{"Application": r.svc.arn.Strip(arn), "PlatformApplicationArn": arn}
	if attrs != nil {
		rec["Attributes"] = attributesRecord(attrs)
	}
	return rec
}

// List returns every platform application, following NextToken.
func (r *Applications) List(ctx context.Context, _ string) ([]storagemodels.Record, error) {
	arns, err := r.arns(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]storagemodels.Record, 0, len(arns))
	for _, a := range arns {
		out = append(out, r.record(a.arn, a.attrs))
	}
	return out, nil
}

type application struct {
	arn   string
	attrs map[string]string
}

func (r *Applications) arns(ctx context.Context) ([]application, error) {
	var apps []application
	input := &sns.ListPlatformApplicationsInput{}
	for {
		page, err := r.svc.client.ListPlatformApplications(ctx, input)
		if err != nil {
			return nil, translateError("list applications", "", err)
		}
		for _, app := range page.PlatformApplications {
			apps = append(apps, application{arn: aws.ToString(app.PlatformApplicationArn), attrs: app.Attributes})
		}
		if aws.ToString(page.NextToken) == "" {
			break
		}
		input.NextToken = page.NextToken
	}
	r.svc.logger.Debug("applications listed", zap.Int("count", len(apps)))
	return apps, nil
}

// Get returns the application attributes.
func (r *Applications) Get(ctx context.Context, id string) (storagemodels.Record, error) {
	if id == "" {
		return nil, apperrors.NewBadRequestError("application id can not be empty")
	}
	arn := r.svc.arn.Add(id)
	out, err := r.svc.client.GetPlatformApplicationAttributes(ctx, &sns.GetPlatformApplicationAttributesInput{
		PlatformApplicationArn: aws.String(arn),
	})
	if err != nil {
		return nil, translateError("get application", arn, err)
	}
	return r.record(arn, out.Attributes), nil
}

// Create creates a platform application from {"Name", "Platform", "Attributes"}.
func (r *Applications) Create(ctx context.Context, payload storagemodels.Record) (storagemodels.Record, error) {
	name := stringField(payload, "Name")
	platform := stringField(payload, "Platform")
	if name == "" || platform == "" {
		return nil, apperrors.NewBadRequestError("create application requires Name and Platform")
	}
	attrs, err := attributesField(payload)
	if err != nil {
		return nil, err
	}
	out, err := r.svc.client.CreatePlatformApplication(ctx, &sns.CreatePlatformApplicationInput{
		Name:       aws.String(name),
		Platform:   aws.String(platform),
		Attributes: attrs,
	})
	if err != nil {
		return nil, translateError("create application", name, err)
	}
	arn := aws.ToString(out.PlatformApplicationArn)
	r.svc.logger.Info("application created", zap.String("application", arn))
	return r.record(arn, nil), nil
}

// Update sets application attributes from {"Application"|"PlatformApplicationArn", "Attributes"}.
func (r *Applications) Update(ctx context.Context, payload storagemodels.Record) (storagemodels.Record, error) {
	id := stringField(payload, "PlatformApplicationArn", "Application")
	if id == "" {
		return nil, apperrors.NewBadRequestError("update application requires Application or PlatformApplicationArn")
	}
	attrs, err := singleAttribute(payload)
	if err != nil {
		return nil, err
	}
	arn := r.svc.arn.Add(id)
	if _, err := r.svc.client.SetPlatformApplicationAttributes(ctx, &sns.SetPlatformApplicationAttributesInput{
		PlatformApplicationArn: aws.String(arn),
		Attributes:             attrs,
	}); err != nil {
		return nil, translateError("update application", arn, err)
	}
	return r.record(arn, nil), nil
}

// Delete deletes a platform application.
func (r *Applications) Delete(ctx context.Context, id string) (storagemodels.Record, error) {
	if id == "" {
		return nil, apperrors.NewBadRequestError("application id can not be empty")
	}
	arn := r.svc.arn.Add(id)
	if _, err := r.svc.client.DeletePlatformApplication(ctx, &sns.DeletePlatformApplicationInput{
		PlatformApplicationArn: aws.String(arn),
	}); err != nil {
		return nil, translateError("delete application", arn, err)
	}
	r.svc.logger.Info("application deleted", zap.String("application", arn))
	return r.record(arn, nil), nil
}
