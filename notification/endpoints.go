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

// Endpoints is the platform endpoint resource. Listing can be scoped to an
// application; unscoped listing walks every application.
type Endpoints struct {
	svc *Service
}

var _ Resource = (*Endpoints)(nil)

func (r *Endpoints) record(arn, app string, attrs map[string]string) storagemodels.Record {
	rec := storagemodels.Record{"Endpoint": r.svc.arn.Strip(arn), "EndpointArn": arn}
	if app != "" {
		rec["Application"] = r.svc.arn.Strip(app)
	}
	if attrs != nil {
		rec["Attributes"] = attributesRecord(attrs)
	}
	return rec
}

// List returns the endpoints of application, or of every application.
func (r *Endpoints) List(ctx context.Context, application string) ([]storagemodels.Record, error) {
	var apps []string
	if application != "" {
		apps = []string{r.svc.arn.Add(application)}
	} else {
		all, err := r.svc.Applications().arns(ctx)
		if err != nil {
			return nil, err
		}
		for _, a := range all {
			apps = append(apps, a.arn)
		}
	}

	var out []storagemodels.Record
	for _, app := range apps {
		input := &sns.ListEndpointsByPlatformApplicationInput{PlatformApplicationArn: aws.String(app)}
		for {
			page, err := r.svc.client.ListEndpointsByPlatformApplication(ctx, input)
			if err != nil {
				return nil, translateError("list endpoints", app, err)
			}
			for _, ep := range page.Endpoints {
				out = append(out, r.record(aws.ToString(ep.EndpointArn), app, ep.Attributes))
			}
			if aws.ToString(page.NextToken) == "" {
				break
			}
			input.NextToken = page.NextToken
		}
	}
	r.svc.logger.Debug("endpoints listed", zap.Int("applications", len(apps)), zap.Int("count", len(out)))
	return out, nil
}

// Get returns the endpoint attributes.
func (r *Endpoints) Get(ctx context.Context, id string) (storagemodels.Record, error) {
	if id == "" {
		return nil, apperrors.NewBadRequestError("endpoint id can not be empty")
	}
	arn := r.svc.arn.Add(id)
	out, err := r.svc.client.GetEndpointAttributes(ctx, &sns.GetEndpointAttributesInput{EndpointArn: aws.String(arn)})
	if err != nil {
		return nil, translateError("get endpoint", arn, err)
	}
	return r.record(arn, "", out.Attributes), nil
}

// Create registers a device from {"Application"|"PlatformApplicationArn",
// "Token", "CustomUserData", "Attributes"}.
func (r *Endpoints) Create(ctx context.Context, payload storagemodels.Record) (storagemodels.Record, error) {
	app := stringField(payload, "PlatformApplicationArn", "Application")
	token := stringField(payload, "Token")
	if app == "" || token == "" {
		return nil, apperrors.NewBadRequestError("create endpoint requires Application and Token")
	}
	attrs, err := attributesField(payload)
	if err != nil {
		return nil, err
	}
	input := &sns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(r.svc.arn.Add(app)),
		Token:                  aws.String(token),
		Attributes:             attrs,
	}
	if data := stringField(payload, "CustomUserData"); data != "" {
		input.CustomUserData = aws.String(data)
	}
	out, err := r.svc.client.CreatePlatformEndpoint(ctx, input)
	if err != nil {
		return nil, translateError("create endpoint", aws.ToString(input.PlatformApplicationArn), err)
	}
	arn := aws.ToString(out.EndpointArn)
	r.svc.logger.Info("endpoint created", zap.String("endpoint", arn))
	return r.record(arn, aws.ToString(input.PlatformApplicationArn), nil), nil
}

// Update sets endpoint attributes.
func (r *Endpoints) Update(ctx context.Context, payload storagemodels.Record) (storagemodels.Record, error) {
	id := stringField(payload, "EndpointArn", "Endpoint")
	if id == "" {
		return nil, apperrors.NewBadRequestError("update endpoint requires Endpoint or EndpointArn")
	}
	attrs, err := singleAttribute(payload)
	if err != nil {
		return nil, err
	}
	arn := r.svc.arn.Add(id)
	if _, err := r.svc.client.SetEndpointAttributes(ctx, &sns.SetEndpointAttributesInput{
		EndpointArn: aws.String(arn),
		Attributes:  attrs,
	}); err != nil {
		return nil, translateError("update endpoint", arn, err)
	}
	return r.record(arn, "", nil), nil
}

// Delete deletes an endpoint.
func (r *Endpoints) Delete(ctx context.Context, id string) (storagemodels.Record, error) {
	if id == "" {
		return nil, apperrors.NewBadRequestError("endpoint id can not be empty")
	}
	arn := r.svc.arn.Add(id)
	if _, err := r.svc.client.DeleteEndpoint(ctx, &sns.DeleteEndpointInput{EndpointArn: aws.String(arn)}); err != nil {
		return nil, translateError("delete endpoint", arn, err)
	}
	r.svc.logger.Info("endpoint deleted", zap.String("endpoint", arn))
	return r.record(arn, "", nil), nil
}
