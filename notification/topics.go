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

// Topics is the topic resource. Ids are short names or topic ARNs.
type Topics struct {
	svc *Service
}

var _ Resource = (*Topics)(nil)

func (t *Topics) record(arn string) storagemodels.Record {
	return storagemodels.Record{"Topic": t.svc.arn.Strip(arn), "TopicArn": arn}
}

// List returns every topic, following NextToken.
func (t *Topics) List(ctx context.Context, _ string) ([]storagemodels.Record, error) {
	var out []storagemodels.Record
	input := &sns.ListTopicsInput{}
	for {
		page, err := t.svc.client.ListTopics(ctx, input)
		if err != nil {
			return nil, translateError("list topics", "", err)
		}
		for _, topic := range page.Topics {
			out = append(out, t.record(aws.ToString(topic.TopicArn)))
		}
		if aws.ToString(page.NextToken) == "" {
			break
		}
		input.NextToken = page.NextToken
	}
	t.svc.logger.Debug("topics listed", zap.Int("count", len(out)))
	return out, nil
}

// Get returns the topic and its attributes.
func (t *Topics) Get(ctx context.Context, id string) (storagemodels.Record, error) {
	if id == "" {
		return nil, apperrors.NewBadRequestError("topic id can not be empty")
	}
	arn := t.svc.arn.Add(id)
	out, err := t.svc.client.GetTopicAttributes(ctx, &sns.GetTopicAttributesInput{TopicArn: aws.String(arn)})
	if err != nil {
		return nil, translateError("get topic", arn, err)
	}
	rec := t.record(arn)
	rec["Attributes"] = attributesRecord(out.Attributes)
	return rec, nil
}

// Create creates a topic from {"Name", "Attributes"}.
func (t *Topics) Create(ctx context.Context, payload storagemodels.Record) (storagemodels.Record, error) {
	name := stringField(payload, "Name", "Topic")
	if name == "" {
		return nil, apperrors.NewBadRequestError("create topic requires a Name")
	}
	attrs, err := attributesField(payload)
	if err != nil {
		return nil, err
	}
	out, err := t.svc.client.CreateTopic(ctx, &sns.CreateTopicInput{Name: aws.String(name), Attributes: attrs})
	if err != nil {
		return nil, translateError("create topic", name, err)
	}
	t.svc.logger.Info("topic created", zap.String("topic", aws.ToString(out.TopicArn)))
	return t.record(aws.ToString(out.TopicArn)), nil
}

// Update sets topic attributes from {"Topic"|"TopicArn", "AttributeName",
// "AttributeValue"} or {"Topic"|"TopicArn", "Attributes"}.
func (t *Topics) Update(ctx context.Context, payload storagemodels.Record) (storagemodels.Record, error) {
	id := stringField(payload, "TopicArn", "Topic")
	if id == "" {
		return nil, apperrors.NewBadRequestError("update topic requires Topic or TopicArn")
	}
	attrs, err := singleAttribute(payload)
	if err != nil {
		return nil, err
	}
	arn := t.svc.arn.Add(id)
	for _, name := range sortedKeys(attrs) {
		if _, err := t.svc.client.SetTopicAttributes(ctx, &sns.SetTopicAttributesInput{
			TopicArn:       aws.String(arn),
			AttributeName:  aws.String(name),
			AttributeValue: aws.String(attrs[name]),
		}); err != nil {
			return nil, translateError("update topic", arn, err)
		}
	}
	return t.record(arn), nil
}

// Delete deletes a topic.
func (t *Topics) Delete(ctx context.Context, id string) (storagemodels.Record, error) {
	if id == "" {
		return nil, apperrors.NewBadRequestError("topic id can not be empty")
	}
	arn := t.svc.arn.Add(id)
	if _, err := t.svc.client.DeleteTopic(ctx, &sns.DeleteTopicInput{TopicArn: aws.String(arn)}); err != nil {
		return nil, translateError("delete topic", arn, err)
	}
	t.svc.logger.Info("topic deleted", zap.String("topic", arn))
	return t.record(arn), nil
}
