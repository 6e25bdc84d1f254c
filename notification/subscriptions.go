/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package notification

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"go.uber.org/zap"

	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

// Subscriptions is the subscription resource. Listing can be scoped to a topic.
type Subscriptions struct {
	svc *Service
}

var _ Resource = (*Subscriptions)(nil)

func (r *Subscriptions) record(sub types.Subscription) storagemodels.Record {
	arn := aws.ToString(sub.SubscriptionArn)
	return storagemodels.Record{
		"Subscription":    r.svc.arn.Strip(arn),
		"SubscriptionArn": arn,
		"Topic":           r.svc.arn.Strip(aws.ToString(sub.TopicArn)),
		"TopicArn":        aws.ToString(sub.TopicArn),
		"Protocol":        aws.ToString(sub.Protocol),
		"Endpoint":        aws.ToString(sub.Endpoint),
		"Owner":           aws.ToString(sub.Owner),
	}
}

// List returns the subscriptions of topic, or of every topic when topic is empty.
func (r *Subscriptions) List(ctx context.Context, topic string) ([]storagemodels.Record, error) {
	var out []storagemodels.Record
	var token *string
	for {
		var subs []types.Subscription
		var next *string
		if topic != "" {
			arn := r.svc.arn.Add(topic)
			page, err := r.svc.client.ListSubscriptionsByTopic(ctx, &sns.ListSubscriptionsByTopicInput{
				TopicArn:  aws.String(arn),
				NextToken: token,
			})
			if err != nil {
				return nil, translateError("list subscriptions", arn, err)
			}
			subs, next = page.Subscriptions, page.NextToken
		} else {
			page, err := r.svc.client.ListSubscriptions(ctx, &sns.ListSubscriptionsInput{NextToken: token})
			if err != nil {
				return nil, translateError("list subscriptions", "", err)
			}
			subs, next = page.Subscriptions, page.NextToken
		}
		for _, sub := range subs {
			out = append(out, r.record(sub))
		}
		if aws.ToString(next) == "" {
			break
		}
		token = next
	}
	r.svc.logger.Debug("subscriptions listed", zap.String("topic", topic), zap.Int("count", len(out)))
	return out, nil
}

// Get returns the subscription attributes.
func (r *Subscriptions) Get(ctx context.Context, id string) (storagemodels.Record, error) {
	if id == "" {
		return nil, apperrors.NewBadRequestError("subscription id can not be empty")
	}
	arn := r.svc.arn.Add(id)
	out, err := r.svc.client.GetSubscriptionAttributes(ctx, &sns.GetSubscriptionAttributesInput{SubscriptionArn: aws.String(arn)})
	if err != nil {
		return nil, translateError("get subscription", arn, err)
	}
	return storagemodels.Record{
		"Subscription":    r.svc.arn.Strip(arn),
		"SubscriptionArn": arn,
		"Attributes":      attributesRecord(out.Attributes),
	}, nil
}

// Create subscribes {"Protocol", "Endpoint", "Attributes"} to "Topic" or "TopicArn".
func (r *Subscriptions) Create(ctx context.Context, payload storagemodels.Record) (storagemodels.Record, error) {
	topic := stringField(payload, "TopicArn", "Topic")
	protocol := stringField(payload, "Protocol")
	if topic == "" || protocol == "" {
		return nil, apperrors.NewBadRequestError("create subscription requires Topic and Protocol")
	}
	attrs, err := attributesField(payload)
	if err != nil {
		return nil, err
	}
	input := &sns.SubscribeInput{
		TopicArn:              aws.String(r.svc.arn.Add(topic)),
		Protocol:              aws.String(protocol),
		Attributes:            attrs,
		ReturnSubscriptionArn: true,
	}
	if ep := stringField(payload, "Endpoint"); ep != "" {
		input.Endpoint = aws.String(ep)
	}
	out, err := r.svc.client.Subscribe(ctx, input)
	if err != nil {
		return nil, translateError("create subscription", aws.ToString(input.TopicArn), err)
	}
	arn := aws.ToString(out.SubscriptionArn)
	r.svc.logger.Info("subscription created", zap.String("subscription", arn))
	return storagemodels.Record{"Subscription": r.svc.arn.Strip(arn), "SubscriptionArn": arn}, nil
}

// Update sets subscription attributes.
func (r *Subscriptions) Update(ctx context.Context, payload storagemodels.Record) (storagemodels.Record, error) {
	id := stringField(payload, "SubscriptionArn", "Subscription")
	if id == "" {
		return nil, apperrors.NewBadRequestError("update subscription requires Subscription or SubscriptionArn")
	}
	attrs, err := singleAttribute(payload)
	if err != nil {
		return nil, err
	}
	arn := r.svc.arn.Add(id)
	for _, name := range sortedKeys(attrs) {
		if _, err := r.svc.client.SetSubscriptionAttributes(ctx, &sns.SetSubscriptionAttributesInput{
			SubscriptionArn: aws.String(arn),
			AttributeName:   aws.String(name),
			AttributeValue:  aws.String(attrs[name]),
		}); err != nil {
			return nil, translateError("update subscription", arn, err)
		}
	}
	return storagemodels.Record{"Subscription": r.svc.arn.Strip(arn), "SubscriptionArn": arn}, nil
}

// Delete unsubscribes.
func (r *Subscriptions) Delete(ctx context.Context, id string) (storagemodels.Record, error) {
	if id == "" {
		return nil, apperrors.NewBadRequestError("subscription id can not be empty")
	}
	arn := r.svc.arn.Add(id)
	if _, err := r.svc.client.Unsubscribe(ctx, &sns.UnsubscribeInput{SubscriptionArn: aws.String(arn)}); err != nil {
		return nil, translateError("delete subscription", arn, err)
	}
	r.svc.logger.Info("subscription deleted", zap.String("subscription", arn))
	return storagemodels.Record{"Subscription": r.svc.arn.Strip(arn), "SubscriptionArn": arn}, nil
}
