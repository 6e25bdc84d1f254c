/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"go.uber.org/zap"

	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

// messageStructureJSON marks a message whose body is a JSON object of
// per-protocol messages.
const messageStructureJSON = "json"

// Target is an explicit publish destination. The zero Target lets Publish
// infer the destination from the payload.
type Target struct {
	Kind Kind
	ID   string
}

// routingFields name the destination inside a payload, in lookup order.
var routingFields = []string{"TopicArn", "Topic", "TargetArn", "EndpointArn", "Endpoint"}

// Publish sends payload to a topic or an endpoint.
//
// payload is a string (the literal message), a record with a "Message"
// field, or a record without one, which is then JSON-encoded as the whole
// message. A non-string "Message" is JSON-encoded and marked with
// MessageStructure "json".
//
// An explicit target wins; otherwise the destination comes from the
// TopicArn, Topic, TargetArn, EndpointArn or Endpoint field.
func (s *Service) Publish(ctx context.Context, target Target, payload any) (storagemodels.Record, error) {
	input, fields, err := publishInput(payload)
	if err != nil {
		return nil, err
	}
	if err := s.resolveTarget(input, target, fields); err != nil {
		return nil, err
	}

	dest := aws.ToString(input.TopicArn) + aws.ToString(input.TargetArn)
	out, err := s.client.Publish(ctx, input)
	if err != nil {
		return nil, translateError("publish", dest, err)
	}
	s.logger.Debug("message published", zap.String("target", dest), zap.String("message_id", aws.ToString(out.MessageId)))
	return storagemodels.Record{"MessageId": aws.ToString(out.MessageId)}, nil
}

// publishInput builds the message part of the request and returns the
// payload fields for target resolution.
func publishInput(payload any) (*sns.PublishInput, storagemodels.Record, error) {
	switch p := payload.(type) {
	case string:
		if p == "" {
			return nil, nil, apperrors.NewBadRequestError("publish requires a message")
		}
		return &sns.PublishInput{Message: aws.String(p)}, nil, nil
	case storagemodels.Record:
		if len(p) == 0 {
			return nil, nil, apperrors.NewBadRequestError("publish requires a message")
		}
		msg, ok := p["Message"]
		if !ok {
			return wholeMessage(p)
		}
		input := &sns.PublishInput{}
		switch m := msg.(type) {
		case string:
			input.Message = aws.String(m)
		case nil:
			return nil, nil, apperrors.NewBadRequestError("publish requires a non-empty Message")
		default:
			b, err := json.Marshal(m)
			if err != nil {
				return nil, nil, apperrors.WrapBadRequest("encode Message", err)
			}
			input.Message = aws.String(string(b))
			input.MessageStructure = aws.String(messageStructureJSON)
		}
		if err := applyMessageOptions(input, p); err != nil {
			return nil, nil, err
		}
		return input, p, nil
	case nil:
		return nil, nil, apperrors.NewBadRequestError("publish requires a message")
	}
	return nil, nil, apperrors.NewBadRequestError("publish payload of type %T is not supported", payload)
}

// wholeMessage encodes a record without a Message field. Routing fields
// pick the destination and are left out of the body.
func wholeMessage(p storagemodels.Record) (*sns.PublishInput, storagemodels.Record, error) {
	body := make(map[string]any, len(p))
	for k, v := range p {
		body[k] = v
	}
	for _, k := range routingFields {
		delete(body, k)
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, nil, apperrors.WrapBadRequest("encode message", err)
	}
	return &sns.PublishInput{Message: aws.String(string(b))}, p, nil
}

func applyMessageOptions(input *sns.PublishInput, p storagemodels.Record) error {
	if v := stringField(p, "Subject"); v != "" {
		input.Subject = aws.String(v)
	}
	if v := stringField(p, "MessageStructure"); v != "" {
		input.MessageStructure = aws.String(v)
	}
	if v := stringField(p, "MessageGroupId"); v != "" {
		input.MessageGroupId = aws.String(v)
	}
	if v := stringField(p, "MessageDeduplicationId"); v != "" {
		input.MessageDeduplicationId = aws.String(v)
	}
	if v := stringField(p, "PhoneNumber"); v != "" {
		input.PhoneNumber = aws.String(v)
	}

	raw, ok := p["MessageAttributes"]
	if !ok || raw == nil {
		return nil
	}
	attrs, ok := raw.(map[string]any)
	if !ok {
		return apperrors.NewBadRequestError("MessageAttributes must be an object, got %T", raw)
	}
	input.MessageAttributes = make(map[string]types.MessageAttributeValue, len(attrs))
	for name, v := range attrs {
		attr, err := messageAttribute(v)
		if err != nil {
			return apperrors.WrapBadRequest(fmt.Sprintf("message attribute %q", name), err)
		}
		input.MessageAttributes[name] = attr
	}
	return nil
}

// messageAttribute accepts a bare value or {"DataType", "StringValue"}.
func messageAttribute(v any) (types.MessageAttributeValue, error) {
	if m, ok := v.(map[string]any); ok {
		dataType, _ := m["DataType"].(string)
		if dataType == "" {
			dataType = "String"
		}
		value, err := attributeValue(m["StringValue"])
		if err != nil {
			return types.MessageAttributeValue{}, err
		}
		return types.MessageAttributeValue{DataType: aws.String(dataType), StringValue: aws.String(value)}, nil
	}
	dataType := "String"
	switch v.(type) {
	case int, int64, float64, json.Number:
		dataType = "Number"
	}
	value, err := attributeValue(v)
	if err != nil {
		return types.MessageAttributeValue{}, err
	}
	return types.MessageAttributeValue{DataType: aws.String(dataType), StringValue: aws.String(value)}, nil
}

func (s *Service) resolveTarget(input *sns.PublishInput, target Target, fields storagemodels.Record) error {
	if target.ID != "" {
		switch target.Kind {
		case KindTopic, "":
			input.TopicArn = aws.String(s.arn.Add(target.ID))
		case KindEndpoint:
			input.TargetArn = aws.String(s.arn.Add(target.ID))
		default:
			return apperrors.NewBadRequestError("can not publish to a %s", target.Kind)
		}
		return nil
	}

	if v := stringField(fields, "TopicArn", "Topic"); v != "" {
		input.TopicArn = aws.String(s.arn.Add(v))
		return nil
	}
	if v := stringField(fields, "TargetArn", "EndpointArn", "Endpoint"); v != "" {
		input.TargetArn = aws.String(s.arn.Add(v))
		return nil
	}
	if input.PhoneNumber != nil {
		return nil
	}
	return apperrors.NewBadRequestError("publish requires a Topic or Endpoint target")
}
