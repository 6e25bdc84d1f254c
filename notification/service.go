/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

// Kind names a notification resource type.
type Kind string

const (
	KindTopic        Kind = "topic"
	KindSubscription Kind = "subscription"
	KindApplication  Kind = "app"
	KindEndpoint     Kind = "endpoint"
)

// Resource is the capability every notification resource type provides.
// parent scopes List: a topic for subscriptions, an application for
// endpoints; other kinds ignore it.
type Resource interface {
	List(ctx context.Context, parent string) ([]storagemodels.Record, error)
	Get(ctx context.Context, id string) (storagemodels.Record, error)
	Create(ctx context.Context, payload storagemodels.Record) (storagemodels.Record, error)
	Update(ctx context.Context, payload storagemodels.Record) (storagemodels.Record, error)
	Delete(ctx context.Context, id string) (storagemodels.Record, error)
}

// Service is an SNS notification service instance.
type Service struct {
	client Client
	arn    ARN
	logger *zap.Logger

	resources map[Kind]Resource
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a Service for the client's region.
func New(client Client, region string, opts ...Option) *Service {
	s := &Service{
		client: client,
		arn:    ARN{Region: region},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resources = map[Kind]Resource{
		KindTopic:        s.Topics(),
		KindSubscription: s.Subscriptions(),
		KindApplication:  s.Applications(),
		KindEndpoint:     s.Endpoints(),
	}
	return s
}

// ARN returns the ARN codec of the service region.
func (s *Service) ARN() ARN {
	return s.arn
}

// Kinds lists the resource types in name order.
func (s *Service) Kinds() []Kind {
	kinds := make([]Kind, 0, len(s.resources))
	for k := range s.resources {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// ParseKind normalizes a resource type name. "application" and "apps" are
// accepted for KindApplication and a trailing "s" is ignored.
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.TrimSuffix(strings.ToLower(name), "s"))
	if k == "application" {
		k = KindApplication
	}
	if _, ok := arnFields[k]; !ok {
		return "", apperrors.NewBadRequestError("invalid notification resource type %q", name)
	}
	return k, nil
}

var arnFields = map[Kind]string{
	KindTopic:        "TopicArn",
	KindSubscription: "SubscriptionArn",
	KindApplication:  "PlatformApplicationArn",
	KindEndpoint:     "EndpointArn",
}

// ARNField returns the record field that carries the ARN of a kind.
func (k Kind) ARNField() string {
	return arnFields[k]
}

// Resource returns the resource of a kind, see ParseKind.
func (s *Service) Resource(kind string) (Resource, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}
	return s.resources[k], nil
}

func (s *Service) Topics() *Topics {
	return &Topics{svc: s}
}

func (s *Service) Subscriptions() *Subscriptions {
	return &Subscriptions{svc: s}
}

func (s *Service) Applications() *Applications {
	return &Applications{svc: s}
}

func (s *Service) Endpoints() *Endpoints {
	return &Endpoints{svc: s}
}

// stringField returns the first non-empty string among keys.
func stringField(payload storagemodels.Record, keys ...string) string {
	for _, k := range keys {
		if v, ok := payload[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// attributesField reads payload["Attributes"] as a string map. Non-string
// values are JSON-encoded, which is how SNS expects policies.
func attributesField(payload storagemodels.Record) (map[string]string, error) {
	raw, ok := payload["Attributes"]
	if !ok || raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, apperrors.NewBadRequestError("Attributes must be an object, got %T", raw)
	}
	attrs := make(map[string]string, len(m))
	for k, v := range m {
		str, err := attributeValue(v)
		if err != nil {
			return nil, apperrors.WrapBadRequest(fmt.Sprintf("attribute %q", k), err)
		}
		attrs[k] = str
	}
	return attrs, nil
}

func attributeValue(v any) (string, error) {
	switch tv := v.(type) {
	case string:
		return tv, nil
	case bool, int, int64, float64, json.Number:
		return fmt.Sprint(tv), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// singleAttribute reads the AttributeName/AttributeValue pair used by the
// SNS set-attributes calls, falling back to the Attributes map.
func singleAttribute(payload storagemodels.Record) (map[string]string, error) {
	if name := stringField(payload, "AttributeName"); name != "" {
		value, err := attributeValue(payload["AttributeValue"])
		if err != nil {
			return nil, apperrors.WrapBadRequest("AttributeValue", err)
		}
		return map[string]string{name: value}, nil
	}
	attrs, err := attributesField(payload)
	if err != nil {
		return nil, err
	}
	if len(attrs) == 0 {
		return nil, apperrors.NewBadRequestError("update requires AttributeName and AttributeValue, or Attributes")
	}
	return attrs, nil
}

func attributesRecord(attrs map[string]string) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

// sortedKeys keeps attribute updates in a stable order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
