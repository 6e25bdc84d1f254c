/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package notification

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/smithy-go"
)

const testPrefix = "arn:aws:sns:us-east-1:000000000000:"

// fakeSNS keeps resources keyed by ARN and pages every listing.
type fakeSNS struct {
	mu       sync.Mutex
	pageSize int
	calls    map[string]int
	fail     map[string]error

	topics    map[string]map[string]string
	subs      map[string]types.Subscription
	subAttrs  map[string]map[string]string
	apps      map[string]map[string]string
	endpoints map[string]map[string]map[string]string // app arn -> endpoint arn -> attributes
	published []*sns.PublishInput
	seq       int
}

func newFakeSNS() *fakeSNS {
	return &fakeSNS{
		pageSize:  100,
		calls:     map[string]int{},
		fail:      map[string]error{},
		topics:    map[string]map[string]string{},
		subs:      map[string]types.Subscription{},
		subAttrs:  map[string]map[string]string{},
		apps:      map[string]map[string]string{},
		endpoints: map[string]map[string]map[string]string{},
	}
}

func notFound(what string) error {
	return &types.NotFoundException{Message: aws.String(what + " does not exist")}
}

func apiError(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code}
}

func (f *fakeSNS) call(op string) error {
	f.calls[op]++
	return f.fail[op]
}

// page returns keys[start:end] for token and the next token.
func (f *fakeSNS) page(keys []string, token *string) ([]string, *string) {
	sort.Strings(keys)
	start, _ := strconv.Atoi(aws.ToString(token))
	end := min(start+f.pageSize, len(keys))
	var next *string
	if end < len(keys) {
		next = aws.String(strconv.Itoa(end))
	}
	return keys[start:end], next
}

func keysOf[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func (f *fakeSNS) addTopic(name string) string {
	arn := testPrefix + name
	f.topics[arn] = map[string]string{"TopicArn": arn}
	return arn
}

func (f *fakeSNS) ListTopics(ctx context.Context, params *sns.ListTopicsInput, optFns ...func(*sns.Options)) (*sns.ListTopicsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("ListTopics"); err != nil {
		return nil, err
	}
	keys, next := f.page(keysOf(f.topics), params.NextToken)
	out := &sns.ListTopicsOutput{NextToken: next}
	for _, k := range keys {
		out.Topics = append(out.Topics, types.Topic{TopicArn: aws.String(k)})
	}
	return out, nil
}

func (f *fakeSNS) GetTopicAttributes(ctx context.Context, params *sns.GetTopicAttributesInput, optFns ...func(*sns.Options)) (*sns.GetTopicAttributesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("GetTopicAttributes"); err != nil {
		return nil, err
	}
	attrs, ok := f.topics[aws.ToString(params.TopicArn)]
	if !ok {
		return nil, notFound("topic")
	}
	return &sns.GetTopicAttributesOutput{Attributes: attrs}, nil
}

func (f *fakeSNS) CreateTopic(ctx context.Context, params *sns.CreateTopicInput, optFns ...func(*sns.Options)) (*sns.CreateTopicOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("CreateTopic"); err != nil {
		return nil, err
	}
	arn := testPrefix + aws.ToString(params.Name)
	attrs := map[string]string{"TopicArn": arn}
	for k, v := range params.Attributes {
		attrs[k] = v
	}
	f.topics[arn] = attrs
	return &sns.CreateTopicOutput{TopicArn: aws.String(arn)}, nil
}

func (f *fakeSNS) SetTopicAttributes(ctx context.Context, params *sns.SetTopicAttributesInput, optFns ...func(*sns.Options)) (*sns.SetTopicAttributesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("SetTopicAttributes"); err != nil {
		return nil, err
	}
	attrs, ok := f.topics[aws.ToString(params.TopicArn)]
	if !ok {
		return nil, notFound("topic")
	}
	attrs[aws.ToString(params.AttributeName)] = aws.ToString(params.AttributeValue)
	return &sns.SetTopicAttributesOutput{}, nil
}

func (f *fakeSNS) DeleteTopic(ctx context.Context, params *sns.DeleteTopicInput, optFns ...func(*sns.Options)) (*sns.DeleteTopicOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("DeleteTopic"); err != nil {
		return nil, err
	}
	delete(f.topics, aws.ToString(params.TopicArn))
	return &sns.DeleteTopicOutput{}, nil
}

func (f *fakeSNS) ListSubscriptions(ctx context.Context, params *sns.ListSubscriptionsInput, optFns ...func(*sns.Options)) (*sns.ListSubscriptionsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("ListSubscriptions"); err != nil {
		return nil, err
	}
	keys, next := f.page(keysOf(f.subs), params.NextToken)
	out := &sns.ListSubscriptionsOutput{NextToken: next}
	for _, k := range keys {
		out.Subscriptions = append(out.Subscriptions, f.subs[k])
	}
	return out, nil
}

func (f *fakeSNS) ListSubscriptionsByTopic(ctx context.Context, params *sns.ListSubscriptionsByTopicInput, optFns ...func(*sns.Options)) (*sns.ListSubscriptionsByTopicOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("ListSubscriptionsByTopic"); err != nil {
		return nil, err
	}
	topic := aws.ToString(params.TopicArn)
	if _, ok := f.topics[topic]; !ok {
		return nil, notFound("topic")
	}
	var matching []string
	for k, sub := range f.subs {
		if aws.ToString(sub.TopicArn) == topic {
			matching = append(matching, k)
		}
	}
	keys, next := f.page(matching, params.NextToken)
	out := &sns.ListSubscriptionsByTopicOutput{NextToken: next}
	for _, k := range keys {
		out.Subscriptions = append(out.Subscriptions, f.subs[k])
	}
	return out, nil
}

func (f *fakeSNS) GetSubscriptionAttributes(ctx context.Context, params *sns.GetSubscriptionAttributesInput, optFns ...func(*sns.Options)) (*sns.GetSubscriptionAttributesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("GetSubscriptionAttributes"); err != nil {
		return nil, err
	}
	attrs, ok := f.subAttrs[aws.ToString(params.SubscriptionArn)]
	if !ok {
		return nil, notFound("subscription")
	}
	return &sns.GetSubscriptionAttributesOutput{Attributes: attrs}, nil
}

func (f *fakeSNS) Subscribe(ctx context.Context, params *sns.SubscribeInput, optFns ...func(*sns.Options)) (*sns.SubscribeOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("Subscribe"); err != nil {
		return nil, err
	}
	topic := aws.ToString(params.TopicArn)
	if _, ok := f.topics[topic]; !ok {
		return nil, notFound("topic")
	}
	f.seq++
	arn := topic + ":sub-" + strconv.Itoa(f.seq)
	f.subs[arn] = types.Subscription{
		SubscriptionArn: aws.String(arn),
		TopicArn:        params.TopicArn,
		Protocol:        params.Protocol,
		Endpoint:        params.Endpoint,
		Owner:           aws.String("000000000000"),
	}
	attrs := map[string]string{"Protocol": aws.ToString(params.Protocol)}
	for k, v := range params.Attributes {
		attrs[k] = v
	}
	f.subAttrs[arn] = attrs
	return &sns.SubscribeOutput{SubscriptionArn: aws.String(arn)}, nil
}

func (f *fakeSNS) SetSubscriptionAttributes(ctx context.Context, params *sns.SetSubscriptionAttributesInput, optFns ...func(*sns.Options)) (*sns.SetSubscriptionAttributesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("SetSubscriptionAttributes"); err != nil {
		return nil, err
	}
	attrs, ok := f.subAttrs[aws.ToString(params.SubscriptionArn)]
	if !ok {
		return nil, notFound("subscription")
	}
	attrs[aws.ToString(params.AttributeName)] = aws.ToString(params.AttributeValue)
	return &sns.SetSubscriptionAttributesOutput{}, nil
}

func (f *fakeSNS) Unsubscribe(ctx context.Context, params *sns.UnsubscribeInput, optFns ...func(*sns.Options)) (*sns.UnsubscribeOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("Unsubscribe"); err != nil {
		return nil, err
	}
	arn := aws.ToString(params.SubscriptionArn)
	if _, ok := f.subs[arn]; !ok {
		return nil, notFound("subscription")
	}
	delete(f.subs, arn)
	delete(f.subAttrs, arn)
	return &sns.UnsubscribeOutput{}, nil
}

func (f *fakeSNS) addApp(name string) string {
	arn := testPrefix + "app/GCM/" + name
	f.apps[arn] = map[string]string{"Enabled": "true"}
	f.endpoints[arn] = map[string]map[string]string{}
	return arn
}

func (f *fakeSNS) ListPlatformApplications(ctx context.Context, params *sns.ListPlatformApplicationsInput, optFns ...func(*sns.Options)) (*sns.ListPlatformApplicationsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("ListPlatformApplications"); err != nil {
		return nil, err
	}
	keys, next := f.page(keysOf(f.apps), params.NextToken)
	out := &sns.ListPlatformApplicationsOutput{NextToken: next}
	for _, k := range keys {
		out.PlatformApplications = append(out.PlatformApplications, types.PlatformApplication{
			PlatformApplicationArn: aws.String(k),
			Attributes:             f.apps[k],
		})
	}
	return out, nil
}

func (f *fakeSNS) GetPlatformApplicationAttributes(ctx context.Context, params *sns.GetPlatformApplicationAttributesInput, optFns ...func(*sns.Options)) (*sns.GetPlatformApplicationAttributesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("GetPlatformApplicationAttributes"); err != nil {
		return nil, err
	}
	attrs, ok := f.apps[aws.ToString(params.PlatformApplicationArn)]
	if !ok {
		return nil, notFound("application")
	}
	return &sns.GetPlatformApplicationAttributesOutput{Attributes: attrs}, nil
}

func (f *fakeSNS) CreatePlatformApplication(ctx context.Context, params *sns.CreatePlatformApplicationInput, optFns ...func(*sns.Options)) (*sns.CreatePlatformApplicationOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("CreatePlatformApplication"); err != nil {
		return nil, err
	}
	arn := testPrefix + "app/" + aws.ToString(params.Platform) + "/" + aws.ToString(params.Name)
	f.apps[arn] = params.Attributes
	f.endpoints[arn] = map[string]map[string]string{}
	return &sns.CreatePlatformApplicationOutput{PlatformApplicationArn: aws.String(arn)}, nil
}

func (f *fakeSNS) SetPlatformApplicationAttributes(ctx context.Context, params *sns.SetPlatformApplicationAttributesInput, optFns ...func(*sns.Options)) (*sns.SetPlatformApplicationAttributesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("SetPlatformApplicationAttributes"); err != nil {
		return nil, err
	}
	attrs, ok := f.apps[aws.ToString(params.PlatformApplicationArn)]
	if !ok {
		return nil, notFound("application")
	}
	for k, v := range params.Attributes {
		attrs[k] = v
	}
	return &sns.SetPlatformApplicationAttributesOutput{}, nil
}

func (f *fakeSNS) DeletePlatformApplication(ctx context.Context, params *sns.DeletePlatformApplicationInput, optFns ...func(*sns.Options)) (*sns.DeletePlatformApplicationOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("DeletePlatformApplication"); err != nil {
		return nil, err
	}
	delete(f.apps, aws.ToString(params.PlatformApplicationArn))
	delete(f.endpoints, aws.ToString(params.PlatformApplicationArn))
	return &sns.DeletePlatformApplicationOutput{}, nil
}

func (f *fakeSNS) ListEndpointsByPlatformApplication(ctx context.Context, params *sns.ListEndpointsByPlatformApplicationInput, optFns ...func(*sns.Options)) (*sns.ListEndpointsByPlatformApplicationOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("ListEndpointsByPlatformApplication"); err != nil {
		return nil, err
	}
	eps, ok := f.endpoints[aws.ToString(params.PlatformApplicationArn)]
	if !ok {
		return nil, notFound("application")
	}
	keys, next := f.page(keysOf(eps), params.NextToken)
	out := &sns.ListEndpointsByPlatformApplicationOutput{NextToken: next}
	for _, k := range keys {
		out.Endpoints = append(out.Endpoints, types.Endpoint{EndpointArn: aws.String(k), Attributes: eps[k]})
	}
	return out, nil
}

func (f *fakeSNS) endpoint(arn string) (map[string]string, bool) {
	for _, eps := range f.endpoints {
		if attrs, ok := eps[arn]; ok {
			return attrs, true
		}
	}
	return nil, false
}

func (f *fakeSNS) GetEndpointAttributes(ctx context.Context, params *sns.GetEndpointAttributesInput, optFns ...func(*sns.Options)) (*sns.GetEndpointAttributesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("GetEndpointAttributes"); err != nil {
		return nil, err
	}
	attrs, ok := f.endpoint(aws.ToString(params.EndpointArn))
	if !ok {
		return nil, notFound("endpoint")
	}
	return &sns.GetEndpointAttributesOutput{Attributes: attrs}, nil
}

func (f *fakeSNS) CreatePlatformEndpoint(ctx context.Context, params *sns.CreatePlatformEndpointInput, optFns ...func(*sns.Options)) (*sns.CreatePlatformEndpointOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("CreatePlatformEndpoint"); err != nil {
		return nil, err
	}
	app := aws.ToString(params.PlatformApplicationArn)
	eps, ok := f.endpoints[app]
	if !ok {
		return nil, notFound("application")
	}
	f.seq++
	arn := strings.Replace(app, ":app/", ":endpoint/", 1) + "/ep-" + strconv.Itoa(f.seq)
	attrs := map[string]string{"Token": aws.ToString(params.Token), "Enabled": "true"}
	for k, v := range params.Attributes {
		attrs[k] = v
	}
	eps[arn] = attrs
	return &sns.CreatePlatformEndpointOutput{EndpointArn: aws.String(arn)}, nil
}

func (f *fakeSNS) SetEndpointAttributes(ctx context.Context, params *sns.SetEndpointAttributesInput, optFns ...func(*sns.Options)) (*sns.SetEndpointAttributesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("SetEndpointAttributes"); err != nil {
		return nil, err
	}
	attrs, ok := f.endpoint(aws.ToString(params.EndpointArn))
	if !ok {
		return nil, notFound("endpoint")
	}
	for k, v := range params.Attributes {
		attrs[k] = v
	}
	return &sns.SetEndpointAttributesOutput{}, nil
}

func (f *fakeSNS) DeleteEndpoint(ctx context.Context, params *sns.DeleteEndpointInput, optFns ...func(*sns.Options)) (*sns.DeleteEndpointOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("DeleteEndpoint"); err != nil {
		return nil, err
	}
	for _, eps := range f.endpoints {
		delete(eps, aws.ToString(params.EndpointArn))
	}
	return &sns.DeleteEndpointOutput{}, nil
}

func (f *fakeSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("Publish"); err != nil {
		return nil, err
	}
	f.published = append(f.published, params)
	f.seq++
	return &sns.PublishOutput{MessageId: aws.String("msg-" + strconv.Itoa(f.seq))}, nil
}
