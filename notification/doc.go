// Package notification provides the SNS resources: topics, subscriptions,
// platform applications and platform endpoints, plus publishing.
//
// Identifiers are accepted as short names or full ARNs and returned as
// both. For region us-east-1 the short name "123456789012:orders" and the
// ARN "arn:aws:sns:us-east-1:123456789012:orders" name the same topic.
package notification
