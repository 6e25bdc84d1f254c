/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package notification

import "strings"

const snsPrefix = "arn:aws:sns:"

// ARN converts between short resource names and SNS ARNs of one region.
// The short name is everything after "arn:aws:sns:<region>:", usually
// "<account>:<name>".
type ARN struct {
	Region string
}

// Prefix returns "arn:aws:sns:<region>:".
func (a ARN) Prefix() string {
	return snsPrefix + a.Region + ":"
}

// Add prefixes name unless it already is an SNS ARN of any region.
func (a ARN) Add(name string) string {
	if name == "" || strings.HasPrefix(name, snsPrefix) {
		return name
	}
	return a.Prefix() + name
}

// Strip removes the prefix; anything else is returned unchanged.
func (a ARN) Strip(arn string) string {
	return strings.TrimPrefix(arn, a.Prefix())
}
