/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"fmt"
)

// DefaultRegion is used whenever a provider needs a region and none was configured.
const DefaultRegion = "us-east-1"

// Credentials is the canonical credential bag handed to the client factory.
// Key and Secret may be empty, in which case the default AWS credential chain applies.
type Credentials struct {
	Key    string
	Secret string
	Region string
	Proxy  string
}

// Anonymous reports whether no static key pair was supplied.
func (c Credentials) Anonymous() bool {
	return c.Key == "" && c.Secret == ""
}

// legacyNames maps older configuration field names onto canonical ones.
var legacyNames = map[string]string{
	"access_key": "key",
	"secret_key": "secret",
}

// Resolve normalizes a raw configuration mapping into Credentials.
// Legacy access_key/secret_key names are accepted; canonical names win when both are present.
// When requireRegion is set and no region is given, DefaultRegion is used.
func Resolve(raw map[string]any, requireRegion bool) Credentials {
	normalized := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		if canonical, ok := legacyNames[k]; ok {
			if _, exists := normalized[canonical]; !exists {
				normalized[canonical] = s
			}
			continue
		}
		normalized[k] = s
	}

	creds := Credentials{
		Key:    normalized["key"],
		Secret: normalized["secret"],
		Region: normalized["region"],
		Proxy:  normalized["proxy"],
	}
	if requireRegion && creds.Region == "" {
		creds.Region = DefaultRegion
	}
	return creds
}
