/*
Package config resolves credentials and loads the adapter configuration.

Resolve normalizes a raw service configuration mapping into Credentials,
accepting the legacy access_key/secret_key names and defaulting the region:

	creds := config.Resolve(map[string]any{
	    "access_key": "AKIA...",
	    "secret_key": "...",
	}, true)
	// creds.Region == config.DefaultRegion

Load reads a YAML file describing the configured services. A .env file is
loaded first and ${VAR} references are expanded, so secrets can stay out of
the file:

	listen: ":8080"
	services:
	  - name: orders
	    type: dynamodb
	    key: ${AWS_ACCESS_KEY_ID}
	    secret: ${AWS_SECRET_ACCESS_KEY}
	    region: eu-west-1
	  - name: files
	    type: s3
	    container: uploads
*/
package config
