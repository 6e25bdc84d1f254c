/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package clients

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/cloudadapter/config"
	apperrors "github.com/suparena/cloudadapter/errors"
)

type fakeIdentity struct {
	arn string
	err error
}

func (f fakeIdentity) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &sts.GetCallerIdentityOutput{Arn: aws.String(f.arn)}, nil
}

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_CONFIG_FILE", t.TempDir()+"/config")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", t.TempDir()+"/credentials")
}

func TestFactoryBuildsClients(t *testing.T) {
	isolateEnv(t)
	ctx := context.Background()
	f := NewFactory(config.Credentials{Key: "AK", Secret: "SK", Region: "eu-west-1"}, WithEndpoint("http://localhost:4566"))

	ddb, err := f.DynamoDB(ctx)
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", ddb.Options().Region)
	assert.Equal(t, "http://localhost:4566", aws.ToString(ddb.Options().BaseEndpoint))

	s3c, err := f.S3(ctx)
	require.NoError(t, err)
	assert.True(t, s3c.Options().UsePathStyle)

	snsc, err := f.SNS(ctx)
	require.NoError(t, err)
	assert.NotNil(t, snsc)

	sdb, err := f.SimpleDB()
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", aws.ToString(sdb.Config.Region))
}

func TestFactoryCreateDispatch(t *testing.T) {
	isolateEnv(t)
	ctx := context.Background()
	f := NewFactory(config.Credentials{Region: "us-west-2"})

	tests := []struct {
		provider Provider
		check    func(any) bool
	}{
		{ProviderDynamoDB, func(c any) bool { _, ok := c.(*dynamodb.Client); return ok }},
		{ProviderS3, func(c any) bool { _, ok := c.(*s3.Client); return ok }},
		{ProviderSNS, func(c any) bool { _, ok := c.(*sns.Client); return ok }},
	}
	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			c, err := f.Create(ctx, tt.provider)
			require.NoError(t, err)
			assert.True(t, tt.check(c))
		})
	}

	_, err := f.Create(ctx, "redis")
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestFactoryDefaultsRegion(t *testing.T) {
	f := NewFactory(config.Credentials{})
	assert.Equal(t, config.DefaultRegion, f.Credentials().Region)
}

func TestFactoryInvalidProxy(t *testing.T) {
	isolateEnv(t)
	f := NewFactory(config.Credentials{Region: "us-east-1", Proxy: "://bad"})

	_, err := f.DynamoDB(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsServiceUnavailable(err))
	assert.Contains(t, err.Error(), "dynamodb")

	_, err = f.SimpleDB()
	assert.True(t, apperrors.IsServiceUnavailable(err))
}

func TestFactoryVerify(t *testing.T) {
	isolateEnv(t)
	ctx := context.Background()

	ok := NewFactory(config.Credentials{Key: "AK", Secret: "SK"}, WithIdentityClient(fakeIdentity{arn: "arn:aws:iam::123456789012:user/ci"}))
	arn, err := ok.Verify(ctx)
	require.NoError(t, err)
	assert.Equal(t, "arn:aws:iam::123456789012:user/ci", arn)

	bad := NewFactory(config.Credentials{Key: "AK", Secret: "SK"}, WithIdentityClient(fakeIdentity{err: fmt.Errorf("InvalidClientTokenId")}))
	_, err = bad.Verify(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsServiceUnavailable(err))
	assert.Contains(t, err.Error(), "InvalidClientTokenId")
}
