//go:build integration
// +build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cloudadapter_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/cloudadapter"
	"github.com/suparena/cloudadapter/config"
	"github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/notification"
	"github.com/suparena/cloudadapter/storagemodels"
)

func serviceConfig(name, typ string) config.ServiceConfig {
	_ = godotenv.Load()
	return config.ServiceConfig{
		Name:   name,
		Type:   typ,
		Key:    os.Getenv("AWS_ACCESS_KEY_ID"),
		Secret: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		Region: os.Getenv("AWS_REGION"),
	}
}

func openService(t *testing.T, sc config.ServiceConfig) *cloudadapter.Manager {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	m, err := cloudadapter.Open(context.Background(), &config.Config{Services: []config.ServiceConfig{sc}})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func TestIntegrationTableRecords(t *testing.T) {
	sc := serviceConfig("db", config.TypeDynamoDB)
	tableName := os.Getenv("DDB_TEST_TABLE_NAME")
	if tableName == "" {
		t.Skip("DDB_TEST_TABLE_NAME not set, skipping integration test")
	}
	m := openService(t, sc)
	ctx := context.Background()

	db, err := m.Database("db")
	require.NoError(t, err)
	desc, err := db.Schema().Describe(ctx, tableName)
	require.NoError(t, err)
	table, err := db.Table(ctx, tableName)
	require.NoError(t, err)

	stamp := time.Now().UnixNano()
	records := make([]storagemodels.Record, 0, 3)
	for i := 0; i < 3; i++ {
		rec := storagemodels.Record{"status": "pending", "total": i * 10}
		for _, key := range desc.KeyNames() {
			rec[key] = fmt.Sprintf("it-%d-%d", stamp, i)
		}
		records = append(records, rec)
	}

	created, err := table.Create(ctx, records, storagemodels.Options{})
	require.NoError(t, err)
	assert.Len(t, created, 3)

	ids := make([]any, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec)
	}
	got, err := table.RetrieveByIDs(ctx, ids, storagemodels.Options{Fields: []string{"*"}})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	patch := storagemodels.Record{"status": "done"}
	for _, key := range desc.KeyNames() {
		patch[key] = records[0][key]
	}
	_, err = table.Patch(ctx, []storagemodels.Record{patch}, storagemodels.Options{})
	require.NoError(t, err)

	_, err = table.Delete(ctx, ids, storagemodels.Options{})
	require.NoError(t, err)

	_, err = table.RetrieveByIDs(ctx, ids[:1], storagemodels.Options{})
	assert.True(t, errors.IsNotFound(err), "expected not found, got %v", err)
}

func TestIntegrationBlobRoundTrip(t *testing.T) {
	sc := serviceConfig("files", config.TypeS3)
	sc.Container = os.Getenv("S3_TEST_BUCKET")
	if sc.Container == "" {
		t.Skip("S3_TEST_BUCKET not set, skipping integration test")
	}
	m := openService(t, sc)
	ctx := context.Background()

	blobs, err := m.Blob("files")
	require.NoError(t, err)

	name := fmt.Sprintf("it/%d.json", time.Now().UnixNano())
	_, err = blobs.PutBlob(ctx, "", name, []byte(`{"ok":true}`), "")
	require.NoError(t, err)
	defer blobs.DeleteBlob(ctx, "", name)

	data, err := blobs.GetBlob(ctx, "", name)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))

	list, err := blobs.ListBlobs(ctx, "", storagemodels.NewListOptions(storagemodels.WithPrefix("it/")))
	require.NoError(t, err)
	assert.NotEmpty(t, list)
}

func TestIntegrationPublish(t *testing.T) {
	sc := serviceConfig("events", config.TypeSNS)
	topic := os.Getenv("SNS_TEST_TOPIC_ARN")
	if topic == "" {
		t.Skip("SNS_TEST_TOPIC_ARN not set, skipping integration test")
	}
	m := openService(t, sc)

	events, err := m.Notification("events")
	require.NoError(t, err)

	out, err := events.Publish(context.Background(), notification.Target{Kind: notification.KindTopic, ID: topic}, "integration")
	require.NoError(t, err)
	assert.NotEmpty(t, out["MessageId"])
}
