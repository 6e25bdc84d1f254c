/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

func TestEncodeValueTags(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want types.AttributeValue
	}{
		{"string", "x", &types.AttributeValueMemberS{Value: "x"}},
		{"int", 7, &types.AttributeValueMemberN{Value: "7"}},
		{"float", 1.5, &types.AttributeValueMemberN{Value: "1.5"}},
		{"bool", true, &types.AttributeValueMemberBOOL{Value: true}},
		{"nil", nil, &types.AttributeValueMemberNULL{Value: true}},
		{"string set", []string{"a", "b"}, &types.AttributeValueMemberSS{Value: []string{"a", "b"}}},
		{"number set", []int64{1, 2}, &types.AttributeValueMemberNS{Value: []string{"1", "2"}}},
		{"homogeneous strings", []any{"a", "b"}, &types.AttributeValueMemberSS{Value: []string{"a", "b"}}},
		{"homogeneous numbers", []any{1, 2.5}, &types.AttributeValueMemberNS{Value: []string{"1", "2.5"}}},
		{"binary set", [][]byte{{1}, {2}}, &types.AttributeValueMemberBS{Value: [][]byte{{1}, {2}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeValue(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	mixed, err := EncodeValue([]any{"a", 1})
	require.NoError(t, err)
	assert.IsType(t, &types.AttributeValueMemberL{}, mixed)
}

func TestRecordRoundTrip(t *testing.T) {
	rec := storagemodels.Record{
		"id":     "u1",
		"age":    int64(30),
		"score":  2.5,
		"active": true,
		"tags":   []string{"a", "b"},
		"nested": storagemodels.Record{"k": "v"},
		"blob":   []byte("raw"),
	}

	item, err := EncodeRecord(rec)
	require.NoError(t, err)
	back, err := DecodeRecord(item)
	require.NoError(t, err)

	assert.Equal(t, "u1", back["id"])
	assert.Equal(t, int64(30), back["age"])
	assert.Equal(t, 2.5, back["score"])
	assert.Equal(t, true, back["active"])
	assert.Equal(t, []string{"a", "b"}, back["tags"])
	assert.Equal(t, storagemodels.Record{"k": "v"}, back["nested"])
	assert.Equal(t, []byte("raw"), back["blob"])
}

func TestEncodeUpdates(t *testing.T) {
	updates, err := EncodeUpdates(storagemodels.Record{
		"id":    "u1",
		"name":  "Ann",
		"old":   nil,
		"count": storagemodels.AttributeUpdate{Action: storagemodels.ActionAdd, Value: 1},
	}, []string{"id"})
	require.NoError(t, err)

	assert.NotContains(t, updates, "id")
	assert.Equal(t, types.AttributeActionPut, updates["name"].Action)
	assert.Equal(t, types.AttributeActionDelete, updates["old"].Action)
	assert.Nil(t, updates["old"].Value)
	assert.Equal(t, types.AttributeActionAdd, updates["count"].Action)
	assert.Equal(t, &types.AttributeValueMemberN{Value: "1"}, updates["count"].Value)

	_, err = EncodeUpdates(storagemodels.Record{
		"x": &storagemodels.AttributeUpdate{Action: "REPLACE", Value: 1},
	}, nil)
	assert.True(t, apperrors.IsBadRequest(err))
}
