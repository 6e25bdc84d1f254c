/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sdb

import (
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/simpledb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

func TestEncodeValueTags(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"plain", "plain"},
		{true, "#DFB#1"},
		{false, "#DFB#0"},
		{42, "#DFI#42"},
		{int64(-7), "#DFI#-7"},
		{uint8(3), "#DFI#3"},
		{1.5, "#DFF#1.5"},
		{json.Number("12"), "#DFI#12"},
		{json.Number("1.25"), "#DFF#1.25"},
		{map[string]any{"a": 1}, `#DFJ#{"a":1}`},
		{[]string{"x", "y"}, `#DFJ#["x","y"]`},
	}
	for _, tt := range tests {
		got, err := EncodeValue(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%#v", tt.in)
	}

	_, err := EncodeValue(nil)
	assert.True(t, apperrors.IsBadRequest(err))
	_, err = EncodeValue(make(chan int))
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestValueRoundTrip(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{"hello", "hello"},
		{"", ""},
		{true, true},
		{false, false},
		{42, int64(42)},
		{int32(-9), int64(-9)},
		{uint16(7), int64(7)},
		{-3.25, -3.25},
		{float32(0.5), float64(0.5)},
		{map[string]any{"a": "b", "n": 2}, map[string]any{"a": "b", "n": float64(2)}},
		{[]any{"x", true}, []any{"x", true}},
	}
	for _, tt := range tests {
		enc, err := EncodeValue(tt.in)
		require.NoError(t, err)
		dec, err := DecodeValue(enc)
		require.NoError(t, err)
		assert.Equal(t, tt.want, dec, "%#v", tt.in)
	}
}

func TestDecodeValueUntagged(t *testing.T) {
	for _, s := range []string{"#DF", "#DFX#1", "abc#DFI#1"} {
		v, err := DecodeValue(s)
		require.NoError(t, err)
		assert.Equal(t, s, v)
	}

	_, err := DecodeValue("#DFI#abc")
	assert.Error(t, err)
	_, err = DecodeValue("#DFJ#{")
	assert.Error(t, err)
}

func TestDecodeAttributesMultiValued(t *testing.T) {
	rec, err := DecodeAttributes([]*simpledb.Attribute{
		{Name: aws.String("tag"), Value: aws.String("a")},
		{Name: aws.String("age"), Value: aws.String("#DFI#30")},
		{Name: aws.String("tag"), Value: aws.String("b")},
		{Name: aws.String("tag"), Value: aws.String("c")},
	})
	require.NoError(t, err)
	assert.Equal(t, storagemodels.Record{"tag": []any{"a", "b", "c"}, "age": int64(30)}, rec)
}

func TestEncodeAttributesSkipsIDAndNulls(t *testing.T) {
	attrs, nulls, err := encodeAttributes(storagemodels.Record{"id": "u1", "b": 1, "a": "x", "gone": nil}, "id")
	require.NoError(t, err)
	require.Len(t, attrs, 2)
	assert.Equal(t, "a", aws.StringValue(attrs[0].Name))
	assert.Equal(t, "#DFI#1", aws.StringValue(attrs[1].Value))
	assert.True(t, aws.BoolValue(attrs[0].Replace))
	assert.Equal(t, []string{"gone"}, nulls)
}
