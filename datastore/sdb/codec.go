/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sdb

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/simpledb"

	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

// Sentinel tags prefixed onto non-string values. SimpleDB stores strings only.
const (
	TagJSON  = "#DFJ#"
	TagBool  = "#DFB#"
	TagFloat = "#DFF#"
	TagInt   = "#DFI#"
)

// EncodeValue converts v into its stored string form. Strings are stored
// untagged; booleans, integers, floats and JSON-serializable structures are
// tagged so DecodeValue can restore their kind. Integers of every width come
// back as int64 and float32 as float64; JSON structures come back as generic
// maps and slices.
func EncodeValue(v any) (string, error) {
	switch tv := v.(type) {
	case string:
		return tv, nil
	case bool:
		if tv {
			return TagBool + "1", nil
		}
		return TagBool + "0", nil
	case int:
		return TagInt + strconv.Itoa(tv), nil
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TagInt + fmt.Sprint(tv), nil
	case float32:
		return TagFloat + strconv.FormatFloat(float64(tv), 'g', -1, 32), nil
	case float64:
		return TagFloat + strconv.FormatFloat(tv, 'g', -1, 64), nil
	case json.Number:
		if _, err := tv.Int64(); err == nil {
			return TagInt + tv.String(), nil
		}
		return TagFloat + tv.String(), nil
	case nil:
		return "", apperrors.NewBadRequestError("null values can not be stored")
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Ptr:
		b, err := json.Marshal(v)
		if err != nil {
			return "", apperrors.WrapBadRequest(fmt.Sprintf("value of type %T can not be stored", v), err)
		}
		return TagJSON + string(b), nil
	}
	return "", apperrors.NewBadRequestError("value of type %T can not be stored", v)
}

// DecodeValue reverses EncodeValue. Untagged strings are returned as is.
func DecodeValue(s string) (any, error) {
	if len(s) < len(TagJSON) || !strings.HasPrefix(s, "#DF") {
		return s, nil
	}
	tag, body := s[:len(TagJSON)], s[len(TagJSON):]
	switch tag {
	case TagBool:
		b, err := strconv.ParseBool(body)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean %q: %w", body, err)
		}
		return b, nil
	case TagInt:
		i, err := strconv.ParseInt(body, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", body, err)
		}
		return i, nil
	case TagFloat:
		f, err := strconv.ParseFloat(body, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q: %w", body, err)
		}
		return f, nil
	case TagJSON:
		var v any
		if err := json.Unmarshal([]byte(body), &v); err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
		return v, nil
	}
	return s, nil
}

// DecodeAttributes builds a record from an item's attributes. A name that
// occurs more than once becomes a sequence of its values.
func DecodeAttributes(attrs []*simpledb.Attribute) (storagemodels.Record, error) {
	rec := make(storagemodels.Record, len(attrs))
	multi := map[string]bool{}
	for _, a := range attrs {
		name := aws.StringValue(a.Name)
		v, err := DecodeValue(aws.StringValue(a.Value))
		if err != nil {
			return nil, apperrors.NewInternalError("decode attribute", name, err)
		}
		prev, seen := rec[name]
		switch {
		case !seen:
			rec[name] = v
		case multi[name]:
			rec[name] = append(prev.([]any), v)
		default:
			rec[name] = []any{prev, v}
			multi[name] = true
		}
	}
	return rec, nil
}

// encodeAttributes converts every field except the id into replaceable
// attributes. Nil fields are returned separately so they can be deleted.
func encodeAttributes(rec storagemodels.Record, idField string) ([]*simpledb.ReplaceableAttribute, []string, error) {
	attrs := make([]*simpledb.ReplaceableAttribute, 0, len(rec))
	var nulls []string
	for _, name := range sortedFields(rec) {
		if name == idField {
			continue
		}
		v := rec[name]
		if v == nil {
			nulls = append(nulls, name)
			continue
		}
		s, err := EncodeValue(v)
		if err != nil {
			return nil, nil, apperrors.WrapBadRequest(fmt.Sprintf("field %q can not be encoded", name), err)
		}
		attrs = append(attrs, &simpledb.ReplaceableAttribute{
			Name:    aws.String(name),
			Value:   aws.String(s),
			Replace: aws.Bool(true),
		})
	}
	return attrs, nulls, nil
}
