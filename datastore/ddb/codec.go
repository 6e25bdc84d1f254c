/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

// EncodeRecord converts a record into a DynamoDB item.
func EncodeRecord(rec storagemodels.Record) (map[string]types.AttributeValue, error) {
	item := make(map[string]types.AttributeValue, len(rec))
	for name, v := range rec {
		av, err := EncodeValue(v)
		if err != nil {
			return nil, apperrors.WrapBadRequest(fmt.Sprintf("field %q can not be encoded", name), err)
		}
		item[name] = av
	}
	return item, nil
}

// EncodeValue tags v with its wire type. Homogeneous string, number and
// binary sequences become sets; everything else goes through attributevalue.
func EncodeValue(v any) (types.AttributeValue, error) {
	switch tv := v.(type) {
	case []string:
		if len(tv) > 0 {
			return &types.AttributeValueMemberSS{Value: tv}, nil
		}
	case [][]byte:
		if len(tv) > 0 {
			return &types.AttributeValueMemberBS{Value: tv}, nil
		}
	case []float64:
		if len(tv) > 0 {
			ns := make([]string, len(tv))
			for i, n := range tv {
				ns[i] = strconv.FormatFloat(n, 'f', -1, 64)
			}
			return &types.AttributeValueMemberNS{Value: ns}, nil
		}
	case []int64:
		if len(tv) > 0 {
			ns := make([]string, len(tv))
			for i, n := range tv {
				ns[i] = strconv.FormatInt(n, 10)
			}
			return &types.AttributeValueMemberNS{Value: ns}, nil
		}
	case []any:
		if set, ok := sequenceSet(tv); ok {
			return set, nil
		}
	}
	return attributevalue.Marshal(v)
}

// sequenceSet returns a set attribute when every element shares a set-able type.
func sequenceSet(values []any) (types.AttributeValue, bool) {
	if len(values) == 0 {
		return nil, false
	}
	switch values[0].(type) {
	case string:
		ss := make([]string, 0, len(values))
		for _, v := range values {
			s, ok := v.(string)
			if !ok {
				return nil, false
			}
			ss = append(ss, s)
		}
		return &types.AttributeValueMemberSS{Value: ss}, true
	case float64, int, int64:
		ns := make([]string, 0, len(values))
		for _, v := range values {
			switch n := v.(type) {
			case float64:
				ns = append(ns, strconv.FormatFloat(n, 'f', -1, 64))
			case int:
				ns = append(ns, strconv.Itoa(n))
			case int64:
				ns = append(ns, strconv.FormatInt(n, 10))
			default:
				return nil, false
			}
		}
		return &types.AttributeValueMemberNS{Value: ns}, true
	}
	return nil, false
}

// DecodeRecord converts a DynamoDB item back into a record.
func DecodeRecord(item map[string]types.AttributeValue) (storagemodels.Record, error) {
	rec := make(storagemodels.Record, len(item))
	for name, av := range item {
		v, err := DecodeValue(av)
		if err != nil {
			return nil, apperrors.NewInternalError("decode attribute", name, err)
		}
		rec[name] = v
	}
	return rec, nil
}

// DecodeValue reverses EncodeValue. Integral numbers decode as int64, others as float64.
func DecodeValue(av types.AttributeValue) (any, error) {
	switch tv := av.(type) {
	case *types.AttributeValueMemberN:
		return decodeNumber(tv.Value)
	case *types.AttributeValueMemberSS:
		return append([]string(nil), tv.Value...), nil
	case *types.AttributeValueMemberNS:
		out := make([]any, 0, len(tv.Value))
		for _, n := range tv.Value {
			v, err := decodeNumber(n)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case *types.AttributeValueMemberBS:
		return append([][]byte(nil), tv.Value...), nil
	case *types.AttributeValueMemberL:
		out := make([]any, 0, len(tv.Value))
		for _, el := range tv.Value {
			v, err := DecodeValue(el)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case *types.AttributeValueMemberM:
		return DecodeRecord(tv.Value)
	}

	var v any
	if err := attributevalue.Unmarshal(av, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeNumber(s string) (any, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return f, nil
}

// EncodeUpdates converts a partial record into attribute updates, skipping key fields.
// A nil value deletes the attribute; an AttributeUpdate is applied as given; anything else is a PUT.
func EncodeUpdates(rec storagemodels.Record, keyNames []string) (map[string]types.AttributeValueUpdate, error) {
	keys := make(map[string]bool, len(keyNames))
	for _, k := range keyNames {
		keys[k] = true
	}

	updates := make(map[string]types.AttributeValueUpdate, len(rec))
	for name, v := range rec {
		if keys[name] {
			continue
		}

		action := types.AttributeActionPut
		value := v
		switch tv := v.(type) {
		case nil:
			updates[name] = types.AttributeValueUpdate{Action: types.AttributeActionDelete}
			continue
		case storagemodels.AttributeUpdate:
			action = types.AttributeAction(tv.Action)
			value = tv.Value
		case *storagemodels.AttributeUpdate:
			action = types.AttributeAction(tv.Action)
			value = tv.Value
		}

		update := types.AttributeValueUpdate{Action: action}
		if value != nil {
			av, err := EncodeValue(value)
			if err != nil {
				return nil, apperrors.WrapBadRequest(fmt.Sprintf("field %q can not be encoded", name), err)
			}
			update.Value = av
		}
		switch action {
		case types.AttributeActionPut, types.AttributeActionAdd, types.AttributeActionDelete:
		default:
			return nil, apperrors.NewBadRequestError("unknown update action %q for field %q", action, name)
		}
		updates[name] = update
	}
	return updates, nil
}
