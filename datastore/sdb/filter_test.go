/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

func TestTranslateFilterNormalizes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"name = 'Ann' && age >= '#DFI#30'", "name = 'Ann' and age >= '#DFI#30'"},
		{"a = 'x' || b = 'y'", "a = 'x' or b = 'y'"},
		{"a <> 'x'", "a != 'x'"},
		{"status = null", "status is null"},
		{"status != NULL", "status is not null"},
		{"age gte '1' and age lt '9'", "age >= '1' and age < '9'"},
		{"  name   =  'a  && b'  ", "name = 'a  && b'"},
		{"(a = 'x')", "(a = 'x')"},
		{"", ""},
	}
	for _, tt := range tests {
		got, err := TranslateFilter(tt.in, nil, nil)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestTranslateFilterParams(t *testing.T) {
	got, err := TranslateFilter("name = :name and age > :min", map[string]any{":name": "O'Neil", "min": 30}, nil)
	require.NoError(t, err)
	assert.Equal(t, "name = 'O''Neil' and age > '#DFI#30'", got)

	_, err = TranslateFilter("name = :missing", nil, nil)
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestTranslateFilterRejects(t *testing.T) {
	for _, f := range []string{"(a = 'x'", "a = 'x')", "a = 'x"} {
		_, err := TranslateFilter(f, nil, nil)
		assert.True(t, apperrors.IsBadRequest(err), f)
	}

	_, err := TranslateFilter(map[string]any{"a": 1}, nil, nil)
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestTranslateFilterServerFilters(t *testing.T) {
	and := &storagemodels.ServerFilters{Clauses: []storagemodels.FilterClause{
		{Name: "owner", Operator: "=", Value: "me"},
		{Name: "kind", Operator: "in", Value: []any{"a", "b"}},
	}}
	got, err := TranslateFilter("a = 'x'", nil, and)
	require.NoError(t, err)
	assert.Equal(t, "(a = 'x') and (`owner` = 'me' and `kind` in ('a', 'b'))", got)

	or := &storagemodels.ServerFilters{
		Combiner: storagemodels.CombineOr,
		Clauses: []storagemodels.FilterClause{
			{Name: "age", Operator: "lt", Value: 30},
			{Name: "deleted", Operator: "=", Value: nil},
			{Name: "score", Operator: "between", Value: []any{1, 5}},
		},
	}
	got, err = TranslateFilter(nil, nil, or)
	require.NoError(t, err)
	assert.Equal(t, "(`age` < '#DFI#30' or `deleted` is null or `score` between '#DFI#1' and '#DFI#5')", got)

	_, err = TranslateFilter(nil, nil, &storagemodels.ServerFilters{Clauses: []storagemodels.FilterClause{
		{Name: "a", Operator: "~", Value: "x"},
	}})
	assert.True(t, apperrors.IsBadRequest(err))
}
