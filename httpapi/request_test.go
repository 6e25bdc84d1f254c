/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

// routed builds a request carrying the chi params the router would set.
func routed(method, target, body string, params map[string]string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestParseRequestOptions(t *testing.T) {
	r := routed(http.MethodGet,
		"/api/users/_table/people?fields=id,%20name,,&limit=10&offset=5&filter=age%3E%3Amin&params=%7B%22%3Amin%22%3A3%7D&id_field=key&continue&rollback=false&ids=a,b",
		"", map[string]string{"service": "users", "*": "_table//people/"})

	req, err := ParseRequest(r, true)
	require.NoError(t, err)
	assert.Equal(t, storagemodels.VerbGet, req.Verb)
	assert.Equal(t, "users", req.Service)
	assert.Equal(t, []string{"_table", "people"}, req.Path)
	assert.Equal(t, []any{"a", "b"}, req.IDs)
	assert.Nil(t, req.Payload)

	opts := req.Options
	assert.Equal(t, []string{"id", "name"}, opts.Fields)
	assert.Equal(t, 10, opts.Limit)
	assert.Equal(t, 5, opts.Offset)
	assert.Equal(t, "age>:min", opts.Filter)
	assert.Equal(t, storagemodels.Record{":min": int64(3)}, opts.Params)
	assert.Equal(t, "key", opts.IDField)
	assert.True(t, opts.Continue)
	assert.False(t, opts.Rollback)
	assert.Equal(t, "GET users/_table/people", req.String())
}

func TestParseRequestRejects(t *testing.T) {
	for _, target := range []string{
		"/x?limit=-1",
		"/x?offset=a",
		"/x?params=%5B1%5D",
		"/x?params=%7B",
		"/x?rollback=maybe",
	} {
		_, err := ParseRequest(routed(http.MethodGet, target, "", nil), false)
		assert.True(t, apperrors.IsBadRequest(err), target)
	}

	_, err := ParseRequest(routed("TRACE", "/x", "", nil), false)
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestParseRequestMethodOverride(t *testing.T) {
	r := routed(http.MethodPost, "/x", "", nil)
	r.Header.Set("X-HTTP-Method", "MERGE")
	req, err := ParseRequest(r, true)
	require.NoError(t, err)
	assert.Equal(t, storagemodels.VerbPatch, req.Verb)
}

func TestParseRequestBody(t *testing.T) {
	r := routed(http.MethodPost, "/x", `{"n":1,"f":1.5,"big":12345678901,"list":[2,{"x":3}]}`, nil)
	req, err := ParseRequest(r, true)
	require.NoError(t, err)
	assert.Equal(t, storagemodels.Record{
		"n":    int64(1),
		"f":    1.5,
		"big":  int64(12345678901),
		"list": []any{int64(2), storagemodels.Record{"x": int64(3)}},
	}, req.Payload)

	records, single, err := req.Records()
	require.NoError(t, err)
	assert.True(t, single)
	assert.Len(t, records, 1)

	var decoded struct {
		N int `json:"n"`
	}
	require.NoError(t, req.Decode(&decoded))
	assert.Equal(t, 1, decoded.N)

	r = routed(http.MethodPost, "/x", "plain words", nil)
	r.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req, err = ParseRequest(r, true)
	require.NoError(t, err)
	assert.Equal(t, "plain words", req.Payload)

	r = routed(http.MethodPost, "/x", "{not json", nil)
	_, err = ParseRequest(r, true)
	assert.True(t, apperrors.IsBadRequest(err))

	r = routed(http.MethodPost, "/x", "{not json", nil)
	req, err = ParseRequest(r, false)
	require.NoError(t, err)
	assert.Nil(t, req.Payload)
}

func TestRecords(t *testing.T) {
	cases := []struct {
		name    string
		payload any
		count   int
		single  bool
		wantErr bool
	}{
		{name: "empty", payload: nil},
		{name: "object", payload: storagemodels.Record{"id": "a"}, count: 1, single: true},
		{name: "array", payload: []any{storagemodels.Record{"id": "a"}, storagemodels.Record{"id": "b"}}, count: 2},
		{name: "wrapper", payload: storagemodels.Record{"resource": []any{storagemodels.Record{"id": "a"}}}, count: 1},
		{name: "bad wrapper", payload: storagemodels.Record{"resource": "a"}, wantErr: true},
		{name: "scalar item", payload: []any{"a"}, wantErr: true},
		{name: "string", payload: "a", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			records, single, err := (&Request{Payload: tc.payload}).Records()
			if tc.wantErr {
				assert.True(t, apperrors.IsBadRequest(err))
				return
			}
			require.NoError(t, err)
			assert.Len(t, records, tc.count)
			assert.Equal(t, tc.single, single)
		})
	}
}

func TestTail(t *testing.T) {
	req := &Request{Path: []string{"files", "docs", "a.txt"}}
	assert.Equal(t, "docs/a.txt", req.Tail(1))
	assert.Equal(t, "", req.Tail(3))
}
