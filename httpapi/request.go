/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

// maxBodyBytes caps JSON request bodies. Blob uploads are not affected.
const maxBodyBytes = 32 << 20

// Request is one inbound call after routing.
type Request struct {
	Verb    storagemodels.Verb
	Service string
	// Path holds the non-empty segments after the service name.
	Path    []string
	Options storagemodels.Options
	// IDs comes from the ids query option.
	IDs []any
	// Payload is the decoded JSON body: a Record, a []any or a scalar.
	Payload any

	body []byte
}

// ParseRequest reads the verb, path and query options of r. The body is
// decoded as JSON only when decodeBody is set.
func ParseRequest(r *http.Request, decodeBody bool) (*Request, error) {
	method := r.Method
	if override := r.Header.Get("X-HTTP-Method"); override != "" {
		method = override
	}
	verb, ok := storagemodels.ParseVerb(method)
	if !ok {
		return nil, apperrors.NewBadRequestError("method %q is not supported", method)
	}

	req := &Request{
		Verb:    verb,
		Service: chi.URLParam(r, "service"),
		Path:    splitPath(chi.URLParam(r, "*")),
	}

	q := r.URL.Query()
	opts, err := parseOptions(q)
	if err != nil {
		return nil, err
	}
	req.Options = opts
	for _, id := range splitList(q.Get("ids")) {
		req.IDs = append(req.IDs, id)
	}

	if decodeBody && r.Body != nil {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			return nil, apperrors.WrapBadRequest("failed to read request body", err)
		}
		req.body = body
		switch {
		case len(bytes.TrimSpace(body)) == 0:
		case strings.HasPrefix(r.Header.Get("Content-Type"), "text/"):
			req.Payload = string(body)
		default:
			payload, err := decodeJSON(body)
			if err != nil {
				return nil, err
			}
			req.Payload = payload
		}
	}
	return req, nil
}

// Records returns the payload as records. A {"resource": [...]} wrapper and
// a bare array both yield many; an object yields one and single is true.
func (r *Request) Records() (records []storagemodels.Record, single bool, err error) {
	switch p := r.Payload.(type) {
	case nil:
		return nil, false, nil
	case storagemodels.Record:
		if wrapped, ok := p["resource"]; ok {
			list, ok := wrapped.([]any)
			if !ok {
				return nil, false, apperrors.NewBadRequestError("resource must be an array of records")
			}
			records, err := toRecords(list)
			return records, false, err
		}
		return []storagemodels.Record{p}, true, nil
	case []any:
		records, err := toRecords(p)
		return records, false, err
	}
	return nil, false, apperrors.NewBadRequestError("payload of type %T is not a record", r.Payload)
}

// Decode unmarshals the raw body into v.
func (r *Request) Decode(v any) error {
	if len(bytes.TrimSpace(r.body)) == 0 {
		return apperrors.NewBadRequestError("request body is empty")
	}
	if err := json.Unmarshal(r.body, v); err != nil {
		return apperrors.WrapBadRequest("invalid request body", err)
	}
	return nil
}

// Tail joins the path segments from index i, for names that contain slashes.
func (r *Request) Tail(i int) string {
	if i >= len(r.Path) {
		return ""
	}
	return strings.Join(r.Path[i:], "/")
}

func toRecords(list []any) ([]storagemodels.Record, error) {
	records := make([]storagemodels.Record, 0, len(list))
	for i, item := range list {
		rec, ok := item.(storagemodels.Record)
		if !ok {
			return nil, apperrors.NewBadRequestError("record %d is a %T, not an object", i, item)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseOptions(q url.Values) (storagemodels.Options, error) {
	var opts storagemodels.Options
	var err error

	opts.Fields = splitList(q.Get("fields"))
	if opts.Limit, err = intOption(q, "limit"); err != nil {
		return opts, err
	}
	if opts.Offset, err = intOption(q, "offset"); err != nil {
		return opts, err
	}
	if f := q.Get("filter"); f != "" {
		opts.Filter = f
	}
	if p := q.Get("params"); p != "" {
		params, err := decodeJSON([]byte(p))
		if err != nil {
			return opts, err
		}
		m, ok := params.(storagemodels.Record)
		if !ok {
			return opts, apperrors.NewBadRequestError("params must be a JSON object")
		}
		opts.Params = m
	}
	opts.IDField = q.Get("id_field")
	if opts.Continue, err = boolOption(q, "continue"); err != nil {
		return opts, err
	}
	if opts.Rollback, err = boolOption(q, "rollback"); err != nil {
		return opts, err
	}
	return opts, nil
}

func intOption(q url.Values, name string) (int, error) {
	s := q.Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, apperrors.NewBadRequestError("%s must be a non-negative integer, got %q", name, s)
	}
	return n, nil
}

// boolOption treats a present but empty option ("?rollback") as true.
func boolOption(q url.Values, name string) (bool, error) {
	if _, ok := q[name]; !ok {
		return false, nil
	}
	s := q.Get(name)
	if s == "" {
		return true, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, apperrors.NewBadRequestError("%s must be a boolean, got %q", name, s)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func splitPath(s string) []string {
	var out []string
	for _, part := range strings.Split(s, "/") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// decodeJSON decodes with integral numbers kept as int64 so the codecs can
// tell integers from floats.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, apperrors.WrapBadRequest("invalid JSON", err)
	}
	return normalizeNumbers(v), nil
}

func normalizeNumbers(v any) any {
	switch tv := v.(type) {
	case json.Number:
		if i, err := tv.Int64(); err == nil {
			return i
		}
		if f, err := tv.Float64(); err == nil {
			return f
		}
		return tv.String()
	case map[string]any:
		for k, item := range tv {
			tv[k] = normalizeNumbers(item)
		}
		return tv
	case []any:
		for i, item := range tv {
			tv[i] = normalizeNumbers(item)
		}
		return tv
	}
	return v
}

func (r *Request) String() string {
	return fmt.Sprintf("%s %s/%s", r.Verb, r.Service, strings.Join(r.Path, "/"))
}
