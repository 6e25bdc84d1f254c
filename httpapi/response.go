/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

// ErrorBody is the JSON shape of a failed request.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes the failure. Context is set for partial batch
// failures: the per-record results and the failure message of each index.
type ErrorDetail struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Context *BatchContext `json:"context,omitempty"`
}

// BatchContext reports a batch that ran with continue enabled.
type BatchContext struct {
	Resource []map[string]any  `json:"resource"`
	Errors   map[string]string `json:"errors"`
}

// resourceList is the JSON shape of many results.
type resourceList struct {
	Resource any `json:"resource"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRecords answers with the first record when single, else a resource list.
func writeRecords(w http.ResponseWriter, status int, records []storagemodels.Record, single bool) {
	if single && len(records) == 1 {
		writeJSON(w, status, records[0])
		return
	}
	if records == nil {
		records = []storagemodels.Record{}
	}
	writeJSON(w, status, resourceList{Resource: records})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, service string, err error) {
	s.writeErrorStatus(w, r, service, apperrors.StatusCode(err), err)
}

func (s *Server) writeErrorStatus(w http.ResponseWriter, r *http.Request, service string, status int, err error) {
	s.metrics.Failures.WithLabelValues(service, failureKind(err)).Inc()
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}

	body := ErrorBody{Error: ErrorDetail{Code: status, Message: err.Error()}}
	var batch *apperrors.BatchError
	if errors.As(err, &batch) {
		ctx := &BatchContext{Resource: batch.Results, Errors: make(map[string]string, len(batch.Failed))}
		for i, failure := range batch.Failed {
			ctx.Errors[strconv.Itoa(i)] = failure.Error()
		}
		body.Error.Context = ctx
	}
	writeJSON(w, status, body)
}

func failureKind(err error) string {
	var batch *apperrors.BatchError
	switch {
	case errors.As(err, &batch):
		return "batch"
	case apperrors.IsBadRequest(err):
		return "bad_request"
	case apperrors.IsNotFound(err):
		return "not_found"
	case apperrors.IsServiceUnavailable(err):
		return "unavailable"
	case apperrors.IsInternal(err):
		return "internal"
	}
	return "other"
}
