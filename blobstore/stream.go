/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package blobstore

import (
	"context"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/suparena/cloudadapter/errors"
)

// StreamBlob writes a blob to w: the Last-Modified, Content-Type,
// Content-Length and Content-Disposition headers followed by the body.
//
// A blob that does not exist is answered with 404 and the NotFound error is
// still returned; callers must not write to w again in that case. Any other
// error is returned before anything is written.
func (s *Store) StreamBlob(ctx context.Context, w http.ResponseWriter, container, name string) error {
	body, props, err := s.open(ctx, container, name)
	if apperrors.IsNotFound(err) {
		http.Error(w, "blob "+name+" not found", http.StatusNotFound)
		return err
	}
	if err != nil {
		return err
	}
	defer body.Close()

	h := w.Header()
	if t := time.Time(props.LastModified); !t.IsZero() {
		h.Set("Last-Modified", t.UTC().Format(http.TimeFormat))
	}
	contentType := props.ContentType
	if contentType == "" {
		contentType = guessContentType(name)
	}
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.FormatInt(props.ContentLength, 10))
	h.Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": path.Base(name)}))
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, body)
	if err != nil {
		// headers are already sent
		s.logger.Warn("blob stream interrupted", zap.String("key", name), zap.Int64("written", n), zap.Error(err))
		return apperrors.NewInternalError("stream blob", props.Path, err)
	}
	return nil
}
