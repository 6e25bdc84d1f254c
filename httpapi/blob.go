/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package httpapi

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/suparena/cloudadapter/blobstore"
	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

// serveBlob routes
//
//	GET    /                     containers
//	GET    /{container}          blobs (prefix, delimiter, page_size, metadata)
//	POST   /{container}          create container; DELETE drops it
//	GET    /{container}/{name}   stream, or properties with ?properties
//	PUT    /{container}/{name}   upload the body, or copy with ?source=container/name
//	DELETE /{container}/{name}
func (s *Server) serveBlob(w http.ResponseWriter, r *http.Request, store *blobstore.Store, req *Request) {
	switch len(req.Path) {
	case 0:
		s.serveContainers(w, r, store, req)
	case 1:
		s.serveContainer(w, r, store, req)
	default:
		s.serveObject(w, r, store, req)
	}
}

func (s *Server) serveContainers(w http.ResponseWriter, r *http.Request, store *blobstore.Store, req *Request) {
	if req.Verb != storagemodels.VerbGet {
		s.writeError(w, r, req.Service, apperrors.NewBadRequestError("%s is not supported on the container list", req.Verb))
		return
	}
	containers, err := store.ListContainers(r.Context())
	if err != nil {
		s.writeError(w, r, req.Service, err)
		return
	}
	writeJSON(w, http.StatusOK, resourceList{Resource: containers})
}

func (s *Server) serveContainer(w http.ResponseWriter, r *http.Request, store *blobstore.Store, req *Request) {
	ctx := r.Context()
	container := req.Path[0]

	switch req.Verb {
	case storagemodels.VerbGet:
		opts, err := listOptions(r)
		if err != nil {
			s.writeError(w, r, req.Service, err)
			return
		}
		blobs, err := store.ListBlobs(ctx, container, opts)
		if err != nil {
			s.writeError(w, r, req.Service, err)
			return
		}
		writeJSON(w, http.StatusOK, resourceList{Resource: blobs})
	case storagemodels.VerbPost, storagemodels.VerbPut:
		info, err := store.CreateContainer(ctx, container)
		if err != nil {
			s.writeError(w, r, req.Service, err)
			return
		}
		writeJSON(w, http.StatusCreated, info)
	case storagemodels.VerbDelete:
		if err := store.DeleteContainer(ctx, container); err != nil {
			s.writeError(w, r, req.Service, err)
			return
		}
		writeJSON(w, http.StatusOK, storagemodels.ContainerInfo{Name: container, Path: container})
	default:
		s.writeError(w, r, req.Service, apperrors.NewBadRequestError("%s is not supported on container %q", req.Verb, container))
	}
}

func (s *Server) serveObject(w http.ResponseWriter, r *http.Request, store *blobstore.Store, req *Request) {
	ctx := r.Context()
	container, name := req.Path[0], req.Tail(1)
	q := r.URL.Query()

	switch req.Verb {
	case storagemodels.VerbGet:
		if props, _ := boolOption(q, "properties"); props {
			p, err := store.GetBlobProperties(ctx, container, name)
			if err != nil {
				s.writeError(w, r, req.Service, err)
				return
			}
			writeJSON(w, http.StatusOK, p)
			return
		}
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		if err := store.StreamBlob(ctx, ww, container, name); err != nil {
			if ww.Status() == 0 {
				s.writeError(w, r, req.Service, err)
				return
			}
			s.metrics.Failures.WithLabelValues(req.Service, failureKind(err)).Inc()
			s.logger.Debug("blob stream failed", zap.String("path", r.URL.Path), zap.Error(err))
		}

	case storagemodels.VerbPost, storagemodels.VerbPut:
		var (
			props *storagemodels.BlobProperties
			err   error
		)
		if source := q.Get("source"); source != "" {
			srcContainer, srcName, ok := strings.Cut(strings.TrimPrefix(source, "/"), "/")
			if !ok || srcName == "" {
				s.writeError(w, r, req.Service, apperrors.NewBadRequestError("source must be <container>/<name>, got %q", source))
				return
			}
			props, err = store.CopyBlob(ctx, srcContainer, srcName, container, name)
		} else {
			var data []byte
			if data, err = io.ReadAll(r.Body); err != nil {
				s.writeError(w, r, req.Service, apperrors.WrapBadRequest("failed to read upload", err))
				return
			}
			props, err = store.PutBlob(ctx, container, name, data, r.Header.Get("Content-Type"))
		}
		if err != nil {
			s.writeError(w, r, req.Service, err)
			return
		}
		writeJSON(w, http.StatusCreated, props)

	case storagemodels.VerbDelete:
		if err := store.DeleteBlob(ctx, container, name); err != nil {
			s.writeError(w, r, req.Service, err)
			return
		}
		writeJSON(w, http.StatusOK, storagemodels.BlobProperties{Name: name, Path: container + "/" + name})

	default:
		s.writeError(w, r, req.Service, apperrors.NewBadRequestError("%s is not supported on blob %q", req.Verb, name))
	}
}

func listOptions(r *http.Request) (storagemodels.ListOptions, error) {
	q := r.URL.Query()
	opts := []storagemodels.ListOption{
		storagemodels.WithPrefix(q.Get("prefix")),
		storagemodels.WithDelimiter(q.Get("delimiter")),
	}
	if s := q.Get("page_size"); s != "" {
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil || n <= 0 {
			return storagemodels.ListOptions{}, apperrors.NewBadRequestError("page_size must be a positive integer, got %q", s)
		}
		opts = append(opts, storagemodels.WithPageSize(int32(n)))
	}
	if s := q.Get("metadata"); s != "" {
		withMeta, err := strconv.ParseBool(s)
		if err != nil {
			return storagemodels.ListOptions{}, apperrors.NewBadRequestError("metadata must be a boolean, got %q", s)
		}
		if !withMeta {
			opts = append(opts, storagemodels.WithoutMetadata())
		}
	}
	return storagemodels.NewListOptions(opts...), nil
}
