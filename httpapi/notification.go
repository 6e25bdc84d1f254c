/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package httpapi

import (
	"net/http"

	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/notification"
	"github.com/suparena/cloudadapter/storagemodels"
)

// serveNotification routes
//
//	GET    /             resource kinds; POST publishes to the target named in the payload
//	GET    /{kind}       list, scoped with ?parent=
//	POST   /{kind}       create; PUT/PATCH update
//	GET    /{kind}/{id}  get; DELETE delete; PUT/PATCH update
//	POST   /{kind}/{id}  publish to a topic or endpoint
func (s *Server) serveNotification(w http.ResponseWriter, r *http.Request, svc *notification.Service, req *Request) {
	ctx := r.Context()

	if len(req.Path) == 0 {
		switch req.Verb {
		case storagemodels.VerbGet:
			kinds := svc.Kinds()
			names := make([]string, 0, len(kinds))
			for _, k := range kinds {
				names = append(names, string(k))
			}
			nameList(w, names)
		case storagemodels.VerbPost:
			s.publish(w, r, svc, req, notification.Target{})
		default:
			s.writeError(w, r, req.Service, apperrors.NewBadRequestError("%s is not supported on the notification service", req.Verb))
		}
		return
	}

	kind, err := notification.ParseKind(req.Path[0])
	if err != nil {
		s.writeError(w, r, req.Service, err)
		return
	}
	resource, err := svc.Resource(string(kind))
	if err != nil {
		s.writeError(w, r, req.Service, err)
		return
	}
	id := req.Tail(1)

	var out storagemodels.Record
	switch {
	case req.Verb == storagemodels.VerbGet && id == "":
		list, err := resource.List(ctx, r.URL.Query().Get("parent"))
		if err != nil {
			s.writeError(w, r, req.Service, err)
			return
		}
		writeRecords(w, http.StatusOK, list, false)
		return

	case req.Verb == storagemodels.VerbGet:
		out, err = resource.Get(ctx, id)

	case req.Verb == storagemodels.VerbPost && id != "":
		s.publish(w, r, svc, req, notification.Target{Kind: kind, ID: id})
		return

	case req.Verb == storagemodels.VerbPost:
		payload, perr := recordPayload(req)
		if perr != nil {
			err = perr
			break
		}
		if out, err = resource.Create(ctx, payload); err == nil {
			writeJSON(w, http.StatusCreated, out)
			return
		}

	case req.Verb == storagemodels.VerbPut || req.Verb == storagemodels.VerbPatch:
		payload, perr := recordPayload(req)
		if perr != nil {
			err = perr
			break
		}
		if id != "" {
			payload[kind.ARNField()] = id
		}
		out, err = resource.Update(ctx, payload)

	case req.Verb == storagemodels.VerbDelete:
		if id == "" {
			err = apperrors.NewBadRequestError("delete requires a %s id in the path", kind)
			break
		}
		out, err = resource.Delete(ctx, id)

	default:
		err = apperrors.NewBadRequestError("%s is not supported on %s resources", req.Verb, kind)
	}
	if err != nil {
		s.writeError(w, r, req.Service, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) publish(w http.ResponseWriter, r *http.Request, svc *notification.Service, req *Request, target notification.Target) {
	out, err := svc.Publish(r.Context(), target, req.Payload)
	if err != nil {
		s.writeError(w, r, req.Service, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// recordPayload returns the payload as a record, copying it so path values
// can be added.
func recordPayload(req *Request) (storagemodels.Record, error) {
	rec, ok := req.Payload.(storagemodels.Record)
	if !ok {
		return nil, apperrors.NewBadRequestError("payload must be a JSON object")
	}
	out := make(storagemodels.Record, len(rec)+1)
	for k, v := range rec {
		out[k] = v
	}
	return out, nil
}
