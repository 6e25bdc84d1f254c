/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package httpapi

import (
	"net/http"

	"github.com/suparena/cloudadapter/datastore"
	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

// serveDatabase routes
//
//	GET    /                 table names
//	*      /_table/{table}   record dispatch
//	GET    /_table/{table}/{id}, DELETE likewise
//	GET    /_schema          table names
//	POST   /_schema          create table
//	GET    /_schema/{table}  describe; PUT/PATCH update; DELETE drop
//
// ?refresh reloads the cached table names first.
func (s *Server) serveDatabase(w http.ResponseWriter, r *http.Request, db datastore.Service, req *Request) {
	ctx := r.Context()
	if refresh, _ := boolOption(r.URL.Query(), "refresh"); refresh {
		if err := db.RefreshNames(ctx); err != nil {
			s.writeError(w, r, req.Service, err)
			return
		}
	}

	if len(req.Path) == 0 || (len(req.Path) == 1 && req.Path[0] == "_table") {
		if req.Verb != storagemodels.VerbGet {
			s.writeError(w, r, req.Service, apperrors.NewBadRequestError("%s is not supported on the table list", req.Verb))
			return
		}
		s.listTables(w, r, db, req)
		return
	}

	switch req.Path[0] {
	case "_table":
		s.serveTable(w, r, db, req)
	case "_schema":
		s.serveSchema(w, r, db, req)
	default:
		s.writeError(w, r, req.Service, apperrors.NewBadRequestError("unknown database resource %q", req.Path[0]))
	}
}

func (s *Server) listTables(w http.ResponseWriter, r *http.Request, db datastore.Service, req *Request) {
	names, err := db.Schema().List(r.Context())
	if err != nil {
		s.writeError(w, r, req.Service, err)
		return
	}
	nameList(w, names)
}

func (s *Server) serveTable(w http.ResponseWriter, r *http.Request, db datastore.Service, req *Request) {
	ctx := r.Context()
	table, err := db.Table(ctx, req.Path[1])
	if err != nil {
		s.writeError(w, r, req.Service, err)
		return
	}

	if id := req.Tail(2); id != "" {
		var out []storagemodels.Record
		switch req.Verb {
		case storagemodels.VerbGet:
			out, err = table.RetrieveByIDs(ctx, []any{id}, req.Options)
		case storagemodels.VerbDelete:
			out, err = table.Delete(ctx, []any{id}, req.Options)
		default:
			err = apperrors.NewBadRequestError("%s takes the record key in the payload, not the path", req.Verb)
		}
		if err != nil {
			s.writeError(w, r, req.Service, err)
			return
		}
		writeRecords(w, http.StatusOK, out, true)
		return
	}

	records, single, err := req.Records()
	if err != nil {
		s.writeError(w, r, req.Service, err)
		return
	}
	out, err := datastore.Dispatch(ctx, table, datastore.RecordRequest{
		Verb:    req.Verb,
		IDs:     req.IDs,
		Records: records,
		Options: req.Options,
	})
	if err != nil {
		s.writeError(w, r, req.Service, err)
		return
	}
	status := http.StatusOK
	if req.Verb == storagemodels.VerbPost {
		status = http.StatusCreated
	}
	writeRecords(w, status, out, single)
}

func (s *Server) serveSchema(w http.ResponseWriter, r *http.Request, db datastore.Service, req *Request) {
	ctx := r.Context()
	schema := db.Schema()

	if len(req.Path) == 1 {
		switch req.Verb {
		case storagemodels.VerbGet:
			s.listTables(w, r, db, req)
		case storagemodels.VerbPost:
			var spec storagemodels.TableSpec
			if err := req.Decode(&spec); err != nil {
				s.writeError(w, r, req.Service, err)
				return
			}
			desc, err := schema.Create(ctx, spec)
			if err != nil {
				s.writeError(w, r, req.Service, err)
				return
			}
			writeJSON(w, http.StatusCreated, desc)
		default:
			s.writeError(w, r, req.Service, apperrors.NewBadRequestError("%s is not supported on the schema list", req.Verb))
		}
		return
	}

	name := req.Path[1]
	var (
		desc *storagemodels.TableDescriptor
		err  error
	)
	switch req.Verb {
	case storagemodels.VerbGet:
		desc, err = schema.Describe(ctx, name)
	case storagemodels.VerbPut, storagemodels.VerbPatch:
		changes, ok := req.Payload.(storagemodels.Record)
		if req.Payload != nil && !ok {
			err = apperrors.NewBadRequestError("schema changes must be an object")
			break
		}
		desc, err = schema.Update(ctx, name, changes)
	case storagemodels.VerbDelete:
		desc, err = schema.Delete(ctx, name)
	default:
		err = apperrors.NewBadRequestError("%s is not supported on table schema %q", req.Verb, name)
	}
	if err != nil {
		s.writeError(w, r, req.Service, err)
		return
	}
	writeJSON(w, http.StatusOK, desc)
}
