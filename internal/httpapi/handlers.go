package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/roach88/pickdb/internal/dict"
	"github.com/roach88/pickdb/internal/mv"
	"github.com/roach88/pickdb/internal/store"
)

// whereParam carries a boolean record filter; every other query parameter is
// an equality criterion on a raw column.
const whereParam = "where"

// createTableRequest is the body of POST /tables.
type createTableRequest struct {
	Name    string            `json:"name"`
	Columns []store.ColumnDef `json:"columns"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.facade.CreateTable(r.Context(), req.Name, req.Columns); err != nil {
		respondError(w, r, err)
		return
	}
	entries, err := s.facade.Dictionary(r.Context(), req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"table": req.Name, "dictionary": entries})
}

func (s *Server) handleDropTable(w http.ResponseWriter, r *http.Request) {
	if err := s.facade.DropTable(r.Context(), chi.URLParam(r, "table")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	query := r.URL.Query()

	var (
		recs []mv.Record
		err  error
	)
	if filter := query.Get(whereParam); filter != "" {
		recs, err = s.facade.FindWhere(r.Context(), table, filter)
	} else {
		recs, err = s.facade.FindByCriteria(r.Context(), table, criteria(r))
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]map[string]any, len(recs))
	for i, rec := range recs {
		out[i] = rec.Native()
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var values map[string]any
	if !decodeBody(w, r, &values) {
		return
	}
	id, err := s.facade.CreateRecord(r.Context(), chi.URLParam(r, "table"), values)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"id": mv.Native(id)})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	table, id := chi.URLParam(r, "table"), chi.URLParam(r, "id")
	rec, found, err := s.facade.FindByID(r.Context(), table, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !found {
		notFound(w, r, fmt.Sprintf("record %s in %s", id, table))
		return
	}
	respondJSON(w, http.StatusOK, rec.Native())
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	table, id := chi.URLParam(r, "table"), chi.URLParam(r, "id")
	var values map[string]any
	if !decodeBody(w, r, &values) {
		return
	}
	ok, err := s.facade.UpdateRecord(r.Context(), table, id, values)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !ok {
		notFound(w, r, fmt.Sprintf("record %s in %s", id, table))
		return
	}
	rec, _, err := s.facade.FindByID(r.Context(), table, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rec.Native())
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	table, id := chi.URLParam(r, "table"), chi.URLParam(r, "id")
	ok, err := s.facade.DeleteRecord(r.Context(), table, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !ok {
		notFound(w, r, fmt.Sprintf("record %s in %s", id, table))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.facade.Count(r.Context(), chi.URLParam(r, "table"), criteria(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (s *Server) handleDictionary(w http.ResponseWriter, r *http.Request) {
	entries, err := s.facade.Dictionary(r.Context(), chi.URLParam(r, "table"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleDefineField(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	var e dict.Entry
	if !decodeBody(w, r, &e) {
		return
	}
	e.Name = dict.FieldName(chi.URLParam(r, "field"))
	if err := s.facade.DefineField(r.Context(), table, e); err != nil {
		respondError(w, r, err)
		return
	}
	stored, _, err := s.facade.Field(r.Context(), table, e.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stored)
}

func (s *Server) handleDeleteField(w http.ResponseWriter, r *http.Request) {
	table, field := chi.URLParam(r, "table"), dict.FieldName(chi.URLParam(r, "field"))
	ok, err := s.facade.DeleteField(r.Context(), table, field)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !ok {
		notFound(w, r, fmt.Sprintf("field %s in %s", field, table))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// criteria turns query parameters other than where into column equality.
func criteria(r *http.Request) map[string]any {
	query := r.URL.Query()
	if len(query) == 0 {
		return nil
	}
	out := make(map[string]any, len(query))
	for k, v := range query {
		if k == whereParam || len(v) == 0 {
			continue
		}
		out[k] = v[0]
	}
	return out
}

// decodeBody reads a JSON body into v, answering 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		msg := "invalid JSON body"
		if !strings.Contains(err.Error(), "EOF") {
			msg += ": " + err.Error()
		}
		writeError(w, r, http.StatusBadRequest, CodeBadRequest, msg)
		return false
	}
	return true
}
