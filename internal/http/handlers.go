package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
	"spendlog/internal/records"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"timestamp": nowMillis(),
	})
}

// handleRates proxies the upstream exchange rate service. It always
// answers 200 with the bare code to multiplier mapping: upstream failures
// fall back to a fixed table inside the rates client.
func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	base := r.URL.Query().Get("base")
	writeJSON(w, http.StatusOK, s.rates.Rates(r.Context(), base))
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listRecords(w, r)
	case http.MethodPost:
		s.createRecord(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/expenses/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || idStr == "" {
		writeNotFound(w)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getRecord(w, r, id)
	case http.MethodPut:
		s.updateRecord(w, r, id)
	case http.MethodDelete:
		s.deleteRecord(w, r, id)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

// listRecords answers with the filtered page of records. The total count
// travels in the X-Total-Count header; when counting fails the header is
// omitted and the page is served anyway.
func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := core.NewFilter(q.Get("start"), q.Get("end"), q.Get("category"), q.Get("type"))
	page := core.NewPage(q.Get("page"), q.Get("pageSize"), s.pageSizeDefault, s.pageSizeMax)

	items, err := s.store.List(r.Context(), filter, page)
	if err != nil {
		slog.ErrorContext(r.Context(), "List records failed", applog.FieldError, err)
		writeStorageError(w)
		return
	}
	if items == nil {
		items = []core.Record{}
	}

	if total, err := s.store.Count(r.Context(), filter); err != nil {
		slog.WarnContext(r.Context(), "Count records failed, omitting total header", applog.FieldError, err)
	} else {
		w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	}

	writeJSON(w, http.StatusOK, items)
}

func (s *Server) createRecord(w http.ResponseWriter, r *http.Request) {
	var raw core.RawDraft
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		// An undecodable body validates as an empty payload.
		raw = core.RawDraft{}
	}

	draft, codes := core.Validate(raw)
	if len(codes) > 0 {
		writeValidationErrors(w, codes)
		return
	}

	rec, err := s.store.Create(r.Context(), draft)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create record failed", applog.FieldError, err, applog.FieldAmount, draft.Amount, applog.FieldDate, draft.Date)
		writeStorageError(w)
		return
	}

	slog.InfoContext(r.Context(), "Record created", applog.FieldRecordID, rec.ID, applog.FieldRecordType, rec.Type, applog.FieldAmount, rec.Amount)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request, id int64) {
	rec, err := s.store.Get(r.Context(), id)
	if errors.Is(err, records.ErrNotFound) {
		writeNotFound(w)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Get record failed", applog.FieldError, err, applog.FieldRecordID, id)
		writeStorageError(w)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) updateRecord(w http.ResponseWriter, r *http.Request, id int64) {
	var raw core.RawDraft
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		raw = core.RawDraft{}
	}

	draft, codes := core.Validate(raw)
	if len(codes) > 0 {
		writeValidationErrors(w, codes)
		return
	}

	rec, err := s.store.Update(r.Context(), id, draft)
	if errors.Is(err, records.ErrNotFound) {
		writeNotFound(w)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Update record failed", applog.FieldError, err, applog.FieldRecordID, id)
		writeStorageError(w)
		return
	}

	slog.InfoContext(r.Context(), "Record updated", applog.FieldRecordID, rec.ID)
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request, id int64) {
	err := s.store.Delete(r.Context(), id)
	if errors.Is(err, records.ErrNotFound) {
		writeNotFound(w)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Delete record failed", applog.FieldError, err, applog.FieldRecordID, id)
		writeStorageError(w)
		return
	}

	slog.InfoContext(r.Context(), "Record deleted", applog.FieldRecordID, id)
	w.WriteHeader(http.StatusNoContent)
}
