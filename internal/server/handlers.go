package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/relaydesk-hq/airtable-delete-relay/internal/domain"
	"github.com/relaydesk-hq/airtable-delete-relay/pkg/airtable"
	"github.com/relaydesk-hq/airtable-delete-relay/pkg/sinks"
)

// writeJSON writes a JSON response with the given status and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the uniform {error: "..."} failure body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": s.cfg.AppName,
		"version": Version,
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": s.cfg.AppName,
		"endpoints": map[string]string{
			"health":      "GET /healthz",
			"version":     "GET /version",
			"delete":      "DELETE /api/records/{id}",
			"batchDelete": "POST /api/records/batch-delete",
		},
	})
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		writeError(w, http.StatusBadRequest, "record id is required")
		return
	}

	rec, err := s.client.DeleteRecord(r.Context(), s.cfg.AirtableBaseID, s.cfg.AirtableTableName, id)
	if err != nil {
		switch airtable.KindOf(err) {
		case airtable.KindNotFound:
			writeError(w, http.StatusNotFound, err.Error())
		case airtable.KindAPI, airtable.KindTransport:
			writeError(w, http.StatusInternalServerError, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to delete record: %v", err))
		}
		return
	}

	s.emitAudit(r, []string{id})

	writeJSON(w, http.StatusOK, map[string]any{
		"message":       fmt.Sprintf("Record %s deleted successfully", id),
		"deletedRecord": rec,
	})
}

// batchDeleteRequest keeps recordIds raw so shape violations can be reported
// as 400 instead of a generic decode failure.
type batchDeleteRequest struct {
	RecordIDs json.RawMessage `json:"recordIds"`
}

func (s *Server) handleBatchDelete(w http.ResponseWriter, r *http.Request) {
	var req batchDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}

	ids, ok := decodeStringArray(req.RecordIDs)
	if !ok {
		writeError(w, http.StatusBadRequest, "recordIds must be an array of strings")
		return
	}

	if len(ids) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"message":        "No record IDs provided",
			"deletedRecords": []domain.Record{},
		})
		return
	}

	recs, err := s.client.DeleteRecords(r.Context(), s.cfg.AirtableBaseID, s.cfg.AirtableTableName, ids)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to delete records: %v", err))
		return
	}
	if recs == nil {
		recs = []domain.Record{}
	}

	deleted := make([]string, 0, len(recs))
	for _, rec := range recs {
		deleted = append(deleted, rec.ID)
	}
	s.emitAudit(r, deleted)

	writeJSON(w, http.StatusOK, map[string]any{
		"message":        fmt.Sprintf("Deleted %d records", len(recs)),
		"deletedRecords": recs,
	})
}

// decodeStringArray reports whether raw is a JSON array whose elements are all
// strings. A missing field or any other shape fails. Elements are checked one
// by one because unmarshalling straight into []string maps a null element to ""
// instead of failing.
func decodeStringArray(raw json.RawMessage) ([]string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, false
	}
	ids := make([]string, 0, len(elems))
	for _, e := range elems {
		if len(e) == 0 || e[0] != '"' {
			return nil, false
		}
		var id string
		if err := json.Unmarshal(e, &id); err != nil {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

// emitAudit fans out a deletion event to configured sinks. Delivery is
// best-effort: failures are logged and never change the HTTP response.
func (s *Server) emitAudit(r *http.Request, recordIDs []string) {
	if s.fanout == nil || s.fanout.Size() == 0 || len(recordIDs) == 0 {
		return
	}

	evt := sinks.NewDeletionEvent(s.cfg.AirtableBaseID, s.cfg.AirtableTableName, recordIDs)
	delivered, err := s.fanout.Send(r.Context(), evt)
	if err != nil {
		s.log.WarnObj("audit event delivery incomplete", "sink_errors", map[string]any{
			"delivered": delivered,
			"total":     s.fanout.Size(),
			"error":     err.Error(),
		})
	}
}
