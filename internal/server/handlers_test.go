package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/relaydesk-hq/airtable-delete-relay/internal/config"
	"github.com/relaydesk-hq/airtable-delete-relay/internal/domain"
	"github.com/relaydesk-hq/airtable-delete-relay/pkg/airtable"
)

// fakeDeleter records calls and returns preset outcomes.
type fakeDeleter struct {
	singleCalls int
	batchCalls  int
	lastID      string
	lastIDs     []string
	record      domain.Record
	records     []domain.Record
	err         error
}

func (f *fakeDeleter) DeleteRecord(_ context.Context, _, _, recordID string) (domain.Record, error) {
	f.singleCalls++
	f.lastID = recordID
	if f.err != nil {
		return domain.Record{}, f.err
	}
	return f.record, nil
}

func (f *fakeDeleter) DeleteRecords(_ context.Context, _, _ string, recordIDs []string) ([]domain.Record, error) {
	f.batchCalls++
	f.lastIDs = recordIDs
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func testConfig() *config.Config {
	return &config.Config{
		AppName:           "airtable-delete-relay",
		Port:              3000,
		AirtableBaseID:    "appBase",
		AirtableTableName: "Orders",
		AirtablePAT:       "pat-secret",
	}
}

func newTestServer(t *testing.T, client RecordDeleter) *Server {
	t.Helper()
	s, err := New(testConfig(), client, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func doRequest(s *Server, method, target string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response body: %v (%s)", err, rec.Body.String())
	}
	return out
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, &fakeDeleter{})
	rec := doRequest(s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "OK" {
		t.Fatalf("status field = %v", body["status"])
	}
	if body["timestamp"] == "" {
		t.Fatalf("timestamp missing")
	}
}

func TestVersionEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeDeleter{})
	rec := doRequest(s, http.MethodGet, "/version", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["service"] != "airtable-delete-relay" || body["version"] != Version {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestRootListsEndpoints(t *testing.T) {
	s := newTestServer(t, &fakeDeleter{})
	rec := doRequest(s, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if _, ok := body["endpoints"]; !ok {
		t.Fatalf("endpoints listing missing: %v", body)
	}
}

func TestDeleteRecordSuccess(t *testing.T) {
	client := &fakeDeleter{record: domain.Record{ID: "rec123", Deleted: true}}
	s := newTestServer(t, client)

	rec := doRequest(s, http.MethodDelete, "/api/records/rec123", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	deleted, ok := body["deletedRecord"].(map[string]any)
	if !ok {
		t.Fatalf("deletedRecord missing: %v", body)
	}
	if deleted["id"] != "rec123" || deleted["deleted"] != true {
		t.Fatalf("deletedRecord = %v", deleted)
	}
	if client.lastID != "rec123" {
		t.Fatalf("client received id %q", client.lastID)
	}
}

func TestDeleteRecordWhitespaceIDRejectedBeforeClientCall(t *testing.T) {
	client := &fakeDeleter{}
	s := newTestServer(t, client)

	rec := doRequest(s, http.MethodDelete, "/api/records/%20%20", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if client.singleCalls != 0 {
		t.Fatalf("client should not be called, got %d calls", client.singleCalls)
	}
	body := decodeBody(t, rec)
	if body["error"] == "" {
		t.Fatalf("error field missing")
	}
}

func TestDeleteRecordNotFoundMapsTo404(t *testing.T) {
	client := &fakeDeleter{err: &airtable.Error{
		Kind:     airtable.KindNotFound,
		Status:   http.StatusNotFound,
		RecordID: "recGone",
		Message:  "Record not found",
	}}
	s := newTestServer(t, client)

	rec := doRequest(s, http.MethodDelete, "/api/records/recGone", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	msg, _ := body["error"].(string)
	if !strings.Contains(msg, "recGone") {
		t.Fatalf("error should contain the record id: %q", msg)
	}
}

func TestDeleteRecordAPIErrorMapsTo500(t *testing.T) {
	client := &fakeDeleter{err: &airtable.Error{
		Kind:    airtable.KindAPI,
		Status:  http.StatusTooManyRequests,
		Message: "rate limit exceeded",
	}}
	s := newTestServer(t, client)

	rec := doRequest(s, http.MethodDelete, "/api/records/rec1", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	msg, _ := body["error"].(string)
	if !strings.Contains(msg, "rate limit exceeded") {
		t.Fatalf("error should carry the remote message: %q", msg)
	}
}

func TestDeleteRecordUnknownErrorMapsTo500(t *testing.T) {
	client := &fakeDeleter{err: context.DeadlineExceeded}
	s := newTestServer(t, client)

	rec := doRequest(s, http.MethodDelete, "/api/records/rec1", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestBatchDeleteSuccess(t *testing.T) {
	client := &fakeDeleter{records: []domain.Record{
		{ID: "rec1", Deleted: true},
		{ID: "rec2", Deleted: true},
	}}
	s := newTestServer(t, client)

	rec := doRequest(s, http.MethodPost, "/api/records/batch-delete", `{"recordIds":["rec1","rec2"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	deleted, ok := body["deletedRecords"].([]any)
	if !ok || len(deleted) != 2 {
		t.Fatalf("deletedRecords = %v", body["deletedRecords"])
	}
	if len(client.lastIDs) != 2 || client.lastIDs[0] != "rec1" {
		t.Fatalf("client received ids %v", client.lastIDs)
	}
}

func TestBatchDeleteEmptyArrayNoClientCall(t *testing.T) {
	client := &fakeDeleter{}
	s := newTestServer(t, client)

	rec := doRequest(s, http.MethodPost, "/api/records/batch-delete", `{"recordIds":[]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if client.batchCalls != 0 {
		t.Fatalf("client should not be called, got %d calls", client.batchCalls)
	}
	body := decodeBody(t, rec)
	if body["message"] != "No record IDs provided" {
		t.Fatalf("message = %v", body["message"])
	}
	if deleted, ok := body["deletedRecords"].([]any); !ok || len(deleted) != 0 {
		t.Fatalf("deletedRecords should be an empty array: %v", body["deletedRecords"])
	}
}

func TestBatchDeleteRejectsBadShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "not an array", body: `{"recordIds":"rec1"}`},
		{name: "mixed types", body: `{"recordIds":["rec1",2]}`},
		{name: "null element", body: `{"recordIds":["rec1",null]}`},
		{name: "object element", body: `{"recordIds":[{"id":"rec1"}]}`},
		{name: "null", body: `{"recordIds":null}`},
		{name: "missing field", body: `{}`},
		{name: "not an object", body: `[1,2,3]`},
		{name: "invalid json", body: `{`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeDeleter{}
			s := newTestServer(t, client)

			rec := doRequest(s, http.MethodPost, "/api/records/batch-delete", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			if client.batchCalls != 0 {
				t.Fatalf("client should not be called, got %d calls", client.batchCalls)
			}
		})
	}
}

func TestBatchDeleteClientErrorMapsTo500(t *testing.T) {
	client := &fakeDeleter{err: &airtable.Error{
		Kind:    airtable.KindAPI,
		Status:  http.StatusTooManyRequests,
		Message: "rate limit exceeded",
	}}
	s := newTestServer(t, client)

	rec := doRequest(s, http.MethodPost, "/api/records/batch-delete", `{"recordIds":["rec1"]}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	msg, _ := body["error"].(string)
	if !strings.Contains(msg, "429") || !strings.Contains(msg, "rate limit exceeded") {
		t.Fatalf("error should carry status and remote message: %q", msg)
	}
}

func TestBatchDeleteNotFoundStillMapsTo500(t *testing.T) {
	// The batch route maps every client failure uniformly, unlike the single route.
	client := &fakeDeleter{err: &airtable.Error{
		Kind:    airtable.KindAPI,
		Status:  http.StatusNotFound,
		Message: "missing",
	}}
	s := newTestServer(t, client)

	rec := doRequest(s, http.MethodPost, "/api/records/batch-delete", `{"recordIds":["recGone"]}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}
