package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/rates"
	"spendlog/internal/records"
	"spendlog/internal/records/memory"
)

func newTestServer(t *testing.T, store records.Store) *httptest.Server {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"rates": map[string]float64{"USD": 0.14, "EUR": 0.13},
		})
	}))
	t.Cleanup(upstream.Close)

	if store == nil {
		store = memory.New()
	}
	s := NewServer(":0", store, rates.New(upstream.URL, time.Second, time.Minute), Options{})
	ts := httptest.NewServer(s.Server.Handler)
	t.Cleanup(ts.Close)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return ts
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := doJSON(t, http.MethodGet, ts.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody[map[string]any](t, resp)
	if body["ok"] != true {
		t.Errorf("ok = %v, want true", body["ok"])
	}
	if _, found := body["timestamp"]; !found {
		t.Error("timestamp missing from health response")
	}
}

func TestCreateRecord(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := doJSON(t, http.MethodPost, ts.URL+"/expenses", map[string]any{
		"amount": "12.50",
		"date":   "2024-05-01",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	rec := decodeBody[core.Record](t, resp)
	if rec.ID == 0 {
		t.Error("record id not assigned")
	}
	if rec.Amount != 12.5 {
		t.Errorf("amount = %v, want 12.5", rec.Amount)
	}
	if rec.Type != core.TypeExpense {
		t.Errorf("type = %q, want expense", rec.Type)
	}
	if rec.Currency != nil {
		t.Errorf("currency = %v, want null", *rec.Currency)
	}
	if rec.CreatedAt == 0 {
		t.Error("created_at not assigned")
	}
}

func TestCreateRecordValidation(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name      string
		body      map[string]any
		wantCodes []string
	}{
		{
			name:      "negative amount",
			body:      map[string]any{"amount": -5, "date": "2024-05-01"},
			wantCodes: []string{"InvalidAmount"},
		},
		{
			name:      "bad date",
			body:      map[string]any{"amount": 5, "date": "2024-02-30"},
			wantCodes: []string{"InvalidDate"},
		},
		{
			name:      "everything wrong",
			body:      map[string]any{"amount": "abc", "date": "yesterday", "type": "loan"},
			wantCodes: []string{"InvalidAmount", "InvalidDate", "InvalidType"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, ts.URL+"/expenses", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			body := decodeBody[struct {
				Errors []string `json:"errors"`
			}](t, resp)
			if len(body.Errors) != len(tt.wantCodes) {
				t.Fatalf("errors = %v, want %v", body.Errors, tt.wantCodes)
			}
			got := make(map[string]bool, len(body.Errors))
			for _, c := range body.Errors {
				got[c] = true
			}
			for _, c := range tt.wantCodes {
				if !got[c] {
					t.Errorf("missing code %q in %v", c, body.Errors)
				}
			}
		})
	}
}

func TestCreateRecordMalformedBody(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Post(ts.URL+"/expenses", "application/json", strings.NewReader("{nope"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestListRecords(t *testing.T) {
	ts := newTestServer(t, nil)

	seed := []map[string]any{
		{"amount": 10, "date": "2024-05-01", "category": "food"},
		{"amount": 20, "date": "2024-05-03", "category": "rent"},
		{"amount": 30, "date": "2024-05-02", "type": "income"},
	}
	for _, body := range seed {
		if resp := doJSON(t, http.MethodPost, ts.URL+"/expenses", body); resp.StatusCode != http.StatusCreated {
			t.Fatalf("seed status = %d", resp.StatusCode)
		}
	}

	resp := doJSON(t, http.MethodGet, ts.URL+"/expenses", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Total-Count"); got != "3" {
		t.Errorf("X-Total-Count = %q, want 3", got)
	}
	items := decodeBody[[]core.Record](t, resp)
	if len(items) != 3 {
		t.Fatalf("len = %d, want 3", len(items))
	}
	// Newest date first.
	if items[0].Date != "2024-05-03" || items[2].Date != "2024-05-01" {
		t.Errorf("order = [%s %s %s]", items[0].Date, items[1].Date, items[2].Date)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/expenses?type=income", nil)
	items = decodeBody[[]core.Record](t, resp)
	if len(items) != 1 || items[0].Type != core.TypeIncome {
		t.Errorf("income filter returned %d items", len(items))
	}
	if got := resp.Header.Get("X-Total-Count"); got != "1" {
		t.Errorf("filtered X-Total-Count = %q, want 1", got)
	}

	// Malformed filter params are dropped, not errors.
	resp = doJSON(t, http.MethodGet, ts.URL+"/expenses?start=soon&type=loan&page=x", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("malformed filter status = %d, want 200", resp.StatusCode)
	}
	items = decodeBody[[]core.Record](t, resp)
	if len(items) != 3 {
		t.Errorf("malformed filter len = %d, want 3", len(items))
	}
}

func TestListEmptyIsArray(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := doJSON(t, http.MethodGet, ts.URL+"/expenses", nil)
	raw := decodeBody[json.RawMessage](t, resp)
	if string(bytes.TrimSpace(raw)) != "[]" {
		t.Errorf("empty list body = %s, want []", raw)
	}
}

func TestUpdateRecord(t *testing.T) {
	ts := newTestServer(t, nil)

	created := decodeBody[core.Record](t, doJSON(t, http.MethodPost, ts.URL+"/expenses", map[string]any{
		"amount": 10, "date": "2024-05-01", "notes": "keep",
	}))

	url := fmt.Sprintf("%s/expenses/%d", ts.URL, created.ID)
	resp := doJSON(t, http.MethodPut, url, map[string]any{
		"amount": 42, "date": "2024-06-01",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	updated := decodeBody[core.Record](t, resp)
	if updated.ID != created.ID {
		t.Errorf("id changed: %d -> %d", created.ID, updated.ID)
	}
	if updated.CreatedAt != created.CreatedAt {
		t.Errorf("created_at changed: %d -> %d", created.CreatedAt, updated.CreatedAt)
	}
	if updated.Amount != 42 {
		t.Errorf("amount = %v, want 42", updated.Amount)
	}
	if updated.Notes != nil {
		t.Errorf("notes = %v, want cleared", *updated.Notes)
	}

	resp = doJSON(t, http.MethodPut, ts.URL+"/expenses/9999", map[string]any{
		"amount": 1, "date": "2024-06-01",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing id status = %d, want 404", resp.StatusCode)
	}
}

func TestDeleteRecord(t *testing.T) {
	ts := newTestServer(t, nil)

	created := decodeBody[core.Record](t, doJSON(t, http.MethodPost, ts.URL+"/expenses", map[string]any{
		"amount": 10, "date": "2024-05-01",
	}))

	url := fmt.Sprintf("%s/expenses/%d", ts.URL, created.ID)
	if resp := doJSON(t, http.MethodDelete, url, nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("first delete status = %d, want 204", resp.StatusCode)
	}
	if resp := doJSON(t, http.MethodDelete, url, nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}
	if resp := doJSON(t, http.MethodGet, url, nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", resp.StatusCode)
	}
}

func TestRates(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := doJSON(t, http.MethodGet, ts.URL+"/rates?base=usd", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	// The body is the bare code to multiplier mapping, no envelope.
	rates := decodeBody[map[string]float64](t, resp)
	if len(rates) == 0 {
		t.Error("rates mapping empty")
	}
	if _, found := rates["USD"]; !found {
		t.Errorf("USD missing from mapping %v", rates)
	}
}

// countFailStore serves lists but cannot count, exercising the degraded
// response path.
type countFailStore struct {
	records.Store
}

func (s countFailStore) Count(ctx context.Context, f core.ListFilter) (int64, error) {
	return 0, errors.New("count unavailable")
}

func TestListCountFailureOmitsHeader(t *testing.T) {
	mem := memory.New()
	ts := newTestServer(t, countFailStore{Store: mem})

	resp := doJSON(t, http.MethodPost, ts.URL+"/expenses", map[string]any{
		"amount": 10, "date": "2024-05-01",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("seed status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/expenses", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if _, found := resp.Header["X-Total-Count"]; found {
		t.Error("X-Total-Count present despite count failure")
	}
	items := decodeBody[[]core.Record](t, resp)
	if len(items) != 1 {
		t.Errorf("len = %d, want 1", len(items))
	}
}

// failStore fails every operation.
type failStore struct{}

func (failStore) Create(ctx context.Context, d core.Draft) (core.Record, error) {
	return core.Record{}, errors.New("disk full")
}
func (failStore) Get(ctx context.Context, id int64) (core.Record, error) {
	return core.Record{}, errors.New("disk full")
}
func (failStore) Update(ctx context.Context, id int64, d core.Draft) (core.Record, error) {
	return core.Record{}, errors.New("disk full")
}
func (failStore) Delete(ctx context.Context, id int64) error { return errors.New("disk full") }
func (failStore) List(ctx context.Context, f core.ListFilter, p core.Page) ([]core.Record, error) {
	return nil, errors.New("disk full")
}
func (failStore) Count(ctx context.Context, f core.ListFilter) (int64, error) {
	return 0, errors.New("disk full")
}

func TestStorageFailureIsServerError(t *testing.T) {
	ts := newTestServer(t, failStore{})

	tests := []struct {
		method string
		path   string
		body   map[string]any
	}{
		{http.MethodGet, "/expenses", nil},
		{http.MethodPost, "/expenses", map[string]any{"amount": 1, "date": "2024-05-01"}},
		{http.MethodPut, "/expenses/1", map[string]any{"amount": 1, "date": "2024-05-01"}},
		{http.MethodDelete, "/expenses/1", nil},
	}
	for _, tt := range tests {
		resp := doJSON(t, tt.method, ts.URL+tt.path, tt.body)
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("%s %s status = %d, want 500", tt.method, tt.path, resp.StatusCode)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := doJSON(t, http.MethodDelete, ts.URL+"/health", nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestNonNumericIDIsNotFound(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := doJSON(t, http.MethodGet, ts.URL+"/expenses/abc", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
