package indexsummary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visa-locker/internal/common/errors"
	"visa-locker/internal/common/logger"
	"visa-locker/internal/models"
	"visa-locker/internal/repository"
)

type indexedRequest struct {
	Method string
	Path   string
	Query  string
	Doc    SummaryDocument
}

type fakeSearch struct {
	mu       sync.Mutex
	requests []indexedRequest
	status   int
	body     string
}

func (f *fakeSearch) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var doc SummaryDocument
	_ = json.Unmarshal(raw, &doc)

	f.mu.Lock()
	f.requests = append(f.requests, indexedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Doc: doc})
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	_, _ = w.Write([]byte(f.body))
}

type fakeRecords struct {
	record  *repository.StoredRecord
	loadErr error
	audits  []string
}

func (f *fakeRecords) Load(context.Context, string) (*repository.StoredRecord, error) {
	return f.record, f.loadErr
}

func (f *fakeRecords) Audit(_ context.Context, event, _ string, _ map[string]interface{}) error {
	f.audits = append(f.audits, event)
	return nil
}

func lockedRecord() *repository.StoredRecord {
	submitted := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &repository.StoredRecord{
		Token: "tok",
		Record: models.ApplicantRecord{
			Personal: map[string]interface{}{
				"first_name":     "Ada",
				"last_name":      "Lovelace",
				"email":          "ada@example.com",
				"travel_country": "Italy",
				"visa_type":      "Tourist",
				"visa_center":    "London",
			},
			Questions: map[string]interface{}{
				"form_complete":    "1",
				"travel_date_from": "2026-04-01",
				"travel_date_to":   "2026-04-10",
			},
		},
		Percentage:  100,
		Locked:      true,
		SubmittedAt: &submitted,
	}
}

func setup(t *testing.T, search *fakeSearch, records *fakeRecords) *Handler {
	t.Helper()
	srv := httptest.NewServer(search)
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	h, err := NewHandler(DefaultConfig(), ServiceDependencies{Records: records, Search: es}, logger.NewTestLogger(t))
	require.NoError(t, err)
	return h
}

func TestExecuteIndexesSummary(t *testing.T) {
	search := &fakeSearch{status: http.StatusCreated, body: `{"_index":"applicant-summaries","_id":"tok","_version":1,"result":"created"}`}
	records := &fakeRecords{record: lockedRecord()}
	h := setup(t, search, records)

	out, err := h.Execute(context.Background(), &Input{Token: "tok"})
	require.NoError(t, err)
	assert.True(t, out.Indexed)
	assert.Equal(t, "created", out.Result)
	assert.Equal(t, int64(1), out.Version)
	assert.Equal(t, "tok", out.DocumentID)
	assert.Greater(t, out.FieldCount, 0)
	assert.Equal(t, []string{repository.EventSummaryIndexed}, records.audits)

	require.Len(t, search.requests, 1)
	req := search.requests[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/applicant-summaries/_doc/tok", req.Path)
	assert.Contains(t, req.Query, "refresh=false")

	doc := req.Doc
	assert.Equal(t, "Ada Lovelace", doc.FullName)
	assert.Equal(t, "Ada Lovelace – Applied for an Italy tourist. Appointment scheduled in London.", doc.Header)
	assert.True(t, doc.Locked)
	assert.Equal(t, 100, doc.Percentage)
	require.NotNil(t, doc.SubmittedAt)
	assert.NotEmpty(t, doc.Personal)
}

func TestExecuteIndexErrors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantRetryable bool
	}{
		{name: "mapping conflict", status: http.StatusBadRequest, wantRetryable: false},
		{name: "throttled", status: http.StatusTooManyRequests, wantRetryable: true},
		{name: "cluster down", status: http.StatusServiceUnavailable, wantRetryable: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			search := &fakeSearch{status: tt.status, body: `{"error":{"type":"x"}}`}
			records := &fakeRecords{record: lockedRecord()}
			h := setup(t, search, records)

			_, err := h.Execute(context.Background(), &Input{Token: "tok"})
			stdErr, ok := errors.AsStandard(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, errors.ErrCodeIndexingFailed, stdErr.Code)
			assert.Equal(t, tt.wantRetryable, stdErr.Retryable)
			assert.Empty(t, records.audits)
		})
	}
}

func TestExecuteRecordMissing(t *testing.T) {
	search := &fakeSearch{status: http.StatusCreated, body: `{}`}
	records := &fakeRecords{loadErr: errors.NewRecordNotFoundError("tok")}
	h := setup(t, search, records)

	_, err := h.Execute(context.Background(), &Input{Token: "tok"})
	require.Error(t, err)
	assert.Empty(t, search.requests)
}

func TestBuildSkipsHiddenEntries(t *testing.T) {
	svc := NewService(DefaultConfig(), ServiceDependencies{})
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }

	doc := svc.Build(lockedRecord())
	for _, sec := range doc.Sections {
		assert.NotEmpty(t, sec.Fields, fmt.Sprintf("section %s", sec.Category))
	}
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), doc.IndexedAt)
	assert.Equal(t, "Italy", doc.Country)
}
