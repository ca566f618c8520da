package evaluations_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/scopecheck/internal/checklist"
	"github.com/JaimeStill/scopecheck/internal/evaluations"
	"github.com/JaimeStill/scopecheck/pkg/pagination"
	"github.com/JaimeStill/scopecheck/pkg/routes"
)

type mockSystem struct {
	submitFn           func(ctx context.Context, s *checklist.Session) (*checklist.Receipt, error)
	listFn             func(ctx context.Context, page pagination.PageRequest, filters evaluations.Filters) (*pagination.PageResult[evaluations.Evaluation], error)
	listByExperimentFn func(ctx context.Context, experimentID int, page pagination.PageRequest) (*pagination.PageResult[evaluations.Evaluation], error)
	findFn             func(ctx context.Context, id uuid.UUID) (*evaluations.Evaluation, error)
}

func (m *mockSystem) Handler(maxBodySize int64) *evaluations.Handler {
	return evaluations.NewHandler(m, checklist.DefaultCatalog(), discardLogger(), testPagination(), maxBodySize)
}

func (m *mockSystem) Submit(ctx context.Context, s *checklist.Session) (*checklist.Receipt, error) {
	return m.submitFn(ctx, s)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters evaluations.Filters) (*pagination.PageResult[evaluations.Evaluation], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) ListByExperiment(ctx context.Context, experimentID int, page pagination.PageRequest) (*pagination.PageResult[evaluations.Evaluation], error) {
	return m.listByExperimentFn(ctx, experimentID, page)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*evaluations.Evaluation, error) {
	return m.findFn(ctx, id)
}

func testPagination() pagination.Config {
	return pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
}

func serve(t *testing.T, sys *mockSystem, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler(4096).Routes())

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

const validForm = `{
	"decoder": "jane doe",
	"microscope": "D07",
	"experiment_ids": "3001234, 3001234, 30012",
	"reviewer": "sam",
	"date": "2024-06-01",
	"stalls": {"num_stalls": 0},
	"answers": {"objective_in_immersion": "yes", "caps_closed": "no"}
}`

func TestHandlerSubmit(t *testing.T) {
	recordID := uuid.New()
	var got *checklist.Session

	sys := &mockSystem{submitFn: func(_ context.Context, s *checklist.Session) (*checklist.Receipt, error) {
		got = s
		return &checklist.Receipt{RecordID: recordID, LinkIDs: []uuid.UUID{uuid.New()}, ExperimentIDs: s.ExperimentIDs()}, nil
	}}

	rec := serve(t, sys, "POST", "/evaluations", validForm)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var receipt checklist.Receipt
	if err := json.NewDecoder(rec.Body).Decode(&receipt); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if receipt.RecordID != recordID || len(receipt.ExperimentIDs) != 1 || receipt.ExperimentIDs[0] != 3001234 {
		t.Errorf("receipt = %+v", receipt)
	}
	if got.Microscope() != "D07" {
		t.Errorf("session microscope = %q", got.Microscope())
	}
}

func TestHandlerSubmitRejection(t *testing.T) {
	sys := &mockSystem{submitFn: func(_ context.Context, s *checklist.Session) (*checklist.Receipt, error) {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		t.Fatal("store reached with an invalid form")
		return nil, nil
	}}

	rec := serve(t, sys, "POST", "/evaluations", `{"decoder":"jane","experiment_ids":"abc"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var rej evaluations.Rejection
	if err := json.NewDecoder(rec.Body).Decode(&rej); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rej.Report.Ready || len(rej.Report.Blocking) == 0 {
		t.Errorf("report = %+v, want blocking issues", rej.Report)
	}
	if len(rej.Report.Issues) != 1 || rej.Report.Issues[0].Kind != "format" {
		t.Errorf("issues = %+v", rej.Report.Issues)
	}
}

func TestHandlerSubmitErrors(t *testing.T) {
	sys := &mockSystem{submitFn: func(context.Context, *checklist.Session) (*checklist.Receipt, error) {
		return nil, fmt.Errorf("%w: connection reset", checklist.ErrPersistence)
	}}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"decoder":`, http.StatusBadRequest},
		{"unknown question", `{"answers":{"not_a_question":"yes"}}`, http.StatusBadRequest},
		{"bad answer", `{"answers":{"caps_closed":"maybe"}}`, http.StatusBadRequest},
		{"body too large", `{"notes":"` + strings.Repeat("x", 5000) + `"}`, http.StatusRequestEntityTooLarge},
		{"persistence failure", validForm, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := serve(t, sys, "POST", "/evaluations", tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestHandlerValidate(t *testing.T) {
	rec := serve(t, &mockSystem{}, "POST", "/evaluations/validate", validForm)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var report checklist.Report
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !report.Ready {
		t.Errorf("report not ready: %+v", report)
	}

	kinds := map[string]int{}
	for _, issue := range report.Issues {
		kinds[issue.Kind]++
	}
	if kinds["duplicate"] != 1 || kinds["format"] != 1 {
		t.Errorf("issue kinds = %v, want one duplicate and one format", kinds)
	}
}

func TestHandlerExport(t *testing.T) {
	rec := serve(t, &mockSystem{}, "POST", "/evaluations/export", validForm)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q", ct)
	}

	rows, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}

	values := map[string]string{}
	for _, row := range rows {
		values[row[0]] = row[1]
	}
	if values["decoder"] != "Jane Doe" || values["microscope"] != "D07" || values["experiment_id"] != "[3001234]" {
		t.Errorf("export = %v", values)
	}
}

func TestHandlerFind(t *testing.T) {
	id := uuid.New()
	sys := &mockSystem{findFn: func(_ context.Context, got uuid.UUID) (*evaluations.Evaluation, error) {
		if got != id {
			return nil, evaluations.ErrNotFound
		}
		return &evaluations.Evaluation{ID: id, Microscope: "D01", ExperimentIDs: []int{3001234}}, nil
	}}

	rec := serve(t, sys, "GET", "/evaluations/"+id.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	if rec := serve(t, sys, "GET", "/evaluations/"+uuid.NewString(), ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing status = %d, want 404", rec.Code)
	}
	if rec := serve(t, sys, "GET", "/evaluations/not-a-uuid", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}
}

func TestHandlerListAndSearch(t *testing.T) {
	var gotPage pagination.PageRequest
	var gotFilters evaluations.Filters

	sys := &mockSystem{
		listFn: func(_ context.Context, page pagination.PageRequest, filters evaluations.Filters) (*pagination.PageResult[evaluations.Evaluation], error) {
			gotPage, gotFilters = page, filters
			result := pagination.NewPageResult([]evaluations.Evaluation{{Microscope: "D03"}}, 1, page.Page, page.PageSize)
			return &result, nil
		},
		listByExperimentFn: func(_ context.Context, experimentID int, page pagination.PageRequest) (*pagination.PageResult[evaluations.Evaluation], error) {
			result := pagination.NewPageResult([]evaluations.Evaluation{{ExperimentIDs: []int{experimentID}}}, 1, page.Page, page.PageSize)
			return &result, nil
		},
	}

	rec := serve(t, sys, "GET", "/evaluations?microscope=D03&page=2&page_size=500", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if gotPage.Page != 2 || gotPage.PageSize != 100 || gotFilters.Microscope == nil {
		t.Errorf("page = %+v filters = %+v", gotPage, gotFilters)
	}

	rec = serve(t, sys, "POST", "/evaluations/search", `{"page_size":5,"experiment_id":3001234}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d", rec.Code)
	}
	if gotPage.Page != 1 || gotPage.PageSize != 5 || gotFilters.ExperimentID == nil || *gotFilters.ExperimentID != 3001234 {
		t.Errorf("page = %+v filters = %+v", gotPage, gotFilters)
	}

	rec = serve(t, sys, "GET", "/evaluations/experiment/3009999", "")
	var result pagination.PageResult[evaluations.Evaluation]
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Total != 1 || result.Data[0].ExperimentIDs[0] != 3009999 {
		t.Errorf("by experiment = %+v", result)
	}

	if rec := serve(t, sys, "GET", "/evaluations/experiment/abc", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad experiment status = %d, want 400", rec.Code)
	}
}
