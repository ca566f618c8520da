package evaluations_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/JaimeStill/scopecheck/internal/checklist"
	"github.com/JaimeStill/scopecheck/internal/evaluations"
	"github.com/JaimeStill/scopecheck/pkg/pagination"
	"github.com/JaimeStill/scopecheck/pkg/query"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", evaluations.ErrNotFound, http.StatusNotFound},
		{"precondition", fmt.Errorf("%w: no microscope", checklist.ErrPrecondition), http.StatusUnprocessableEntity},
		{"unknown question", fmt.Errorf("%w: q9", checklist.ErrUnknownQuestion), http.StatusBadRequest},
		{"format", checklist.ErrFormat, http.StatusBadRequest},
		{"unknown field", checklist.ErrUnknownField, http.StatusBadRequest},
		{"invalid input", evaluations.ErrInvalidInput, http.StatusBadRequest},
		{"body too large", evaluations.ErrBodyTooLarge, http.StatusRequestEntityTooLarge},
		{"submitted", checklist.ErrSubmitted, http.StatusConflict},
		{"duplicate link", evaluations.ErrDuplicate, http.StatusConflict},
		{"persistence", fmt.Errorf("%w: conn reset", checklist.ErrPersistence), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evaluations.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFiltersFromQuery(t *testing.T) {
	values := url.Values{
		"decoder":       {"jane"},
		"microscope":    {"D07"},
		"experiment_id": {"3001234"},
	}

	f := evaluations.FiltersFromQuery(values)
	if f.Decoder == nil || *f.Decoder != "jane" {
		t.Errorf("Decoder = %v", f.Decoder)
	}
	if f.Reviewer != nil {
		t.Errorf("Reviewer = %v, want nil", f.Reviewer)
	}
	if f.Microscope == nil || *f.Microscope != "D07" {
		t.Errorf("Microscope = %v", f.Microscope)
	}
	if f.ExperimentID == nil || *f.ExperimentID != 3001234 {
		t.Errorf("ExperimentID = %v", f.ExperimentID)
	}

	if f := evaluations.FiltersFromQuery(url.Values{"experiment_id": {"abc"}}); f.ExperimentID != nil {
		t.Errorf("non-numeric experiment_id should be ignored, got %d", *f.ExperimentID)
	}
}

func TestFiltersApply(t *testing.T) {
	microscope := "D07"
	experiment := 3001234
	f := evaluations.Filters{Microscope: &microscope, ExperimentID: &experiment}

	projection := query.NewProjectionMap("public", "microscope_evaluations", "e").
		Project("id", "ID").
		Project("microscope", "Microscope")

	q, args := f.Apply(query.NewBuilder(projection)).BuildCount()

	want := "SELECT COUNT(*) FROM public.microscope_evaluations e WHERE e.microscope = $1" +
		" AND e.id IN (SELECT microscope_evaluation_id FROM public.experiment_evaluations WHERE experiment_id = $2)"
	if q != want {
		t.Errorf("sql = %q\nwant  %q", q, want)
	}
	if diff := cmp.Diff([]any{&microscope, &experiment}, args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestArchiveKey(t *testing.T) {
	id := uuid.MustParse("6f1c2a56-8f0e-4b8a-9d55-0c8f5d7f2a10")
	if got := evaluations.ArchiveKey(id); got != "evaluations/6f1c2a56-8f0e-4b8a-9d55-0c8f5d7f2a10.csv" {
		t.Errorf("ArchiveKey() = %q", got)
	}
}

func TestSubmitPreconditionSkipsDatabase(t *testing.T) {
	sys := evaluations.New(nil, nil, checklist.DefaultCatalog(), discardLogger(), nil, pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})

	s := checklist.NewSession(checklist.DefaultCatalog())
	s.SetExperimentIDs("3001234")

	_, err := sys.Submit(context.Background(), s)
	if !errors.Is(err, checklist.ErrPrecondition) {
		t.Fatalf("Submit() error = %v, want ErrPrecondition", err)
	}
	if s.Submitted() {
		t.Error("session marked submitted after precondition failure")
	}
}

type memoryStore struct{}

func (memoryStore) SaveRecord(context.Context, *checklist.Record) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (memoryStore) SaveLink(context.Context, checklist.Link) (uuid.UUID, error) {
	return uuid.New(), nil
}

func TestSubmitTwiceSkipsDatabase(t *testing.T) {
	sys := evaluations.New(nil, nil, checklist.DefaultCatalog(), discardLogger(), nil, pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})

	s := checklist.NewSession(checklist.DefaultCatalog())
	s.SetExperimentIDs("3001234")
	s.SetMicroscope("D03")
	if _, err := checklist.Submit(context.Background(), memoryStore{}, s); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	if _, err := sys.Submit(context.Background(), s); !errors.Is(err, checklist.ErrSubmitted) {
		t.Fatalf("Submit() error = %v, want ErrSubmitted", err)
	}
}

func TestSearchRequestDecode(t *testing.T) {
	var req evaluations.SearchRequest
	body := `{"page":2,"page_size":5,"search":"jan","sort":"-EvaluatedOn","microscope":"D03","experiment_id":3001234}`
	if err := json.NewDecoder(strings.NewReader(body)).Decode(&req); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if req.Page != 2 || req.PageSize != 5 || req.Search == nil || *req.Search != "jan" {
		t.Errorf("page request = %+v", req.PageRequest)
	}
	if len(req.Sort) != 1 || req.Sort[0] != (query.SortField{Field: "EvaluatedOn", Descending: true}) {
		t.Errorf("sort = %v", req.Sort)
	}
	if req.Microscope == nil || *req.Microscope != "D03" || req.ExperimentID == nil || *req.ExperimentID != 3001234 {
		t.Errorf("filters = %+v", req.Filters)
	}
}
