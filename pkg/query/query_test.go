package query_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/scopecheck/pkg/query"
)

func testProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "microscope_evaluations", "e").
		Project("id", "ID").
		Project("decoder", "Decoder").
		Project("microscope", "Microscope").
		Project("created_at", "CreatedAt")
}

func ptr(s string) *string { return &s }

func TestProjectionMap(t *testing.T) {
	p := testProjection()

	if got := p.From(); got != "public.microscope_evaluations e" {
		t.Errorf("From() = %q", got)
	}
	if got := p.Alias(); got != "e" {
		t.Errorf("Alias() = %q", got)
	}
	if got := p.Columns(); got != "e.id, e.decoder, e.microscope, e.created_at" {
		t.Errorf("Columns() = %q", got)
	}

	tests := []struct {
		field string
		want  string
	}{
		{"Decoder", "e.decoder"},
		{"CreatedAt", "e.created_at"},
		{"unknown", "unknown"},
	}
	for _, tt := range tests {
		if got := p.Column(tt.field); got != tt.want {
			t.Errorf("Column(%q) = %q, want %q", tt.field, got, tt.want)
		}
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		in   string
		want []query.SortField
	}{
		{"", nil},
		{"Decoder", []query.SortField{{Field: "Decoder"}}},
		{"-CreatedAt, Decoder", []query.SortField{
			{Field: "CreatedAt", Descending: true},
			{Field: "Decoder"},
		}},
		{" , ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, query.ParseSortFields(tt.in)); diff != "" {
				t.Errorf("ParseSortFields(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestBuildCount(t *testing.T) {
	microscope := "D03"
	q, args := query.NewBuilder(testProjection()).
		WhereEquals("Microscope", &microscope).
		WhereContains("Decoder", ptr("jan")).
		BuildCount()

	want := "SELECT COUNT(*) FROM public.microscope_evaluations e WHERE e.microscope = $1 AND e.decoder ILIKE $2"
	if q != want {
		t.Errorf("sql = %q\nwant  %q", q, want)
	}
	if diff := cmp.Diff([]any{&microscope, "%jan%"}, args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestNilConditionsSkipped(t *testing.T) {
	var microscope *string
	var experiment *int

	q, args := query.NewBuilder(testProjection()).
		WhereEquals("Microscope", microscope).
		WhereContains("Decoder", ptr("")).
		WhereInSelect("ID", "SELECT 1 WHERE $%d", experiment).
		WhereSearch(nil, "Decoder").
		BuildCount()

	if q != "SELECT COUNT(*) FROM public.microscope_evaluations e" {
		t.Errorf("sql = %q", q)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want none", args)
	}
}

func TestBuildPage(t *testing.T) {
	experiment := 3001234
	b := query.NewBuilder(testProjection(), query.SortField{Field: "CreatedAt", Descending: true}).
		WhereSearch(ptr("ada"), "Decoder", "Microscope").
		WhereInSelect(
			"ID",
			"SELECT microscope_evaluation_id FROM public.experiment_evaluations WHERE experiment_id = $%d",
			&experiment,
		)

	q, args := b.BuildPage(3, 10)
	want := "SELECT e.id, e.decoder, e.microscope, e.created_at FROM public.microscope_evaluations e" +
		" WHERE (e.decoder ILIKE $1 OR e.microscope ILIKE $2)" +
		" AND e.id IN (SELECT microscope_evaluation_id FROM public.experiment_evaluations WHERE experiment_id = $3)" +
		" ORDER BY e.created_at DESC LIMIT 10 OFFSET 20"
	if q != want {
		t.Errorf("sql = %q\nwant  %q", q, want)
	}
	if len(args) != 3 {
		t.Errorf("args = %v, want 3", args)
	}
}

func TestOrderByIgnoresUnprojectedFields(t *testing.T) {
	q, _ := query.NewBuilder(testProjection()).
		OrderByFields([]query.SortField{
			{Field: "Decoder"},
			{Field: "1; DROP TABLE microscope_evaluations"},
		}).
		BuildPage(1, 5)

	want := "SELECT e.id, e.decoder, e.microscope, e.created_at FROM public.microscope_evaluations e ORDER BY e.decoder ASC LIMIT 5 OFFSET 0"
	if q != want {
		t.Errorf("sql = %q\nwant  %q", q, want)
	}
}

func TestBuildSingle(t *testing.T) {
	q, args := query.NewBuilder(testProjection()).BuildSingle("ID", "abc")

	if q != "SELECT e.id, e.decoder, e.microscope, e.created_at FROM public.microscope_evaluations e WHERE e.id = $1" {
		t.Errorf("sql = %q", q)
	}
	if len(args) != 1 || args[0] != "abc" {
		t.Errorf("args = %v", args)
	}
}
