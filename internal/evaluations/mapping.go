package evaluations

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/JaimeStill/scopecheck/pkg/query"
	"github.com/JaimeStill/scopecheck/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "microscope_evaluations", "e").
	Project("id", "ID").
	Project("decoder", "Decoder").
	Project("microscope", "Microscope").
	Project("reviewer", "Reviewer").
	Project("evaluated_on", "EvaluatedOn").
	Project("eval_metadata", "Metadata").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

const experimentSubquery = "SELECT microscope_evaluation_id FROM public.experiment_evaluations WHERE experiment_id = $%d"

// Filters contains optional filtering criteria for evaluation queries.
// Nil fields are ignored. Microscope and ExperimentID match exactly;
// Decoder and Reviewer use case-insensitive contains matching.
type Filters struct {
	Decoder      *string `json:"decoder,omitempty"`
	Reviewer     *string `json:"reviewer,omitempty"`
	Microscope   *string `json:"microscope,omitempty"`
	ExperimentID *int    `json:"experiment_id,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereContains("Decoder", f.Decoder).
		WhereContains("Reviewer", f.Reviewer).
		WhereEquals("Microscope", f.Microscope).
		WhereInSelect("ID", experimentSubquery, f.ExperimentID)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// A non-numeric experiment_id is ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if d := values.Get("decoder"); d != "" {
		f.Decoder = &d
	}

	if r := values.Get("reviewer"); r != "" {
		f.Reviewer = &r
	}

	if m := values.Get("microscope"); m != "" {
		f.Microscope = &m
	}

	if eid := values.Get("experiment_id"); eid != "" {
		if v, err := strconv.Atoi(eid); err == nil {
			f.ExperimentID = &v
		}
	}

	return f
}

func scanEvaluation(s repository.Scanner) (Evaluation, error) {
	var (
		e    Evaluation
		meta []byte
	)
	err := s.Scan(
		&e.ID,
		&e.Decoder,
		&e.Microscope,
		&e.Reviewer,
		&e.EvaluatedOn,
		&meta,
		&e.CreatedAt,
	)
	if err != nil {
		return e, err
	}

	if err := json.Unmarshal(meta, &e.Metadata); err != nil {
		return e, fmt.Errorf("decode eval_metadata for %s: %w", e.ID, err)
	}
	e.ExperimentIDs = []int{}
	return e, nil
}

type linkRow struct {
	EvaluationID string
	ExperimentID int
}

func scanLink(s repository.Scanner) (linkRow, error) {
	var l linkRow
	err := s.Scan(&l.EvaluationID, &l.ExperimentID)
	return l, err
}
