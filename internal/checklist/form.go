package checklist

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
)

// Form is a complete set of operator inputs as submitted over HTTP (JSON)
// or from a form file (YAML). ExperimentIDs is the free-text list;
// SelectedExperiments, when non-empty, takes its place.
type Form struct {
	Decoder             string            `json:"decoder" yaml:"decoder"`
	Ranger              int               `json:"ranger" yaml:"ranger"`
	FlowCellTop         string            `json:"flow_cell_top" yaml:"flow_cell_top"`
	Microscope          string            `json:"microscope" yaml:"microscope"`
	ExperimentIDs       string            `json:"experiment_ids" yaml:"experiment_ids"`
	SelectedExperiments []int             `json:"selected_experiments,omitempty" yaml:"selected_experiments"`
	Reviewer            string            `json:"reviewer" yaml:"reviewer"`
	Date                string            `json:"date" yaml:"date"`
	Notes               string            `json:"notes" yaml:"notes"`
	Stalls              FormStalls        `json:"stalls" yaml:"stalls"`
	Answers             map[string]Answer `json:"answers" yaml:"answers"`
}

// FormStalls carries the stall inputs of a Form.
type FormStalls struct {
	Count   int      `json:"num_stalls" yaml:"num_stalls"`
	Reasons []string `json:"stall_reason" yaml:"stall_reason"`
	Other   string   `json:"other" yaml:"other"`
}

// Session replays the form into a new session against catalog. Metadata
// problems are recorded on the session as advisory issues; the returned
// error is non-nil only when an answer names a question the catalog does
// not have.
func (f *Form) Session(catalog *Catalog) (*Session, error) {
	ids := make([]string, 0, len(f.Answers))
	for id := range f.Answers {
		if !catalog.Has(id) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, id)
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)

	s := NewSession(catalog)
	for _, id := range ids {
		s.Answer(id, f.Answers[id])
	}

	s.Set(FieldDecoder, f.Decoder)
	s.Set(FieldReviewer, f.Reviewer)
	s.Set(FieldFlowCellTop, f.FlowCellTop)
	s.Set(FieldMicroscope, f.Microscope)
	s.Set(FieldNotes, f.Notes)
	s.Set(FieldStallOther, f.Stalls.Other)

	if f.Ranger != 0 {
		s.SetRanger(f.Ranger)
	}
	if f.Date != "" {
		s.Set(FieldDate, f.Date)
	}
	s.SetStallCount(f.Stalls.Count)
	s.SetStallReasons(f.Stalls.Reasons)

	if len(f.SelectedExperiments) > 0 {
		s.SelectExperimentIDs(f.SelectedExperiments)
	} else {
		s.SetExperimentIDs(f.ExperimentIDs)
	}

	return s, nil
}

// Report is the advisory view of a session returned to form clients.
type Report struct {
	ExperimentIDs []int    `json:"experiment_ids"`
	Issues        []Issue  `json:"issues"`
	Blocking      []string `json:"blocking"`
	Ready         bool     `json:"ready"`
}

// Issue is the serializable form of a *FieldError.
type Issue struct {
	Field  Field  `json:"field"`
	Value  string `json:"value"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// Report summarizes the session's advisory issues and submission gate.
func (s *Session) Report() Report {
	r := Report{
		ExperimentIDs: s.ExperimentIDs(),
		Issues:        []Issue{},
		Blocking:      []string{},
	}
	if r.ExperimentIDs == nil {
		r.ExperimentIDs = []int{}
	}

	for _, err := range s.Issues() {
		var fe *FieldError
		if errors.As(err, &fe) {
			r.Issues = append(r.Issues, fe.issue())
		}
	}

	if err := s.Validate(); err != nil {
		for _, e := range unwrapJoined(err) {
			r.Blocking = append(r.Blocking, e.Error())
		}
	}
	r.Ready = len(r.Blocking) == 0
	return r
}

func (e *FieldError) issue() Issue {
	kind := "format"
	if errors.Is(e.Err, ErrDuplicate) {
		kind = "duplicate"
	}
	return Issue{Field: e.Field, Value: e.Value, Kind: kind, Reason: e.Reason}
}

func unwrapJoined(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

// String renders an issue as a single operator-facing line.
func (i Issue) String() string {
	return fmt.Sprintf("%s (%s) %s: %s", i.Field, i.Kind, strconv.Quote(i.Value), i.Reason)
}
