// Package checklist implements the microscope evaluation checklist: the
// static question catalog, a per-interaction Session that accumulates
// tri-state answers and operator metadata, advisory validation of that
// metadata, and the submission payload handed to a Store.
package checklist

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DateLayout is the wire format for evaluation dates.
const DateLayout = time.DateOnly

// Field names a metadata value a Session accepts through Set.
type Field string

const (
	FieldDecoder       Field = "decoder"
	FieldReviewer      Field = "reviewer"
	FieldRanger        Field = "ranger"
	FieldFlowCellTop   Field = "flow_cell_top"
	FieldMicroscope    Field = "microscope"
	FieldDate          Field = "date"
	FieldNotes         Field = "notes"
	FieldStallCount    Field = "num_stalls"
	FieldStallReasons  Field = "stall_reason"
	FieldStallOther    Field = "other"
	FieldExperimentIDs Field = "experiment_id"
)

var fieldOrder = []Field{
	FieldDecoder,
	FieldRanger,
	FieldFlowCellTop,
	FieldMicroscope,
	FieldExperimentIDs,
	FieldReviewer,
	FieldDate,
	FieldStallCount,
	FieldStallReasons,
	FieldStallOther,
	FieldNotes,
}

// Session accumulates one operator's pass through the checklist. It is
// owned by a single interaction and is not safe for concurrent use.
type Session struct {
	catalog *Catalog
	answers map[string]bool
	issues  map[Field][]error

	decoder      string
	reviewer     string
	ranger       int
	flowCellTop  string
	microscope   string
	date         time.Time
	notes        string
	stallCount   int
	stallReasons []string
	stallOther   string
	experiments  []int

	submitted bool
}

// NewSession starts an empty session against catalog. The ranger defaults
// to 1 and the evaluation date to today.
func NewSession(catalog *Catalog) *Session {
	return &Session{
		catalog: catalog,
		answers: make(map[string]bool),
		issues:  make(map[Field][]error),
		ranger:  1,
		date:    civilDate(time.Now()),
	}
}

// Catalog returns the catalog the session was created with.
func (s *Session) Catalog() *Catalog {
	return s.catalog
}

// Answer records or clears the response for a catalog question.
// Unanswered removes any earlier response. Callers must only pass
// identifiers from the session's catalog; anything else panics.
func (s *Session) Answer(id string, a Answer) {
	if !s.catalog.Has(id) {
		panic(fmt.Sprintf("checklist: %v: %q", ErrUnknownQuestion, id))
	}

	if v, ok := a.Bool(); ok {
		s.answers[id] = v
		return
	}
	delete(s.answers, id)
}

// Responses returns the tri-state answer for every catalog question.
func (s *Session) Responses() map[string]Answer {
	out := make(map[string]Answer, s.catalog.Len())
	for _, id := range s.catalog.order {
		if v, ok := s.answers[id]; ok {
			out[id] = AnswerOf(v)
		} else {
			out[id] = Unanswered
		}
	}
	return out
}

// Set parses raw and assigns it to field. The returned error is advisory:
// it describes why the value was rejected, is also retained in Issues, and
// does not stop further entry. Only ErrUnknownField signals misuse.
func (s *Session) Set(field Field, raw string) error {
	switch field {
	case FieldDecoder:
		s.decoder = TitleCase(raw)
		return s.flag(field)
	case FieldReviewer:
		s.reviewer = TitleCase(raw)
		return s.flag(field)
	case FieldNotes:
		s.notes = raw
		return s.flag(field)
	case FieldStallOther:
		s.stallOther = strings.TrimSpace(raw)
		return s.flag(field)
	case FieldFlowCellTop:
		return s.SetFlowCellTop(raw)
	case FieldMicroscope:
		return s.SetMicroscope(raw)
	case FieldExperimentIDs:
		return s.SetExperimentIDs(raw)
	case FieldRanger:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return s.flag(field, formatError(field, raw, "enter a whole number"))
		}
		return s.SetRanger(n)
	case FieldStallCount:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return s.flag(field, formatError(field, raw, "enter a whole number"))
		}
		return s.SetStallCount(n)
	case FieldDate:
		d, err := time.Parse(DateLayout, strings.TrimSpace(raw))
		if err != nil {
			return s.flag(field, formatError(field, raw, "enter a date as YYYY-MM-DD"))
		}
		return s.SetDate(d)
	case FieldStallReasons:
		var reasons []string
		for r := range strings.SplitSeq(raw, ",") {
			if r = strings.TrimSpace(r); r != "" {
				reasons = append(reasons, r)
			}
		}
		return s.SetStallReasons(reasons)
	}
	return fmt.Errorf("%w: %s", ErrUnknownField, field)
}

// SetRanger assigns the ranger (instrument) ID, which must be positive.
func (s *Session) SetRanger(n int) error {
	if n < 1 {
		return s.flag(FieldRanger, formatError(FieldRanger, strconv.Itoa(n), "must be at least 1"))
	}
	s.ranger = n
	return s.flag(FieldRanger)
}

// SetFlowCellTop assigns the flow cell top letter, upper-cased. An empty
// value is allowed.
func (s *Session) SetFlowCellTop(raw string) error {
	v := strings.ToUpper(strings.TrimSpace(raw))
	s.flowCellTop = v

	runes := []rune(v)
	if len(runes) > 1 {
		return s.flag(FieldFlowCellTop, formatError(FieldFlowCellTop, raw, "enter only one ID letter"))
	}
	if len(runes) == 1 && !unicode.IsLetter(runes[0]) {
		return s.flag(FieldFlowCellTop, formatError(FieldFlowCellTop, raw, "must be a letter"))
	}
	return s.flag(FieldFlowCellTop)
}

// SetMicroscope assigns the microscope when it is one of the catalog's
// instruments; otherwise the microscope is cleared.
func (s *Session) SetMicroscope(raw string) error {
	v := strings.ToUpper(strings.TrimSpace(raw))
	if v == "" {
		s.microscope = ""
		return s.flag(FieldMicroscope)
	}
	if !s.catalog.IsMicroscope(v) {
		s.microscope = ""
		return s.flag(FieldMicroscope, formatError(FieldMicroscope, raw, "not a known microscope"))
	}
	s.microscope = v
	return s.flag(FieldMicroscope)
}

// SetDate assigns the evaluation date; the time of day is discarded.
func (s *Session) SetDate(d time.Time) error {
	if d.IsZero() {
		return s.flag(FieldDate, formatError(FieldDate, "", "date required"))
	}
	s.date = civilDate(d)
	return s.flag(FieldDate)
}

// SetStallCount assigns how many times the run stalled.
func (s *Session) SetStallCount(n int) error {
	if n < 0 {
		return s.flag(FieldStallCount, formatError(FieldStallCount, strconv.Itoa(n), "cannot be negative"))
	}
	s.stallCount = n
	return s.flag(FieldStallCount)
}

// SetStallReasons replaces the selected stall reasons. Unknown tags are
// reported and dropped; repeated tags are kept once.
func (s *Session) SetStallReasons(reasons []string) error {
	var kept []string
	var errs []error
	for _, r := range reasons {
		r = strings.TrimSpace(r)
		if !s.catalog.IsStallReason(r) {
			errs = append(errs, formatError(FieldStallReasons, r, "not a known stall reason"))
			continue
		}
		if !slices.Contains(kept, r) {
			kept = append(kept, r)
		}
	}
	s.stallReasons = kept
	return s.flag(FieldStallReasons, errs...)
}

// SetExperimentIDs parses a comma-separated experiment ID list.
func (s *Session) SetExperimentIDs(raw string) error {
	return s.useExperiments(ParseExperimentIDs(raw))
}

// SelectExperimentIDs assigns experiment IDs picked from a lookup list.
func (s *Session) SelectExperimentIDs(ids []int) error {
	return s.useExperiments(SelectExperimentIDs(ids))
}

func (s *Session) useExperiments(parsed ExperimentIDs) error {
	s.experiments = parsed.IDs
	return s.flag(FieldExperimentIDs, parsed.Issues...)
}

// ExperimentIDs returns the accepted experiment IDs.
func (s *Session) ExperimentIDs() []int {
	return slices.Clone(s.experiments)
}

// Microscope returns the selected microscope, or "" when none is set.
func (s *Session) Microscope() string {
	return s.microscope
}

// Date returns the evaluation date.
func (s *Session) Date() time.Time {
	return s.date
}

// Submitted reports whether the session has already been consumed.
func (s *Session) Submitted() bool {
	return s.submitted
}

// Issues returns all advisory issues in form order.
func (s *Session) Issues() []error {
	var out []error
	for _, f := range fieldOrder {
		out = append(out, s.issues[f]...)
	}
	return out
}

// Validate reports whether the session may be submitted. Every returned
// error wraps ErrPrecondition. Experiment ID issues are advisory only:
// rejected tokens never enter the accepted set.
func (s *Session) Validate() error {
	var errs []error

	if len(s.experiments) == 0 {
		errs = append(errs, fmt.Errorf("%w: enter an experiment ID", ErrPrecondition))
	}
	if s.microscope == "" {
		errs = append(errs, fmt.Errorf("%w: select a microscope", ErrPrecondition))
	}

	for _, f := range fieldOrder {
		if f == FieldExperimentIDs {
			continue
		}
		for _, issue := range s.issues[f] {
			errs = append(errs, fmt.Errorf("%w: %w", ErrPrecondition, issue))
		}
	}

	return errors.Join(errs...)
}

func (s *Session) flag(field Field, errs ...error) error {
	if len(errs) == 0 {
		delete(s.issues, field)
		return nil
	}
	s.issues[field] = errs
	return errors.Join(errs...)
}

// TitleCase trims s and capitalizes the first letter of each word.
func TitleCase(s string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(s))
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
