package checklist

import (
	"errors"
	"strconv"
	"strings"
)

const (
	minExperimentID = 1_000_000
	maxExperimentID = 9_999_999
)

// ExperimentIDs is the outcome of parsing operator-supplied experiment
// identifiers. IDs holds unique, well-formed 7-digit values in first-seen
// order. Issues holds one advisory *FieldError per rejected or repeated
// token; parsing never stops at the first problem.
type ExperimentIDs struct {
	IDs    []int
	Issues []error

	seen map[int]struct{}
}

// Err joins the advisory issues, or returns nil.
func (e ExperimentIDs) Err() error {
	return errors.Join(e.Issues...)
}

// ParseExperimentIDs parses a comma-separated list such as
// "3001234, 3001235". Blank input yields an empty result without issues.
func ParseExperimentIDs(raw string) ExperimentIDs {
	var out ExperimentIDs
	if strings.TrimSpace(raw) == "" {
		return out
	}

	for token := range strings.SplitSeq(raw, ",") {
		token = strings.TrimSpace(token)

		n, err := strconv.Atoi(token)
		if err != nil {
			out.Issues = append(out.Issues, formatError(
				FieldExperimentIDs, token,
				"enter only integers separated by a comma (,)",
			))
			continue
		}

		out.add(n, token)
	}

	return out
}

// SelectExperimentIDs validates identifiers picked from a lookup list.
func SelectExperimentIDs(ids []int) ExperimentIDs {
	var out ExperimentIDs
	for _, n := range ids {
		out.add(n, strconv.Itoa(n))
	}
	return out
}

// add reports a repeated value as a duplicate before checking its format,
// so a malformed ID entered twice yields both issues.
func (e *ExperimentIDs) add(n int, token string) {
	if _, ok := e.seen[n]; ok {
		e.Issues = append(e.Issues, duplicateError(token))
		return
	}
	if e.seen == nil {
		e.seen = make(map[int]struct{})
	}
	e.seen[n] = struct{}{}

	if len(token) != 7 || n < minExperimentID || n > maxExperimentID {
		e.Issues = append(e.Issues, formatError(
			FieldExperimentIDs, token,
			"enter an ID of the correct format (300XXXX)",
		))
		return
	}
	e.IDs = append(e.IDs, n)
}

func duplicateError(token string) *FieldError {
	return &FieldError{
		Field:  FieldExperimentIDs,
		Value:  token,
		Reason: "enter only unique experiment IDs",
		Err:    ErrDuplicate,
	}
}
