package checklist

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
)

// Export writes the full session as flat "key,value" CSV rows, one per
// top-level key. Nested values are JSON encoded. The output is meant for
// archival and debugging and is not read back by the service.
func (s *Session) Export(w io.Writer) error {
	reasons := slices.Clone(s.stallReasons)
	if reasons == nil {
		reasons = []string{}
	}
	experiments := slices.Clone(s.experiments)
	if experiments == nil {
		experiments = []int{}
	}

	questions, err := json.Marshal(maps.Clone(s.answers))
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	stalls, err := json.Marshal(Stalls{
		Count:   s.stallCount,
		Reasons: reasons,
		Other:   s.stallOther,
	})
	if err != nil {
		return fmt.Errorf("encode stalls: %w", err)
	}
	ids, err := json.Marshal(experiments)
	if err != nil {
		return fmt.Errorf("encode experiment ids: %w", err)
	}

	rows := [][]string{
		{"questions", string(questions)},
		{"stalls", string(stalls)},
		{"notes", s.notes},
		{"decoder", s.decoder},
		{"ranger", strconv.Itoa(s.ranger)},
		{"flow cell top", s.flowCellTop},
		{"microscope", s.microscope},
		{"experiment_id", string(ids)},
		{"reviewer", s.reviewer},
		{"date", s.date.Format(DateLayout)},
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
