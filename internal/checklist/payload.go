package checklist

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Stalls summarizes interruptions of the imaging run.
type Stalls struct {
	Count   int      `json:"num_stalls"`
	Reasons []string `json:"stall_reason"`
	Other   string   `json:"other"`
}

// Metadata is the free-form blob stored alongside an evaluation record.
// Decoder, microscope, and reviewer are promoted to Record fields and do
// not appear here.
type Metadata struct {
	Questions   map[string]bool `json:"questions"`
	Stalls      Stalls          `json:"stalls"`
	Notes       string          `json:"notes"`
	Ranger      int             `json:"ranger"`
	FlowCellTop string          `json:"flow cell top"`
}

// Record is the persisted summary of one checklist pass.
type Record struct {
	ID          uuid.UUID `json:"id"`
	Decoder     string    `json:"decoder"`
	Microscope  string    `json:"microscope"`
	Reviewer    string    `json:"reviewer"`
	EvaluatedOn time.Time `json:"evaluated_on"`
	Metadata    Metadata  `json:"eval_metadata"`
}

// Link associates a record with one experiment. All links built from the
// same payload share one *Record.
type Link struct {
	ExperimentID int
	Record       *Record
}

// Store is the persistence collaborator that receives a submission.
type Store interface {
	SaveRecord(ctx context.Context, rec *Record) (uuid.UUID, error)
	SaveLink(ctx context.Context, link Link) (uuid.UUID, error)
}

// Receipt identifies the rows written for a submission.
type Receipt struct {
	RecordID      uuid.UUID   `json:"record_id"`
	LinkIDs       []uuid.UUID `json:"link_ids"`
	ExperimentIDs []int       `json:"experiment_ids"`
}

// Payload builds the record and its experiment links. It fails with an
// error wrapping ErrPrecondition when Validate does.
func (s *Session) Payload() (*Record, []Link, error) {
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}

	reasons := slices.Clone(s.stallReasons)
	if reasons == nil {
		reasons = []string{}
	}

	rec := &Record{
		Decoder:     s.decoder,
		Microscope:  s.microscope,
		Reviewer:    s.reviewer,
		EvaluatedOn: s.date,
		Metadata: Metadata{
			Questions: maps.Clone(s.answers),
			Stalls: Stalls{
				Count:   s.stallCount,
				Reasons: reasons,
				Other:   s.stallOther,
			},
			Notes:       s.notes,
			Ranger:      s.ranger,
			FlowCellTop: s.flowCellTop,
		},
	}

	links := make([]Link, len(s.experiments))
	for i, id := range s.experiments {
		links[i] = Link{ExperimentID: id, Record: rec}
	}

	return rec, links, nil
}

// Submit writes the session through store and marks it submitted.
// Validation failures return before the store is touched. A store failure
// is returned wrapped in ErrPersistence and is not retried; rows already
// written are the store's concern.
func Submit(ctx context.Context, store Store, s *Session) (*Receipt, error) {
	receipt, err := Write(ctx, store, s)
	if err != nil {
		return nil, err
	}
	s.MarkSubmitted()
	return receipt, nil
}

// Write saves the record and then one link per experiment ID without
// marking the session submitted. Callers that commit the writes later
// call MarkSubmitted once the commit succeeds.
func Write(ctx context.Context, store Store, s *Session) (*Receipt, error) {
	if s.submitted {
		return nil, ErrSubmitted
	}

	rec, links, err := s.Payload()
	if err != nil {
		return nil, err
	}

	id, err := store.SaveRecord(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("%w: save evaluation record: %w", ErrPersistence, err)
	}
	rec.ID = id

	receipt := &Receipt{
		RecordID:      id,
		LinkIDs:       make([]uuid.UUID, 0, len(links)),
		ExperimentIDs: make([]int, 0, len(links)),
	}

	for _, link := range links {
		linkID, err := store.SaveLink(ctx, link)
		if err != nil {
			return nil, fmt.Errorf("%w: save experiment link %d: %w", ErrPersistence, link.ExperimentID, err)
		}
		receipt.LinkIDs = append(receipt.LinkIDs, linkID)
		receipt.ExperimentIDs = append(receipt.ExperimentIDs, link.ExperimentID)
	}

	return receipt, nil
}

// MarkSubmitted consumes the session. Later Submit and Write calls return
// ErrSubmitted.
func (s *Session) MarkSubmitted() {
	s.submitted = true
}
