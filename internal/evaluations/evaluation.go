// Package evaluations persists checklist submissions and serves the
// evaluation history. One submission writes a microscope_evaluations row
// and one experiment_evaluations row per experiment inside a single
// transaction.
package evaluations

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/scopecheck/internal/checklist"
)

// Evaluation is a stored evaluation record with the experiments linked to it.
// Responses expands the stored answers against the current catalog and is
// only populated by Find.
type Evaluation struct {
	ID            uuid.UUID                   `json:"id"`
	Decoder       string                      `json:"decoder"`
	Microscope    string                      `json:"microscope"`
	Reviewer      string                      `json:"reviewer"`
	EvaluatedOn   time.Time                   `json:"evaluated_on"`
	Metadata      checklist.Metadata          `json:"eval_metadata"`
	CreatedAt     time.Time                   `json:"created_at"`
	ExperimentIDs []int                       `json:"experiment_ids"`
	Responses     map[string]checklist.Answer `json:"responses,omitempty"`
}

// Rejection is the 422 body returned when a form cannot be submitted.
type Rejection struct {
	Error  string           `json:"error"`
	Report checklist.Report `json:"report"`
}
