package evaluations

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/scopecheck/internal/checklist"
	"github.com/JaimeStill/scopecheck/pkg/repository"
)

const insertRecord = `
	INSERT INTO microscope_evaluations(id, decoder, microscope, reviewer, evaluated_on, eval_metadata)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id`

const insertLink = `
	INSERT INTO experiment_evaluations(id, experiment_id, microscope_evaluation_id)
	VALUES ($1, $2, $3)`

// Store writes checklist submissions through conn. Bound to a *sql.Tx it
// makes the record and its links a single unit of work.
type Store struct {
	conn repository.Conn
}

// NewStore returns a Store that executes against conn.
func NewStore(conn repository.Conn) *Store {
	return &Store{conn: conn}
}

// SaveRecord inserts the evaluation record and returns its generated ID.
func (s *Store) SaveRecord(ctx context.Context, rec *checklist.Record) (uuid.UUID, error) {
	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode eval_metadata: %w", err)
	}

	args := []any{
		uuid.New(),
		rec.Decoder,
		rec.Microscope,
		rec.Reviewer,
		rec.EvaluatedOn,
		string(meta),
	}

	return repository.QueryOne(ctx, s.conn, insertRecord, args, func(sc repository.Scanner) (uuid.UUID, error) {
		var id uuid.UUID
		err := sc.Scan(&id)
		return id, err
	})
}

// SaveLink inserts one experiment link for a saved record. A link to a
// record that does not exist is ErrNotFound; a repeated experiment on the
// same record is ErrDuplicate.
func (s *Store) SaveLink(ctx context.Context, link checklist.Link) (uuid.UUID, error) {
	if link.Record == nil || link.Record.ID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("link for experiment %d has no saved record", link.ExperimentID)
	}

	id := uuid.New()
	err := repository.ExecExpectOne(ctx, s.conn, insertLink, id, link.ExperimentID, link.Record.ID)
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return uuid.Nil, fmt.Errorf("%w: evaluation %s", ErrNotFound, link.Record.ID)
		}
		return uuid.Nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return id, nil
}
