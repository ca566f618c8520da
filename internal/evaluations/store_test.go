package evaluations_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/scopecheck/internal/checklist"
	"github.com/JaimeStill/scopecheck/internal/evaluations"
	"github.com/JaimeStill/scopecheck/pkg/pagination"
)

// sqlRecorder is a database/sql driver that records statements and echoes
// the id argument back from INSERT ... RETURNING.
type sqlRecorder struct {
	mu        sync.Mutex
	queries   [][]driver.Value
	execs     [][]driver.Value
	commits   int
	rollbacks int

	failLink  int
	linkErr   error
	commitErr error
}

func (d *sqlRecorder) Open(string) (driver.Conn, error) { return &recorderConn{d: d}, nil }

func (d *sqlRecorder) Connect(context.Context) (driver.Conn, error) {
	return &recorderConn{d: d}, nil
}

func (d *sqlRecorder) Driver() driver.Driver { return d }

func (d *sqlRecorder) open(t *testing.T) *sql.DB {
	t.Helper()
	db := sql.OpenDB(d)
	t.Cleanup(func() { db.Close() })
	return db
}

type recorderConn struct {
	d *sqlRecorder
}

func (c *recorderConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c *recorderConn) Close() error { return nil }

func (c *recorderConn) Begin() (driver.Tx, error) { return &recorderTx{d: c.d}, nil }

func (c *recorderConn) QueryContext(_ context.Context, _ string, args []driver.NamedValue) (driver.Rows, error) {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()

	values := namedValues(args)
	c.d.queries = append(c.d.queries, values)
	return &idRows{id: values[0]}, nil
}

func (c *recorderConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()

	c.d.execs = append(c.d.execs, namedValues(args))
	if strings.Contains(query, "experiment_evaluations") && len(c.d.execs) == c.d.failLink {
		return nil, c.d.linkErr
	}
	return driver.RowsAffected(1), nil
}

type recorderTx struct {
	d *sqlRecorder
}

func (tx *recorderTx) Commit() error {
	tx.d.mu.Lock()
	defer tx.d.mu.Unlock()
	if tx.d.commitErr != nil {
		return tx.d.commitErr
	}
	tx.d.commits++
	return nil
}

func (tx *recorderTx) Rollback() error {
	tx.d.mu.Lock()
	defer tx.d.mu.Unlock()
	tx.d.rollbacks++
	return nil
}

type idRows struct {
	id   driver.Value
	done bool
}

func (r *idRows) Columns() []string { return []string{"id"} }

func (r *idRows) Close() error { return nil }

func (r *idRows) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	dest[0] = r.id
	r.done = true
	return nil
}

func namedValues(args []driver.NamedValue) []driver.Value {
	out := make([]driver.Value, len(args))
	for i, a := range args {
		out[i] = a.Value
	}
	return out
}

var evaluatedOn = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func submittableSession(t *testing.T) *checklist.Session {
	t.Helper()
	catalog := checklist.DefaultCatalog()
	s := checklist.NewSession(catalog)
	s.Answer(catalog.IDs()[0], checklist.Yes)
	s.Set(checklist.FieldDecoder, "jane doe")
	s.Set(checklist.FieldReviewer, "pat lee")
	s.Set(checklist.FieldMicroscope, "D03")
	s.SetRanger(2)
	s.SetDate(evaluatedOn)
	s.SetExperimentIDs("3001234, 3009999")
	if err := s.Validate(); err != nil {
		t.Fatalf("session not ready: %v", err)
	}
	return s
}

func newSQLSystem(db *sql.DB) evaluations.System {
	return evaluations.New(
		db, nil, checklist.DefaultCatalog(), discardLogger(), nil,
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

func TestSubmitWritesRecordAndLinks(t *testing.T) {
	rec := &sqlRecorder{}
	sys := newSQLSystem(rec.open(t))
	s := submittableSession(t)

	receipt, err := sys.Submit(context.Background(), s)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if len(rec.queries) != 1 {
		t.Fatalf("record inserts = %d, want 1", len(rec.queries))
	}
	args := rec.queries[0]
	if args[0] != receipt.RecordID.String() {
		t.Errorf("record id arg = %v, want %s", args[0], receipt.RecordID)
	}
	if diff := cmp.Diff([]driver.Value{"Jane Doe", "D03", "Pat Lee", evaluatedOn}, args[1:5]); diff != "" {
		t.Errorf("record args mismatch (-want +got):\n%s", diff)
	}

	raw, ok := args[5].(string)
	if !ok {
		t.Fatalf("eval_metadata arg = %T, want string", args[5])
	}
	var meta checklist.Metadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		t.Fatalf("eval_metadata is not JSON: %v", err)
	}
	want := checklist.Metadata{
		Questions: map[string]bool{checklist.DefaultCatalog().IDs()[0]: true},
		Stalls:    checklist.Stalls{Reasons: []string{}},
		Ranger:    2,
	}
	if diff := cmp.Diff(want, meta); diff != "" {
		t.Errorf("eval_metadata mismatch (-want +got):\n%s", diff)
	}

	if len(rec.execs) != 2 {
		t.Fatalf("link inserts = %d, want 2", len(rec.execs))
	}
	for i, experimentID := range []int64{3001234, 3009999} {
		wantArgs := []driver.Value{receipt.LinkIDs[i].String(), experimentID, receipt.RecordID.String()}
		if diff := cmp.Diff(wantArgs, rec.execs[i]); diff != "" {
			t.Errorf("link %d args mismatch (-want +got):\n%s", i, diff)
		}
	}

	if rec.commits != 1 || rec.rollbacks != 0 {
		t.Errorf("commits = %d rollbacks = %d, want 1/0", rec.commits, rec.rollbacks)
	}
	if !s.Submitted() {
		t.Error("committed session not marked submitted")
	}
}

func TestSubmitLinkFailureRollsBack(t *testing.T) {
	linkErr := errors.New("link insert failed")
	rec := &sqlRecorder{failLink: 2, linkErr: linkErr}
	sys := newSQLSystem(rec.open(t))
	s := submittableSession(t)

	_, err := sys.Submit(context.Background(), s)
	if !errors.Is(err, checklist.ErrPersistence) {
		t.Errorf("error = %v, want ErrPersistence", err)
	}
	if !errors.Is(err, linkErr) {
		t.Errorf("error = %v, want driver error in chain", err)
	}
	if rec.commits != 0 || rec.rollbacks != 1 {
		t.Errorf("commits = %d rollbacks = %d, want 0/1", rec.commits, rec.rollbacks)
	}
	if s.Submitted() {
		t.Error("rolled back session marked submitted")
	}
}

func TestSubmitCommitFailureAllowsRetry(t *testing.T) {
	commitErr := errors.New("commit lost")
	rec := &sqlRecorder{commitErr: commitErr}
	sys := newSQLSystem(rec.open(t))
	s := submittableSession(t)

	_, err := sys.Submit(context.Background(), s)
	if !errors.Is(err, checklist.ErrPersistence) || !errors.Is(err, commitErr) {
		t.Fatalf("error = %v, want ErrPersistence wrapping the commit error", err)
	}
	if s.Submitted() {
		t.Fatal("session marked submitted after failed commit")
	}

	rec.mu.Lock()
	rec.commitErr = nil
	rec.mu.Unlock()

	if _, err := sys.Submit(context.Background(), s); err != nil {
		t.Fatalf("retry error = %v", err)
	}
	if !s.Submitted() || rec.commits != 1 {
		t.Errorf("submitted = %t commits = %d, want true/1", s.Submitted(), rec.commits)
	}
}

func TestStoreSaveLinkErrors(t *testing.T) {
	tests := []struct {
		name    string
		linkErr error
		want    error
	}{
		{"missing record", &pgconn.PgError{Code: "23503"}, evaluations.ErrNotFound},
		{"repeated experiment", &pgconn.PgError{Code: "23505"}, evaluations.ErrDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &sqlRecorder{failLink: 1, linkErr: tt.linkErr}
			store := evaluations.NewStore(rec.open(t))

			_, err := store.SaveLink(context.Background(), checklist.Link{
				ExperimentID: 3001234,
				Record:       &checklist.Record{ID: uuid.New()},
			})
			if !errors.Is(err, tt.want) {
				t.Errorf("SaveLink() error = %v, want %v", err, tt.want)
			}
		})
	}

	rec := &sqlRecorder{}
	store := evaluations.NewStore(rec.open(t))
	if _, err := store.SaveLink(context.Background(), checklist.Link{ExperimentID: 3001234}); err == nil {
		t.Error("link without a saved record accepted")
	}
	if len(rec.execs) != 0 {
		t.Errorf("execs = %d, want 0", len(rec.execs))
	}
}
