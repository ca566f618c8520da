package evaluations

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/scopecheck/internal/checklist"
	"github.com/JaimeStill/scopecheck/pkg/metrics"
	"github.com/JaimeStill/scopecheck/pkg/pagination"
	"github.com/JaimeStill/scopecheck/pkg/query"
	"github.com/JaimeStill/scopecheck/pkg/repository"
	"github.com/JaimeStill/scopecheck/pkg/storage"
)

const selectLinks = `
	SELECT microscope_evaluation_id::text, experiment_id
	FROM public.experiment_evaluations
	WHERE microscope_evaluation_id = ANY($1::uuid[])
	ORDER BY created_at, experiment_id`

type repo struct {
	db         *sql.DB
	storage    storage.System
	catalog    *checklist.Catalog
	logger     *slog.Logger
	metrics    *metrics.Metrics
	pagination pagination.Config
}

// New creates an evaluation repository implementing the System interface.
// store may be nil, in which case submissions are not archived.
func New(
	db *sql.DB,
	store storage.System,
	catalog *checklist.Catalog,
	logger *slog.Logger,
	m *metrics.Metrics,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		catalog:    catalog,
		logger:     logger.With("system", "evaluations"),
		metrics:    m,
		pagination: pagination,
	}
}

func (r *repo) Handler(maxBodySize int64) *Handler {
	return NewHandler(r, r.catalog, r.logger, r.pagination, maxBodySize)
}

func (r *repo) Submit(ctx context.Context, s *checklist.Session) (*checklist.Receipt, error) {
	start := time.Now()

	receipt, err := r.submit(ctx, s)
	r.observe("submit", err, time.Since(start))
	if err != nil {
		return nil, err
	}

	r.logger.Info(
		"evaluation submitted",
		"id", receipt.RecordID,
		"microscope", s.Microscope(),
		"evaluated_on", s.Date().Format(checklist.DateLayout),
		"experiments", len(receipt.ExperimentIDs),
	)

	if r.metrics != nil {
		r.metrics.Submitted(s.Microscope(), len(receipt.LinkIDs))
	}

	r.archive(ctx, receipt.RecordID, s)
	return receipt, nil
}

func (r *repo) submit(ctx context.Context, s *checklist.Session) (*checklist.Receipt, error) {
	if s.Submitted() {
		return nil, checklist.ErrSubmitted
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	receipt, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*checklist.Receipt, error) {
		return checklist.Write(ctx, NewStore(tx), s)
	})
	if err == nil {
		s.MarkSubmitted()
		return receipt, nil
	}

	if errors.Is(err, checklist.ErrPersistence) {
		r.logger.Error("evaluation rolled back", "error", err)
		return nil, err
	}
	if errors.Is(err, checklist.ErrPrecondition) || errors.Is(err, checklist.ErrSubmitted) {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %w", checklist.ErrPersistence, err)
}

// archive uploads the session's CSV export. Failures are logged and do not
// affect the committed submission.
func (r *repo) archive(ctx context.Context, id uuid.UUID, s *checklist.Session) {
	if r.storage == nil {
		return
	}

	var buf bytes.Buffer
	if err := s.Export(&buf); err != nil {
		r.logger.Warn("evaluation export failed", "id", id, "error", err)
		return
	}

	key := ArchiveKey(id)
	if err := r.storage.Upload(ctx, key, &buf, "text/csv"); err != nil {
		r.logger.Warn("evaluation archive failed", "id", id, "key", key, "error", err)
		return
	}
	r.logger.Info("evaluation archived", "id", id, "key", key)
}

// ArchiveKey is the blob key of a submission's CSV export.
func ArchiveKey(id uuid.UUID) string {
	return fmt.Sprintf("evaluations/%s.csv", id)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Evaluation], error) {
	start := time.Now()
	result, err := r.list(ctx, page, filters)
	r.observe("list", err, time.Since(start))
	return result, err
}

func (r *repo) list(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Evaluation], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Decoder", "Reviewer", "Microscope")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count evaluations: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	evals, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEvaluation)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}

	if err := r.attachExperiments(ctx, evals); err != nil {
		return nil, err
	}

	result := pagination.NewPageResult(evals, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) ListByExperiment(
	ctx context.Context,
	experimentID int,
	page pagination.PageRequest,
) (*pagination.PageResult[Evaluation], error) {
	return r.List(ctx, page, Filters{ExperimentID: &experimentID})
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Evaluation, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	e, err := repository.QueryOne(ctx, r.db, q, args, scanEvaluation)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	evals := []Evaluation{e}
	if err := r.attachExperiments(ctx, evals); err != nil {
		return nil, err
	}

	responses, err := checklist.DecodeResponses(r.catalog, e.Metadata.Questions)
	if err != nil {
		r.logger.Warn("stored answers not in catalog", "id", id, "error", err)
	} else {
		evals[0].Responses = responses
	}
	return &evals[0], nil
}

func (r *repo) attachExperiments(ctx context.Context, evals []Evaluation) error {
	if len(evals) == 0 {
		return nil
	}

	ids := make([]string, len(evals))
	index := make(map[string]int, len(evals))
	for i, e := range evals {
		ids[i] = e.ID.String()
		index[ids[i]] = i
	}

	links, err := repository.QueryMany(ctx, r.db, selectLinks, []any{ids}, scanLink)
	if err != nil {
		return fmt.Errorf("query experiment links: %w", err)
	}

	for _, l := range links {
		if i, ok := index[l.EvaluationID]; ok {
			evals[i].ExperimentIDs = append(evals[i].ExperimentIDs, l.ExperimentID)
		}
	}
	return nil
}

func (r *repo) observe(operation string, err error, elapsed time.Duration) {
	if r.metrics != nil {
		r.metrics.Observe(operation, err, elapsed)
	}
}
