package evaluations

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/scopecheck/internal/checklist"
	"github.com/JaimeStill/scopecheck/pkg/pagination"
)

// System defines the public contract for evaluation domain operations.
type System interface {
	Handler(maxBodySize int64) *Handler

	// Submit persists the session's record and experiment links in one
	// transaction. Precondition failures return before any write.
	Submit(ctx context.Context, s *checklist.Session) (*checklist.Receipt, error)

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Evaluation], error)

	ListByExperiment(
		ctx context.Context,
		experimentID int,
		page pagination.PageRequest,
	) (*pagination.PageResult[Evaluation], error)

	Find(ctx context.Context, id uuid.UUID) (*Evaluation, error)
}
