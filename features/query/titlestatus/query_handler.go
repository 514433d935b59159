package titlestatus

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/openshelf/circulate/circulation"
)

// Store defines the interface needed by the QueryHandler for record store
// operations.
type Store interface {
	LoadTitleContext(ctx context.Context, titleID uuid.UUID, holderID uuid.UUID, asOf time.Time) (circulation.TitleContext, error)
}

// QueryHandler orchestrates the complete query processing workflow.
// It handles record store interactions and delegates projection logic to the
// pure core function.
type QueryHandler struct {
	store Store
}

// NewQueryHandler creates a new QueryHandler with the provided Store dependency.
func NewQueryHandler(store Store) QueryHandler {
	return QueryHandler{
		store: store,
	}
}

// Handle executes the complete query processing workflow: Load -> Project.
func (h QueryHandler) Handle(ctx context.Context, query Query) (TitleStatus, error) {
	asOf := query.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	snapshot, loadErr := h.store.LoadTitleContext(ctx, query.TitleID, uuid.Nil, asOf)
	if loadErr != nil {
		return TitleStatus{}, loadErr
	}

	return Project(snapshot, BuildQuery(query.TitleID, asOf)), nil
}
