// internal/repository/run_repository.go
package repository

import (
	"context"

	"github.com/replenlab/eoq-engine/internal/domain"
)

// RunRepository stores batch evaluations for history queries. The engine
// itself never touches storage; persistence is strictly a collaborator
// concern and is optional at runtime.
type RunRepository interface {
	SaveRun(ctx context.Context, run *domain.BatchRun) error
	GetRuns(ctx context.Context, limit, offset int) ([]*domain.BatchRun, error)
	GetRun(ctx context.Context, id string) (*domain.BatchRun, error)
}
