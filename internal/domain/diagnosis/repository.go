package diagnosis

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Diagnosis) error
	// GetByID preloads the owning connection. Returns ErrDiagnosisNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*Diagnosis, error)
	List(ctx context.Context, q *ListDiagnosesQuery) (*PagedDiagnoses, error)
}
