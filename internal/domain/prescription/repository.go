package prescription

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create inserts the prescription and its items in one transaction.
	Create(ctx context.Context, p *Prescription) error
	AddItem(ctx context.Context, item *Item) error
	// GetByID preloads items, their medications and the diagnosis chain.
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	ListByDiagnosis(ctx context.Context, diagnosisID uuid.UUID) ([]*Prescription, error)
}
