package medication

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create returns ErrMedicationExists on a duplicate name.
	Create(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medication, error)
	Update(ctx context.Context, id uuid.UUID, cmd *UpdateMedicationCommand) (*Medication, error)
	// Delete returns ErrMedicationInUse while any prescription item
	// references the medication.
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q *ListMedicationsQuery) (*PagedMedications, error)
}
