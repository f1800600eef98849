package medication

import (
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
)

var (
	ErrMedicationNotFound = fmt.Errorf("%w: medication", domain.ErrNotFound)
	ErrMedicationExists   = fmt.Errorf("%w: a medication with this name already exists", domain.ErrConflict)
	// ErrMedicationInUse protects historical prescriptions.
	ErrMedicationInUse = fmt.Errorf("%w: medication is referenced by prescription items", domain.ErrReferentialIntegrity)
)
