package diagnosis

import (
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
)

var (
	ErrDiagnosisNotFound     = fmt.Errorf("%w: diagnosis", domain.ErrNotFound)
	ErrConnectionNotApproved = fmt.Errorf("%w: diagnoses can only be recorded on an approved connection", domain.ErrInvalidTransition)
)
