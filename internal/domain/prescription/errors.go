package prescription

import (
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
)

var (
	ErrPrescriptionNotFound = fmt.Errorf("%w: prescription", domain.ErrNotFound)
	ErrPrescriptionInactive = fmt.Errorf("%w: prescription is no longer active", domain.ErrInvalidTransition)
	ErrInvalidDurationUnit  = errors.New("duration unit must be days, weeks, months or indefinite")
	ErrNegativeDuration     = errors.New("duration value cannot be negative")
	ErrCourseTooLong        = fmt.Errorf("course cannot exceed %d days", MaxCourseDays)
	ErrEndDateOutOfRange    = errors.New("end date must fall before the year 10000")
	ErrInvalidRoute         = errors.New("invalid route of administration")
	ErrEndBeforeStart       = errors.New("end date cannot be before start date")
)
