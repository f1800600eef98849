package profile

import (
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
)

var (
	ErrProfileNotFound  = fmt.Errorf("%w: profile", domain.ErrNotFound)
	ErrProfileExists    = fmt.Errorf("%w: profile already exists for this user", domain.ErrConflict)
	ErrLicenseTaken     = fmt.Errorf("%w: medical license number already registered", domain.ErrConflict)
	ErrRoleMismatch     = errors.New("profile type does not match the user's role")
	ErrInvalidBloodType = errors.New("invalid blood group")
	ErrDateOfBirth      = errors.New("date of birth cannot be in the future")
)
