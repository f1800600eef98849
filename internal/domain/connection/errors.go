package connection

import (
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
)

var (
	ErrConnectionNotFound = fmt.Errorf("%w: connection", domain.ErrNotFound)
	ErrConnectionExists   = fmt.Errorf("%w: a connection between this patient and doctor already exists", domain.ErrConflict)
	ErrInvalidTransition  = fmt.Errorf("%w: connection status does not allow this action", domain.ErrInvalidTransition)
	ErrInvalidDecision    = errors.New("decision must be approve or reject")
	ErrInvalidInitiator   = errors.New("initiator must be patient or doctor")
	ErrSelfConnection     = errors.New("a user cannot connect to themselves")
)
