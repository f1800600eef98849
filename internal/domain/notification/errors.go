package notification

import (
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
)

var (
	ErrNotificationNotFound = fmt.Errorf("%w: notification", domain.ErrNotFound)
	ErrInvalidType          = errors.New("invalid notification type")
	ErrMultipleReferences   = errors.New("a notification may reference at most one of prescription item, diagnosis or connection")
	ErrEmptyMessage         = errors.New("notification message is required")
)
