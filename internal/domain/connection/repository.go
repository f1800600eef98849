package connection

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new request. Returns ErrConnectionExists when the
	// (patient, doctor) pair is already taken; the check and the insert are
	// atomic.
	Create(ctx context.Context, c *Connection) error

	// GetByID returns ErrConnectionNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Connection, error)

	// UpdateStatus writes status and timestamps only if the stored status
	// still equals from. Returns ErrInvalidTransition when another request
	// won the race.
	UpdateStatus(ctx context.Context, c *Connection, from Status) error

	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	List(ctx context.Context, q *ListConnectionsQuery) (*PagedConnections, error)
}
