package notification

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	// MarkAllRead returns the number of notifications changed.
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	List(ctx context.Context, q *ListNotificationsQuery) (*PagedNotifications, error)
}
