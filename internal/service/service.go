package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/events"
)

// Caller identifies the authenticated user behind a request.
type Caller struct {
	UserID    uuid.UUID
	Role      domain.Role
	IP        string
	RequestID string
}

func (c Caller) IsAdmin() bool {
	return c.Role == domain.RoleAdmin
}

// Publisher receives domain events after the write that produced them.
type Publisher interface {
	Publish(ctx context.Context, e events.Event)
}

type clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}
