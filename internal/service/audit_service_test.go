package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
)

type recordingAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (r *recordingAuditRepo) Create(_ context.Context, e *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *recordingAuditRepo) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func TestAuditLogAfterShutdown(t *testing.T) {
	repo := &recordingAuditRepo{}
	svc := NewAuditService(repo, zap.NewNop(), nil)
	ctx := context.Background()
	entry := AuditEntry{
		Caller:       Caller{UserID: uuid.New(), Role: domain.RoleDoctor},
		Action:       domain.ActionCreate,
		ResourceType: "diagnosis",
		ResourceID:   uuid.New(),
	}

	svc.LogAsync(ctx, entry)
	svc.Shutdown()
	if got := repo.len(); got != 1 {
		t.Fatalf("persisted %d entries before shutdown, want 1", got)
	}

	// A handler still running after the server gave up waiting.
	svc.LogAsync(ctx, entry)
	svc.Shutdown()
	if got := repo.len(); got != 1 {
		t.Errorf("persisted %d entries, want late entry dropped", got)
	}
}
