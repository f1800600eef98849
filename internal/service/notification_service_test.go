package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/connection"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/notification"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/events"
)

func TestHandleConnectionStatusRecipients(t *testing.T) {
	env := newTestEnv(t)
	patient := env.register(t, "pat@example.com", domain.RolePatient)
	doctor := env.register(t, "doc@example.com", domain.RoleDoctor)
	c, err := env.conns.RequestConnection(context.Background(), patient, doctor.UserID)
	if err != nil {
		t.Fatalf("RequestConnection: %v", err)
	}

	tests := []struct {
		to   connection.Status
		want Caller
	}{
		{connection.StatusPending, doctor},
		{connection.StatusApproved, patient},
		{connection.StatusRejectedByDoctor, patient},
		{connection.StatusTerminatedByPatient, doctor},
		{connection.StatusTerminatedByDoctor, patient},
	}
	for _, tt := range tests {
		t.Run(string(tt.to), func(t *testing.T) {
			before := len(env.inbox(t, tt.want))
			err := env.notes.Handle(context.Background(), events.ConnectionStatusChanged{
				ConnectionID: c.ID,
				PatientID:    patient.UserID,
				DoctorID:     doctor.UserID,
				PatientName:  "Pat",
				DoctorName:   "Dr. Doc",
				To:           tt.to,
				OccurredAt:   testNow,
			})
			if err != nil {
				t.Fatalf("Handle: %v", err)
			}
			if got := len(env.inbox(t, tt.want)); got != before+1 {
				t.Errorf("recipient inbox grew by %d, want 1", got-before)
			}
		})
	}
}

func TestInbox(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	patient := env.register(t, "pat@example.com", domain.RolePatient)
	other := env.register(t, "other@example.com", domain.RolePatient)
	admin := env.register(t, "admin@example.com", domain.RoleAdmin)

	if _, err := env.notes.CreateNotification(ctx, patient, &notification.CreateNotificationCommand{UserID: patient.UserID, Message: "hi"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-admin create: got %v, want ErrForbidden", err)
	}
	var ve *ValidationError
	if _, err := env.notes.CreateNotification(ctx, admin, &notification.CreateNotificationCommand{UserID: patient.UserID}); !errors.As(err, &ve) {
		t.Fatalf("empty message: got %v, want ValidationError", err)
	}

	var ids []uuid.UUID
	for _, msg := range []string{"clinic closed monday", "new portal features"} {
		n, err := env.notes.CreateNotification(ctx, admin, &notification.CreateNotificationCommand{UserID: patient.UserID, Message: msg})
		if err != nil {
			t.Fatalf("CreateNotification: %v", err)
		}
		if n.Type != notification.TypeGeneralUpdate {
			t.Errorf("type = %q, want general_update", n.Type)
		}
		ids = append(ids, n.ID)
	}

	if err := env.notes.MarkRead(ctx, other, ids[0]); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("foreign MarkRead: got %v, want not found", err)
	}
	if err := env.notes.MarkRead(ctx, patient, ids[0]); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	// Marking twice is a no-op.
	if err := env.notes.MarkRead(ctx, patient, ids[0]); err != nil {
		t.Fatalf("MarkRead again: %v", err)
	}

	page, err := env.notes.ListNotifications(ctx, patient, &notification.ListNotificationsQuery{UnreadOnly: true})
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if page.TotalCount != 1 || page.UnreadCount != 1 {
		t.Errorf("unread list: total=%d unread=%d, want 1/1", page.TotalCount, page.UnreadCount)
	}

	n, err := env.notes.MarkAllRead(ctx, patient)
	if err != nil || n != 1 {
		t.Errorf("MarkAllRead = %d, %v; want 1", n, err)
	}
	if len(env.inbox(t, other)) != 0 {
		t.Error("other user's inbox should be empty")
	}
}
