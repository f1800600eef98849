package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/connection"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/notification"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/events"
	"github.com/dmehra2102/prod-golang-projects/carelink/pkg/metrics"
)

// NotificationService turns domain events into notification rows and serves
// each user's inbox.
type NotificationService struct {
	repo    notification.Repository
	metrics *metrics.Collector
	log     *zap.Logger
	now     clock
}

func NewNotificationService(repo notification.Repository, m *metrics.Collector, log *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, metrics: m, log: log, now: utcNow}
}

// Subscribe registers the fan-out handler on bus.
func (s *NotificationService) Subscribe(bus *events.Bus) {
	bus.Subscribe("notifications", s.Handle)
}

func (s *NotificationService) Handle(ctx context.Context, e events.Event) error {
	switch ev := e.(type) {
	case events.ConnectionStatusChanged:
		return s.onConnectionStatus(ctx, ev)
	case events.DiagnosisAdded:
		return s.create(ctx, &notification.Notification{
			UserID:      ev.PatientID,
			Message:     fmt.Sprintf("%s recorded a new diagnosis for you.", ev.DoctorName),
			Type:        notification.TypeNewDiagnosis,
			NotifyAt:    ev.OccurredAt,
			DiagnosisID: &ev.DiagnosisID,
		})
	case events.PrescriptionAdded:
		for _, item := range ev.Items {
			itemID := item.ItemID
			err := s.create(ctx, &notification.Notification{
				UserID:             ev.PatientID,
				Message:            fmt.Sprintf("New prescription from %s: %s.", ev.DoctorName, item.Summary),
				Type:               notification.TypeNewPrescription,
				NotifyAt:           ev.OccurredAt,
				PrescriptionItemID: &itemID,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// onConnectionStatus notifies the party that did not cause the change.
func (s *NotificationService) onConnectionStatus(ctx context.Context, ev events.ConnectionStatusChanged) error {
	var (
		recipient uuid.UUID
		message   string
	)
	switch ev.To {
	case connection.StatusPending:
		recipient, message = ev.DoctorID, fmt.Sprintf("New connection request from %s.", ev.PatientName)
	case connection.StatusApproved:
		recipient, message = ev.PatientID, fmt.Sprintf("%s accepted your connection request.", ev.DoctorName)
	case connection.StatusRejectedByDoctor:
		recipient, message = ev.PatientID, fmt.Sprintf("%s declined your connection request.", ev.DoctorName)
	case connection.StatusTerminatedByPatient:
		recipient, message = ev.DoctorID, fmt.Sprintf("%s ended the connection.", ev.PatientName)
	case connection.StatusTerminatedByDoctor:
		recipient, message = ev.PatientID, fmt.Sprintf("%s ended the connection.", ev.DoctorName)
	default:
		return fmt.Errorf("unexpected connection status %q", ev.To)
	}

	return s.create(ctx, &notification.Notification{
		UserID:       recipient,
		Message:      message,
		Type:         notification.TypeConnectionRequest,
		NotifyAt:     ev.OccurredAt,
		ConnectionID: &ev.ConnectionID,
	})
}

func (s *NotificationService) create(ctx context.Context, n *notification.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
	}
	return nil
}

// CreateNotification lets an admin send a notice to any user.
func (s *NotificationService) CreateNotification(ctx context.Context, caller Caller, cmd *notification.CreateNotificationCommand) (*notification.Notification, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}

	n := &notification.Notification{
		UserID:   cmd.UserID,
		Message:  strings.TrimSpace(cmd.Message),
		Type:     cmd.Type,
		NotifyAt: s.now(),
	}
	if n.Type == "" {
		n.Type = notification.TypeGeneralUpdate
	}
	if cmd.NotifyAt != nil {
		n.NotifyAt = *cmd.NotifyAt
	}

	var errs []string
	if n.UserID == uuid.Nil {
		errs = append(errs, "user_id is required")
	}
	if err := n.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validationErr(errs); err != nil {
		return nil, err
	}

	if err := s.create(ctx, n); err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}
	return n, nil
}

// ListNotifications always lists the caller's own inbox.
func (s *NotificationService) ListNotifications(ctx context.Context, caller Caller, q *notification.ListNotificationsQuery) (*notification.PagedNotifications, error) {
	q.UserID = caller.UserID
	if q.Type != nil && !q.Type.IsValid() {
		return nil, &ValidationError{Fields: []string{notification.ErrInvalidType.Error()}}
	}
	return s.repo.List(ctx, q)
}

func (s *NotificationService) MarkRead(ctx context.Context, caller Caller, id uuid.UUID) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != caller.UserID {
		// Hide other users' notifications entirely.
		return notification.ErrNotificationNotFound
	}
	if n.IsRead {
		return nil
	}
	return s.repo.MarkRead(ctx, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, caller Caller) (int64, error) {
	return s.repo.MarkAllRead(ctx, caller.UserID)
}
