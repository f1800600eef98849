package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/connection"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/profile"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/events"
	"github.com/dmehra2102/prod-golang-projects/carelink/pkg/metrics"
)

type ConnectionService struct {
	repo     connection.Repository
	profiles profile.Repository
	bus      Publisher
	auditSvc *AuditService
	metrics  *metrics.Collector
	log      *zap.Logger
	now      clock
}

func NewConnectionService(
	repo connection.Repository,
	profiles profile.Repository,
	bus Publisher,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *ConnectionService {
	return &ConnectionService{
		repo:     repo,
		profiles: profiles,
		bus:      bus,
		auditSvc: auditSvc,
		metrics:  m,
		log:      log,
		now:      utcNow,
	}
}

// RequestConnection opens a pending request from the calling patient to
// doctorID.
func (s *ConnectionService) RequestConnection(ctx context.Context, caller Caller, doctorID uuid.UUID) (*connection.Connection, error) {
	if caller.Role != domain.RolePatient {
		return nil, ErrForbidden
	}

	patient, err := s.profiles.GetPatient(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("loading patient profile: %w", err)
	}
	doctor, err := s.profiles.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("loading doctor profile: %w", err)
	}

	c, err := connection.New(patient.UserID, doctor.UserID, s.now())
	if err != nil {
		return nil, &ValidationError{Fields: []string{err.Error()}}
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	c.Patient, c.Doctor = patient, doctor

	s.afterTransition(ctx, caller, c, "", domain.ActionCreate)

	s.log.Info("connection requested",
		zap.String("connection_id", c.ID.String()),
		zap.String("patient_id", c.PatientID.String()),
		zap.String("doctor_id", c.DoctorID.String()),
	)

	return c, nil
}

// Respond records the doctor's decision on a pending request. Only the
// addressed doctor or an admin may answer.
func (s *ConnectionService) Respond(ctx context.Context, caller Caller, id uuid.UUID, decision connection.Decision) (*connection.Connection, error) {
	if decision != connection.DecisionApprove && decision != connection.DecisionReject {
		return nil, &ValidationError{Fields: []string{connection.ErrInvalidDecision.Error()}}
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.DoctorID != caller.UserID && !caller.IsAdmin() {
		return nil, ErrForbidden
	}

	from := c.Status
	if err := c.Respond(decision, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, c, from); err != nil {
		return nil, err
	}

	s.afterTransition(ctx, caller, c, from, domain.ActionUpdate)
	return c, nil
}

// Terminate ends an approved connection. An empty initiator is taken from
// the caller's side of the connection; admins must name one.
func (s *ConnectionService) Terminate(ctx context.Context, caller Caller, id uuid.UUID, initiator connection.Initiator) (*connection.Connection, error) {
	switch initiator {
	case "", connection.InitiatorPatient, connection.InitiatorDoctor:
	default:
		return nil, &ValidationError{Fields: []string{connection.ErrInvalidInitiator.Error()}}
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var side connection.Initiator
	switch caller.UserID {
	case c.PatientID:
		side = connection.InitiatorPatient
	case c.DoctorID:
		side = connection.InitiatorDoctor
	}

	switch {
	case side == "" && !caller.IsAdmin():
		return nil, ErrForbidden
	case initiator == "":
		if side == "" {
			return nil, &ValidationError{Fields: []string{"initiator is required"}}
		}
		initiator = side
	case side != "" && initiator != side:
		return nil, ErrForbidden
	}

	from := c.Status
	if err := c.Terminate(initiator, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, c, from); err != nil {
		return nil, err
	}

	s.afterTransition(ctx, caller, c, from, domain.ActionUpdate)
	return c, nil
}

func (s *ConnectionService) GetConnection(ctx context.Context, caller Caller, id uuid.UUID) (*connection.Connection, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.IsParty(caller.UserID) && !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	return c, nil
}

// ListConnections scopes patients and doctors to their own connections.
func (s *ConnectionService) ListConnections(ctx context.Context, caller Caller, q *connection.ListConnectionsQuery) (*connection.PagedConnections, error) {
	switch caller.Role {
	case domain.RolePatient:
		q.PatientID = &caller.UserID
	case domain.RoleDoctor:
		q.DoctorID = &caller.UserID
	}
	if q.Status != nil && !q.Status.IsValid() {
		return nil, &ValidationError{Fields: []string{"status is invalid"}}
	}
	return s.repo.List(ctx, q)
}

func (s *ConnectionService) afterTransition(ctx context.Context, caller Caller, c *connection.Connection, from connection.Status, action domain.AuditAction) {
	if s.metrics != nil {
		s.metrics.ConnectionTransitions.WithLabelValues(string(c.Status)).Inc()
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Caller:       caller,
		Action:       action,
		ResourceType: "connection",
		ResourceID:   c.ID,
		Changes:      fmt.Sprintf(`{"from":%q,"to":%q}`, from, c.Status),
	})

	s.bus.Publish(ctx, events.ConnectionStatusChanged{
		ConnectionID: c.ID,
		PatientID:    c.PatientID,
		DoctorID:     c.DoctorID,
		PatientName:  patientName(c.Patient),
		DoctorName:   doctorName(c.Doctor),
		From:         from,
		To:           c.Status,
		OccurredAt:   s.now(),
	})
}

func patientName(p *profile.PatientProfile) string {
	if p == nil || p.User == nil {
		return "your patient"
	}
	return p.User.DisplayName()
}

func doctorName(d *profile.DoctorProfile) string {
	if d == nil || d.User == nil {
		return "your doctor"
	}
	return "Dr. " + d.User.DisplayName()
}
