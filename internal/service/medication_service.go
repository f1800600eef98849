package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/medication"
)

// MedicationService maintains the shared medication list. Doctors and admins
// may add entries; only admins edit or delete them.
type MedicationService struct {
	repo     medication.Repository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewMedicationService(repo medication.Repository, auditSvc *AuditService, log *zap.Logger) *MedicationService {
	return &MedicationService{repo: repo, auditSvc: auditSvc, log: log}
}

func (s *MedicationService) CreateMedication(ctx context.Context, caller Caller, cmd *medication.CreateMedicationCommand) (*medication.Medication, error) {
	if caller.Role != domain.RoleDoctor && !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(cmd.Name) == "" {
		return nil, &ValidationError{Fields: []string{"name is required"}}
	}

	m := &medication.Medication{
		Name:         strings.TrimSpace(cmd.Name),
		GenericName:  strings.TrimSpace(cmd.GenericName),
		Manufacturer: strings.TrimSpace(cmd.Manufacturer),
		Category:     strings.TrimSpace(cmd.Category),
		Description:  strings.TrimSpace(cmd.Description),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Caller: caller, Action: domain.ActionCreate, ResourceType: "medication", ResourceID: m.ID,
	})
	s.log.Info("medication added", zap.String("medication_id", m.ID.String()), zap.String("name", m.Name))

	return m, nil
}

func (s *MedicationService) GetMedication(ctx context.Context, id uuid.UUID) (*medication.Medication, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *MedicationService) ListMedications(ctx context.Context, q *medication.ListMedicationsQuery) (*medication.PagedMedications, error) {
	return s.repo.List(ctx, q)
}

func (s *MedicationService) UpdateMedication(ctx context.Context, caller Caller, id uuid.UUID, cmd *medication.UpdateMedicationCommand) (*medication.Medication, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	if cmd.Name != nil {
		name := strings.TrimSpace(*cmd.Name)
		if name == "" {
			return nil, &ValidationError{Fields: []string{"name cannot be empty"}}
		}
		cmd.Name = &name
	}

	m, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Caller: caller, Action: domain.ActionUpdate, ResourceType: "medication", ResourceID: id,
	})
	return m, nil
}

// DeleteMedication fails with medication.ErrMedicationInUse while any
// prescription item references the entry.
func (s *MedicationService) DeleteMedication(ctx context.Context, caller Caller, id uuid.UUID) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting medication %s: %w", id, err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Caller: caller, Action: domain.ActionDelete, ResourceType: "medication", ResourceID: id,
	})
	return nil
}
