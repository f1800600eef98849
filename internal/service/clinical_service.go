package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/connection"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/diagnosis"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/medication"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/prescription"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/events"
	"github.com/dmehra2102/prod-golang-projects/carelink/pkg/metrics"
)

// ClinicalService owns the diagnosis → prescription → item chain. Records
// are written by the doctor of an approved connection and readable by both
// parties and admins.
type ClinicalService struct {
	conns         connection.Repository
	diagnoses     diagnosis.Repository
	prescriptions prescription.Repository
	medications   medication.Repository
	bus           Publisher
	auditSvc      *AuditService
	metrics       *metrics.Collector
	log           *zap.Logger
	now           clock
}

func NewClinicalService(
	conns connection.Repository,
	diagnoses diagnosis.Repository,
	prescriptions prescription.Repository,
	medications medication.Repository,
	bus Publisher,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *ClinicalService {
	return &ClinicalService{
		conns:         conns,
		diagnoses:     diagnoses,
		prescriptions: prescriptions,
		medications:   medications,
		bus:           bus,
		auditSvc:      auditSvc,
		metrics:       m,
		log:           log,
		now:           utcNow,
	}
}

func (s *ClinicalService) AddDiagnosis(ctx context.Context, caller Caller, cmd *diagnosis.CreateDiagnosisCommand) (*diagnosis.Diagnosis, error) {
	if strings.TrimSpace(cmd.Details) == "" {
		return nil, &ValidationError{Fields: []string{"diagnosis_details is required"}}
	}

	c, err := s.conns.GetByID(ctx, cmd.ConnectionID)
	if err != nil {
		return nil, err
	}
	if c.DoctorID != caller.UserID {
		return nil, ErrForbidden
	}
	if !c.IsApproved() {
		return nil, diagnosis.ErrConnectionNotApproved
	}

	now := s.now()
	d := &diagnosis.Diagnosis{
		ConnectionID:  c.ID,
		RecordedAt:    now,
		Symptoms:      strings.TrimSpace(cmd.Symptoms),
		Details:       strings.TrimSpace(cmd.Details),
		TreatmentPlan: strings.TrimSpace(cmd.TreatmentPlan),
	}
	if cmd.RecordedAt != nil {
		d.RecordedAt = *cmd.RecordedAt
	}
	if cmd.FollowUpDate != nil {
		f := datatypes.Date(dateOnly(*cmd.FollowUpDate))
		d.FollowUpDate = &f
	}

	if err := s.diagnoses.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("recording diagnosis: %w", err)
	}
	if err := s.conns.Touch(ctx, c.ID, now); err != nil {
		s.log.Warn("failed to update connection interaction time",
			zap.String("connection_id", c.ID.String()),
			zap.Error(err),
		)
	}

	if s.metrics != nil {
		s.metrics.DiagnosesRecorded.Inc()
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		Caller: caller, Action: domain.ActionCreate, ResourceType: "diagnosis", ResourceID: d.ID,
	})
	s.bus.Publish(ctx, events.DiagnosisAdded{
		DiagnosisID:  d.ID,
		ConnectionID: c.ID,
		PatientID:    c.PatientID,
		DoctorID:     c.DoctorID,
		DoctorName:   doctorName(c.Doctor),
		OccurredAt:   now,
	})

	return d, nil
}

func (s *ClinicalService) GetDiagnosis(ctx context.Context, caller Caller, id uuid.UUID) (*diagnosis.Diagnosis, error) {
	d, err := s.diagnoses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canRead(caller, d.Connection) {
		return nil, ErrForbidden
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Caller: caller, Action: domain.ActionRead, ResourceType: "diagnosis", ResourceID: id,
	})
	return d, nil
}

func (s *ClinicalService) ListDiagnoses(ctx context.Context, caller Caller, connectionID uuid.UUID, page domain.Page) (*diagnosis.PagedDiagnoses, error) {
	c, err := s.conns.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if !canRead(caller, c) {
		return nil, ErrForbidden
	}
	return s.diagnoses.List(ctx, &diagnosis.ListDiagnosesQuery{ConnectionID: &c.ID, Page: page})
}

// IssuePrescription writes a prescription and its items atomically. End
// dates are derived on save for items that carry a duration.
func (s *ClinicalService) IssuePrescription(ctx context.Context, caller Caller, cmd *prescription.CreatePrescriptionCommand) (*prescription.Prescription, error) {
	d, err := s.diagnoses.GetByID(ctx, cmd.DiagnosisID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(caller, d.Connection); err != nil {
		return nil, err
	}

	now := s.now()
	p := &prescription.Prescription{
		DiagnosisID:     d.ID,
		PrescribedAt:    now,
		NotesForPatient: strings.TrimSpace(cmd.NotesForPatient),
		IsActive:        true,
	}
	if cmd.PrescribedAt != nil {
		p.PrescribedAt = *cmd.PrescribedAt
	}

	var errs []string
	meds := make([]*medication.Medication, len(cmd.Items))
	for i, in := range cmd.Items {
		med, fieldErrs, err := s.checkItem(ctx, fmt.Sprintf("items[%d].", i), in)
		if err != nil {
			return nil, err
		}
		errs = append(errs, fieldErrs...)
		meds[i] = med
		p.Items = append(p.Items, buildItem(in, p.PrescribedAt))
	}
	if err := validationErr(errs); err != nil {
		return nil, err
	}

	if err := s.prescriptions.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("issuing prescription: %w", err)
	}
	for i := range p.Items {
		p.Items[i].Medication = meds[i]
	}

	if s.metrics != nil {
		s.metrics.PrescriptionsIssued.Inc()
		s.metrics.PrescriptionItems.Add(float64(len(p.Items)))
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		Caller: caller, Action: domain.ActionCreate, ResourceType: "prescription", ResourceID: p.ID,
	})
	s.publishItems(ctx, p, d.Connection, p.Items)

	return p, nil
}

// AddPrescriptionItem appends one line to an active prescription.
func (s *ClinicalService) AddPrescriptionItem(ctx context.Context, caller Caller, prescriptionID uuid.UUID, in prescription.ItemInput) (*prescription.Item, error) {
	p, err := s.prescriptions.GetByID(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}
	c := connectionOf(p)
	if err := s.authorizeWrite(caller, c); err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, prescription.ErrPrescriptionInactive
	}

	med, errs, err := s.checkItem(ctx, "", in)
	if err != nil {
		return nil, err
	}
	if err := validationErr(errs); err != nil {
		return nil, err
	}

	item := buildItem(in, s.now())
	item.PrescriptionID = p.ID
	if err := s.prescriptions.AddItem(ctx, &item); err != nil {
		return nil, fmt.Errorf("adding prescription item: %w", err)
	}
	item.Medication = med

	if s.metrics != nil {
		s.metrics.PrescriptionItems.Inc()
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		Caller: caller, Action: domain.ActionUpdate, ResourceType: "prescription", ResourceID: p.ID,
		Changes: fmt.Sprintf(`{"item_added":%q}`, item.ID),
	})
	s.publishItems(ctx, p, c, []prescription.Item{item})

	return &item, nil
}

func (s *ClinicalService) DeactivatePrescription(ctx context.Context, caller Caller, id uuid.UUID) (*prescription.Prescription, error) {
	p, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c := connectionOf(p); c == nil || (c.DoctorID != caller.UserID && !caller.IsAdmin()) {
		return nil, ErrForbidden
	}
	if !p.IsActive {
		return nil, prescription.ErrPrescriptionInactive
	}

	if err := s.prescriptions.SetActive(ctx, id, false); err != nil {
		return nil, err
	}
	p.IsActive = false

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Caller: caller, Action: domain.ActionUpdate, ResourceType: "prescription", ResourceID: id,
		Changes: `{"is_active":false}`,
	})
	return p, nil
}

func (s *ClinicalService) GetPrescription(ctx context.Context, caller Caller, id uuid.UUID) (*prescription.Prescription, error) {
	p, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canRead(caller, connectionOf(p)) {
		return nil, ErrForbidden
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Caller: caller, Action: domain.ActionRead, ResourceType: "prescription", ResourceID: id,
	})
	return p, nil
}

func (s *ClinicalService) ListPrescriptions(ctx context.Context, caller Caller, diagnosisID uuid.UUID) ([]*prescription.Prescription, error) {
	d, err := s.diagnoses.GetByID(ctx, diagnosisID)
	if err != nil {
		return nil, err
	}
	if !canRead(caller, d.Connection) {
		return nil, ErrForbidden
	}
	return s.prescriptions.ListByDiagnosis(ctx, diagnosisID)
}

// authorizeWrite allows only the connection's doctor, and only while the
// connection is approved.
func (s *ClinicalService) authorizeWrite(caller Caller, c *connection.Connection) error {
	if c == nil || c.DoctorID != caller.UserID {
		return ErrForbidden
	}
	if !c.IsApproved() {
		return diagnosis.ErrConnectionNotApproved
	}
	return nil
}

func connectionOf(p *prescription.Prescription) *connection.Connection {
	if p.Diagnosis == nil {
		return nil
	}
	return p.Diagnosis.Connection
}

func canRead(caller Caller, c *connection.Connection) bool {
	if caller.IsAdmin() {
		return true
	}
	return c != nil && c.IsParty(caller.UserID)
}

// checkItem returns field errors prefixed with prefix. A non-nil error is
// an infrastructure failure.
func (s *ClinicalService) checkItem(ctx context.Context, prefix string, in prescription.ItemInput) (*medication.Medication, []string, error) {
	var errs []string

	if strings.TrimSpace(in.Dosage) == "" {
		errs = append(errs, prefix+"dosage is required")
	}
	if strings.TrimSpace(in.Frequency) == "" {
		errs = append(errs, prefix+"frequency is required")
	}
	if !in.Route.IsValid() {
		errs = append(errs, prefix+prescription.ErrInvalidRoute.Error())
	}
	if in.DurationUnit != nil && !in.DurationUnit.IsValid() {
		errs = append(errs, prefix+prescription.ErrInvalidDurationUnit.Error())
	}
	if in.DurationValue != nil && *in.DurationValue < 0 {
		errs = append(errs, prefix+prescription.ErrNegativeDuration.Error())
	} else if in.DurationValue != nil && in.DurationUnit != nil && *in.DurationUnit != prescription.UnitIndefinite && in.DurationUnit.IsValid() {
		if _, ok := prescription.CourseDays(*in.DurationValue, *in.DurationUnit); !ok {
			errs = append(errs, prefix+prescription.ErrCourseTooLong.Error())
		} else if in.StartDate != nil && in.EndDate == nil {
			if end := prescription.DeriveEndDate(*in.StartDate, in.DurationValue, in.DurationUnit); end != nil && end.Year() > 9999 {
				errs = append(errs, prefix+prescription.ErrEndDateOutOfRange.Error())
			}
		}
	}
	if in.RefillsAllowed < 0 {
		errs = append(errs, prefix+"refills_allowed cannot be negative")
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		errs = append(errs, prefix+prescription.ErrEndBeforeStart.Error())
	}

	if in.MedicationID == uuid.Nil {
		return nil, append(errs, prefix+"medication_id is required"), nil
	}
	med, err := s.medications.GetByID(ctx, in.MedicationID)
	if err != nil {
		if errors.Is(err, medication.ErrMedicationNotFound) {
			return nil, append(errs, prefix+"medication_id does not exist"), nil
		}
		return nil, nil, err
	}
	return med, errs, nil
}

func buildItem(in prescription.ItemInput, defaultStart time.Time) prescription.Item {
	start := defaultStart
	if in.StartDate != nil {
		start = *in.StartDate
	}
	item := prescription.Item{
		MedicationID:   in.MedicationID,
		Dosage:         strings.TrimSpace(in.Dosage),
		Route:          in.Route,
		Frequency:      strings.TrimSpace(in.Frequency),
		DurationValue:  in.DurationValue,
		DurationUnit:   in.DurationUnit,
		StartDate:      datatypes.Date(dateOnly(start)),
		Instructions:   strings.TrimSpace(in.Instructions),
		RefillsAllowed: in.RefillsAllowed,
	}
	if in.EndDate != nil {
		end := datatypes.Date(dateOnly(*in.EndDate))
		item.EndDate = &end
	}
	return item
}

// dateOnly drops the clock part, keeping the calendar day in UTC.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *ClinicalService) publishItems(ctx context.Context, p *prescription.Prescription, c *connection.Connection, items []prescription.Item) {
	if len(items) == 0 {
		return
	}
	e := events.PrescriptionAdded{
		PrescriptionID: p.ID,
		DiagnosisID:    p.DiagnosisID,
		ConnectionID:   c.ID,
		PatientID:      c.PatientID,
		DoctorID:       c.DoctorID,
		DoctorName:     doctorName(c.Doctor),
		OccurredAt:     s.now(),
	}
	for i := range items {
		e.Items = append(e.Items, events.PrescribedItem{ItemID: items[i].ID, Summary: items[i].Summary()})
	}
	s.bus.Publish(ctx, e)
}
