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
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/profile"
)

type ProfileService struct {
	users    UserRepository
	profiles profile.Repository
	conns    connection.Repository
	auditSvc *AuditService
	log      *zap.Logger
	now      clock
}

func NewProfileService(users UserRepository, profiles profile.Repository, conns connection.Repository, auditSvc *AuditService, log *zap.Logger) *ProfileService {
	return &ProfileService{
		users:    users,
		profiles: profiles,
		conns:    conns,
		auditSvc: auditSvc,
		log:      log,
		now:      utcNow,
	}
}

// Me is the calling user together with the profile matching its role.
type Me struct {
	User    *domain.User            `json:"user"`
	Patient *profile.PatientProfile `json:"patient_profile,omitempty"`
	Doctor  *profile.DoctorProfile  `json:"doctor_profile,omitempty"`
}

func (s *ProfileService) Me(ctx context.Context, caller Caller) (*Me, error) {
	u, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	me := &Me{User: u}

	switch u.Role {
	case domain.RolePatient:
		p, err := s.profiles.GetPatient(ctx, u.ID)
		if err == nil {
			p.User = nil
			me.Patient = p
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	case domain.RoleDoctor:
		d, err := s.profiles.GetDoctor(ctx, u.ID)
		if err == nil {
			d.User = nil
			me.Doctor = d
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	return me, nil
}

// CreatePatientProfile attaches a patient profile to a user that registered
// without one. The target user's role must be patient.
func (s *ProfileService) CreatePatientProfile(ctx context.Context, caller Caller, cmd *profile.CreatePatientCommand) (*profile.PatientProfile, error) {
	if cmd.UserID != caller.UserID && !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	u, err := s.users.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	p, errs := newPatientProfile(cmd, s.now())
	if err := validationErr(errs); err != nil {
		return nil, err
	}
	if err := profile.CheckOwner(u, p); err != nil {
		return nil, err
	}
	p.UserID = u.ID

	if err := s.profiles.CreatePatient(ctx, p); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Caller: caller, Action: domain.ActionCreate, ResourceType: "patient_profile", ResourceID: u.ID,
	})
	return p, nil
}

// CreateDoctorProfile is the doctor counterpart of CreatePatientProfile.
func (s *ProfileService) CreateDoctorProfile(ctx context.Context, caller Caller, cmd *profile.CreateDoctorCommand) (*profile.DoctorProfile, error) {
	if cmd.UserID != caller.UserID && !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	u, err := s.users.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	d, errs := newDoctorProfile(cmd)
	if err := validationErr(errs); err != nil {
		return nil, err
	}
	if err := profile.CheckOwner(u, d); err != nil {
		return nil, err
	}
	d.UserID = u.ID

	if err := s.profiles.CreateDoctor(ctx, d); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Caller: caller, Action: domain.ActionCreate, ResourceType: "doctor_profile", ResourceID: u.ID,
	})
	return d, nil
}

// GetPatientProfile is visible to the patient, admins and doctors the
// patient is or was connected to.
func (s *ProfileService) GetPatientProfile(ctx context.Context, caller Caller, userID uuid.UUID) (*profile.PatientProfile, error) {
	if caller.UserID != userID && !caller.IsAdmin() {
		if caller.Role != domain.RoleDoctor {
			return nil, ErrForbidden
		}
		linked, err := s.conns.List(ctx, &connection.ListConnectionsQuery{
			PatientID: &userID,
			DoctorID:  &caller.UserID,
			Page:      domain.Page{Page: 1, PageSize: 1},
		})
		if err != nil {
			return nil, fmt.Errorf("checking connection: %w", err)
		}
		if linked.TotalCount == 0 {
			return nil, ErrForbidden
		}
	}

	p, err := s.profiles.GetPatient(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Caller: caller, Action: domain.ActionRead, ResourceType: "patient_profile", ResourceID: userID,
	})
	return p, nil
}

func (s *ProfileService) GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*profile.DoctorProfile, error) {
	return s.profiles.GetDoctor(ctx, userID)
}

func (s *ProfileService) ListDoctors(ctx context.Context, q *profile.ListDoctorsQuery) (*profile.PagedDoctors, error) {
	return s.profiles.ListDoctors(ctx, q)
}

func (s *ProfileService) VerifyDoctor(ctx context.Context, caller Caller, userID uuid.UUID, verified bool) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	if err := s.profiles.SetDoctorVerified(ctx, userID, verified); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Caller: caller, Action: domain.ActionUpdate, ResourceType: "doctor_profile", ResourceID: userID,
		Changes: fmt.Sprintf(`{"is_verified":%t}`, verified),
	})
	s.log.Info("doctor verification changed",
		zap.String("doctor_id", userID.String()),
		zap.Bool("verified", verified),
	)
	return nil
}

func newPatientProfile(cmd *profile.CreatePatientCommand, now time.Time) (*profile.PatientProfile, []string) {
	var errs []string

	p := &profile.PatientProfile{
		BloodGroup:        profile.BloodGroup(strings.ToUpper(strings.TrimSpace(string(cmd.BloodGroup)))),
		Allergies:         strings.TrimSpace(cmd.Allergies),
		MedicalConditions: strings.TrimSpace(cmd.MedicalConditions),
		EmergencyContact: profile.EmergencyContact{
			Name:         strings.TrimSpace(cmd.EmergencyContact.Name),
			Phone:        strings.TrimSpace(cmd.EmergencyContact.Phone),
			Relationship: strings.TrimSpace(cmd.EmergencyContact.Relationship),
		},
	}
	if !p.BloodGroup.IsValid() {
		errs = append(errs, profile.ErrInvalidBloodType.Error())
	}
	if cmd.DateOfBirth != nil {
		if cmd.DateOfBirth.After(now) {
			errs = append(errs, profile.ErrDateOfBirth.Error())
		}
		dob := datatypes.Date(dateOnly(*cmd.DateOfBirth))
		p.DateOfBirth = &dob
	}
	return p, errs
}

func newDoctorProfile(cmd *profile.CreateDoctorCommand) (*profile.DoctorProfile, []string) {
	var errs []string

	d := &profile.DoctorProfile{
		Specialization:     strings.TrimSpace(cmd.Specialization),
		ClinicHospitalName: strings.TrimSpace(cmd.ClinicHospitalName),
		YearsOfExperience:  cmd.YearsOfExperience,
		ConsultationFee:    cmd.ConsultationFee,
	}
	// An empty license is stored as NULL so it never collides.
	if lic := strings.TrimSpace(cmd.LicenseNumber); lic != "" {
		d.LicenseNumber = &lic
	}
	if d.YearsOfExperience != nil && *d.YearsOfExperience < 0 {
		errs = append(errs, "years_of_experience cannot be negative")
	}
	if d.ConsultationFee != nil && *d.ConsultationFee < 0 {
		errs = append(errs, "consultation_fee cannot be negative")
	}
	return d, errs
}
