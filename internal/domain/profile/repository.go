package profile

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreatePatient(ctx context.Context, p *PatientProfile) error
	CreateDoctor(ctx context.Context, d *DoctorProfile) error

	// GetPatient and GetDoctor return ErrProfileNotFound when absent.
	GetPatient(ctx context.Context, userID uuid.UUID) (*PatientProfile, error)
	GetDoctor(ctx context.Context, userID uuid.UUID) (*DoctorProfile, error)

	SetDoctorVerified(ctx context.Context, userID uuid.UUID, verified bool) error
	ListDoctors(ctx context.Context, q *ListDoctorsQuery) (*PagedDoctors, error)
}
