package profile

import (
	"errors"
	"testing"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
)

func TestCheckOwner(t *testing.T) {
	patient := &domain.User{Role: domain.RolePatient}
	doctor := &domain.User{Role: domain.RoleDoctor}
	admin := &domain.User{Role: domain.RoleAdmin}

	tests := []struct {
		name    string
		user    *domain.User
		profile any
		want    error
	}{
		{"patient profile for patient", patient, &PatientProfile{}, nil},
		{"doctor profile for doctor", doctor, &DoctorProfile{}, nil},
		{"doctor profile for patient", patient, &DoctorProfile{}, ErrRoleMismatch},
		{"patient profile for doctor", doctor, &PatientProfile{}, ErrRoleMismatch},
		{"any profile for admin", admin, &PatientProfile{}, ErrRoleMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := CheckOwner(tt.user, tt.profile); !errors.Is(err, tt.want) {
				t.Errorf("CheckOwner() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBloodGroupIsValid(t *testing.T) {
	for _, b := range []BloodGroup{"", BloodGroupAPos, BloodGroupONeg, BloodGroupABPos} {
		if !b.IsValid() {
			t.Errorf("%q should be valid", b)
		}
	}
	if BloodGroup("C+").IsValid() {
		t.Error(`"C+" should be invalid`)
	}
}
