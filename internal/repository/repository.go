// Package repository holds the gorm implementations of the domain
// repositories. Every method is safe to call inside or outside a transaction.
package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
)

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// paginate applies offset/limit for a normalised page.
func paginate(q *gorm.DB, p domain.Page) *gorm.DB {
	n := p.Normalize()
	return q.Offset(n.Offset()).Limit(n.PageSize)
}

// Repos is the set of repositories bound to one *gorm.DB.
type Repos struct {
	Users         *UserRepository
	Profiles      *ProfileRepository
	Connections   *ConnectionRepository
	Diagnoses     *DiagnosisRepository
	Medications   *MedicationRepository
	Prescriptions *PrescriptionRepository
	Notifications *NotificationRepository
	Audit         *AuditRepository
}

func New(db *gorm.DB) *Repos {
	return &Repos{
		Users:         NewUserRepository(db),
		Profiles:      NewProfileRepository(db),
		Connections:   NewConnectionRepository(db),
		Diagnoses:     NewDiagnosisRepository(db),
		Medications:   NewMedicationRepository(db),
		Prescriptions: NewPrescriptionRepository(db),
		Notifications: NewNotificationRepository(db),
		Audit:         NewAuditRepository(db),
	}
}
