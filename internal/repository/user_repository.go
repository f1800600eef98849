package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/connection"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/diagnosis"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/notification"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/prescription"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/profile"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateWithProfile inserts the user and, when p is non-nil, its profile in
// one transaction. p must be a *profile.PatientProfile or *profile.DoctorProfile.
func (r *UserRepository) CreateWithProfile(ctx context.Context, u *domain.User, p any) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(u).Error; err != nil {
			if isDuplicate(err) {
				return domain.ErrEmailTaken
			}
			return fmt.Errorf("creating user: %w", err)
		}

		profiles := NewProfileRepository(tx)
		switch v := p.(type) {
		case nil:
			return nil
		case *profile.PatientProfile:
			v.UserID = u.ID
			return profiles.CreatePatient(ctx, v)
		case *profile.DoctorProfile:
			v.UserID = u.ID
			return profiles.CreateDoctor(ctx, v)
		default:
			return fmt.Errorf("unsupported profile type %T", p)
		}
	})
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).
		First(&u, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("fetching user by email: %w", err)
	}
	return &u, nil
}

// UpdateLoginAttempt persists the login bookkeeping fields of u.
func (r *UserRepository) UpdateLoginAttempt(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"failed_login_count": u.FailedLoginCount,
			"locked_until":       u.LockedUntil,
			"last_login_at":      u.LastLoginAt,
		}).Error
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string, changedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"password_hash":       hash,
			"password_changed_at": changedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("updating password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateMFA(ctx context.Context, id uuid.UUID, secret string, enabled bool) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"mfa_secret":  secret,
			"mfa_enabled": enabled,
		})
	if res.Error != nil {
		return fmt.Errorf("updating mfa: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Delete removes the user together with everything it owns: its profile,
// every connection the profile takes part in, the diagnoses, prescriptions
// and items below those connections, and all notifications that belong to
// the user or point at a removed row. Children are deleted before parents so
// the result does not depend on the database enforcing ON DELETE CASCADE.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		connIDs := tx.Model(&connection.Connection{}).Select("id").
			Where("patient_id = ? OR doctor_id = ?", id, id)
		diagIDs := tx.Model(&diagnosis.Diagnosis{}).Select("id").
			Where("connection_id IN (?)", connIDs)
		rxIDs := tx.Model(&prescription.Prescription{}).Select("id").
			Where("diagnosis_id IN (?)", diagIDs)
		itemIDs := tx.Model(&prescription.Item{}).Select("id").
			Where("prescription_id IN (?)", rxIDs)

		steps := []struct {
			what string
			run  func() error
		}{
			{"notifications", func() error {
				return tx.Where("user_id = ?", id).
					Or("connection_id IN (?)", connIDs).
					Or("diagnosis_id IN (?)", diagIDs).
					Or("prescription_item_id IN (?)", itemIDs).
					Delete(&notification.Notification{}).Error
			}},
			{"prescription items", func() error {
				return tx.Where("prescription_id IN (?)", rxIDs).Delete(&prescription.Item{}).Error
			}},
			{"prescriptions", func() error {
				return tx.Where("diagnosis_id IN (?)", diagIDs).Delete(&prescription.Prescription{}).Error
			}},
			{"diagnoses", func() error {
				return tx.Where("connection_id IN (?)", connIDs).Delete(&diagnosis.Diagnosis{}).Error
			}},
			{"connections", func() error {
				return tx.Where("patient_id = ? OR doctor_id = ?", id, id).Delete(&connection.Connection{}).Error
			}},
			{"patient profile", func() error {
				return tx.Where("user_id = ?", id).Delete(&profile.PatientProfile{}).Error
			}},
			{"doctor profile", func() error {
				return tx.Where("user_id = ?", id).Delete(&profile.DoctorProfile{}).Error
			}},
		}
		for _, s := range steps {
			if err := s.run(); err != nil {
				return fmt.Errorf("deleting %s: %w", s.what, err)
			}
		}

		res := tx.Delete(&domain.User{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("deleting user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrUserNotFound
		}
		return nil
	})
}
