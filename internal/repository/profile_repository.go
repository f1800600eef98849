package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/profile"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// existing reports whether either kind of profile is already attached to
// userID. A user carries at most one profile.
func existing(tx *gorm.DB, userID uuid.UUID) (bool, error) {
	var n int64
	for _, m := range []any{&profile.PatientProfile{}, &profile.DoctorProfile{}} {
		var c int64
		if err := tx.Model(m).Where("user_id = ?", userID).Count(&c).Error; err != nil {
			return false, err
		}
		n += c
	}
	return n > 0, nil
}

func (r *ProfileRepository) CreatePatient(ctx context.Context, p *profile.PatientProfile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := existing(tx, p.UserID)
		if err != nil {
			return fmt.Errorf("checking profile: %w", err)
		}
		if taken {
			return profile.ErrProfileExists
		}
		if err := tx.Omit(clause.Associations).Create(p).Error; err != nil {
			if isDuplicate(err) {
				return profile.ErrProfileExists
			}
			return fmt.Errorf("creating patient profile: %w", err)
		}
		return nil
	})
}

func (r *ProfileRepository) CreateDoctor(ctx context.Context, d *profile.DoctorProfile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := existing(tx, d.UserID)
		if err != nil {
			return fmt.Errorf("checking profile: %w", err)
		}
		if taken {
			return profile.ErrProfileExists
		}
		// The primary key was checked above, so a duplicate here is the license.
		if err := tx.Omit(clause.Associations).Create(d).Error; err != nil {
			if isDuplicate(err) {
				return profile.ErrLicenseTaken
			}
			return fmt.Errorf("creating doctor profile: %w", err)
		}
		return nil
	})
}

func (r *ProfileRepository) GetPatient(ctx context.Context, userID uuid.UUID) (*profile.PatientProfile, error) {
	var p profile.PatientProfile
	if err := r.db.WithContext(ctx).Preload("User").First(&p, "user_id = ?", userID).Error; err != nil {
		if isNotFound(err) {
			return nil, profile.ErrProfileNotFound
		}
		return nil, fmt.Errorf("fetching patient profile: %w", err)
	}
	return &p, nil
}

func (r *ProfileRepository) GetDoctor(ctx context.Context, userID uuid.UUID) (*profile.DoctorProfile, error) {
	var d profile.DoctorProfile
	if err := r.db.WithContext(ctx).Preload("User").First(&d, "user_id = ?", userID).Error; err != nil {
		if isNotFound(err) {
			return nil, profile.ErrProfileNotFound
		}
		return nil, fmt.Errorf("fetching doctor profile: %w", err)
	}
	return &d, nil
}

func (r *ProfileRepository) SetDoctorVerified(ctx context.Context, userID uuid.UUID, verified bool) error {
	res := r.db.WithContext(ctx).Model(&profile.DoctorProfile{}).
		Where("user_id = ?", userID).
		Update("is_verified", verified)
	if res.Error != nil {
		return fmt.Errorf("verifying doctor: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return profile.ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepository) ListDoctors(ctx context.Context, q *profile.ListDoctorsQuery) (*profile.PagedDoctors, error) {
	query := r.db.WithContext(ctx).Model(&profile.DoctorProfile{})

	if q.Specialization != "" {
		query = query.Where("LOWER(specialization) = LOWER(?)", q.Specialization)
	}
	if q.VerifiedOnly {
		query = query.Where("is_verified = ?", true)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting doctors: %w", err)
	}

	var doctors []*profile.DoctorProfile
	err := paginate(query.Preload("User").Order("created_at DESC"), q.Page).Find(&doctors).Error
	if err != nil {
		return nil, fmt.Errorf("listing doctors: %w", err)
	}

	n := q.Page.Normalize()
	return &profile.PagedDoctors{
		Doctors:    doctors,
		TotalCount: total,
		Page:       n.Page,
		PageSize:   n.PageSize,
		TotalPages: n.TotalPages(total),
	}, nil
}

var _ profile.Repository = (*ProfileRepository)(nil)
