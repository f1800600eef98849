package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/medication"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/prescription"
)

type MedicationRepository struct {
	db *gorm.DB
}

func NewMedicationRepository(db *gorm.DB) *MedicationRepository {
	return &MedicationRepository{db: db}
}

func (r *MedicationRepository) Create(ctx context.Context, m *medication.Medication) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isDuplicate(err) {
			return medication.ErrMedicationExists
		}
		return fmt.Errorf("creating medication: %w", err)
	}
	return nil
}

func (r *MedicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*medication.Medication, error) {
	var m medication.Medication
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, medication.ErrMedicationNotFound
		}
		return nil, fmt.Errorf("fetching medication: %w", err)
	}
	return &m, nil
}

// Update applies the non-nil fields of cmd.
func (r *MedicationRepository) Update(ctx context.Context, id uuid.UUID, cmd *medication.UpdateMedicationCommand) (*medication.Medication, error) {
	updates := map[string]any{}
	if cmd.Name != nil {
		updates["name"] = *cmd.Name
	}
	if cmd.GenericName != nil {
		updates["generic_name"] = *cmd.GenericName
	}
	if cmd.Manufacturer != nil {
		updates["manufacturer"] = *cmd.Manufacturer
	}
	if cmd.Category != nil {
		updates["category"] = *cmd.Category
	}
	if cmd.Description != nil {
		updates["description"] = *cmd.Description
	}

	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&medication.Medication{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			if isDuplicate(res.Error) {
				return nil, medication.ErrMedicationExists
			}
			return nil, fmt.Errorf("updating medication: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, medication.ErrMedicationNotFound
		}
	}

	return r.GetByID(ctx, id)
}

// Delete refuses while any prescription item still points at the
// medication; the RESTRICT foreign key backs this up at the database.
func (r *MedicationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&prescription.Item{}).Where("medication_id = ?", id).Count(&refs).Error; err != nil {
			return fmt.Errorf("counting medication references: %w", err)
		}
		if refs > 0 {
			return medication.ErrMedicationInUse
		}

		res := tx.Delete(&medication.Medication{}, "id = ?", id)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
				return medication.ErrMedicationInUse
			}
			return fmt.Errorf("deleting medication: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return medication.ErrMedicationNotFound
		}
		return nil
	})
}

func (r *MedicationRepository) List(ctx context.Context, q *medication.ListMedicationsQuery) (*medication.PagedMedications, error) {
	query := r.db.WithContext(ctx).Model(&medication.Medication{})

	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(generic_name) LIKE ? OR LOWER(category) LIKE ? OR LOWER(manufacturer) LIKE ?",
			like, like, like, like,
		)
	}
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting medications: %w", err)
	}

	var meds []*medication.Medication
	if err := paginate(query.Order("name ASC"), q.Page).Find(&meds).Error; err != nil {
		return nil, fmt.Errorf("listing medications: %w", err)
	}

	n := q.Page.Normalize()
	return &medication.PagedMedications{
		Medications: meds,
		TotalCount:  total,
		Page:        n.Page,
		PageSize:    n.PageSize,
		TotalPages:  n.TotalPages(total),
	}, nil
}

var _ medication.Repository = (*MedicationRepository)(nil)
