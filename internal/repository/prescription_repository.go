package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/medication"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/prescription"
)

type PrescriptionRepository struct {
	db *gorm.DB
}

func NewPrescriptionRepository(db *gorm.DB) *PrescriptionRepository {
	return &PrescriptionRepository{db: db}
}

func (r *PrescriptionRepository) Create(ctx context.Context, p *prescription.Prescription) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(p).Error; err != nil {
			return fmt.Errorf("creating prescription: %w", err)
		}
		for i := range p.Items {
			p.Items[i].PrescriptionID = p.ID
			if err := createItem(tx, &p.Items[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func createItem(tx *gorm.DB, item *prescription.Item) error {
	if err := tx.Omit(clause.Associations).Create(item).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return medication.ErrMedicationNotFound
		}
		return fmt.Errorf("creating prescription item: %w", err)
	}
	return nil
}

func (r *PrescriptionRepository) AddItem(ctx context.Context, item *prescription.Item) error {
	return createItem(r.db.WithContext(ctx), item)
}

func (r *PrescriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*prescription.Prescription, error) {
	var p prescription.Prescription
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("prescription_items.start_date ASC")
		}).
		Preload("Items.Medication").
		Preload("Diagnosis.Connection.Doctor.User").
		First(&p, "id = ?", id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, prescription.ErrPrescriptionNotFound
		}
		return nil, fmt.Errorf("fetching prescription: %w", err)
	}
	return &p, nil
}

func (r *PrescriptionRepository) GetItem(ctx context.Context, id uuid.UUID) (*prescription.Item, error) {
	var item prescription.Item
	err := r.db.WithContext(ctx).
		Preload("Medication").
		Preload("Prescription.Diagnosis.Connection").
		First(&item, "id = ?", id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, prescription.ErrPrescriptionNotFound
		}
		return nil, fmt.Errorf("fetching prescription item: %w", err)
	}
	return &item, nil
}

func (r *PrescriptionRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res := r.db.WithContext(ctx).Model(&prescription.Prescription{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return fmt.Errorf("updating prescription: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return prescription.ErrPrescriptionNotFound
	}
	return nil
}

func (r *PrescriptionRepository) ListByDiagnosis(ctx context.Context, diagnosisID uuid.UUID) ([]*prescription.Prescription, error) {
	var out []*prescription.Prescription
	err := r.db.WithContext(ctx).
		Preload("Items.Medication").
		Where("diagnosis_id = ?", diagnosisID).
		Order("prescribed_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing prescriptions: %w", err)
	}
	return out, nil
}

var _ prescription.Repository = (*PrescriptionRepository)(nil)
