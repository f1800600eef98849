package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/diagnosis"
)

type DiagnosisRepository struct {
	db *gorm.DB
}

func NewDiagnosisRepository(db *gorm.DB) *DiagnosisRepository {
	return &DiagnosisRepository{db: db}
}

func (r *DiagnosisRepository) Create(ctx context.Context, d *diagnosis.Diagnosis) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(d).Error; err != nil {
		return fmt.Errorf("creating diagnosis: %w", err)
	}
	return nil
}

func (r *DiagnosisRepository) GetByID(ctx context.Context, id uuid.UUID) (*diagnosis.Diagnosis, error) {
	var d diagnosis.Diagnosis
	err := r.db.WithContext(ctx).
		Preload("Connection.Patient.User").
		Preload("Connection.Doctor.User").
		First(&d, "id = ?", id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, diagnosis.ErrDiagnosisNotFound
		}
		return nil, fmt.Errorf("fetching diagnosis: %w", err)
	}
	return &d, nil
}

func (r *DiagnosisRepository) List(ctx context.Context, q *diagnosis.ListDiagnosesQuery) (*diagnosis.PagedDiagnoses, error) {
	query := r.db.WithContext(ctx).Model(&diagnosis.Diagnosis{})

	if q.ConnectionID != nil {
		query = query.Where("diagnoses.connection_id = ?", *q.ConnectionID)
	}
	if q.PatientID != nil || q.DoctorID != nil {
		query = query.Joins("JOIN connections ON connections.id = diagnoses.connection_id")
		if q.PatientID != nil {
			query = query.Where("connections.patient_id = ?", *q.PatientID)
		}
		if q.DoctorID != nil {
			query = query.Where("connections.doctor_id = ?", *q.DoctorID)
		}
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting diagnoses: %w", err)
	}

	var out []*diagnosis.Diagnosis
	err := paginate(query.Order("diagnoses.recorded_at DESC"), q.Page).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing diagnoses: %w", err)
	}

	n := q.Page.Normalize()
	return &diagnosis.PagedDiagnoses{
		Diagnoses:  out,
		TotalCount: total,
		Page:       n.Page,
		PageSize:   n.PageSize,
		TotalPages: n.TotalPages(total),
	}, nil
}

var _ diagnosis.Repository = (*DiagnosisRepository)(nil)
