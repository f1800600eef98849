package diagnosis

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/connection"
)

// Diagnosis is one diagnosis event recorded by the doctor of an approved
// connection.
type Diagnosis struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConnectionID uuid.UUID `gorm:"column:connection_id;type:uuid;not null;index" json:"connection_id"`

	RecordedAt    time.Time       `gorm:"column:recorded_at;not null;index" json:"recorded_at"`
	Symptoms      string          `gorm:"column:symptoms;type:text" json:"symptoms,omitempty"`
	Details       string          `gorm:"column:diagnosis_details;type:text;not null" json:"diagnosis_details"`
	TreatmentPlan string          `gorm:"column:treatment_plan;type:text" json:"treatment_plan,omitempty"`
	FollowUpDate  *datatypes.Date `gorm:"column:follow_up_date;index" json:"follow_up_date,omitempty"`

	Connection *connection.Connection `gorm:"foreignKey:ConnectionID;constraint:OnDelete:CASCADE" json:"connection,omitempty"`
}

func (Diagnosis) TableName() string {
	return "diagnoses"
}

func (d *Diagnosis) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

type CreateDiagnosisCommand struct {
	ConnectionID  uuid.UUID
	RecordedAt    *time.Time
	Symptoms      string
	Details       string
	TreatmentPlan string
	FollowUpDate  *time.Time
}

type ListDiagnosesQuery struct {
	ConnectionID *uuid.UUID
	PatientID    *uuid.UUID
	DoctorID     *uuid.UUID
	domain.Page
}

type PagedDiagnoses struct {
	Diagnoses  []*Diagnosis
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
