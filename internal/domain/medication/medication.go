package medication

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
)

// Medication is an entry of the master medication list.
type Medication struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Name         string `gorm:"column:name;type:varchar(200);uniqueIndex;not null" json:"name"`
	GenericName  string `gorm:"column:generic_name;type:varchar(200);index" json:"generic_name,omitempty"`
	Manufacturer string `gorm:"column:manufacturer;type:varchar(100);index" json:"manufacturer,omitempty"`
	Category     string `gorm:"column:category;type:varchar(100);index" json:"category,omitempty"`
	Description  string `gorm:"column:description;type:text" json:"description,omitempty"`
}

func (Medication) TableName() string {
	return "medications"
}

func (m *Medication) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type CreateMedicationCommand struct {
	Name         string
	GenericName  string
	Manufacturer string
	Category     string
	Description  string
}

type UpdateMedicationCommand struct {
	Name         *string
	GenericName  *string
	Manufacturer *string
	Category     *string
	Description  *string
}

type ListMedicationsQuery struct {
	Search   string // name, generic name, category, manufacturer
	Category string
	domain.Page
}

type PagedMedications struct {
	Medications []*Medication
	TotalCount  int64
	Page        int
	PageSize    int
	TotalPages  int
}
