package prescription

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/diagnosis"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/medication"
)

type DurationUnit string

const (
	UnitDays       DurationUnit = "days"
	UnitWeeks      DurationUnit = "weeks"
	UnitMonths     DurationUnit = "months"
	UnitIndefinite DurationUnit = "indefinite"
)

func (u DurationUnit) IsValid() bool {
	switch u {
	case UnitDays, UnitWeeks, UnitMonths, UnitIndefinite:
		return true
	}
	return false
}

// daysPerMonth is a deliberate approximation; end dates are not computed
// with calendar-month arithmetic.
const daysPerMonth = 30

// MaxCourseDays bounds a fixed-length course at roughly a century.
const MaxCourseDays = 36500

// CourseDays converts a duration to days. ok is false for open-ended
// courses and for lengths outside 0..MaxCourseDays.
func CourseDays(value int, unit DurationUnit) (days int, ok bool) {
	var per int
	switch unit {
	case UnitDays:
		per = 1
	case UnitWeeks:
		per = 7
	case UnitMonths:
		per = daysPerMonth
	default:
		return 0, false
	}
	if value < 0 || value > MaxCourseDays/per {
		return 0, false
	}
	return value * per, true
}

// DeriveEndDate computes the last day of a course of treatment. It returns
// nil for open-ended courses (an indefinite unit or a missing value/unit)
// and for durations CourseDays rejects.
func DeriveEndDate(start time.Time, value *int, unit *DurationUnit) *time.Time {
	if value == nil || unit == nil {
		return nil
	}
	days, ok := CourseDays(*value, *unit)
	if !ok {
		return nil
	}
	end := start.AddDate(0, 0, days)
	return &end
}

type RouteOfAdministration string

const (
	RouteOral          RouteOfAdministration = "oral"
	RouteIntravenous   RouteOfAdministration = "intravenous"
	RouteIntramuscular RouteOfAdministration = "intramuscular"
	RouteTopical       RouteOfAdministration = "topical"
	RouteInhaled       RouteOfAdministration = "inhaled"
	RouteSublingual    RouteOfAdministration = "sublingual"
)

// IsValid accepts the empty value; route is optional.
func (r RouteOfAdministration) IsValid() bool {
	switch r {
	case "", RouteOral, RouteIntravenous, RouteIntramuscular, RouteTopical, RouteInhaled, RouteSublingual:
		return true
	}
	return false
}

// Prescription groups the medications prescribed for one diagnosis.
type Prescription struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DiagnosisID uuid.UUID `gorm:"column:diagnosis_id;type:uuid;not null;index" json:"diagnosis_id"`

	PrescribedAt    time.Time `gorm:"column:prescribed_at;not null;index" json:"prescribed_at"`
	NotesForPatient string    `gorm:"column:notes_for_patient;type:text" json:"notes_for_patient,omitempty"`
	IsActive        bool      `gorm:"column:is_active;not null;default:true;index" json:"is_active"`

	Items     []Item               `gorm:"foreignKey:PrescriptionID" json:"items,omitempty"`
	Diagnosis *diagnosis.Diagnosis `gorm:"foreignKey:DiagnosisID;constraint:OnDelete:CASCADE" json:"diagnosis,omitempty"`
}

func (Prescription) TableName() string {
	return "prescriptions"
}

func (p *Prescription) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Item is one medication line of a prescription.
type Item struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PrescriptionID uuid.UUID `gorm:"column:prescription_id;type:uuid;not null;index" json:"prescription_id"`
	MedicationID   uuid.UUID `gorm:"column:medication_id;type:uuid;not null;index" json:"medication_id"`

	Dosage         string                `gorm:"column:dosage;type:varchar(100);not null" json:"dosage"`
	Route          RouteOfAdministration `gorm:"column:route;type:varchar(100)" json:"route,omitempty"`
	Frequency      string                `gorm:"column:frequency;type:varchar(100);not null" json:"frequency"`
	DurationValue  *int                  `gorm:"column:duration_value" json:"duration_value,omitempty"`
	DurationUnit   *DurationUnit         `gorm:"column:duration_unit;type:varchar(10)" json:"duration_unit,omitempty"`
	StartDate      datatypes.Date        `gorm:"column:start_date;not null;index" json:"start_date"`
	EndDate        *datatypes.Date       `gorm:"column:end_date;index" json:"end_date,omitempty"`
	Instructions   string                `gorm:"column:instructions;type:text" json:"instructions,omitempty"`
	RefillsAllowed int                   `gorm:"column:refills_allowed;not null;default:0" json:"refills_allowed"`

	Medication   *medication.Medication `gorm:"foreignKey:MedicationID;constraint:OnDelete:RESTRICT" json:"medication,omitempty"`
	Prescription *Prescription          `gorm:"foreignKey:PrescriptionID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Item) TableName() string {
	return "prescription_items"
}

func (i *Item) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// BeforeSave runs on every insert and update so the derived end date is
// filled in no matter which code path persists the item.
func (i *Item) BeforeSave(*gorm.DB) error {
	i.ApplyDerivedEndDate()
	return nil
}

// ApplyDerivedEndDate fills EndDate from the start date and duration. An end
// date that is already set, explicitly or by an earlier save, is kept.
func (i *Item) ApplyDerivedEndDate() {
	if i.EndDate != nil {
		return
	}
	start := time.Time(i.StartDate)
	if start.IsZero() {
		return
	}
	if end := DeriveEndDate(start, i.DurationValue, i.DurationUnit); end != nil {
		d := datatypes.Date(*end)
		i.EndDate = &d
	}
}

// IsOpenEnded reports whether the course has no end date.
func (i *Item) IsOpenEnded() bool {
	return i.EndDate == nil
}

// Summary renders the item as "Name - dosage, frequency".
func (i *Item) Summary() string {
	name := "medication"
	if i.Medication != nil {
		name = i.Medication.Name
	}
	return name + " - " + i.Dosage + ", " + i.Frequency
}

type ItemInput struct {
	MedicationID   uuid.UUID
	Dosage         string
	Route          RouteOfAdministration
	Frequency      string
	DurationValue  *int
	DurationUnit   *DurationUnit
	StartDate      *time.Time
	EndDate        *time.Time
	Instructions   string
	RefillsAllowed int
}

type CreatePrescriptionCommand struct {
	DiagnosisID     uuid.UUID
	PrescribedAt    *time.Time
	NotesForPatient string
	Items           []ItemInput
}
