package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/connection"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/diagnosis"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/prescription"
)

type Type string

const (
	TypeMedicationReminder  Type = "medication_reminder"
	TypeAppointmentReminder Type = "appointment_reminder"
	TypeConnectionRequest   Type = "connection_request"
	TypeNewDiagnosis        Type = "new_diagnosis"
	TypeNewPrescription     Type = "new_prescription"
	TypeGeneralUpdate       Type = "general_update"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeMedicationReminder, TypeAppointmentReminder, TypeConnectionRequest,
		TypeNewDiagnosis, TypeNewPrescription, TypeGeneralUpdate:
		return true
	}
	return false
}

type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`

	Message  string    `gorm:"column:message;type:text;not null" json:"message"`
	Type     Type      `gorm:"column:notification_type;type:varchar(30);not null;default:'general_update';index" json:"type"`
	NotifyAt time.Time `gorm:"column:notification_time;not null" json:"notification_time"`
	IsRead   bool      `gorm:"column:is_read;not null;default:false;index" json:"is_read"`

	PrescriptionItemID *uuid.UUID `gorm:"column:prescription_item_id;type:uuid;index" json:"prescription_item_id,omitempty"`
	DiagnosisID        *uuid.UUID `gorm:"column:diagnosis_id;type:uuid;index" json:"diagnosis_id,omitempty"`
	ConnectionID       *uuid.UUID `gorm:"column:connection_id;type:uuid;index" json:"connection_id,omitempty"`

	User             *domain.User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	PrescriptionItem *prescription.Item     `gorm:"foreignKey:PrescriptionItemID;constraint:OnDelete:CASCADE" json:"-"`
	Diagnosis        *diagnosis.Diagnosis   `gorm:"foreignKey:DiagnosisID;constraint:OnDelete:CASCADE" json:"-"`
	Connection       *connection.Connection `gorm:"foreignKey:ConnectionID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// Validate checks the message, the type and that no more than one origin
// entity is referenced.
func (n *Notification) Validate() error {
	if n.Message == "" {
		return ErrEmptyMessage
	}
	if !n.Type.IsValid() {
		return ErrInvalidType
	}
	refs := 0
	for _, id := range []*uuid.UUID{n.PrescriptionItemID, n.DiagnosisID, n.ConnectionID} {
		if id != nil {
			refs++
		}
	}
	if refs > 1 {
		return ErrMultipleReferences
	}
	return nil
}

// Summary truncates the message for list views.
func (n *Notification) Summary() string {
	const summaryLen = 75
	r := []rune(n.Message)
	if len(r) > summaryLen {
		return string(r[:summaryLen]) + "..."
	}
	return n.Message
}

// CreateNotificationCommand is a manual notice sent by an admin.
type CreateNotificationCommand struct {
	UserID   uuid.UUID
	Message  string
	Type     Type
	NotifyAt *time.Time
}

type ListNotificationsQuery struct {
	UserID     uuid.UUID
	UnreadOnly bool
	Type       *Type
	domain.Page
}

type PagedNotifications struct {
	Notifications []*Notification
	TotalCount    int64
	UnreadCount   int64
	Page          int
	PageSize      int
	TotalPages    int
}
