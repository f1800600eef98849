package connection

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/profile"
)

// State transitions:
//
//	pending_approval_by_doctor → approved | rejected_by_doctor
//	approved → terminated_by_patient | terminated_by_doctor
//
// Every non-initial state is terminal for the record.
type Status string

const (
	StatusPending             Status = "pending_approval_by_doctor"
	StatusApproved            Status = "approved"
	StatusRejectedByDoctor    Status = "rejected_by_doctor"
	StatusTerminatedByPatient Status = "terminated_by_patient"
	StatusTerminatedByDoctor  Status = "terminated_by_doctor"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejectedByDoctor, StatusTerminatedByPatient, StatusTerminatedByDoctor:
		return true
	}
	return false
}

func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending Approval by Doctor"
	case StatusApproved:
		return "Approved"
	case StatusRejectedByDoctor:
		return "Rejected by Doctor"
	case StatusTerminatedByPatient:
		return "Terminated by Patient"
	case StatusTerminatedByDoctor:
		return "Terminated by Doctor"
	}
	return string(s)
}

var transitions = map[Status][]Status{
	StatusPending:             {StatusApproved, StatusRejectedByDoctor},
	StatusApproved:            {StatusTerminatedByPatient, StatusTerminatedByDoctor},
	StatusRejectedByDoctor:    {},
	StatusTerminatedByPatient: {},
	StatusTerminatedByDoctor:  {},
}

// Decision is the doctor's answer to a pending request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func (d Decision) target() (Status, error) {
	switch d {
	case DecisionApprove:
		return StatusApproved, nil
	case DecisionReject:
		return StatusRejectedByDoctor, nil
	}
	return "", ErrInvalidDecision
}

// Initiator identifies which party ends an approved connection.
type Initiator string

const (
	InitiatorPatient Initiator = "patient"
	InitiatorDoctor  Initiator = "doctor"
)

func (i Initiator) target() (Status, error) {
	switch i {
	case InitiatorPatient:
		return StatusTerminatedByPatient, nil
	case InitiatorDoctor:
		return StatusTerminatedByDoctor, nil
	}
	return "", ErrInvalidInitiator
}

type Connection struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;uniqueIndex:idx_connections_pair,priority:1" json:"patient_id"`
	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;uniqueIndex:idx_connections_pair,priority:2;index" json:"doctor_id"`

	Status            Status     `gorm:"column:status;type:varchar(50);not null;default:'pending_approval_by_doctor';index" json:"status"`
	RequestedAt       time.Time  `gorm:"column:requested_at;not null;index" json:"requested_at"`
	RespondedAt       *time.Time `gorm:"column:responded_at" json:"responded_at,omitempty"`
	LastInteractionAt *time.Time `gorm:"column:last_interaction_at" json:"last_interaction_at,omitempty"`

	Patient *profile.PatientProfile `gorm:"foreignKey:PatientID;references:UserID;constraint:OnDelete:CASCADE" json:"patient,omitempty"`
	Doctor  *profile.DoctorProfile  `gorm:"foreignKey:DoctorID;references:UserID;constraint:OnDelete:CASCADE" json:"doctor,omitempty"`
}

func (Connection) TableName() string {
	return "connections"
}

func (c *Connection) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// New builds a pending request stamped at now.
func New(patientID, doctorID uuid.UUID, now time.Time) (*Connection, error) {
	if patientID == doctorID {
		return nil, ErrSelfConnection
	}
	return &Connection{
		PatientID:   patientID,
		DoctorID:    doctorID,
		Status:      StatusPending,
		RequestedAt: now,
	}, nil
}

func (c *Connection) CanTransitionTo(next Status) bool {
	for _, s := range transitions[c.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// IsParty reports whether userID is the patient or the doctor.
func (c *Connection) IsParty(userID uuid.UUID) bool {
	return c.PatientID == userID || c.DoctorID == userID
}

// Counterparty returns the other side of the connection from userID.
func (c *Connection) Counterparty(userID uuid.UUID) uuid.UUID {
	if userID == c.PatientID {
		return c.DoctorID
	}
	return c.PatientID
}

func (c *Connection) IsApproved() bool {
	return c.Status == StatusApproved
}

// Respond applies the doctor's decision. Only a pending request can be
// answered, so RespondedAt is written exactly once.
func (c *Connection) Respond(d Decision, now time.Time) error {
	next, err := d.target()
	if err != nil {
		return err
	}
	if !c.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	c.Status = next
	c.RespondedAt = &now
	c.LastInteractionAt = &now
	return nil
}

// Terminate ends an approved connection on behalf of initiator.
func (c *Connection) Terminate(by Initiator, now time.Time) error {
	next, err := by.target()
	if err != nil {
		return err
	}
	if !c.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	c.Status = next
	c.LastInteractionAt = &now
	return nil
}

// Touch records a clinical interaction on the connection.
func (c *Connection) Touch(now time.Time) {
	c.LastInteractionAt = &now
}

type ListConnectionsQuery struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    *Status
	domain.Page
}

type PagedConnections struct {
	Connections []*Connection
	TotalCount  int64
	Page        int
	PageSize    int
	TotalPages  int
}
