// Package events carries domain events from the services to their
// subscribers: the notification fan-out and the optional Kafka export.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/connection"
)

type Event interface {
	// Name is the stable wire name of the event.
	Name() string
	// Key groups events of one connection on the same partition.
	Key() string
}

// ConnectionStatusChanged is published after every persisted transition,
// including the creation of a pending request (From is empty then).
type ConnectionStatusChanged struct {
	ConnectionID uuid.UUID         `json:"connection_id"`
	PatientID    uuid.UUID         `json:"patient_id"`
	DoctorID     uuid.UUID         `json:"doctor_id"`
	PatientName  string            `json:"patient_name"`
	DoctorName   string            `json:"doctor_name"`
	From         connection.Status `json:"from,omitempty"`
	To           connection.Status `json:"to"`
	OccurredAt   time.Time         `json:"occurred_at"`
}

func (ConnectionStatusChanged) Name() string { return "connection.status_changed" }

func (e ConnectionStatusChanged) Key() string { return e.ConnectionID.String() }

type DiagnosisAdded struct {
	DiagnosisID  uuid.UUID `json:"diagnosis_id"`
	ConnectionID uuid.UUID `json:"connection_id"`
	PatientID    uuid.UUID `json:"patient_id"`
	DoctorID     uuid.UUID `json:"doctor_id"`
	DoctorName   string    `json:"doctor_name"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func (DiagnosisAdded) Name() string { return "diagnosis.added" }

func (e DiagnosisAdded) Key() string { return e.ConnectionID.String() }

// PrescribedItem identifies one new prescription line.
type PrescribedItem struct {
	ItemID  uuid.UUID `json:"item_id"`
	Summary string    `json:"summary"`
}

// PrescriptionAdded covers a new prescription as well as items appended to
// an existing one; Items lists only the lines that are new.
type PrescriptionAdded struct {
	PrescriptionID uuid.UUID        `json:"prescription_id"`
	DiagnosisID    uuid.UUID        `json:"diagnosis_id"`
	ConnectionID   uuid.UUID        `json:"connection_id"`
	PatientID      uuid.UUID        `json:"patient_id"`
	DoctorID       uuid.UUID        `json:"doctor_id"`
	DoctorName     string           `json:"doctor_name"`
	Items          []PrescribedItem `json:"items"`
	OccurredAt     time.Time        `json:"occurred_at"`
}

func (PrescriptionAdded) Name() string { return "prescription.added" }

func (e PrescriptionAdded) Key() string { return e.ConnectionID.String() }
