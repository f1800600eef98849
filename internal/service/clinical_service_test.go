package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/connection"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/diagnosis"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/medication"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/notification"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/prescription"
)

type clinicalFixture struct {
	patient, doctor, admin Caller
	conn                   *connection.Connection
	med                    *medication.Medication
}

func newClinicalFixture(t *testing.T, env *testEnv, approve bool) *clinicalFixture {
	t.Helper()
	ctx := context.Background()

	f := &clinicalFixture{
		patient: env.register(t, "pat@example.com", domain.RolePatient),
		doctor:  env.register(t, "doc@example.com", domain.RoleDoctor),
		admin:   env.register(t, "admin@example.com", domain.RoleAdmin),
	}

	var err error
	f.conn, err = env.conns.RequestConnection(ctx, f.patient, f.doctor.UserID)
	if err != nil {
		t.Fatalf("RequestConnection: %v", err)
	}
	if approve {
		if f.conn, err = env.conns.Respond(ctx, f.doctor, f.conn.ID, connection.DecisionApprove); err != nil {
			t.Fatalf("Respond: %v", err)
		}
	}

	f.med, err = env.meds.CreateMedication(ctx, f.doctor, &medication.CreateMedicationCommand{
		Name: "Lisinopril", GenericName: "lisinopril", Category: "ACE inhibitor",
	})
	if err != nil {
		t.Fatalf("CreateMedication: %v", err)
	}
	return f
}

func intPtr(v int) *int { return &v }

func unitPtr(u prescription.DurationUnit) *prescription.DurationUnit { return &u }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddDiagnosisRequiresApprovedConnection(t *testing.T) {
	env := newTestEnv(t)
	f := newClinicalFixture(t, env, false)

	_, err := env.clinical.AddDiagnosis(context.Background(), f.doctor, &diagnosis.CreateDiagnosisCommand{
		ConnectionID: f.conn.ID,
		Details:      "Hypertension",
	})
	if !errors.Is(err, diagnosis.ErrConnectionNotApproved) {
		t.Fatalf("got %v, want ErrConnectionNotApproved", err)
	}
}

func TestAddDiagnosis(t *testing.T) {
	env := newTestEnv(t)
	f := newClinicalFixture(t, env, true)
	ctx := context.Background()

	tests := []struct {
		name    string
		caller  Caller
		details string
		wantErr error
	}{
		{"details required", f.doctor, "  ", nil},
		{"patient cannot record", f.patient, "Hypertension", ErrForbidden},
		{"admin cannot record", f.admin, "Hypertension", ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.clinical.AddDiagnosis(ctx, tt.caller, &diagnosis.CreateDiagnosisCommand{
				ConnectionID: f.conn.ID,
				Details:      tt.details,
			})
			if tt.wantErr == nil {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("got %v, want ValidationError", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}

	d, err := env.clinical.AddDiagnosis(ctx, f.doctor, &diagnosis.CreateDiagnosisCommand{
		ConnectionID: f.conn.ID,
		Details:      "Hypertension",
		FollowUpDate: ptrTime(testNow.Add(14 * 24 * time.Hour)),
	})
	if err != nil {
		t.Fatalf("AddDiagnosis: %v", err)
	}
	if got := time.Time(*d.FollowUpDate); !got.Equal(day(2024, 1, 15)) {
		t.Errorf("follow up = %v, want 2024-01-15", got)
	}

	var diagNotes int
	for _, n := range env.inbox(t, f.patient) {
		if n.Type == notification.TypeNewDiagnosis && n.DiagnosisID != nil && *n.DiagnosisID == d.ID {
			diagNotes++
		}
	}
	if diagNotes != 1 {
		t.Errorf("patient received %d diagnosis notifications, want 1", diagNotes)
	}

	if _, err := env.clinical.GetDiagnosis(ctx, f.patient, d.ID); err != nil {
		t.Errorf("patient GetDiagnosis: %v", err)
	}
	stranger := env.register(t, "other@example.com", domain.RolePatient)
	if _, err := env.clinical.GetDiagnosis(ctx, stranger, d.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger GetDiagnosis: got %v, want ErrForbidden", err)
	}
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestIssuePrescription(t *testing.T) {
	env := newTestEnv(t)
	f := newClinicalFixture(t, env, true)
	ctx := context.Background()

	d, err := env.clinical.AddDiagnosis(ctx, f.doctor, &diagnosis.CreateDiagnosisCommand{
		ConnectionID: f.conn.ID,
		Details:      "Hypertension",
	})
	if err != nil {
		t.Fatalf("AddDiagnosis: %v", err)
	}

	t.Run("invalid items are reported by index", func(t *testing.T) {
		_, err := env.clinical.IssuePrescription(ctx, f.doctor, &prescription.CreatePrescriptionCommand{
			DiagnosisID: d.ID,
			Items: []prescription.ItemInput{
				{MedicationID: f.med.ID, Dosage: "10mg", Frequency: "daily"},
				{MedicationID: f.med.ID, Frequency: "daily", DurationUnit: unitPtr("fortnights")},
			},
		})
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("got %v, want ValidationError", err)
		}
		if len(ve.Fields) != 2 {
			t.Errorf("fields = %v, want dosage and unit errors for items[1]", ve.Fields)
		}
	})

	t.Run("course length is bounded", func(t *testing.T) {
		late := day(9999, 6, 1)
		tests := []struct {
			name  string
			value int
			unit  prescription.DurationUnit
			start *time.Time
		}{
			{"days past the cap", prescription.MaxCourseDays + 1, prescription.UnitDays, nil},
			{"months past the cap", 1300, prescription.UnitMonths, nil},
			{"months overflowing int", 307445734561825861, prescription.UnitMonths, nil},
			{"weeks overflowing int", 1 << 60, prescription.UnitWeeks, nil},
			{"end after year 9999", 365, prescription.UnitDays, &late},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := env.clinical.IssuePrescription(ctx, f.doctor, &prescription.CreatePrescriptionCommand{
					DiagnosisID: d.ID,
					Items: []prescription.ItemInput{{
						MedicationID: f.med.ID, Dosage: "10mg", Frequency: "daily",
						DurationValue: intPtr(tt.value), DurationUnit: unitPtr(tt.unit), StartDate: tt.start,
					}},
				})
				var ve *ValidationError
				if !errors.As(err, &ve) || len(ve.Fields) != 1 {
					t.Fatalf("got %v, want one field error", err)
				}
			})
		}
	})

	p, err := env.clinical.IssuePrescription(ctx, f.doctor, &prescription.CreatePrescriptionCommand{
		DiagnosisID: d.ID,
		Items: []prescription.ItemInput{
			{MedicationID: f.med.ID, Dosage: "10mg", Frequency: "daily", DurationValue: intPtr(7), DurationUnit: unitPtr(prescription.UnitDays)},
			{MedicationID: f.med.ID, Dosage: "5mg", Frequency: "twice daily", DurationValue: intPtr(2), DurationUnit: unitPtr(prescription.UnitWeeks)},
			{MedicationID: f.med.ID, Dosage: "1 tab", Frequency: "daily", DurationUnit: unitPtr(prescription.UnitIndefinite)},
		},
	})
	if err != nil {
		t.Fatalf("IssuePrescription: %v", err)
	}

	wantEnds := []*time.Time{ptrTime(day(2024, 1, 8)), ptrTime(day(2024, 1, 15)), nil}
	for i, item := range p.Items {
		switch {
		case wantEnds[i] == nil && item.EndDate != nil:
			t.Errorf("item %d end = %v, want none", i, time.Time(*item.EndDate))
		case wantEnds[i] != nil && (item.EndDate == nil || !time.Time(*item.EndDate).Equal(*wantEnds[i])):
			t.Errorf("item %d end = %v, want %v", i, item.EndDate, *wantEnds[i])
		}
	}

	var rxNotes int
	for _, n := range env.inbox(t, f.patient) {
		if n.Type == notification.TypeNewPrescription {
			rxNotes++
			if n.PrescriptionItemID == nil {
				t.Error("prescription notification without item reference")
			}
		}
	}
	if rxNotes != 3 {
		t.Errorf("patient received %d prescription notifications, want 3", rxNotes)
	}

	got, err := env.clinical.GetPrescription(ctx, f.patient, p.ID)
	if err != nil {
		t.Fatalf("GetPrescription: %v", err)
	}
	if len(got.Items) != 3 || got.Items[0].Medication == nil {
		t.Errorf("prescription loaded with %d items", len(got.Items))
	}

	if err := env.meds.DeleteMedication(ctx, f.admin, f.med.ID); !errors.Is(err, medication.ErrMedicationInUse) {
		t.Errorf("DeleteMedication: got %v, want ErrMedicationInUse", err)
	}

	if _, err := env.clinical.DeactivatePrescription(ctx, f.doctor, p.ID); err != nil {
		t.Fatalf("DeactivatePrescription: %v", err)
	}
	_, err = env.clinical.AddPrescriptionItem(ctx, f.doctor, p.ID, prescription.ItemInput{
		MedicationID: f.med.ID, Dosage: "10mg", Frequency: "daily",
	})
	if !errors.Is(err, prescription.ErrPrescriptionInactive) {
		t.Errorf("AddPrescriptionItem on inactive: got %v, want ErrPrescriptionInactive", err)
	}
}

func TestClinicalWritesStopAfterTermination(t *testing.T) {
	env := newTestEnv(t)
	f := newClinicalFixture(t, env, true)
	ctx := context.Background()

	d, err := env.clinical.AddDiagnosis(ctx, f.doctor, &diagnosis.CreateDiagnosisCommand{
		ConnectionID: f.conn.ID,
		Details:      "Hypertension",
	})
	if err != nil {
		t.Fatalf("AddDiagnosis: %v", err)
	}
	if _, err := env.conns.Terminate(ctx, f.doctor, f.conn.ID, ""); err != nil {
		t.Fatalf("Terminate: %v", err)
	}

	_, err = env.clinical.IssuePrescription(ctx, f.doctor, &prescription.CreatePrescriptionCommand{
		DiagnosisID: d.ID,
		Items:       []prescription.ItemInput{{MedicationID: f.med.ID, Dosage: "10mg", Frequency: "daily"}},
	})
	if !errors.Is(err, diagnosis.ErrConnectionNotApproved) {
		t.Fatalf("got %v, want ErrConnectionNotApproved", err)
	}

	// History stays readable.
	if _, err := env.clinical.ListPrescriptions(ctx, f.patient, d.ID); err != nil {
		t.Errorf("ListPrescriptions: %v", err)
	}
}

func TestMedicationPermissions(t *testing.T) {
	env := newTestEnv(t)
	f := newClinicalFixture(t, env, false)
	ctx := context.Background()

	if _, err := env.meds.CreateMedication(ctx, f.patient, &medication.CreateMedicationCommand{Name: "Aspirin"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("patient create: got %v, want ErrForbidden", err)
	}
	if _, err := env.meds.CreateMedication(ctx, f.admin, &medication.CreateMedicationCommand{Name: "Lisinopril"}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("duplicate create: got %v, want conflict", err)
	}
	name := "Lisinopril 10"
	if _, err := env.meds.UpdateMedication(ctx, f.doctor, f.med.ID, &medication.UpdateMedicationCommand{Name: &name}); !errors.Is(err, ErrForbidden) {
		t.Errorf("doctor update: got %v, want ErrForbidden", err)
	}
	if err := env.meds.DeleteMedication(ctx, f.admin, f.med.ID); err != nil {
		t.Errorf("unused delete: %v", err)
	}
}
