package prescription

import (
	"testing"
	"time"

	"gorm.io/datatypes"
)

func ptr[T any](v T) *T { return &v }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDeriveEndDate(t *testing.T) {
	start := date(2024, 1, 1)

	tests := []struct {
		name  string
		value *int
		unit  *DurationUnit
		want  *time.Time
	}{
		{"7 days", ptr(7), ptr(UnitDays), ptr(date(2024, 1, 8))},
		{"2 weeks", ptr(2), ptr(UnitWeeks), ptr(date(2024, 1, 15))},
		{"1 month is 30 days", ptr(1), ptr(UnitMonths), ptr(date(2024, 1, 31))},
		{"2 months across february", ptr(2), ptr(UnitMonths), ptr(date(2024, 3, 1))},
		{"zero days", ptr(0), ptr(UnitDays), ptr(start)},
		{"indefinite", ptr(10), ptr(UnitIndefinite), nil},
		{"missing value", nil, ptr(UnitDays), nil},
		{"missing unit", ptr(5), nil, nil},
		{"longest course", ptr(MaxCourseDays), ptr(UnitDays), ptr(start.AddDate(0, 0, MaxCourseDays))},
		{"too many days", ptr(MaxCourseDays + 1), ptr(UnitDays), nil},
		{"too many months", ptr(MaxCourseDays/30 + 1), ptr(UnitMonths), nil},
		{"months overflowing int", ptr(307445734561825861), ptr(UnitMonths), nil},
		{"weeks near max int", ptr(1 << 60), ptr(UnitWeeks), nil},
		{"negative", ptr(-1), ptr(UnitDays), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveEndDate(start, tt.value, tt.unit)
			switch {
			case tt.want == nil && got != nil:
				t.Fatalf("DeriveEndDate() = %v, want nil", *got)
			case tt.want != nil && got == nil:
				t.Fatalf("DeriveEndDate() = nil, want %v", *tt.want)
			case tt.want != nil && !got.Equal(*tt.want):
				t.Fatalf("DeriveEndDate() = %v, want %v", *got, *tt.want)
			}
		})
	}
}

func TestApplyDerivedEndDate(t *testing.T) {
	item := &Item{
		StartDate:     datatypes.Date(date(2024, 1, 1)),
		DurationValue: ptr(7),
		DurationUnit:  ptr(UnitDays),
	}
	item.ApplyDerivedEndDate()
	if item.EndDate == nil {
		t.Fatal("EndDate not derived")
	}
	if got := time.Time(*item.EndDate); !got.Equal(date(2024, 1, 8)) {
		t.Errorf("EndDate = %v, want 2024-01-08", got)
	}

	// Changing the duration afterwards must not recompute the end date.
	item.DurationValue = ptr(30)
	item.ApplyDerivedEndDate()
	if got := time.Time(*item.EndDate); !got.Equal(date(2024, 1, 8)) {
		t.Errorf("EndDate recomputed to %v", got)
	}
}

func TestApplyDerivedEndDateKeepsExplicit(t *testing.T) {
	explicit := datatypes.Date(date(2024, 2, 14))
	item := &Item{
		StartDate:     datatypes.Date(date(2024, 1, 1)),
		DurationValue: ptr(7),
		DurationUnit:  ptr(UnitDays),
		EndDate:       &explicit,
	}
	item.ApplyDerivedEndDate()
	if got := time.Time(*item.EndDate); !got.Equal(date(2024, 2, 14)) {
		t.Errorf("explicit EndDate overwritten with %v", got)
	}
}

func TestApplyDerivedEndDateOpenEnded(t *testing.T) {
	item := &Item{
		StartDate:     datatypes.Date(date(2024, 1, 1)),
		DurationValue: ptr(3),
		DurationUnit:  ptr(UnitIndefinite),
	}
	item.ApplyDerivedEndDate()
	if !item.IsOpenEnded() {
		t.Errorf("EndDate = %v, want nil for indefinite course", time.Time(*item.EndDate))
	}
}

func TestDurationUnitIsValid(t *testing.T) {
	for _, u := range []DurationUnit{UnitDays, UnitWeeks, UnitMonths, UnitIndefinite} {
		if !u.IsValid() {
			t.Errorf("%q should be valid", u)
		}
	}
	if DurationUnit("years").IsValid() {
		t.Error(`"years" should be invalid`)
	}
}
