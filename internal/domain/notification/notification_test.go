package notification

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestValidate(t *testing.T) {
	id := uuid.New()
	other := uuid.New()

	tests := []struct {
		name string
		n    Notification
		want error
	}{
		{"no reference", Notification{Message: "hi", Type: TypeGeneralUpdate}, nil},
		{"one reference", Notification{Message: "hi", Type: TypeNewDiagnosis, DiagnosisID: &id}, nil},
		{"two references", Notification{Message: "hi", Type: TypeNewDiagnosis, DiagnosisID: &id, ConnectionID: &other}, ErrMultipleReferences},
		{"empty message", Notification{Type: TypeGeneralUpdate}, ErrEmptyMessage},
		{"bad type", Notification{Message: "hi", Type: "sms"}, ErrInvalidType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.n.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	short := Notification{Message: "Your request was approved."}
	if got := short.Summary(); got != short.Message {
		t.Errorf("Summary() = %q", got)
	}

	long := Notification{Message: strings.Repeat("a", 100)}
	got := long.Summary()
	if len(got) != 78 || !strings.HasSuffix(got, "...") {
		t.Errorf("Summary() = %q (len %d)", got, len(got))
	}
}
