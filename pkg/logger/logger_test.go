package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/config"
)

var testApp = config.AppConfig{Name: "carelink-api", Version: "1.2.3", Environment: "staging"}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LogConfig
		wantErr bool
	}{
		{"json info", config.LogConfig{Level: "info", Format: "json", OutputPath: "stdout"}, false},
		{"console debug", config.LogConfig{Level: "debug", Format: "console", OutputPath: "stderr"}, false},
		{"bad level", config.LogConfig{Level: "loud", Format: "json", OutputPath: "stdout"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg, testApp)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if log == nil {
				t.Fatal("expected logger")
			}
		})
	}
}

func TestNewStampsDeployment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.log")
	log, err := New(config.LogConfig{Level: "info", Format: "json", OutputPath: path}, testApp)
	if err != nil {
		t.Fatal(err)
	}
	log.Info("connection approved")
	_ = log.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var line map[string]any
	if err := json.Unmarshal(raw, &line); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	for k, want := range map[string]string{"service": "carelink-api", "version": "1.2.3", "env": "staging"} {
		if line[k] != want {
			t.Errorf("%s = %v, want %q", k, line[k], want)
		}
	}
	ts, _ := line["ts"].(string)
	if _, err := time.Parse("2006-01-02T15:04:05.000Z0700", ts); err != nil {
		t.Errorf("ts %q is not ISO8601: %v", ts, err)
	}
}
