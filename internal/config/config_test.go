package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "dev-secret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.JWT.AccessTokenTTL != 15*time.Minute {
		t.Errorf("unexpected defaults: port=%d ttl=%s", cfg.Server.Port, cfg.JWT.AccessTokenTTL)
	}
	if cfg.Kafka.Enabled() {
		t.Error("kafka should be disabled without brokers")
	}
	if cfg.RateLimit.AuthRequestsPerMinute != 10 {
		t.Errorf("auth rpm = %d", cfg.RateLimit.AuthRequestsPerMinute)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("JWT_SECRET", "staging-secret")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("malformed int should fall back, got %d", cfg.Server.Port)
	}
	if cfg.JWT.AccessTokenTTL != 5*time.Minute {
		t.Errorf("ttl = %s", cfg.JWT.AccessTokenTTL)
	}
	if got := strings.Join(cfg.Kafka.Brokers, "|"); got != "k1:9092|k2:9092" {
		t.Errorf("brokers = %q", got)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Errorf("origins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "missing secret",
			env:  map[string]string{"APP_ENV": "development", "JWT_SECRET": "", "DB_DRIVER": "sqlite"},
			want: "JWT_SECRET is required",
		},
		{
			name: "short secret in production",
			env:  map[string]string{"APP_ENV": "production", "JWT_SECRET": "short", "DB_DRIVER": "postgres", "DB_PASSWORD": "pw", "DB_SSLMODE": "require"},
			want: "at least 32 characters",
		},
		{
			name: "sqlite in production",
			env:  map[string]string{"APP_ENV": "production", "JWT_SECRET": strings.Repeat("x", 32), "DB_DRIVER": "sqlite"},
			want: "sqlite is not allowed",
		},
		{
			name: "unknown driver",
			env:  map[string]string{"APP_ENV": "development", "JWT_SECRET": "s", "DB_DRIVER": "mysql"},
			want: `"mysql" is not supported`,
		},
		{
			name: "kafka without topic",
			env:  map[string]string{"APP_ENV": "development", "JWT_SECRET": "s", "DB_DRIVER": "sqlite", "KAFKA_BROKERS": "k:9092", "KAFKA_EVENTS_TOPIC": ""},
			want: "KAFKA_EVENTS_TOPIC is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}
