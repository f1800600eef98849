package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/connection"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/profile"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "taken@example.com", domain.RolePatient)

	tests := []struct {
		name    string
		cmd     *RegisterCommand
		wantErr error
		invalid bool
	}{
		{
			name:    "duplicate email is case-insensitive",
			cmd:     &RegisterCommand{Email: "Taken@Example.com", Password: testPassword, Role: domain.RolePatient},
			wantErr: domain.ErrConflict,
		},
		{
			name:    "profile must match role",
			cmd:     &RegisterCommand{Email: "a@example.com", Password: testPassword, Role: domain.RolePatient, Doctor: &profile.CreateDoctorCommand{}},
			wantErr: profile.ErrRoleMismatch,
		},
		{
			name:    "admin cannot self-register",
			cmd:     &RegisterCommand{Email: "b@example.com", Password: testPassword, Role: domain.RoleAdmin},
			invalid: true,
		},
		{
			name:    "short password",
			cmd:     &RegisterCommand{Email: "c@example.com", Password: "short", Role: domain.RolePatient},
			invalid: true,
		},
		{
			name:    "bad email",
			cmd:     &RegisterCommand{Email: "not-an-email", Password: testPassword, Role: domain.RoleDoctor},
			invalid: true,
		},
		{
			name:    "bad blood group",
			cmd:     &RegisterCommand{Email: "d@example.com", Password: testPassword, Role: domain.RolePatient, Patient: &profile.CreatePatientCommand{BloodGroup: "C+"}},
			invalid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(ctx, tt.cmd)
			if tt.invalid {
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

	t.Run("duplicate license", func(t *testing.T) {
		for i, email := range []string{"doc1@example.com", "doc2@example.com"} {
			_, err := env.auth.Register(ctx, &RegisterCommand{
				Email: email, Password: testPassword, Role: domain.RoleDoctor,
				Doctor: &profile.CreateDoctorCommand{LicenseNumber: "LIC-1"},
			})
			if i == 0 && err != nil {
				t.Fatalf("first doctor: %v", err)
			}
			if i == 1 && !errors.Is(err, profile.ErrLicenseTaken) {
				t.Fatalf("second doctor: got %v, want ErrLicenseTaken", err)
			}
		}
		// The failed registration must not leave a user behind.
		if _, err := env.repos.Users.GetByEmail(ctx, "doc2@example.com"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("GetByEmail: got %v, want not found", err)
		}
	})
}

func TestLoginLockout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "pat@example.com", domain.RolePatient)

	for i := 0; i < maxFailedAttempts; i++ {
		_, err := env.auth.Login(ctx, &LoginCommand{Email: "pat@example.com", Password: "wrong-password-123"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: got %v, want ErrInvalidCredentials", i+1, err)
		}
	}

	if _, err := env.auth.Login(ctx, &LoginCommand{Email: "pat@example.com", Password: testPassword}); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("locked login: got %v, want ErrAccountLocked", err)
	}

	env.now = env.now.Add(lockDuration + time.Second)
	pair, err := env.auth.Login(ctx, &LoginCommand{Email: "PAT@example.com", Password: testPassword})
	if err != nil {
		t.Fatalf("login after lock expiry: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("expected both tokens")
	}

	if _, err := env.auth.RefreshToken(ctx, pair.RefreshToken); err != nil {
		t.Errorf("RefreshToken: %v", err)
	}
	if _, err := env.auth.RefreshToken(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("refresh with access token: got %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.Login(context.Background(), &LoginCommand{Email: "nobody@example.com", Password: testPassword})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}
}

func TestMFA(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.register(t, "doc@example.com", domain.RoleDoctor)

	enrollment, err := env.auth.EnrollMFA(ctx, c.UserID)
	if err != nil {
		t.Fatalf("EnrollMFA: %v", err)
	}

	// Enrollment alone does not enable the second factor.
	if _, err := env.auth.Login(ctx, &LoginCommand{Email: "doc@example.com", Password: testPassword}); err != nil {
		t.Fatalf("login before confirm: %v", err)
	}

	code := func() string {
		t.Helper()
		s, err := totp.GenerateCodeCustom(enrollment.Secret, env.now, totp.ValidateOpts{
			Period: 30, Digits: otp.DigitsSix, Algorithm: otp.AlgorithmSHA1,
		})
		if err != nil {
			t.Fatalf("generate code: %v", err)
		}
		return s
	}

	if err := env.auth.ConfirmMFA(ctx, c.UserID, "000000"); !errors.Is(err, ErrInvalidMFACode) {
		t.Fatalf("confirm with bad code: got %v, want ErrInvalidMFACode", err)
	}
	if err := env.auth.ConfirmMFA(ctx, c.UserID, code()); err != nil {
		t.Fatalf("ConfirmMFA: %v", err)
	}

	tests := []struct {
		name    string
		otp     string
		wantErr error
	}{
		{"missing code", "", ErrMFARequired},
		{"wrong code", "123456", ErrInvalidMFACode},
		{"valid code", code(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Login(ctx, &LoginCommand{Email: "doc@example.com", Password: testPassword, OTP: tt.otp})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.register(t, "pat@example.com", domain.RolePatient)

	if err := env.auth.ChangePassword(ctx, c.UserID, "wrong-current-pw", "another-long-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}
	if err := env.auth.ChangePassword(ctx, c.UserID, testPassword, "short"); err == nil {
		t.Fatal("expected weak password to be rejected")
	}
	if err := env.auth.ChangePassword(ctx, c.UserID, testPassword, "another-long-password"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := env.auth.Login(ctx, &LoginCommand{Email: "pat@example.com", Password: "another-long-password"}); err != nil {
		t.Errorf("login with new password: %v", err)
	}
}

func TestPasswordChangeRevokesRefreshTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.register(t, "pat@example.com", domain.RolePatient)

	old, err := env.auth.Login(ctx, &LoginCommand{Email: "pat@example.com", Password: testPassword})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	env.now = env.now.Add(time.Minute)
	if err := env.auth.ChangePassword(ctx, c.UserID, testPassword, "another-long-password"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := env.auth.RefreshToken(ctx, old.RefreshToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("stale refresh: got %v, want ErrInvalidCredentials", err)
	}

	fresh, err := env.auth.Login(ctx, &LoginCommand{Email: "pat@example.com", Password: "another-long-password"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := env.auth.RefreshToken(ctx, fresh.RefreshToken); err != nil {
		t.Errorf("fresh refresh: %v", err)
	}
}

func TestDeleteAccountCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	patient := env.register(t, "pat@example.com", domain.RolePatient)
	doctor := env.register(t, "doc@example.com", domain.RoleDoctor)
	c, err := env.conns.RequestConnection(ctx, patient, doctor.UserID)
	if err != nil {
		t.Fatalf("RequestConnection: %v", err)
	}

	if err := env.auth.DeleteAccount(ctx, patient, "not-my-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}
	if err := env.auth.DeleteAccount(ctx, patient, testPassword); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}

	if _, err := env.repos.Connections.GetByID(ctx, c.ID); !errors.Is(err, connection.ErrConnectionNotFound) {
		t.Errorf("connection survived: %v", err)
	}
	if n := env.inbox(t, doctor); len(n) != 0 {
		t.Errorf("doctor still has %d notifications about the deleted connection", len(n))
	}
	if err := env.auth.DeleteUser(ctx, doctor, doctor.UserID); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-admin DeleteUser: got %v, want ErrForbidden", err)
	}
}
