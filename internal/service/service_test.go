package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/config"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/notification"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/profile"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/events"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/repository"
	"github.com/dmehra2102/prod-golang-projects/carelink/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/carelink/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/carelink/pkg/metrics"
)

const testPassword = "correct-horse-battery"

var testNow = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	repos    *repository.Repos
	metrics  *metrics.Collector
	auth     *AuthService
	profiles *ProfileService
	conns    *ConnectionService
	clinical *ClinicalService
	meds     *MedicationService
	notes    *NotificationService
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.OpenMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	log := zap.NewNop()
	repos := repository.New(db)
	m := metrics.NewCollector("test")

	auditSvc := NewAuditService(repos.Audit, log, m)
	t.Cleanup(auditSvc.Shutdown)

	bus := events.NewBus(log, m)
	jwtManager := auth.NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-test-secret-test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "carelink-test",
	})

	env := &testEnv{
		repos:    repos,
		metrics:  m,
		auth:     NewAuthService(repos.Users, jwtManager, auditSvc, m, "carelink-test", log),
		profiles: NewProfileService(repos.Users, repos.Profiles, repos.Connections, auditSvc, log),
		conns:    NewConnectionService(repos.Connections, repos.Profiles, bus, auditSvc, m, log),
		clinical: NewClinicalService(repos.Connections, repos.Diagnoses, repos.Prescriptions, repos.Medications, bus, auditSvc, m, log),
		meds:     NewMedicationService(repos.Medications, auditSvc, log),
		notes:    NewNotificationService(repos.Notifications, m, log),
		now:      testNow,
	}
	env.notes.Subscribe(bus)

	clock := func() time.Time { return env.now }
	jwtManager.WithClock(clock)
	env.auth.now = clock
	env.auth.cost = bcrypt.MinCost
	env.profiles.now = clock
	env.conns.now = clock
	env.clinical.now = clock
	env.notes.now = clock

	return env
}

// register creates an account with an empty profile for its role.
func (e *testEnv) register(t *testing.T, email string, role domain.Role) Caller {
	t.Helper()
	cmd := &RegisterCommand{
		Email:     email,
		Password:  testPassword,
		FirstName: strings.Split(email, "@")[0],
		LastName:  "Test",
		Role:      role,
	}
	switch role {
	case domain.RolePatient:
		cmd.Patient = &profile.CreatePatientCommand{}
	case domain.RoleDoctor:
		cmd.Doctor = &profile.CreateDoctorCommand{Specialization: "Cardiology"}
	}

	var (
		u   *domain.User
		err error
	)
	if role == domain.RoleAdmin {
		u, err = e.auth.CreateAdmin(context.Background(), email, testPassword)
	} else {
		u, err = e.auth.Register(context.Background(), cmd)
	}
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return Caller{UserID: u.ID, Role: u.Role}
}

func (e *testEnv) inbox(t *testing.T, c Caller) []*notification.Notification {
	t.Helper()
	page, err := e.notes.ListNotifications(context.Background(), c, &notification.ListNotificationsQuery{})
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	return page.Notifications
}
