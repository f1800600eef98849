package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/profile"
	"github.com/dmehra2102/prod-golang-projects/carelink/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/carelink/pkg/metrics"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is temporarily locked due to multiple failed login attempts")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrMFARequired        = errors.New("a one-time code is required")
	ErrInvalidMFACode     = errors.New("invalid one-time code")
	ErrMFANotEnrolled     = errors.New("mfa enrollment has not been started")
)

const maxFailedAttempts = 5

const lockDuration = 15 * time.Minute

const minPasswordLength = 12

type UserRepository interface {
	CreateWithProfile(ctx context.Context, u *domain.User, p any) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateLoginAttempt(ctx context.Context, u *domain.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string, changedAt time.Time) error
	UpdateMFA(ctx context.Context, id uuid.UUID, secret string, enabled bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type RegisterCommand struct {
	Email       string
	Username    string
	Password    string
	FirstName   string
	LastName    string
	Role        domain.Role
	PhoneNumber string

	// At most one of these may be set and it must match Role.
	Patient *profile.CreatePatientCommand
	Doctor  *profile.CreateDoctorCommand
}

type LoginCommand struct {
	Email    string
	Password string
	// OTP is required when the account has MFA enabled.
	OTP string
	IP  string
}

// MFAEnrollment is returned once; the secret is not shown again.
type MFAEnrollment struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauth_url"`
}

type AuthService struct {
	userRepo   UserRepository
	jwtManager *auth.JWTManager
	auditSvc   *AuditService
	metrics    *metrics.Collector
	log        *zap.Logger
	issuer     string
	now        clock
	// bcrypt cost; lowered in tests.
	cost int
}

func NewAuthService(userRepo UserRepository, jwtManager *auth.JWTManager, auditSvc *AuditService, m *metrics.Collector, issuer string, log *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		auditSvc:   auditSvc,
		metrics:    m,
		log:        log,
		issuer:     issuer,
		now:        utcNow,
		cost:       bcrypt.DefaultCost,
	}
}

// Register creates a patient or doctor account and, when given, its profile
// in the same transaction. Admin accounts are created with CreateAdmin.
func (s *AuthService) Register(ctx context.Context, cmd *RegisterCommand) (*domain.User, error) {
	if cmd.Role != domain.RolePatient && cmd.Role != domain.RoleDoctor {
		return nil, &ValidationError{Fields: []string{"role must be patient or doctor"}}
	}
	if cmd.Patient != nil && cmd.Doctor != nil {
		return nil, &ValidationError{Fields: []string{"only one profile may be supplied"}}
	}

	u, errs := s.newUser(cmd.Email, cmd.Password, cmd.Role)
	u.Username = strings.TrimSpace(cmd.Username)
	u.FirstName = strings.TrimSpace(cmd.FirstName)
	u.LastName = strings.TrimSpace(cmd.LastName)
	u.PhoneNumber = strings.TrimSpace(cmd.PhoneNumber)

	var p any
	switch {
	case cmd.Patient != nil:
		pp, perrs := newPatientProfile(cmd.Patient, s.now())
		errs = append(errs, perrs...)
		p = pp
	case cmd.Doctor != nil:
		dp, derrs := newDoctorProfile(cmd.Doctor)
		errs = append(errs, derrs...)
		p = dp
	}
	if err := validationErr(errs); err != nil {
		return nil, err
	}
	if p != nil {
		if err := profile.CheckOwner(u, p); err != nil {
			return nil, err
		}
	}

	if err := s.hashInto(u, cmd.Password); err != nil {
		return nil, err
	}
	if err := s.userRepo.CreateWithProfile(ctx, u, p); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.UsersRegisteredTotal.WithLabelValues(string(u.Role)).Inc()
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		Caller:       Caller{UserID: u.ID, Role: u.Role},
		Action:       domain.ActionCreate,
		ResourceType: "user",
		ResourceID:   u.ID,
	})
	s.log.Info("user registered",
		zap.String("user_id", u.ID.String()),
		zap.String("role", string(u.Role)),
	)
	return u, nil
}

// CreateAdmin is used by the operator CLI; there is no HTTP route for it.
func (s *AuthService) CreateAdmin(ctx context.Context, email, password string) (*domain.User, error) {
	u, errs := s.newUser(email, password, domain.RoleAdmin)
	if err := validationErr(errs); err != nil {
		return nil, err
	}
	if err := s.hashInto(u, password); err != nil {
		return nil, err
	}
	if err := s.userRepo.CreateWithProfile(ctx, u, nil); err != nil {
		return nil, err
	}
	s.log.Info("admin created", zap.String("user_id", u.ID.String()))
	return u, nil
}

func (s *AuthService) newUser(email, password string, role domain.Role) (*domain.User, []string) {
	var errs []string

	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		errs = append(errs, "email must be a valid address")
	}
	if err := validatePasswordStrength(password); err != nil {
		errs = append(errs, err.Error())
	}

	return &domain.User{
		Email:             email,
		Role:              role,
		IsActive:          true,
		PasswordChangedAt: s.now(),
	}, errs
}

func (s *AuthService) hashInto(u *domain.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	u.PasswordHash = string(hash)
	return nil
}

func (s *AuthService) Login(ctx context.Context, cmd *LoginCommand) (*domain.TokenPair, error) {
	now := s.now()

	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(cmd.Email)))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		// Use bcrypt dummy hash to prevent timing-based user enumeration.
		_, _ = bcrypt.GenerateFromPassword([]byte(cmd.Password), s.cost)
		s.recordLoginFailure("unknown_email")
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.recordLoginFailure("inactive")
		return nil, ErrAccountInactive
	}

	if user.IsLocked(now) {
		s.recordLoginFailure("locked")
		return nil, ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(cmd.Password)); err != nil {
		s.failAttempt(ctx, user, now)
		s.log.Warn("failed login attempt",
			zap.String("email", user.Email),
			zap.String("ip", cmd.IP),
			zap.Int("failed_count", user.FailedLoginCount),
		)
		s.recordLoginFailure("bad_password")
		return nil, ErrInvalidCredentials
	}

	if user.MFAEnabled {
		if cmd.OTP == "" {
			s.recordLoginFailure("mfa_missing")
			return nil, ErrMFARequired
		}
		if !s.validOTP(cmd.OTP, user.MFASecret) {
			s.failAttempt(ctx, user, now)
			s.recordLoginFailure("mfa_invalid")
			return nil, ErrInvalidMFACode
		}
	}

	user.FailedLoginCount = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	if err := s.userRepo.UpdateLoginAttempt(ctx, user); err != nil {
		s.log.Error("failed to record login", zap.Error(err))
	}

	pair, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Caller:       Caller{UserID: user.ID, Role: user.Role, IP: cmd.IP},
		Action:       domain.ActionLogin,
		ResourceType: "user",
		ResourceID:   user.ID,
	})
	s.log.Info("user logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("ip", cmd.IP),
	)

	return pair, nil
}

// failAttempt increments the failure counter and locks the account once it
// reaches maxFailedAttempts.
func (s *AuthService) failAttempt(ctx context.Context, user *domain.User, now time.Time) {
	user.FailedLoginCount++
	if user.FailedLoginCount >= maxFailedAttempts {
		until := now.Add(lockDuration)
		user.LockedUntil = &until
		user.FailedLoginCount = 0
		s.log.Warn("account locked",
			zap.String("user_id", user.ID.String()),
			zap.Time("locked_until", until),
		)
	}
	if err := s.userRepo.UpdateLoginAttempt(ctx, user); err != nil {
		s.log.Error("failed to record login attempt", zap.Error(err))
	}
}

func (s *AuthService) recordLoginFailure(reason string) {
	if s.metrics != nil {
		s.metrics.LoginFailuresTotal.WithLabelValues(reason).Inc()
	}
}

func (s *AuthService) validOTP(code, secret string) bool {
	ok, err := totp.ValidateCustom(code, secret, s.now(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

func (s *AuthService) issue(user *domain.User) (*domain.TokenPair, error) {
	pair, err := s.jwtManager.GenerateTokenPair(&domain.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		s.log.Error("failed to generate token pair", zap.Error(err))
		return nil, fmt.Errorf("generating tokens: %w", err)
	}
	return pair, nil
}

// RefreshToken issues a new access token given a valid refresh token.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Re-validate user is still active
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	// iat has second precision.
	if claims.IssuedAt.Before(user.PasswordChangedAt.Truncate(time.Second)) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// ChangePassword updates a user's password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	if err := validatePasswordStrength(newPassword); err != nil {
		return &ValidationError{Fields: []string{err.Error()}}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	return s.userRepo.UpdatePassword(ctx, userID, string(hash), s.now())
}

// EnrollMFA stores a fresh TOTP secret. It takes effect after ConfirmMFA.
func (s *AuthService) EnrollMFA(ctx context.Context, userID uuid.UUID) (*MFAEnrollment, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: user.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("generating totp key: %w", err)
	}
	if err := s.userRepo.UpdateMFA(ctx, userID, key.Secret(), false); err != nil {
		return nil, err
	}

	return &MFAEnrollment{Secret: key.Secret(), URL: key.URL()}, nil
}

// ConfirmMFA enables the second factor once the user proves they hold the
// secret issued by EnrollMFA.
func (s *AuthService) ConfirmMFA(ctx context.Context, userID uuid.UUID, code string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.MFASecret == "" {
		return ErrMFANotEnrolled
	}
	if !s.validOTP(code, user.MFASecret) {
		return ErrInvalidMFACode
	}
	if err := s.userRepo.UpdateMFA(ctx, userID, user.MFASecret, true); err != nil {
		return err
	}

	s.log.Info("mfa enabled", zap.String("user_id", userID.String()))
	return nil
}

// DeleteAccount removes the caller's own account after re-checking the
// password. Everything hanging off the account goes with it.
func (s *AuthService) DeleteAccount(ctx context.Context, caller Caller, password string) error {
	user, err := s.userRepo.GetByID(ctx, caller.UserID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return s.deleteUser(ctx, caller, user.ID)
}

// DeleteUser is the admin variant of DeleteAccount.
func (s *AuthService) DeleteUser(ctx context.Context, caller Caller, id uuid.UUID) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	return s.deleteUser(ctx, caller, id)
}

func (s *AuthService) deleteUser(ctx context.Context, caller Caller, id uuid.UUID) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Caller: caller, Action: domain.ActionDelete, ResourceType: "user", ResourceID: id,
	})
	s.log.Info("user deleted",
		zap.String("user_id", id.String()),
		zap.String("by", caller.UserID.String()),
	)
	return nil
}

func validatePasswordStrength(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}
