package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/intranet-portal/internal/persistence"
)

// CredentialStore exposes the employee lookups required by the auth service.
type CredentialStore interface {
	GetEmployeeCredentialsByEmail(ctx context.Context, email string) (EmployeeCredentials, error)
	GetEmployeeCredentials(ctx context.Context, id string) (EmployeeCredentials, error)
}

// SessionRepository captures the persistence interactions for issued sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// SettingsProvider returns the current settings snapshot.
type SettingsProvider interface {
	Current() Settings
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthService handles login, session rotation and re-authentication.
type AuthService struct {
	credentials    CredentialStore
	sessions       SessionRepository
	settings       SettingsProvider
	verifyPassword PasswordVerifier
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(credentials CredentialStore, sessions SessionRepository, settings SettingsProvider, verify PasswordVerifier, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(credentials, sessions, settings, verify, tokenGenerator, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(credentials CredentialStore, sessions SessionRepository, settings SettingsProvider, verify PasswordVerifier, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = VerifyPassword
	}
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		credentials:    credentials,
		sessions:       sessions,
		settings:       settings,
		verifyPassword: verify,
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

func (s *AuthService) currentSettings() Settings {
	if s.settings == nil {
		return DefaultSettings()
	}
	return s.settings.Current()
}

// Authenticate checks e-mail and password and opens a new session.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"employee_id", result.Employee.ID,
			"session_id", result.Session.ID,
		).InfoContext(ctx, "authentication succeeded")
	}()

	if email == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	var creds EmployeeCredentials
	creds, err = s.credentials.GetEmployeeCredentialsByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			err = ErrInvalidCredentials
		}
		return
	}
	if creds.Employee.Disabled {
		err = ErrAccountDisabled
		return
	}
	if err = s.verifyPassword(creds.PasswordHash, params.Password); err != nil {
		err = ErrInvalidCredentials
		return
	}

	now := s.now()
	session := Session{
		ID:          s.tokenGenerator(),
		UserID:      creds.Employee.ID,
		Token:       s.tokenGenerator(),
		Fingerprint: strings.TrimSpace(params.Fingerprint),
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(s.sessionTTL),
	}
	if session.Token == "" {
		session.Token = session.ID
	}

	if s.sessions != nil {
		if err = s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
			return
		}
		if session, err = s.sessions.CreateSession(ctx, session); err != nil {
			return
		}
	}

	result = AuthenticateResult{Employee: creds.Employee, Session: session}
	return
}

// Reauthenticate confirms the password of an already signed-in employee.
func (s *AuthService) Reauthenticate(ctx context.Context, employeeID, password string) (err error) {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.credentials == nil {
		return fmt.Errorf("credential store not configured")
	}
	logger := s.loggerWith(ctx, "Reauthenticate", "employee_id", employeeID)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "re-authentication failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if strings.TrimSpace(employeeID) == "" || password == "" {
		return ErrInvalidCredentials
	}
	creds, err := s.credentials.GetEmployeeCredentials(ctx, employeeID)
	if err != nil {
		if isNotFound(err) {
			return ErrInvalidCredentials
		}
		return err
	}
	if creds.Employee.Disabled {
		return ErrAccountDisabled
	}
	if s.verifyPassword(creds.PasswordHash, password) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// RefreshSession rotates an existing session token, extending its validity window.
func (s *AuthService) RefreshSession(ctx context.Context, params RefreshSessionParams) (result RefreshSessionResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	token := strings.TrimSpace(params.Token)
	logger := s.loggerWith(ctx, "RefreshSession", "token_provided", token != "")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "session refresh failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"session_id", result.Session.ID,
			"employee_id", result.Session.UserID,
		).InfoContext(ctx, "session refreshed")
	}()

	var session Session
	if session, err = s.activeSession(ctx, token); err != nil {
		return
	}

	now := s.now()
	if next := s.tokenGenerator(); next != "" {
		session.Token = next
	}
	session.UpdatedAt = now
	session.ExpiresAt = now.Add(s.sessionTTL)
	if fp := strings.TrimSpace(params.Fingerprint); fp != "" {
		session.Fingerprint = fp
	}

	if session, err = s.sessions.UpdateSession(ctx, session); err != nil {
		return
	}
	result = RefreshSessionResult{Session: session}
	return
}

// RevokeSession invalidates an existing session token.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ErrInvalidCredentials
	}
	logger := s.loggerWith(ctx, "RevokeSession")

	if _, err := s.sessions.RevokeSession(ctx, trimmed, s.now()); err != nil {
		if isNotFound(err) {
			err = ErrInvalidCredentials
		}
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if err := s.sessions.DeleteExpiredSessions(ctx, s.now()); err != nil {
		logger.ErrorContext(ctx, "failed to prune expired sessions", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "session revoked")
	return nil
}

// ValidateSession resolves the principal behind an active session token.
// Capabilities are computed from the current settings on every call.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.sessions == nil || s.credentials == nil {
		err = fmt.Errorf("auth repositories not configured")
		return
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var session Session
	if session, err = s.activeSession(ctx, trimmed); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			err = ErrUnauthorized
		}
		return
	}

	var creds EmployeeCredentials
	creds, err = s.credentials.GetEmployeeCredentials(ctx, session.UserID)
	if err != nil {
		if isNotFound(err) {
			err = ErrUnauthorized
		}
		return
	}
	if creds.Employee.Disabled {
		err = ErrAccountDisabled
		return
	}

	principal = PrincipalFor(creds.Employee, s.currentSettings())
	return
}

func (s *AuthService) activeSession(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrInvalidCredentials
	}
	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		if isNotFound(err) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	now := s.now()
	if session.RevokedAt != nil && !session.RevokedAt.IsZero() {
		return Session{}, ErrSessionRevoked
	}
	if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(now) {
		return Session{}, ErrSessionExpired
	}
	return session, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}
