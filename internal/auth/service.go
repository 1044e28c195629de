package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/authgate/internal/audit"
	"github.com/mrlokans/authgate/internal/config"
	"github.com/mrlokans/authgate/internal/database/users"
	"github.com/mrlokans/authgate/internal/entities"
)

// CredentialStore defines the user data access the service needs.
type CredentialStore interface {
	FailureCounter
	CreateUser(ctx context.Context, user *entities.User) error
	GetUserByEmail(ctx context.Context, email string) (*entities.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

// EventRecorder receives security events. Implementations must not block.
type EventRecorder interface {
	Record(ctx context.Context, ev audit.Event)
}

// Service handles registration and credential verification.
type Service struct {
	store   CredentialStore
	hasher  *PasswordHasher
	lockout *LockoutPolicy
	events  EventRecorder
	config  config.Auth
	now     func() time.Time
}

// NewService creates a new authentication service.
func NewService(store CredentialStore, events EventRecorder, cfg config.Auth) *Service {
	return &Service{
		store:   store,
		hasher:  NewPasswordHasher(cfg.BcryptCost),
		lockout: NewLockoutPolicy(store, cfg.MaxLoginAttempts, cfg.LockoutDuration),
		events:  events,
		config:  cfg,
		now:     time.Now,
	}
}

// SetClock replaces the time source used for lockout decisions.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
	s.lockout.now = now
}

// Register creates a new account. The requested role is honoured only when
// admin registration is allowed; anything but "admin" yields a regular user.
func (s *Service) Register(ctx context.Context, email, password, role string) (*entities.User, error) {
	requested := entities.ParseUserRole(role)
	if !s.config.AllowAdminRegistration {
		requested = entities.UserRoleUser
	}
	return s.createUser(ctx, email, password, requested)
}

// CreateAdmin creates an administrator regardless of registration settings.
func (s *Service) CreateAdmin(ctx context.Context, email, password string) (*entities.User, error) {
	return s.createUser(ctx, email, password, entities.UserRoleAdmin)
}

func (s *Service) createUser(ctx context.Context, rawEmail, rawPassword string, role entities.UserRole) (*entities.User, error) {
	email, err := NormalizeEmail(rawEmail)
	if err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	password, err := NormalizePassword(rawPassword)
	if err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	_, err = s.store.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		s.record(ctx, audit.Event{Tag: entities.SecurityEventRegister, Email: email, Reason: entities.ReasonEmailExists})
		return nil, ErrUserExists
	case !errors.Is(err, users.ErrNotFound):
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UnixMilli(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			s.record(ctx, audit.Event{Tag: entities.SecurityEventRegister, Email: email, Reason: entities.ReasonEmailExists})
			return nil, ErrUserExists
		}
		return nil, err
	}

	s.record(ctx, audit.Event{Tag: entities.SecurityEventRegister, Email: email, UserID: user.ID, Success: true})
	return user, nil
}

// AuthenticateSession verifies credentials for the session login path.
// The lockout policy always applies.
func (s *Service) AuthenticateSession(ctx context.Context, email, password string) (*entities.User, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := ValidateEmail(normalized); err != nil {
		return nil, err
	}
	return s.authenticate(ctx, entities.SecurityEventLoginSession, normalized, password, true)
}

// AuthenticateToken verifies credentials for the bearer token login path.
// The lockout policy applies only when TokenLoginLockout is enabled.
func (s *Service) AuthenticateToken(ctx context.Context, email, password string) (*entities.User, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	return s.authenticate(ctx, entities.SecurityEventLoginJWT, normalized, password, s.config.TokenLoginLockout)
}

func (s *Service) authenticate(ctx context.Context, tag, email, password string, enforceLockout bool) (*entities.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, users.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}
		s.hasher.VerifyDummy(password)
		s.record(ctx, audit.Event{Tag: tag, Email: email, Reason: entities.ReasonNotFound})
		return nil, ErrInvalidCredentials
	}

	if enforceLockout {
		if err := s.lockout.Check(user); err != nil {
			s.record(ctx, audit.Event{Tag: tag, Email: email, UserID: user.ID, Reason: entities.ReasonLocked})
			return nil, err
		}
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		if enforceLockout {
			result, err := s.lockout.RecordFailure(ctx, user)
			if err != nil {
				return nil, fmt.Errorf("failed to record login failure: %w", err)
			}
			if result.Locked {
				log.Printf("[AUTH] account %s locked after %d failed attempts", user.ID, result.FailedLogins)
				s.record(ctx, audit.Event{Tag: entities.SecurityEventAccountLocked, Email: email, UserID: user.ID, Success: true})
			}
		}
		s.record(ctx, audit.Event{Tag: tag, Email: email, UserID: user.ID, Reason: entities.ReasonBadPassword})
		return nil, ErrInvalidCredentials
	}

	if err := s.lockout.RecordSuccess(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to reset login failures: %w", err)
	}
	user.FailedLogins = 0
	user.LockedUntil = nil

	s.record(ctx, audit.Event{Tag: tag, Email: email, UserID: user.ID, Success: true})
	return user, nil
}

// HasUsers checks if any users exist in the store.
func (s *Service) HasUsers(ctx context.Context) (bool, error) {
	count, err := s.store.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Service) record(ctx context.Context, ev audit.Event) {
	recordEvent(ctx, s.events, ev)
}
