// Package users provides the credential store: user records and the
// failure counters used by the lockout policy.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByEmail(ctx, "someone@example.com")
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/authgate/internal/entities"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// FailureResult describes the state of an account after a failed login was recorded.
type FailureResult struct {
	FailedLogins int
	LockedUntil  *time.Time
	// Locked is true only for the attempt that moved the account into the locked state.
	Locked bool
}

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser inserts a new user. The email must already be normalized.
func (r *Repository) CreateUser(ctx context.Context, user *entities.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by normalized email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// IncrementFailedLogin atomically bumps the failure counter and, when the counter
// reaches threshold on an account that is not currently locked, sets locked_until.
//
// Both updates run in one transaction and are expressed as single-row UPDATE
// statements, so concurrent failures never lose an increment and at most one
// of them observes the lock transition.
func (r *Repository) IncrementFailedLogin(ctx context.Context, id string, threshold int, now, lockUntil time.Time) (*FailureResult, error) {
	result := &FailureResult{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entities.User{}).
			Where("id = ?", id).
			Update("failed_logins", gorm.Expr("failed_logins + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		lockMs := lockUntil.UnixMilli()
		res = tx.Model(&entities.User{}).
			Where("id = ? AND failed_logins >= ? AND (locked_until IS NULL OR locked_until <= ?)", id, threshold, now.UnixMilli()).
			Update("locked_until", lockMs)
		if res.Error != nil {
			return res.Error
		}
		result.Locked = res.RowsAffected == 1

		var user entities.User
		if err := tx.Select("failed_logins", "locked_until").Where("id = ?", id).First(&user).Error; err != nil {
			return err
		}
		result.FailedLogins = user.FailedLogins
		if user.LockedUntil != nil {
			t := time.UnixMilli(*user.LockedUntil)
			result.LockedUntil = &t
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to record failed login: %w", err)
	}

	return result, nil
}

// ResetFailedLogin clears the failure counter and any lock.
func (r *Repository) ResetFailedLogin(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Model(&entities.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"failed_logins": 0,
			"locked_until":  nil,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to reset failed logins: %w", err)
	}
	return nil
}

// CountUsers returns the number of registered users.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.User{}).Count(&count).Error
	return count, err
}

// isUniqueViolation recognizes both translated and raw sqlite unique constraint errors.
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}
