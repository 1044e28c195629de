package auth

import (
	"context"
	"time"

	"github.com/mrlokans/authgate/internal/database/users"
	"github.com/mrlokans/authgate/internal/entities"
)

const (
	DefaultMaxLoginAttempts = 5
	DefaultLockoutDuration  = 10 * time.Minute
)

// FailureCounter is the part of the credential store the lockout policy mutates.
type FailureCounter interface {
	IncrementFailedLogin(ctx context.Context, id string, threshold int, now, lockUntil time.Time) (*users.FailureResult, error)
	ResetFailedLogin(ctx context.Context, id string) error
}

// LockoutPolicy tracks consecutive login failures per account.
//
// An account is locked while locked_until is in the future. Expiry is lazy:
// nothing clears the lock, it simply stops applying once observed as past.
// Only a successful authentication resets the counter and the lock.
type LockoutPolicy struct {
	threshold int
	duration  time.Duration
	store     FailureCounter
	now       func() time.Time
}

// NewLockoutPolicy creates a lockout policy backed by the given store.
func NewLockoutPolicy(store FailureCounter, threshold int, duration time.Duration) *LockoutPolicy {
	if threshold <= 0 {
		threshold = DefaultMaxLoginAttempts
	}
	if duration <= 0 {
		duration = DefaultLockoutDuration
	}
	return &LockoutPolicy{
		threshold: threshold,
		duration:  duration,
		store:     store,
		now:       time.Now,
	}
}

// Check returns a *LockedError if the account is locked right now.
func (p *LockoutPolicy) Check(user *entities.User) error {
	if locked, remaining := user.LockedAt(p.now()); locked {
		return &LockedError{RetryAfter: remaining}
	}
	return nil
}

// RecordFailure counts a failed attempt and locks the account when the
// threshold is reached.
func (p *LockoutPolicy) RecordFailure(ctx context.Context, user *entities.User) (*users.FailureResult, error) {
	now := p.now()
	return p.store.IncrementFailedLogin(ctx, user.ID, p.threshold, now, now.Add(p.duration))
}

// RecordSuccess resets the counter and clears any lock.
func (p *LockoutPolicy) RecordSuccess(ctx context.Context, user *entities.User) error {
	if user.FailedLogins == 0 && user.LockedUntil == nil {
		return nil
	}
	return p.store.ResetFailedLogin(ctx, user.ID)
}
