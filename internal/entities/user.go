package entities

import "time"

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// ParseUserRole maps a caller-supplied role onto a known role.
// Only the literal "admin" yields an administrator; anything else is a regular user.
func ParseUserRole(s string) UserRole {
	if s == string(UserRoleAdmin) {
		return UserRoleAdmin
	}
	return UserRoleUser
}

// User is a credential store record. Timestamps are unix milliseconds so that
// lock comparisons stay numeric inside SQL.
type User struct {
	ID           string   `gorm:"primaryKey;size:36" json:"id"`
	Email        string   `gorm:"uniqueIndex;size:256;not null" json:"email"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Role         UserRole `gorm:"size:20;not null;default:user" json:"role"`
	FailedLogins int      `gorm:"not null;default:0" json:"-"`
	LockedUntil  *int64   `json:"-"`
	CreatedAt    int64    `gorm:"autoCreateTime:milli;not null" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

// LockedAt reports whether the account is locked at the given instant and,
// if so, how long the lock has left.
func (u *User) LockedAt(now time.Time) (bool, time.Duration) {
	if u.LockedUntil == nil {
		return false, 0
	}
	until := time.UnixMilli(*u.LockedUntil)
	if !now.Before(until) {
		return false, 0
	}
	return true, until.Sub(now)
}

// PublicUser is the user view returned to clients.
type PublicUser struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Role: u.Role}
}
