package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultBcryptCost is the documented work factor for password hashes.
	DefaultBcryptCost = 12

	// MinPasswordLength is the minimum password length after normalization.
	MinPasswordLength = 10

	// MaxInputLength bounds emails and passwords, in characters.
	MaxInputLength = 256

	// bcrypt only reads the first 72 bytes of its input.
	bcryptMaxBytes = 72
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if utf8.RuneCountInString(email) > MaxInputLength {
		return "", ErrEmailTooLong
	}
	return email, nil
}

// ValidateEmail requires a local part and a domain containing a dot.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrEmailInvalid
	}
	return nil
}

// NormalizePassword trims surrounding whitespace. It must be applied
// identically at registration and at every login attempt.
func NormalizePassword(password string) (string, error) {
	password = strings.TrimSpace(password)
	if utf8.RuneCountInString(password) > MaxInputLength {
		return "", ErrPasswordTooLong
	}
	return password, nil
}

// ValidatePassword enforces the minimum length on a normalized password.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// PasswordHasher hashes and verifies passwords with bcrypt.
type PasswordHasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

// NewPasswordHasher creates a hasher with the given bcrypt cost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash normalizes the password and returns its bcrypt digest.
func (h *PasswordHasher) Hash(password string) (string, error) {
	normalized, err := NormalizePassword(password)
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword(bcryptInput(normalized), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify normalizes the password and compares it with a digest.
func (h *PasswordHasher) Verify(password, digest string) bool {
	normalized, err := NormalizePassword(password)
	if err != nil {
		return false
	}
	err = bcrypt.CompareHashAndPassword([]byte(digest), bcryptInput(normalized))
	return err == nil
}

// VerifyDummy spends the same work as Verify against a throwaway digest.
// Used for unknown accounts so response timing does not reveal them.
func (h *PasswordHasher) VerifyDummy(password string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("unused-dummy-password"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, bcryptInput(password))
}

// bcryptInput pre-hashes passwords that would exceed bcrypt's input limit.
func bcryptInput(password string) []byte {
	if len(password) <= bcryptMaxBytes {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
