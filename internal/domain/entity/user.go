package entity

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/travelgo/travelgo/internal/apperr"
)

const (
	// DefaultBcryptCost is the work factor used when no cost is configured.
	DefaultBcryptCost = 12

	minPasswordLength = 8

	// resetTokenTTL is how long a password-reset token stays valid.
	resetTokenTTL = 10 * time.Minute

	// changedAtBuffer back-dates PasswordChangedAt so a token issued right
	// before the save still compares as fresh despite write latency.
	changedAtBuffer = time.Second
)

// User is the aggregate root for the user domain.
//
// PasswordHash holds the bcrypt hash and is never serialized. The plaintext
// password and its confirmation are write-only staging fields: they exist
// between SetPassword and BeforeSave and are discarded by the lifecycle.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo"`
	Role  Role   `json:"role"`

	PasswordHash         string     `json:"-"`
	PasswordChangedAt    *time.Time `json:"-"`
	PasswordResetToken   string     `json:"-"` // sha256 hex of the delivered token
	PasswordResetExpires *time.Time `json:"-"`

	Active    bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	password        string
	passwordConfirm string
	passwordDirty   bool
}

// NewUser returns a user with the defaults the schema would apply.
func NewUser(name, email string) *User {
	return &User{
		Name:   name,
		Email:  strings.ToLower(strings.TrimSpace(email)),
		Photo:  "default.jpg",
		Role:   RoleUser,
		Active: true,
	}
}

// SetPassword stages a new plaintext password and its confirmation. The pair
// is validated and hashed by BeforeSave; neither value is ever persisted.
func (u *User) SetPassword(password, confirm string) {
	u.password = password
	u.passwordConfirm = confirm
	u.passwordDirty = true
}

// PasswordChanged reports whether a new password is staged for the next save.
func (u *User) PasswordChanged() bool { return u.passwordDirty }

// BeforeSave runs the credential lifecycle. The persistence layer calls it
// before every insert or update.
//
// When no password is staged it is a no-op, so repeated saves leave the
// stored hash untouched. When one is staged it is validated, hashed with the
// given bcrypt cost and discarded together with the confirmation. On an
// existing user the change timestamp is recorded slightly in the past so
// that tokens issued just before the save are still considered fresh.
func (u *User) BeforeSave(isNew bool, cost int) error {
	if !u.passwordDirty {
		return nil
	}
	if cost == 0 {
		cost = DefaultBcryptCost
	}

	if err := u.validatePassword(); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.password), cost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	u.password = ""
	u.passwordConfirm = ""
	u.passwordDirty = false

	if !isNew {
		t := time.Now().Add(-changedAtBuffer)
		u.PasswordChangedAt = &t
	}
	return nil
}

func (u *User) validatePassword() error {
	var msgs []string
	if u.password == "" {
		msgs = append(msgs, "Please provide a password")
	} else if len(u.password) < minPasswordLength {
		msgs = append(msgs, "Password must be at least 8 characters")
	}
	if u.passwordConfirm != u.password {
		msgs = append(msgs, "Passwords are not the same!")
	}
	if len(msgs) > 0 {
		return &apperr.ValidationError{Messages: msgs}
	}
	return nil
}

// CorrectPassword compares a plaintext candidate against the user's own
// stored hash. The stored value is always the authoritative one; callers
// never supply a hash.
func (u *User) CorrectPassword(candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(candidate)) == nil
}

// ChangedPasswordAfter reports whether the password was changed at or after
// the given unix timestamp (seconds). Users who never changed their password
// have no recorded timestamp and never invalidate earlier tokens.
func (u *User) ChangedPasswordAfter(unixSeconds int64) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() >= unixSeconds
}

// CreatePasswordResetToken generates a random 32-byte token, stores its
// sha256 hash plus a 10 minute expiry on the user, and returns the plaintext
// for out-of-band delivery. The plaintext is not retrievable afterwards.
func (u *User) CreatePasswordResetToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	plain := hex.EncodeToString(raw)
	u.PasswordResetToken = HashResetToken(plain)
	exp := time.Now().Add(resetTokenTTL)
	u.PasswordResetExpires = &exp
	return plain, nil
}

// ResetTokenValid reports whether the given plaintext token matches the
// stored hash and has not expired.
func (u *User) ResetTokenValid(plain string, now time.Time) bool {
	if u.PasswordResetToken == "" || u.PasswordResetExpires == nil {
		return false
	}
	if now.After(*u.PasswordResetExpires) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(u.PasswordResetToken), []byte(HashResetToken(plain))) == 1
}

// ClearPasswordResetToken invalidates any outstanding reset token.
func (u *User) ClearPasswordResetToken() {
	u.PasswordResetToken = ""
	u.PasswordResetExpires = nil
}

// HashResetToken returns the sha256 hex digest stored in place of a
// plaintext reset token.
func HashResetToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// FirstName is used as the salutation in transactional emails.
func (u *User) FirstName() string {
	if i := strings.IndexByte(u.Name, ' '); i > 0 {
		return u.Name[:i]
	}
	return u.Name
}
