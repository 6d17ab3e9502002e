package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelgo/travelgo/internal/apperr"
)

// bcrypt's minimum cost keeps the suite fast.
const testCost = 4

func TestNewUserDefaults(t *testing.T) {
	u := NewUser("Ada Lovelace", "  Ada@Example.COM ")

	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, "default.jpg", u.Photo)
	assert.Equal(t, RoleUser, u.Role)
	assert.True(t, u.Active)
}

func TestBeforeSave_HashesAndDiscardsStagedPassword(t *testing.T) {
	u := NewUser("Ada Lovelace", "ada@example.com")
	u.SetPassword("supersecret", "supersecret")
	require.True(t, u.PasswordChanged())

	require.NoError(t, u.BeforeSave(true, testCost))

	assert.NotEmpty(t, u.PasswordHash)
	assert.NotEqual(t, "supersecret", u.PasswordHash)
	assert.False(t, u.PasswordChanged())
	// new users get no change timestamp
	assert.Nil(t, u.PasswordChangedAt)
	assert.True(t, u.CorrectPassword("supersecret"))
	assert.False(t, u.CorrectPassword("wrongsecret"))
}

func TestBeforeSave_NoopWhenNothingStaged(t *testing.T) {
	u := NewUser("Ada Lovelace", "ada@example.com")
	u.SetPassword("supersecret", "supersecret")
	require.NoError(t, u.BeforeSave(true, testCost))
	hash := u.PasswordHash

	require.NoError(t, u.BeforeSave(false, testCost))
	assert.Equal(t, hash, u.PasswordHash)
	assert.Nil(t, u.PasswordChangedAt)
}

func TestBeforeSave_BackdatesChangeOnExistingUser(t *testing.T) {
	u := NewUser("Ada Lovelace", "ada@example.com")
	u.SetPassword("supersecret", "supersecret")

	before := time.Now()
	require.NoError(t, u.BeforeSave(false, testCost))

	require.NotNil(t, u.PasswordChangedAt)
	assert.True(t, u.PasswordChangedAt.Before(before))
	assert.WithinDuration(t, before.Add(-time.Second), *u.PasswordChangedAt, 100*time.Millisecond)
}

func TestBeforeSave_Validation(t *testing.T) {
	cases := []struct {
		name     string
		password string
		confirm  string
		want     []string
	}{
		{"missing password", "", "", []string{"Please provide a password"}},
		{"too short", "short", "short", []string{"Password must be at least 8 characters"}},
		{"mismatched confirmation", "supersecret", "different", []string{"Passwords are not the same!"}},
		{"short and mismatched", "short", "other", []string{"Password must be at least 8 characters", "Passwords are not the same!"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := NewUser("Ada Lovelace", "ada@example.com")
			u.SetPassword(tc.password, tc.confirm)

			err := u.BeforeSave(true, testCost)
			var valErr *apperr.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, tc.want, valErr.Messages)
			assert.Empty(t, u.PasswordHash)
		})
	}
}

func TestChangedPasswordAfter(t *testing.T) {
	u := NewUser("Ada Lovelace", "ada@example.com")

	// no recorded change never invalidates tokens
	assert.False(t, u.ChangedPasswordAfter(time.Now().Unix()))

	changed := time.Now()
	u.PasswordChangedAt = &changed

	assert.True(t, u.ChangedPasswordAfter(changed.Unix()-60), "token issued before the change")
	assert.True(t, u.ChangedPasswordAfter(changed.Unix()), "token issued in the same second")
	assert.False(t, u.ChangedPasswordAfter(changed.Unix()+60), "token issued after the change")
}

func TestCreatePasswordResetToken(t *testing.T) {
	u := NewUser("Ada Lovelace", "ada@example.com")

	plain, err := u.CreatePasswordResetToken()
	require.NoError(t, err)

	assert.Len(t, plain, 64) // 32 random bytes, hex encoded
	assert.NotEqual(t, plain, u.PasswordResetToken)
	assert.Equal(t, HashResetToken(plain), u.PasswordResetToken)
	require.NotNil(t, u.PasswordResetExpires)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), *u.PasswordResetExpires, time.Second)

	// a second token replaces the first
	plain2, err := u.CreatePasswordResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, plain, plain2)
	assert.Equal(t, HashResetToken(plain2), u.PasswordResetToken)
}

func TestResetTokenValid(t *testing.T) {
	u := NewUser("Ada Lovelace", "ada@example.com")

	assert.False(t, u.ResetTokenValid("anything", time.Now()), "no token outstanding")

	plain, err := u.CreatePasswordResetToken()
	require.NoError(t, err)

	now := time.Now()
	assert.True(t, u.ResetTokenValid(plain, now))
	assert.False(t, u.ResetTokenValid("wrong-token", now))
	assert.False(t, u.ResetTokenValid(plain, now.Add(11*time.Minute)), "expired")

	u.ClearPasswordResetToken()
	assert.False(t, u.ResetTokenValid(plain, now))
	assert.Empty(t, u.PasswordResetToken)
	assert.Nil(t, u.PasswordResetExpires)
}

func TestFirstName(t *testing.T) {
	assert.Equal(t, "Ada", (&User{Name: "Ada Lovelace"}).FirstName())
	assert.Equal(t, "Ada", (&User{Name: "Ada"}).FirstName())
}
