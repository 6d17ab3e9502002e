package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	e := New("No user found with that ID", http.StatusNotFound)

	assert.Equal(t, "No user found with that ID", e.Message)
	assert.Equal(t, http.StatusNotFound, e.Code)
	assert.Equal(t, "fail", e.Status)
	assert.True(t, e.Operational)
	assert.NotEmpty(t, e.Stack)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, "fail", New("x", 400).Status)
	assert.Equal(t, "fail", New("x", 404).Status)
	assert.Equal(t, "error", New("x", 500).Status)
	assert.Equal(t, "error", New("x", 502).Status)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("smtp connection refused")
	e := Wrap(cause, "There was an error sending the email. Try again later!", http.StatusInternalServerError)

	assert.True(t, e.Operational)
	assert.ErrorIs(t, e, cause)
}

func TestNormalize_PassesThroughExistingError(t *testing.T) {
	orig := New("Incorrect email or password", http.StatusUnauthorized)
	got := Normalize(orig)
	assert.Same(t, orig, got)

	wrapped := fmt.Errorf("handler: %w", orig)
	assert.Same(t, orig, Normalize(wrapped))
}

func TestNormalize_CastError(t *testing.T) {
	e := Normalize(&CastError{Field: "id", Value: "not-a-uuid"})

	assert.Equal(t, "Invalid id: not-a-uuid.", e.Message)
	assert.Equal(t, http.StatusBadRequest, e.Code)
	assert.Equal(t, "fail", e.Status)
	assert.True(t, e.Operational)
}

func TestNormalize_DuplicateError(t *testing.T) {
	t.Run("extracts double-quoted value", func(t *testing.T) {
		e := Normalize(&DuplicateError{Detail: `Key (name)=("Everest Trek") already exists.`})
		assert.Equal(t, `Duplicate field value: "Everest Trek". Please use another value!`, e.Message)
		assert.Equal(t, http.StatusBadRequest, e.Code)
		assert.True(t, e.Operational)
	})

	t.Run("extracts single-quoted value", func(t *testing.T) {
		e := Normalize(&DuplicateError{Detail: "duplicate key value 'ada@example.com' violates unique constraint"})
		assert.Equal(t, "Duplicate field value: 'ada@example.com'. Please use another value!", e.Message)
	})

	t.Run("falls back without quotes", func(t *testing.T) {
		e := Normalize(&DuplicateError{Detail: "Key (email)=(ada@example.com) already exists."})
		assert.Equal(t, "Duplicate field value. Please use another value!", e.Message)
		assert.Equal(t, http.StatusBadRequest, e.Code)
	})
}

func TestNormalize_ValidationError(t *testing.T) {
	e := Normalize(&ValidationError{Messages: []string{"Name required", "Email invalid"}})

	assert.Equal(t, "Invalid input data. Name required. Email invalid", e.Message)
	assert.Equal(t, http.StatusBadRequest, e.Code)
	assert.True(t, e.Operational)
}

func TestNormalize_JWTErrors(t *testing.T) {
	t.Run("expired token", func(t *testing.T) {
		err := fmt.Errorf("token invalid: %w", jwt.ErrTokenExpired)
		e := Normalize(err)
		assert.Equal(t, "Your token has expired! Please log in again.", e.Message)
		assert.Equal(t, http.StatusUnauthorized, e.Code)
		assert.True(t, e.Operational)
	})

	t.Run("malformed token", func(t *testing.T) {
		e := Normalize(jwt.ErrTokenMalformed)
		assert.Equal(t, "Invalid token. Please log in again!", e.Message)
		assert.Equal(t, http.StatusUnauthorized, e.Code)
	})

	t.Run("bad signature", func(t *testing.T) {
		e := Normalize(jwt.ErrTokenSignatureInvalid)
		assert.Equal(t, "Invalid token. Please log in again!", e.Message)
		assert.Equal(t, http.StatusUnauthorized, e.Code)
	})
}

func TestNormalize_UnknownErrorIsNotOperational(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.5:5432: connection refused")
	e := Normalize(cause)

	require.NotNil(t, e)
	assert.Equal(t, http.StatusInternalServerError, e.Code)
	assert.Equal(t, "error", e.Status)
	assert.False(t, e.Operational)
	assert.ErrorIs(t, e, cause)
	assert.NotEmpty(t, e.Stack)
}
