package errs

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{ErrDuplicateAccount, http.StatusBadRequest},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrNotFound, http.StatusUnauthorized}, // намеренно не 404
		{ErrInvalidState, http.StatusUnauthorized},
		{ErrInvalidOrExpiredCode, http.StatusUnauthorized},
		{ErrExpiredToken, http.StatusUnauthorized},
		{ErrInvalidToken, http.StatusUnauthorized},
		{ErrStaleToken, http.StatusUnauthorized},
		{ErrUnauthenticated, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrNoTemplate, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, StatusOf(tt.err), tt.err.Error())
	}
}

func TestWrap_Sentinel(t *testing.T) {
	ae := Wrap(ErrInvalidCredentials, "auth.login", "c0ffee")

	assert.Equal(t, http.StatusUnauthorized, ae.Status)
	assert.Equal(t, "auth.login", ae.Label)
	assert.Equal(t, "c0ffee", ae.Correlation)
	assert.Equal(t, map[string]any{"globalMessage": ErrInvalidCredentials.Error()}, ae.Errors)
	assert.ErrorIs(t, ae, ErrInvalidCredentials)
}

func TestWrap_AlreadyAppError(t *testing.T) {
	orig := Field("email", "value already exist")
	ae := Wrap(orig, "users.register", "c0ffee")

	// тот же объект, только аннотированный
	assert.Same(t, orig, ae)
	assert.Equal(t, "users.register", ae.Label)
	assert.Equal(t, "c0ffee", ae.Correlation)

	// повторный Wrap не перетирает аннотации
	ae2 := Wrap(ae, "other", "beef")
	assert.Equal(t, "users.register", ae2.Label)
	assert.Equal(t, "c0ffee", ae2.Correlation)
}

func TestField(t *testing.T) {
	ae := Field("user_name", "Please enter your user_name")
	assert.Equal(t, http.StatusBadRequest, ae.Status)
	assert.Equal(t, FieldError{Msg: "Please enter your user_name", Param: "user_name"}, ae.Errors["user_name"])
}
