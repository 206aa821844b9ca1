package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{InvalidCredentials(), http.StatusUnauthorized},
		{Unauthenticated(), http.StatusUnauthorized},
		{DuplicateIdentity("dup"), http.StatusConflict},
		{NotFound("nope"), http.StatusNotFound},
		{External("google", errors.New("boom")), http.StatusBadRequest},
		{Internal(errors.New("db down")), http.StatusInternalServerError},
		{errors.New("untagged"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), tc.err.Error())
	}
}

func TestAsUnwrapsWrappedErrors(t *testing.T) {
	inner := NotFound("missing")
	wrapped := fmt.Errorf("lookup: %w", inner)

	got := As(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, KindNotFound, got.Kind)
	assert.True(t, Is(wrapped, KindNotFound))
	assert.Nil(t, As(nil))
}

func TestMachineCode(t *testing.T) {
	e := External("token expired", nil).WithCode("google_token_expired")
	assert.Equal(t, "google_token_expired", e.MachineCode())
	assert.Equal(t, "not_found", NotFound("x").MachineCode())
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	type input struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
	}
	err := ValidateStruct(input{Email: "nope", Password: "123"})
	require.NotNil(t, err)
	assert.Equal(t, KindValidation, err.Kind)
	require.Len(t, err.Fields, 2)
	assert.Equal(t, "email", err.Fields[0].Field)
	assert.Equal(t, "email", err.Fields[0].Type)
	assert.Equal(t, "password", err.Fields[1].Field)
	assert.Equal(t, "min", err.Fields[1].Type)

	assert.Nil(t, ValidateStruct(input{Email: "a@x.com", Password: "secret123"}))
}
