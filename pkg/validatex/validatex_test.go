package validatex_test

import (
	"errors"
	"testing"

	"github.com/aussiebroadwan/twofa/pkg/validatex"
	"github.com/stretchr/testify/require"
)

type loginReq struct {
	Identifier string `json:"identifier,omitempty" validate:"required_without=Email,max=10"`
	Email      string `json:"email,omitempty"      validate:"required_without=Identifier"`
	Password   string `json:"password"             validate:"required"`
}

func TestStruct(t *testing.T) {
	v, err := validatex.New()
	require.NoError(t, err)

	require.NoError(t, v.Struct(loginReq{Identifier: "a", Password: "p"}))
	require.NoError(t, v.Struct(loginReq{Email: "a", Password: "p"}))

	err = v.Struct(loginReq{})
	var fe validatex.FieldErrors
	require.True(t, errors.As(err, &fe))
	require.Contains(t, fe, "identifier")
	require.Contains(t, fe, "email")
	require.Contains(t, fe, "password")
	require.Contains(t, fe["password"], "required")

	err = v.Struct(loginReq{Identifier: "abcdefghijk", Password: "p"})
	require.True(t, errors.As(err, &fe))
	require.Len(t, fe, 1)
	require.Contains(t, fe, "identifier")
}

func TestStructRejectsNonStruct(t *testing.T) {
	v, err := validatex.New()
	require.NoError(t, err)

	err = v.Struct(42)
	require.Error(t, err)
	var fe validatex.FieldErrors
	require.False(t, errors.As(err, &fe))
}
