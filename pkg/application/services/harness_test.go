package services_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	svctest "github.com/vsinha/brewerp/pkg/application/services/testing"
	"github.com/vsinha/brewerp/pkg/domain/apperror"
)

func newHarness(t *testing.T) *svctest.Harness {
	t.Helper()
	h, err := svctest.NewHarness(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}

// requireField asserts err is a validation error naming field
func requireField(t *testing.T, err error, field string) {
	t.Helper()
	require.ErrorIs(t, err, apperror.ErrValidation)
	var ve *apperror.ValidationError
	require.True(t, errors.As(err, &ve))
	require.Contains(t, ve.Fields, field, "fields: %v", ve.Fields)
}
