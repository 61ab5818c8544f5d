package validation

import (
	"testing"

	dErrors "ezyassist/pkg/domain-errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	FullName      string  `validate:"required,notblank"`
	Email         string  `validate:"required,email"`
	DepositAmount float64 `validate:"gt=0"`
	Slug          string  `validate:"omitempty,slug"`
}

func TestValidate(t *testing.T) {
	valid := sample{FullName: "Aisyah", Email: "a@example.com", DepositAmount: 100}
	require.NoError(t, Validate(valid))

	cases := []struct {
		name string
		mut  func(*sample)
		msg  string
	}{
		{"blank name", func(s *sample) { s.FullName = "   " }, "full_name must not be blank"},
		{"bad email", func(s *sample) { s.Email = "nope" }, "email must be a valid email"},
		{"zero deposit", func(s *sample) { s.DepositAmount = 0 }, "deposit_amount must be greater than 0"},
		{"bad slug", func(s *sample) { s.Slug = "Not A Slug" }, "slug must contain only lowercase letters, digits and dashes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mut(&in)
			err := Validate(in)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Equal(t, tc.msg, err.Error())
		})
	}
}
