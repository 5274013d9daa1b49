package view

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmwangi/saccoterm/internal/api"
)

func TestValidAmount(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "Integer", input: "500"},
		{name: "Decimal", input: "12.50"},
		{name: "LeadingSpace", input: " 100 "},
		{name: "Zero", input: "0", wantErr: true},
		{name: "Negative", input: "-5", wantErr: true},
		{name: "NotANumber", input: "abc", wantErr: true},
		{name: "Empty", input: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validAmount(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)

			// Anything the form accepts must parse in the submit command.
			d, err := decimal.NewFromString(strings.TrimSpace(tc.input))
			require.NoError(t, err)
			assert.True(t, d.IsPositive())
		})
	}
}

func TestValidRate(t *testing.T) {
	assert.NoError(t, validRate("1.5"))
	assert.NoError(t, validRate("0"))
	assert.Error(t, validRate("-1"))
	assert.Error(t, validRate("monthly"))
}

func TestValidDate(t *testing.T) {
	require.NoError(t, validDate("2026-08-31"))

	d, err := api.ParseDate("2026-08-31")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-31", d.String())

	assert.Error(t, validDate("31/08/2026"))
	assert.Error(t, validDate(""))
}

func TestValidOptionalDate(t *testing.T) {
	assert.NoError(t, validOptionalDate(""))
	assert.NoError(t, validOptionalDate("  "))
	assert.NoError(t, validOptionalDate("2026-01-01"))
	assert.Error(t, validOptionalDate("next week"))
}

func TestValidID(t *testing.T) {
	assert.NoError(t, validID("6"))
	assert.Error(t, validID("0"))
	assert.Error(t, validID("-3"))
	assert.Error(t, validID("six"))
}

func TestValidYear(t *testing.T) {
	assert.NoError(t, validYear("2026"))
	assert.Error(t, validYear("26"))
	assert.Error(t, validYear("3000"))
	assert.Error(t, validYear("yearly"))
}

func TestValidPassword(t *testing.T) {
	assert.NoError(t, validPassword("longenough"))
	assert.Error(t, validPassword("short"))
}
