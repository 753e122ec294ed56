package payment

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amounts(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.RequireFromString(v)
	}
	return out
}

func assertAmounts(t *testing.T, want, got []decimal.Decimal) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Truef(t, want[i].Equal(got[i]), "installment %d: want %s, got %s", i+1, want[i], got[i])
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		total string
		n     int
		want  []decimal.Decimal
	}{
		{"single installment keeps total", "50.00", 1, amounts("50.00")},
		{"remainder goes to first installment", "100.00", 3, amounts("33.34", "33.33", "33.33")},
		{"even split", "90.00", 3, amounts("30.00", "30.00", "30.00")},
		{"one cent each", "0.03", 3, amounts("0.01", "0.01", "0.01")},
		{"remainder of several cents", "10.00", 7, amounts("1.48", "1.42", "1.42", "1.42", "1.42", "1.42", "1.42")},
		{"whole number input", "1000", 12, amounts("83.37", "83.33", "83.33", "83.33", "83.33", "83.33", "83.33", "83.33", "83.33", "83.33", "83.33", "83.33")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Split(decimal.RequireFromString(tt.total), tt.n)
			require.NoError(t, err)
			assertAmounts(t, tt.want, got)
		})
	}
}

func TestSplit_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		total string
		n     int
		want  string
	}{
		{"zero total", "0", 1, "total_amount must be positive"},
		{"negative total", "-10", 2, "total_amount must be positive"},
		{"zero installments", "10.00", 0, "installment_count must be at least 1"},
		{"negative installments", "10.00", -3, "installment_count must be at least 1"},
		{"sub-cent precision", "10.005", 2, "total_amount must have at most 2 decimal places"},
		{"fewer cents than installments", "0.02", 3, "cannot be split into 3 installments"},
		{"cents overflow int64", "200000000000000000.00", 1, "total_amount is too large"},
		{"cents wrap negative", "100000000000000000.00", 1, "total_amount is too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Split(decimal.RequireFromString(tt.total), tt.n)
			assert.Nil(t, got)

			var validationErr ValidationError
			require.True(t, errors.As(err, &validationErr), "expected ValidationError, got %T", err)
			assert.Contains(t, validationErr.Error(), tt.want)
		})
	}
}

func TestSplit_SumInvariant(t *testing.T) {
	totals := []string{"0.01", "1.00", "3.33", "100.00", "999.99", "1234.56", "100000.01"}

	for _, total := range totals {
		d := decimal.RequireFromString(total)
		for n := 1; n <= 360; n++ {
			got, err := Split(d, n)
			if ToMinorUnits(d) < int64(n) {
				require.Error(t, err)
				continue
			}
			require.NoError(t, err)
			require.Len(t, got, n)

			sum := decimal.Zero
			for _, a := range got {
				require.True(t, a.IsPositive(), "total %s n %d produced %s", total, n, a)
				require.True(t, HasAtMostTwoDecimals(a))
				sum = sum.Add(a)
			}
			require.Truef(t, sum.Equal(d), "total %s n %d summed to %s", total, n, sum)

			// every installment but the first is identical
			for _, a := range got[1:] {
				require.True(t, a.Equal(got[len(got)-1]))
			}
		}
	}
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(3334), ToMinorUnits(decimal.RequireFromString("33.34")))
	assert.Equal(t, int64(5000), ToMinorUnits(decimal.NewFromInt(50)))
	assert.Equal(t, "33.34", FromMinorUnits(3334).StringFixed(2))
	assert.Equal(t, "0.07", FromMinorUnits(7).StringFixed(2))

	assert.True(t, HasAtMostTwoDecimals(decimal.RequireFromString("12.30")))
	assert.False(t, HasAtMostTwoDecimals(decimal.RequireFromString("12.301")))

	assert.True(t, FitsMinorUnits(decimal.RequireFromString("92233720368547758.07")))
	assert.False(t, FitsMinorUnits(decimal.RequireFromString("92233720368547758.08")))
}
