package payout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountDecimal(t *testing.T) {
	tests := []struct {
		amount Amount
		want   string
	}{
		{Amount{"GBP", 10000}, "100.00"},
		{Amount{"USD", 1050}, "10.50"},
		{Amount{"EUR", 7}, "0.07"},
		{Amount{"USD", -250}, "-2.50"},
		{Amount{"JPY", 1050}, "1050"},
		{Amount{"krw", 300}, "300"},
		{Amount{"KWD", 1000}, "1.000"},
		{Amount{"BHD", 12345}, "12.345"},
		{Amount{"JOD", 5}, "0.005"},
		{Amount{"OMR", -1500}, "-1.500"},
		{Amount{"TND", 999}, "0.999"},
	}

	for _, tt := range tests {
		t.Run(tt.amount.Currency+" "+tt.want, func(t *testing.T) {
			got, err := tt.amount.Decimal()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAmountDecimalUnknownCurrency(t *testing.T) {
	_, err := Amount{"XYZ", 100}.Decimal()
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestIDFromTokenIsStable(t *testing.T) {
	assert.Equal(t, IDFromToken("abc"), IDFromToken("abc"))
	assert.NotEqual(t, IDFromToken("abc"), IDFromToken("abd"))
}

func TestOutcomeFactories(t *testing.T) {
	p := New("token-1", Wise, "12345", Amount{"EUR", 500}, "march")

	ok := Succeeded(p, "ref-1")
	assert.True(t, ok.Success)
	assert.Equal(t, p.ID, ok.PayoutID)
	assert.Equal(t, Wise, ok.ProcessorType)

	failed := Failed(p, "ref-2", "insufficient funds")
	assert.False(t, failed.Success)
	assert.Equal(t, "insufficient funds", failed.Reason)
	assert.Equal(t, "ref-2", failed.VendorReference)
}
