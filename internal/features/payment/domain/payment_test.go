package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	cases := map[float64]int64{
		900:       90000,
		1049.97:   104997,
		0.01:      1,
		19.99:     1999,
		MaxAmount: MaxAmount * 100,
	}
	for amount, want := range cases {
		got, err := ToMinorUnits(amount)
		require.NoError(t, err)
		assert.Equal(t, want, got, amount)
	}

	for _, amount := range []float64{0, -5, 0.004, MaxAmount + 0.01, 1e17, 1e300, math.Inf(1), math.NaN()} {
		_, err := ToMinorUnits(amount)
		assert.ErrorIs(t, err, ErrInvalidAmount, amount)
	}
}

func TestSignature(t *testing.T) {
	sig := Signature("secret", "order_1", "pay_1")
	assert.Len(t, sig, 64)
	assert.Equal(t, sig, Signature("secret", "order_1", "pay_1"))
	assert.NotEqual(t, sig, Signature("secret", "order_1", "pay_2"))
	assert.NotEqual(t, sig, Signature("other", "order_1", "pay_1"))
}

func TestVerify(t *testing.T) {
	sig := Signature("secret", "order_1", "pay_1")

	assert.True(t, Verify("secret", "order_1", "pay_1", sig))
	assert.False(t, Verify("secret", "order_1", "pay_1", sig[:63]))
	assert.False(t, Verify("secret", "order_1", "pay_1", sig+"0"))
	assert.False(t, Verify("secret", "order_1", "pay_1", ""))
	assert.False(t, Verify("secret", "order_1|pay_1", "", sig))
}
