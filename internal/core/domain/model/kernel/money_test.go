package kernel_test

import (
	"testing"

	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMoney(t *testing.T, s string) kernel.Money {
	t.Helper()
	m, err := kernel.MoneyFromString(s)
	require.NoError(t, err)
	return m
}

func TestNewMoney(t *testing.T) {
	t.Run("rounds to cents", func(t *testing.T) {
		m, err := kernel.NewMoney(decimal.RequireFromString("9.999"))
		require.NoError(t, err)
		assert.Equal(t, "10.00", m.String())
	})

	t.Run("rejects negative amounts", func(t *testing.T) {
		_, err := kernel.NewMoney(decimal.NewFromInt(-1))
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("rejects garbage strings", func(t *testing.T) {
		_, err := kernel.MoneyFromString("ten dollars")
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("from cents", func(t *testing.T) {
		m, err := kernel.MoneyFromCents(1998)
		require.NoError(t, err)
		assert.Equal(t, "19.98", m.String())
	})
}

func TestMoney_Arithmetic(t *testing.T) {
	price := mustMoney(t, "9.99")

	total := price.Times(2)
	assert.True(t, total.Equal(mustMoney(t, "19.98")))

	assert.True(t, total.Add(price).Equal(mustMoney(t, "29.97")))
	assert.True(t, total.SubFloor(mustMoney(t, "10")).Equal(mustMoney(t, "9.98")))
	assert.True(t, total.SubFloor(mustMoney(t, "25")).IsZero())
}

func TestMoney_WholeMultiplesOf(t *testing.T) {
	ten := mustMoney(t, "10")

	testCases := []struct {
		amount string
		want   int
	}{
		{"0", 0},
		{"9.99", 0},
		{"10", 1},
		{"19.98", 1},
		{"105.50", 10},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, mustMoney(t, tc.amount).WholeMultiplesOf(ten), tc.amount)
	}

	assert.Equal(t, 0, ten.WholeMultiplesOf(kernel.ZeroMoney()))
}

func TestMoney_DividedBy(t *testing.T) {
	assert.Equal(t, "3.33", mustMoney(t, "10").DividedBy(3).String())
	assert.Equal(t, "12.50", mustMoney(t, "25").DividedBy(2).String())
	assert.True(t, mustMoney(t, "25").DividedBy(0).IsZero())
}
