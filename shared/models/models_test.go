package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	_, err := NewID("not-a-uuid")
	assert.Error(t, err)

	id, err := NewID("550e8400-e29b-41d4-a716-446655440000")
	require.NoError(t, err)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", id.String())
	assert.False(t, id.IsEmpty())
	assert.True(t, ID("").IsEmpty())
}

func TestMoney_Add(t *testing.T) {
	a := NewMoney(2000, "USD")
	b := NewMoney(500, "USD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), sum.Amount)
	assert.Equal(t, "USD", sum.Currency)

	_, err = a.Add(NewMoney(100, "EUR"))
	assert.Error(t, err)
}

func TestMoney_MultiplyBy(t *testing.T) {
	price := NewMoney(1000, "USD")

	assert.Equal(t, int64(2000), price.MultiplyBy(2).Amount)
	assert.Equal(t, int64(0), price.MultiplyBy(0).Amount)
}

func TestMoney_ExactIntegerSums(t *testing.T) {
	// 2 x 10.00 + 1 x 5.00 = 25.00, no rounding drift
	total := NewMoney(0, "USD")
	for _, m := range []Money{
		NewMoney(1000, "USD").MultiplyBy(2),
		NewMoney(500, "USD").MultiplyBy(1),
	} {
		var err error
		total, err = total.Add(m)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(2500), total.Amount)
}

func TestMoney_Predicates(t *testing.T) {
	assert.True(t, NewMoney(0, "USD").IsZero())
	assert.True(t, NewMoney(1, "USD").IsPositive())
	assert.False(t, NewMoney(-1, "USD").IsPositive())
	assert.True(t, NewMoney(100, "USD").Equals(NewMoney(100, "USD")))
	assert.False(t, NewMoney(100, "USD").Equals(NewMoney(100, "EUR")))
}

func TestVersion_Update(t *testing.T) {
	v := NewVersion()
	assert.Equal(t, 1, v.Value)
	assert.Equal(t, 2, v.Update().Value)
	// Update returns a copy, the receiver is unchanged
	assert.Equal(t, 1, v.Value)
}
