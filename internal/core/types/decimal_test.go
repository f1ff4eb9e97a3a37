package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantity_FixedPointMul(t *testing.T) {
	// 0.05 L per unit * 60 units = 3 L, exactly
	perUnit := NewQuantityFromFloat64(0.05)
	qty := NewQuantityFromInt(60)
	assert.Equal(t, NewQuantityFromInt(3), perUnit.Mul(qty))

	// 0.0001 granularity survives multiplication by whole units
	tiny := NewQuantityFromInt64Scaled(1)
	assert.Equal(t, NewQuantityFromInt64Scaled(100), tiny.Mul(NewQuantityFromInt(100)))
}

func TestQuantity_SignHelpers(t *testing.T) {
	q := NewQuantityFromInt(5)
	assert.True(t, q.IsPositive())
	assert.True(t, q.Neg().IsNegative())
	assert.Equal(t, q, q.Neg().Abs())
	assert.True(t, Quantity(0).IsZero())
}

func TestQuantity_String(t *testing.T) {
	assert.Equal(t, "3.0000", NewQuantityFromInt(3).String())
	assert.Equal(t, "0.0500", NewQuantityFromFloat64(0.05).String())
	assert.Equal(t, "-1.2500", NewQuantityFromFloat64(-1.25).String())
}

func TestQuantity_JSONRoundTrip(t *testing.T) {
	type payload struct {
		Qty Quantity `json:"qty"`
	}

	out, err := json.Marshal(payload{Qty: NewQuantityFromFloat64(2.5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"qty":2.5000}`, string(out))

	var in payload
	require.NoError(t, json.Unmarshal([]byte(`{"qty":2.5}`), &in))
	assert.Equal(t, NewQuantityFromFloat64(2.5), in.Qty)

	// String form is accepted too
	require.NoError(t, json.Unmarshal([]byte(`{"qty":"0.1234"}`), &in))
	assert.Equal(t, NewQuantityFromInt64Scaled(1234), in.Qty)
}

func TestQuantity_Decimal(t *testing.T) {
	d := NewQuantityFromFloat64(2.5).Decimal()
	assert.True(t, d.Equal(MustMoney("2.5")))
}

func TestMoneyConstructors(t *testing.T) {
	m, err := NewMoneyFromString("19.99")
	require.NoError(t, err)
	assert.True(t, m.Equal(MustMoney("19.99")))

	_, err = NewMoneyFromString("not a number")
	assert.Error(t, err)

	assert.True(t, Zero().IsZero())
}
