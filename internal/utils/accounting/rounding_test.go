package accounting

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRoundHalfUp(t *testing.T) {
	cases := []struct {
		in     string
		places int32
		want   string
	}{
		{"2.344", 2, "2.34"},
		{"2.345", 2, "2.35"},
		{"2.346", 2, "2.35"},
		{"215.499999", 2, "215.5"},
		{"-2.344", 2, "-2.34"},
		{"-2.345", 2, "-2.34"}, // ties go toward positive infinity
		{"-2.346", 2, "-2.35"},
		{"0", 2, "0"},
		{"10.005", 2, "10.01"},
	}
	for _, tc := range cases {
		in := decimal.RequireFromString(tc.in)
		want := decimal.RequireFromString(tc.want)
		got := RoundHalfUp(in, tc.places)
		assert.True(t, want.Equal(got), "RoundHalfUp(%s, %d) = %s, want %s", tc.in, tc.places, got, want)
	}
}

func TestRoundSettlement(t *testing.T) {
	payout := decimal.RequireFromString("10000").Mul(decimal.RequireFromString("0.02155"))
	assert.True(t, decimal.RequireFromString("215.50").Equal(RoundSettlement(payout)))
}
