package store

import (
	"strings"
	"testing"
	"time"

	perrors "github.com/abgdnv/gostore/internal/product/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func Test_ToDecimal128_RoundTrip(t *testing.T) {
	testCases := []string{
		"0",
		"99.99",
		"0.1",
		"10.50",
		"-3.25",
		"1000000",
		"123456789012345678901234567890.1234", // 34 significant digits
	}
	for _, value := range testCases {
		t.Run(value, func(t *testing.T) {
			// given
			d := decimal.RequireFromString(value)
			// when
			d128, err := ToDecimal128(d)
			require.NoError(t, err)
			back, err := FromDecimal128(d128)
			// then
			require.NoError(t, err)
			assert.True(t, d.Equal(back), "expected %s, got %s", d, back)
		})
	}
}

func Test_ToDecimal128_RejectsLossyValues(t *testing.T) {
	// 35 significant digits do not fit into decimal128
	d := decimal.RequireFromString("1234567890123456789012345678901234.5")

	_, err := ToDecimal128(d)

	assert.ErrorIs(t, err, perrors.ErrInvalidPrice)
}

func Test_ToDecimal128_RejectsOutOfRangeValues(t *testing.T) {
	testCases := []struct {
		name  string
		value decimal.Decimal
	}{
		{name: "huge exponent", value: decimal.New(1, 50000000)},
		{name: "tiny exponent", value: decimal.New(1, -50000000)},
		{name: "huge negative", value: decimal.New(-7, 50000000)},
		{name: "long coefficient", value: decimal.RequireFromString("1" + strings.Repeat("7", 100))},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			start := time.Now()

			_, err := ToDecimal128(tc.value)

			assert.ErrorIs(t, err, perrors.ErrInvalidPrice)
			assert.Less(t, time.Since(start), time.Second)
			assert.Less(t, len(err.Error()), 100)
		})
	}
}

func Test_ToDecimal128_NormalizesWithinRange(t *testing.T) {
	testCases := []struct {
		name     string
		value    decimal.Decimal
		expected string
	}{
		{name: "zero with tiny exponent", value: decimal.New(0, -50000000), expected: "0"},
		{name: "trailing zeros", value: decimal.RequireFromString("1." + strings.Repeat("0", 40)), expected: "1"},
		{name: "clamped exponent", value: decimal.New(1, 6120), expected: "1E+6120"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d128, err := ToDecimal128(tc.value)

			require.NoError(t, err)
			expected, err := primitive.ParseDecimal128(tc.expected)
			require.NoError(t, err)
			back, err := FromDecimal128(d128)
			require.NoError(t, err)
			want, err := FromDecimal128(expected)
			require.NoError(t, err)
			assert.True(t, want.Equal(back), "expected %s, got %s", want, back)
		})
	}
}

func Test_FromDecimal128_RejectsSpecialValues(t *testing.T) {
	for _, value := range []string{"NaN", "Infinity", "-Infinity"} {
		t.Run(value, func(t *testing.T) {
			d128, err := primitive.ParseDecimal128(value)
			require.NoError(t, err)

			_, err = FromDecimal128(d128)

			assert.ErrorIs(t, err, perrors.ErrInvalidPrice)
		})
	}
}

func Test_priceFilter(t *testing.T) {
	ten := decimal.NewFromInt(10)
	twenty := decimal.NewFromInt(20)

	all, err := priceFilter(PriceRange{})
	require.NoError(t, err)
	assert.Empty(t, all)

	bounded, err := priceFilter(PriceRange{Min: &ten, Max: &twenty})
	require.NoError(t, err)
	require.Contains(t, bounded, "price")
	assert.Len(t, bounded["price"], 2)

	huge := decimal.New(1, 50000000)
	_, err = priceFilter(PriceRange{Min: &huge})
	assert.ErrorIs(t, err, perrors.ErrInvalidPrice)
}
