package store

import (
	"fmt"
	"math/big"

	perrors "github.com/abgdnv/gostore/internal/product/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// decimal128Digits is the coefficient precision of decimal128.
	decimal128Digits = 34
	// maxCoefficientBits bounds the coefficient before normalization (about 68 decimal digits).
	maxCoefficientBits = 226
)

// ToDecimal128 converts a price into its BSON decimal128 form.
// The conversion is lossless: a value that decimal128 would round or cannot hold
// is rejected with ErrInvalidPrice instead of being stored approximately.
// Out of range values are rejected from their exponent and coefficient size,
// without expanding them into digits.
func ToDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	coefficient := d.Coefficient()
	if coefficient.Sign() == 0 {
		d128, _ := primitive.ParseDecimal128FromBigInt(new(big.Int), 0)
		return d128, nil
	}
	exp := int64(d.Exponent())
	if coefficient.BitLen() > maxCoefficientBits ||
		exp < primitive.MinDecimal128Exp-decimal128Digits ||
		exp > primitive.MaxDecimal128Exp+decimal128Digits {
		return primitive.Decimal128{}, fmt.Errorf("%w: out of decimal128 range", perrors.ErrInvalidPrice)
	}
	d128, ok := primitive.ParseDecimal128FromBigInt(coefficient, int(exp))
	if !ok {
		return primitive.Decimal128{}, fmt.Errorf("%w: cannot be stored exactly as decimal128", perrors.ErrInvalidPrice)
	}
	return d128, nil
}

// FromDecimal128 converts a stored decimal128 back into a price.
// NaN and infinities have no decimal.Decimal form and are reported as ErrInvalidPrice.
func FromDecimal128(d128 primitive.Decimal128) (decimal.Decimal, error) {
	coefficient, exp, err := d128.BigInt()
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %v", perrors.ErrInvalidPrice, err)
	}
	return decimal.NewFromBigInt(coefficient, int32(exp)), nil
}
