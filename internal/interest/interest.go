package interest

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrNegativeRate occurs when a caller supplies a rate below zero.
	ErrNegativeRate = errors.New("negative interest rate")

	// ErrRateOutOfRange occurs when a loan rate falls outside the allowed band.
	ErrRateOutOfRange = errors.New("interest rate must be between 1% and 20%")
)

// Loan interest rates are bounded in percent.
var (
	MinLoanRate = decimal.NewFromInt(1)
	MaxLoanRate = decimal.NewFromInt(20)
)

var hundred = decimal.NewFromInt(100)

// Skim computes the interest portion of an amount at the given percentage
// rate, rounded to the currency's two decimal places.
func Skim(amount, ratePercent decimal.Decimal) (decimal.Decimal, error) {
	if ratePercent.IsNegative() {
		return decimal.Zero, ErrNegativeRate
	}
	return amount.Mul(ratePercent).Div(hundred).Round(2), nil
}

// ValidateLoanRate enforces the [1, 20] percent band used for loans and
// interest-bearing transactions.
func ValidateLoanRate(ratePercent decimal.Decimal) error {
	if ratePercent.LessThan(MinLoanRate) || ratePercent.GreaterThan(MaxLoanRate) {
		return ErrRateOutOfRange
	}
	return nil
}
