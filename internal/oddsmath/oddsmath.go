// Package oddsmath holds the pure price and sizing conversions. All
// functions operate on IEEE-754 float64 and apply no rounding.
package oddsmath

import "errors"

// ErrInvalidInput is returned when a two-way pair cannot be de-vigged.
var ErrInvalidInput = errors.New("two-way probabilities must sum to a positive value")

// AmericanToDecimal converts an American price to decimal odds.
func AmericanToDecimal(american int) float64 {
	if american > 0 {
		return float64(american)/100 + 1
	}
	if american < 0 {
		american = -american
	}
	return 100/float64(american) + 1
}

// DecimalToImpliedProb converts decimal odds to the implied probability.
func DecimalToImpliedProb(decimalOdds float64) float64 {
	return 1 / decimalOdds
}

// AmericanToImpliedProb converts an American price to the implied probability.
func AmericanToImpliedProb(american int) float64 {
	return DecimalToImpliedProb(AmericanToDecimal(american))
}

// RemoveVigTwoWay normalizes a two-way quote so the sides sum to 1,
// stripping the bookmaker margin.
func RemoveVigTwoWay(probA, probB float64) (float64, float64, error) {
	total := probA + probB
	if total <= 0 {
		return 0, 0, ErrInvalidInput
	}
	return probA / total, probB / total, nil
}

// EVPercent is the expected value of a unit stake at decimal odds.
func EVPercent(modelProbability, decimalOdds float64) float64 {
	return modelProbability*decimalOdds - 1
}

// FullKelly is the optimal bankroll fraction for a binary bet.
func FullKelly(p, decimalOdds float64) float64 {
	return (p*decimalOdds - 1) / (decimalOdds - 1)
}

// QuarterKelly is 25% of full Kelly, floored at zero: we never short a book.
func QuarterKelly(p, decimalOdds float64) float64 {
	return max(0, FullKelly(p, decimalOdds)*0.25)
}
