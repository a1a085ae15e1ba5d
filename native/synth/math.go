package synth

import (
	"math"
	"math/big"
)

// Widened fixed-point helpers. Position amounts and debt are uint64; every
// multiply runs through big.Int and every narrowing back to uint64 is checked
// so ratio and mint paths can never wrap silently.

var (
	ratioScale = big.NewInt(100_000_000)
	maxUint64  = new(big.Int).SetUint64(math.MaxUint64)
)

func checkedAddU64(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}

func checkedSubU64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrInsufficientBalance
	}
	return a - b, nil
}

func mulU64(a, b uint64) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
}

// toU64 narrows a widened value, aborting when it does not fit.
func toU64(v *big.Int) (uint64, error) {
	if v.Sign() < 0 || v.Cmp(maxUint64) > 0 {
		return 0, ErrOverflow
	}
	return v.Uint64(), nil
}

// appraise sums amount*price over funded slots in widened arithmetic. Zero
// amounts are skipped so unfunded slots never require a price.
func appraise(amounts []uint64, prices []uint64) *big.Int {
	total := new(big.Int)
	for i, amount := range amounts {
		if amount == 0 || i >= len(prices) {
			continue
		}
		total.Add(total, mulU64(amount, prices[i]))
	}
	return total
}

// requiredValue computes debt * minRatio in widened arithmetic.
func requiredValue(debt, minRatio uint64) *big.Int {
	return mulU64(debt, minRatio)
}

// percentOf computes value * numerator / 100 in widened arithmetic with a
// checked narrowing back to uint64.
func percentOf(value uint64, numerator uint64) (uint64, error) {
	share := mulU64(value, numerator)
	share.Quo(share, big.NewInt(100))
	return toU64(share)
}
