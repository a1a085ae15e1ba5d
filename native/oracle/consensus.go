package oracle

import (
	"errors"
	"math/big"
)

// ErrConsensus is returned when independent price sources disagree beyond the
// tolerated band.
var ErrConsensus = errors.New("oracle: consensus not reached")

// consensusBandDivisor yields the 1% agreement band around the mean.
const consensusBandDivisor = 100

// CheckConsensus reports whether the supplied normalized prices agree. With
// fewer than two samples there is nothing to disagree about and consensus
// trivially holds. Otherwise the tolerated band is 1% of the floored mean,
// a sample agrees when some other sample lies within that band of it, and
// at least two samples must agree.
func CheckConsensus(prices []uint64) bool {
	if len(prices) < 2 {
		return true
	}
	sum := new(big.Int)
	for _, price := range prices {
		sum.Add(sum, new(big.Int).SetUint64(price))
	}
	mean := new(big.Int).Quo(sum, big.NewInt(int64(len(prices))))
	threshold := new(big.Int).Quo(mean, big.NewInt(consensusBandDivisor))

	agreeing := 0
	diff := new(big.Int)
	for i, price := range prices {
		for j, other := range prices {
			if i == j {
				continue
			}
			diff.Sub(new(big.Int).SetUint64(price), new(big.Int).SetUint64(other))
			if diff.Sign() < 0 {
				diff.Neg(diff)
			}
			if diff.Cmp(threshold) <= 0 {
				agreeing++
				break
			}
		}
	}
	return agreeing >= 2
}

// RequireConsensus wraps CheckConsensus with the engine-facing error.
func RequireConsensus(prices []uint64) error {
	if !CheckConsensus(prices) {
		return ErrConsensus
	}
	return nil
}
