package market

import (
	"math"
	"math/big"
)

// Payout computes the gross winnings for a stake on the winning side:
// floor(stake * (winningPool + losingPool) / winningPool), widened through
// big.Int. An empty winning pool pays nothing.
func Payout(stake, winningPool, losingPool uint64) (uint64, error) {
	if winningPool == 0 {
		return 0, nil
	}
	total := new(big.Int).Add(
		new(big.Int).SetUint64(winningPool),
		new(big.Int).SetUint64(losingPool),
	)
	share := new(big.Int).Mul(new(big.Int).SetUint64(stake), total)
	share.Quo(share, new(big.Int).SetUint64(winningPool))
	if !share.IsUint64() {
		return 0, ErrOverflow
	}
	return share.Uint64(), nil
}

// ImpliedProbability derives the market-implied odds from the pool balances.
// Both sides report one half when no stake has been placed.
func ImpliedProbability(yesPool, noPool uint64) (float64, float64) {
	if yesPool == 0 && noPool == 0 {
		return 0.5, 0.5
	}
	total := float64(yesPool) + float64(noPool)
	return float64(yesPool) / total, float64(noPool) / total
}

// AdvisoryBetSize suggests a side and stake nudging the implied yes
// probability toward targetProb, capped at maxSlippage of the current total
// pool. The suggestion is advisory only and never enforced by the engine.
func AdvisoryBetSize(yesPool, noPool uint64, targetProb, maxSlippage float64) (bool, uint64, error) {
	if targetProb < 0 || targetProb > 1 || maxSlippage <= 0 || maxSlippage > 1 {
		return false, 0, ErrInvalidAdvisoryRequest
	}
	total := float64(yesPool) + float64(noPool)
	if total == 0 {
		return targetProb >= 0.5, 0, nil
	}
	currentYes := float64(yesPool) / total

	// Solving (side_pool + x) / (total + x) = target for x gives the exact
	// stake; a negative solution means the other side moves toward target.
	side := targetProb > currentYes
	var exact float64
	if side {
		exact = (targetProb*total - float64(yesPool)) / (1 - targetProb)
	} else {
		noTarget := 1 - targetProb
		exact = (noTarget*total - float64(noPool)) / (1 - noTarget)
	}
	if exact <= 0 || math.IsInf(exact, 0) || math.IsNaN(exact) {
		return side, 0, nil
	}
	limit := maxSlippage * total
	if exact > limit {
		exact = limit
	}
	if exact >= math.MaxUint64 {
		return false, 0, ErrOverflow
	}
	return side, uint64(exact), nil
}
