package synth

import (
	"synthchain/crypto"
)

// Position is the per-owner record of locked collateral and minted debt.
// CollateralAmounts is index-aligned with GlobalConfig.ApprovedCollaterals.
// Positions are created lazily on the first mint or hedge trigger and are
// never deleted.
type Position struct {
	Owner              crypto.Address
	CollateralAmounts  []uint64
	MintedDebt         uint64
	CommitmentHash     [32]byte
	LastHedgeTimestamp int64
}

// Clone returns a deep copy so staged mutations never touch stored state.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	clone := *p
	clone.CollateralAmounts = append([]uint64(nil), p.CollateralAmounts...)
	return &clone
}

// FundedSlots counts collateral slots holding a non-zero amount.
func (p *Position) FundedSlots() int {
	if p == nil {
		return 0
	}
	funded := 0
	for _, amount := range p.CollateralAmounts {
		if amount > 0 {
			funded++
		}
	}
	return funded
}
