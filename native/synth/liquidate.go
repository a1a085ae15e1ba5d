package synth

import (
	"math/big"

	"synthchain/crypto"
	"synthchain/native/oracle"
	"synthchain/native/params"
	"synthchain/native/privacy"
)

// Liquidatable reports whether the appraised collateral value has fallen
// below the minimum ratio against the minted debt. Positions with zero debt
// are never liquidatable.
func (e *Engine) Liquidatable(owner crypto.Address, feedIDs []string, now int64) (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	cfg, err := e.requireConfig()
	if err != nil {
		return false, err
	}
	position, err := e.state.GetPosition(owner)
	if err != nil {
		return false, err
	}
	if position == nil || position.MintedDebt == 0 {
		return false, nil
	}
	prices, err := e.collectPrices(cfg, position.CollateralAmounts, feedIDs, now)
	if err != nil {
		return false, err
	}
	if err := oracle.RequireConsensus(fundedPrices(position.CollateralAmounts, prices)); err != nil {
		return false, err
	}
	value := appraise(position.CollateralAmounts, prices)
	return value.Cmp(requiredValue(position.MintedDebt, cfg.MinCollateralRatio)) < 0, nil
}

// Liquidate repays the full minted debt of an undercollateralized position
// from the liquidator's SYNTH balance and seizes collateral worth the repaid
// debt plus a five percent bonus, clamped to what the position holds. Feeds
// for every configured oracle must be presented; a position owner cannot
// liquidate their own position.
func (e *Engine) Liquidate(liquidator, owner crypto.Address, feedIDs []string, now int64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if liquidator.Equal(owner) {
		return ErrUnauthorized
	}
	cfg, err := e.requireConfig()
	if err != nil {
		return err
	}
	if len(feedIDs) < len(cfg.OracleFeeds) {
		return ErrOracleMismatch
	}
	position, err := e.state.GetPosition(owner)
	if err != nil {
		return err
	}
	if position == nil || position.MintedDebt == 0 {
		return ErrNotLiquidatable
	}
	position = position.Clone()

	prices, err := e.collectPrices(cfg, position.CollateralAmounts, feedIDs, now)
	if err != nil {
		return err
	}
	if err := oracle.RequireConsensus(fundedPrices(position.CollateralAmounts, prices)); err != nil {
		return err
	}
	value := appraise(position.CollateralAmounts, prices)
	if value.Cmp(requiredValue(position.MintedDebt, cfg.MinCollateralRatio)) >= 0 {
		return ErrNotLiquidatable
	}

	liqAcc, err := e.loadAccount(liquidator)
	if err != nil {
		return err
	}
	vaultAcc, err := e.loadAccount(e.vaultAddr)
	if err != nil {
		return err
	}
	debt := position.MintedDebt
	if err := liqAcc.Debit(cfg.SynthMint, new(big.Int).SetUint64(debt)); err != nil {
		return ErrInsufficientBalance
	}

	// Seize up to the repaid debt plus the bonus in appraised value, walking
	// the slots in order until the target is covered or the collateral runs
	// out. Debt is valued at the protocol scale to match the appraisal.
	bonusRatio := uint64(params.RatioScale) / 100 * (100 + liquidationBonusPercent)
	target := mulU64(debt, bonusRatio)
	for i := range position.CollateralAmounts {
		if target.Sign() <= 0 {
			break
		}
		amount := position.CollateralAmounts[i]
		if amount == 0 || prices[i] == 0 {
			continue
		}
		price := new(big.Int).SetUint64(prices[i])
		units := new(big.Int).Add(target, new(big.Int).Sub(price, big.NewInt(1)))
		units.Quo(units, price)
		if units.Cmp(new(big.Int).SetUint64(amount)) > 0 {
			units.SetUint64(amount)
		}
		seized := units.Uint64()
		position.CollateralAmounts[i] = amount - seized

		symbol := cfg.ApprovedCollaterals[i]
		transfer := new(big.Int).SetUint64(seized)
		if err := vaultAcc.Debit(symbol, transfer); err != nil {
			return err
		}
		liqAcc.Credit(symbol, transfer)
		target.Sub(target, new(big.Int).Mul(units, price))
	}

	position.MintedDebt = 0
	position.CommitmentHash = privacy.PositionCommitment(position.Owner, position.CollateralAmounts, position.MintedDebt)

	if err := e.state.PutAccount(liquidator, liqAcc); err != nil {
		return err
	}
	if err := e.state.PutAccount(e.vaultAddr, vaultAcc); err != nil {
		return err
	}
	return e.state.PutPosition(position)
}
