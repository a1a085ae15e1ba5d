package synth

import (
	"math/big"

	"synthchain/crypto"
	"synthchain/native/privacy"
)

const (
	hedgeSharesMin = 2
	hedgeSharesMax = 3
)

// TriggerHedge executes a rate-limited automated hedge for the owner's
// position, lazily initialising it on first use. The cooldown gate is
// evaluated before the proof so a stale proof can never probe the schedule.
// The proof must verify against public inputs binding the position commitment
// and the hedge decision. When shares are presented they must reconstruct the
// hedge secret, attesting that every co-signer cooperated. The timestamp
// advances only when the decision commits a hedge.
func (e *Engine) TriggerHedge(owner crypto.Address, decision bool, proof []byte, shares [][]byte, now int64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if e.verifier == nil {
		return ErrNilVerifier
	}
	cfg, err := e.requireConfig()
	if err != nil {
		return err
	}
	position, err := e.ensurePosition(owner, cfg)
	if err != nil {
		return err
	}
	if position.LastHedgeTimestamp > 0 && now-position.LastHedgeTimestamp < int64(cfg.HedgeIntervalSeconds) {
		return ErrHedgeCooldown
	}

	if !e.proofPolicy.Allows(proof) {
		return ErrInvalidProof
	}
	if !e.verifier.Verify(proof, hedgePublicInputs(position.CommitmentHash, decision)) {
		return ErrInvalidProof
	}

	if len(shares) > 0 {
		if len(shares) < hedgeSharesMin {
			return privacy.ErrTooFewShares
		}
		if len(shares) > hedgeSharesMax {
			return privacy.ErrInvalidShareParams
		}
		secret, err := privacy.ReconstructSecret(shares, hedgeSharesMin)
		if err != nil {
			return err
		}
		if len(secret) == 0 {
			return ErrInvalidProof
		}
	}

	if !decision {
		return nil
	}
	position.LastHedgeTimestamp = now
	return e.state.PutPosition(position)
}

// ManualHedgeOverride lets the position owner force a hedge without a proof.
// The position must carry debt. The cooldown still applies and the timestamp
// advances even for a declined decision, so repeated probing stays rate
// limited. A committed decision retires a tenth of the minted debt, burning
// the same amount from the owner's SYNTH balance.
func (e *Engine) ManualHedgeOverride(owner crypto.Address, decision bool, now int64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	cfg, err := e.requireConfig()
	if err != nil {
		return err
	}
	position, err := e.state.GetPosition(owner)
	if err != nil {
		return err
	}
	if position == nil || position.MintedDebt == 0 {
		return ErrInvalidOperation
	}
	position = position.Clone()
	if position.LastHedgeTimestamp > 0 && now-position.LastHedgeTimestamp < int64(cfg.HedgeIntervalSeconds) {
		return ErrHedgeCooldown
	}

	position.LastHedgeTimestamp = now
	if decision {
		reduction, err := percentOf(position.MintedDebt, manualHedgeReductionPercent)
		if err != nil {
			return err
		}
		ownerAcc, err := e.loadAccount(owner)
		if err != nil {
			return err
		}
		if err := ownerAcc.Debit(cfg.SynthMint, new(big.Int).SetUint64(reduction)); err != nil {
			return ErrInsufficientBalance
		}
		position.MintedDebt, err = checkedSubU64(position.MintedDebt, reduction)
		if err != nil {
			return err
		}
		position.CommitmentHash = privacy.PositionCommitment(position.Owner, position.CollateralAmounts, position.MintedDebt)
		if err := e.state.PutAccount(owner, ownerAcc); err != nil {
			return err
		}
	}
	return e.state.PutPosition(position)
}

func hedgePublicInputs(commitment [32]byte, decision bool) [][]byte {
	flag := byte(0)
	if decision {
		flag = 1
	}
	return [][]byte{commitment[:], {flag}}
}
