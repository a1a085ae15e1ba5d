package synth

import (
	"errors"
	"math/big"
	"testing"

	"synthchain/native/privacy"
)

func validShares(t *testing.T) [][]byte {
	t.Helper()
	shares, err := privacy.SplitSecret([]byte("hedge-secret"), 2, 3)
	if err != nil {
		t.Fatalf("SplitSecret: %v", err)
	}
	return shares
}

func TestTriggerHedgeLazyInit(t *testing.T) {
	f := newFixture(t, []string{"COL"}, []string{"feed-col"})
	if err := f.engine.TriggerHedge(f.owner, true, []byte("proof"), nil, testNow); err != nil {
		t.Fatalf("TriggerHedge: %v", err)
	}
	position := f.state.positions[f.owner.String()]
	if position == nil {
		t.Fatalf("first hedge must initialise the position")
	}
	if position.MintedDebt != 0 || position.CollateralAmounts[0] != 0 {
		t.Fatalf("lazy position not zeroed: %+v", position)
	}
	if position.LastHedgeTimestamp != testNow {
		t.Fatalf("timestamp = %d, want %d", position.LastHedgeTimestamp, testNow)
	}
}

func TestTriggerHedgeCooldownBeatsValidProof(t *testing.T) {
	f := newFixture(t, []string{"COL"}, []string{"feed-col"})
	if err := f.engine.TriggerHedge(f.owner, true, []byte("proof"), nil, testNow); err != nil {
		t.Fatalf("first trigger: %v", err)
	}
	err := f.engine.TriggerHedge(f.owner, true, []byte("proof"), validShares(t), testNow+60)
	if !errors.Is(err, ErrHedgeCooldown) {
		t.Fatalf("expected ErrHedgeCooldown, got %v", err)
	}
	if err := f.engine.TriggerHedge(f.owner, true, []byte("proof"), nil, testNow+3600); err != nil {
		t.Fatalf("trigger after the interval: %v", err)
	}
}

func TestTriggerHedgeProofGate(t *testing.T) {
	f := newFixture(t, []string{"COL"}, []string{"feed-col"})
	if err := f.engine.TriggerHedge(f.owner, true, nil, nil, testNow); !errors.Is(err, ErrInvalidProof) {
		t.Fatalf("empty proof: expected ErrInvalidProof, got %v", err)
	}

	f.engine.SetVerifier(rejectAllVerifier{})
	if err := f.engine.TriggerHedge(f.owner, true, []byte("proof"), nil, testNow); !errors.Is(err, ErrInvalidProof) {
		t.Fatalf("rejected proof: expected ErrInvalidProof, got %v", err)
	}
	if f.state.positions[f.owner.String()] != nil {
		t.Fatalf("failed trigger must not persist a position")
	}
}

func TestTriggerHedgeShareGate(t *testing.T) {
	f := newFixture(t, []string{"COL"}, []string{"feed-col"})
	shares := validShares(t)

	if err := f.engine.TriggerHedge(f.owner, true, []byte("proof"), shares[:1], testNow); !errors.Is(err, privacy.ErrTooFewShares) {
		t.Fatalf("single share: expected ErrTooFewShares, got %v", err)
	}
	four := append(append([][]byte{}, shares...), shares[0])
	if err := f.engine.TriggerHedge(f.owner, true, []byte("proof"), four, testNow); !errors.Is(err, privacy.ErrInvalidShareParams) {
		t.Fatalf("four shares: expected ErrInvalidShareParams, got %v", err)
	}
	if err := f.engine.TriggerHedge(f.owner, true, []byte("proof"), shares, testNow); err != nil {
		t.Fatalf("full share set: %v", err)
	}
}

func TestTriggerHedgeDeclinedDecisionKeepsTimestamp(t *testing.T) {
	f := newFixture(t, []string{"COL"}, []string{"feed-col"})
	if err := f.engine.TriggerHedge(f.owner, false, []byte("proof"), nil, testNow); err != nil {
		t.Fatalf("declined trigger: %v", err)
	}
	// A declined decision commits nothing, so a fresh trigger is not on
	// cooldown.
	if err := f.engine.TriggerHedge(f.owner, true, []byte("proof"), nil, testNow+1); err != nil {
		t.Fatalf("trigger after declined decision: %v", err)
	}
}

func TestManualHedgeOverrideRequiresPosition(t *testing.T) {
	f := newFixture(t, []string{"COL"}, []string{"feed-col"})
	if err := f.engine.ManualHedgeOverride(f.owner, true, testNow); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}
}

func TestManualHedgeOverrideRequiresDebt(t *testing.T) {
	f := newFixture(t, []string{"COL"}, []string{"feed-col"})
	// A lazily initialised position exists but carries no debt.
	if err := f.engine.TriggerHedge(f.owner, true, []byte("proof"), nil, testNow); err != nil {
		t.Fatalf("TriggerHedge: %v", err)
	}
	if err := f.engine.ManualHedgeOverride(f.owner, true, testNow+3600); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("zero debt: expected ErrInvalidOperation, got %v", err)
	}
}

func TestManualHedgeOverrideReducesDebt(t *testing.T) {
	f := newFixture(t, []string{"COL"}, []string{"feed-col"})
	f.feed.set("feed-col", 2)
	f.fund(f.owner, "COL", 1000)
	if err := f.engine.Mint(f.owner, 0, 300, 400, "feed-col", testNow); err != nil {
		t.Fatalf("Mint: %v", err)
	}

	if err := f.engine.ManualHedgeOverride(f.owner, true, testNow); err != nil {
		t.Fatalf("ManualHedgeOverride: %v", err)
	}
	position := f.state.positions[f.owner.String()]
	if position.MintedDebt != 360 {
		t.Fatalf("debt = %d, want 360", position.MintedDebt)
	}
	if got := f.balance(f.owner, "SYNTH"); got != 360 {
		t.Fatalf("owner SYNTH = %d, want 360 after the retirement burn", got)
	}
	want := privacy.PositionCommitment(f.owner, position.CollateralAmounts, 360)
	if position.CommitmentHash != want {
		t.Fatalf("commitment not recomputed")
	}
	if position.LastHedgeTimestamp != testNow {
		t.Fatalf("timestamp = %d, want %d", position.LastHedgeTimestamp, testNow)
	}
}

func TestManualHedgeOverrideInsufficientBalance(t *testing.T) {
	f := newFixture(t, []string{"COL"}, []string{"feed-col"})
	f.feed.set("feed-col", 2)
	f.fund(f.owner, "COL", 1000)
	if err := f.engine.Mint(f.owner, 0, 300, 400, "feed-col", testNow); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	// Spend the minted SYNTH elsewhere; the retirement burn has nothing to
	// take.
	acc := f.state.accounts[f.owner.String()]
	if err := acc.Debit("SYNTH", new(big.Int).SetUint64(400)); err != nil {
		t.Fatalf("Debit: %v", err)
	}

	if err := f.engine.ManualHedgeOverride(f.owner, true, testNow); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	position := f.state.positions[f.owner.String()]
	if position.MintedDebt != 400 {
		t.Fatalf("failed override changed debt: %d", position.MintedDebt)
	}
	if position.LastHedgeTimestamp != 0 {
		t.Fatalf("failed override persisted a timestamp: %d", position.LastHedgeTimestamp)
	}
}

func TestManualHedgeOverrideDeclinedStillRateLimits(t *testing.T) {
	f := newFixture(t, []string{"COL"}, []string{"feed-col"})
	f.feed.set("feed-col", 2)
	f.fund(f.owner, "COL", 1000)
	if err := f.engine.Mint(f.owner, 0, 300, 400, "feed-col", testNow); err != nil {
		t.Fatalf("Mint: %v", err)
	}

	if err := f.engine.ManualHedgeOverride(f.owner, false, testNow); err != nil {
		t.Fatalf("declined override: %v", err)
	}
	position := f.state.positions[f.owner.String()]
	if position.MintedDebt != 400 {
		t.Fatalf("declined override changed debt: %d", position.MintedDebt)
	}
	if err := f.engine.ManualHedgeOverride(f.owner, true, testNow+60); !errors.Is(err, ErrHedgeCooldown) {
		t.Fatalf("expected ErrHedgeCooldown, got %v", err)
	}
}
