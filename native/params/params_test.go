package params

import (
	"errors"
	"testing"

	"synthchain/crypto"
)

func testAdmin() crypto.Address {
	raw := make([]byte, 20)
	raw[0] = 0x01
	return crypto.NewAddress(crypto.SynPrefix, raw)
}

func TestNewGlobalConfigDefaults(t *testing.T) {
	cfg, err := NewGlobalConfig(testAdmin(), RequiredMinCollateralRatio, 0, []string{"col"}, []string{"feed"}, "SYNTH")
	if err != nil {
		t.Fatalf("NewGlobalConfig: %v", err)
	}
	if cfg.HedgeIntervalSeconds != DefaultHedgeIntervalSeconds {
		t.Fatalf("interval = %d, want default %d", cfg.HedgeIntervalSeconds, DefaultHedgeIntervalSeconds)
	}
	if cfg.ApprovedCollaterals[0] != "COL" {
		t.Fatalf("collateral symbol not canonicalized: %q", cfg.ApprovedCollaterals[0])
	}
}

func TestNewGlobalConfigValidation(t *testing.T) {
	admin := testAdmin()
	cases := []struct {
		name        string
		ratio       uint64
		interval    uint64
		collaterals []string
		feeds       []string
		want        error
	}{
		{name: "ratio not pinned", ratio: 120_000_000, collaterals: []string{"A"}, feeds: []string{"f"}, want: ErrInvalidRatio},
		{name: "interval too short", ratio: RequiredMinCollateralRatio, interval: 10, collaterals: []string{"A"}, feeds: []string{"f"}, want: ErrInvalidInterval},
		{name: "interval too long", ratio: RequiredMinCollateralRatio, interval: 90_000, collaterals: []string{"A"}, feeds: []string{"f"}, want: ErrInvalidInterval},
		{name: "no collaterals", ratio: RequiredMinCollateralRatio, collaterals: nil, feeds: nil, want: ErrInvalidCollateralList},
		{name: "too many collaterals", ratio: RequiredMinCollateralRatio, collaterals: []string{"A", "B", "C", "D", "E", "F"}, feeds: []string{"1", "2", "3", "4", "5", "6"}, want: ErrInvalidCollateralList},
		{name: "duplicate collateral", ratio: RequiredMinCollateralRatio, collaterals: []string{"A", "a"}, feeds: []string{"1", "2"}, want: ErrDuplicateCollateral},
		{name: "feed count mismatch", ratio: RequiredMinCollateralRatio, collaterals: []string{"A", "B"}, feeds: []string{"1"}, want: ErrOracleMismatch},
	}
	for _, tc := range cases {
		_, err := NewGlobalConfig(admin, tc.ratio, tc.interval, tc.collaterals, tc.feeds, "SYNTH")
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestUpdateHedgeInterval(t *testing.T) {
	cfg, err := NewGlobalConfig(testAdmin(), RequiredMinCollateralRatio, 0, []string{"col"}, []string{"feed"}, "SYNTH")
	if err != nil {
		t.Fatalf("NewGlobalConfig: %v", err)
	}
	if err := cfg.UpdateHedgeInterval(MinHedgeIntervalSeconds); err != nil {
		t.Fatalf("UpdateHedgeInterval at lower bound: %v", err)
	}
	if err := cfg.UpdateHedgeInterval(MaxHedgeIntervalSeconds + 1); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
}

func TestCollateralIndex(t *testing.T) {
	cfg, err := NewGlobalConfig(testAdmin(), RequiredMinCollateralRatio, 0, []string{"col", "alt"}, []string{"f1", "f2"}, "SYNTH")
	if err != nil {
		t.Fatalf("NewGlobalConfig: %v", err)
	}
	if idx := cfg.CollateralIndex("alt"); idx != 1 {
		t.Fatalf("CollateralIndex(alt) = %d, want 1", idx)
	}
	if idx := cfg.CollateralIndex("MISSING"); idx != -1 {
		t.Fatalf("unknown symbol resolved to %d", idx)
	}
}
