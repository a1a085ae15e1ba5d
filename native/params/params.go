package params

import (
	"errors"
	"strings"

	"synthchain/crypto"
)

// Fixed-point scale shared by prices, ratios and health factors.
const (
	RatioScale = 100_000_000

	// RequiredMinCollateralRatio pins the minimum collateral ratio at 1.5x.
	// The ratio is a protocol constant rather than an operator knob.
	RequiredMinCollateralRatio = 150_000_000

	DefaultHedgeIntervalSeconds = 3600
	MinHedgeIntervalSeconds     = 300
	MaxHedgeIntervalSeconds     = 86400

	MaxApprovedCollaterals = 5
)

var (
	ErrInvalidRatio          = errors.New("params: min collateral ratio must be 1.5x")
	ErrInvalidInterval       = errors.New("params: hedge interval out of bounds")
	ErrInvalidCollateralList = errors.New("params: approved collateral list must hold 1-5 entries")
	ErrOracleMismatch        = errors.New("params: oracle feeds must match collateral list")
	ErrDuplicateCollateral   = errors.New("params: duplicate collateral in list")
)

// GlobalConfig parameterizes every engine in the protocol. One instance exists
// per deployment; ApprovedCollaterals and OracleFeeds are index-aligned so that
// collateral slot i is always priced by feed i.
type GlobalConfig struct {
	Admin                crypto.Address
	MinCollateralRatio   uint64
	HedgeIntervalSeconds uint64
	ApprovedCollaterals  []string
	OracleFeeds          []string
	SynthMint            string
}

// NewGlobalConfig validates the supplied parameters and returns the canonical
// configuration. A zero hedge interval selects the default before the bounds
// check runs.
func NewGlobalConfig(admin crypto.Address, minRatio, hedgeInterval uint64, collaterals, feeds []string, synthMint string) (*GlobalConfig, error) {
	if minRatio != RequiredMinCollateralRatio {
		return nil, ErrInvalidRatio
	}
	interval := hedgeInterval
	if interval == 0 {
		interval = DefaultHedgeIntervalSeconds
	}
	if interval < MinHedgeIntervalSeconds || interval > MaxHedgeIntervalSeconds {
		return nil, ErrInvalidInterval
	}
	if len(collaterals) == 0 || len(collaterals) > MaxApprovedCollaterals {
		return nil, ErrInvalidCollateralList
	}
	if len(collaterals) != len(feeds) {
		return nil, ErrOracleMismatch
	}
	canonical := make([]string, len(collaterals))
	for i, symbol := range collaterals {
		trimmed := strings.ToUpper(strings.TrimSpace(symbol))
		if trimmed == "" {
			return nil, ErrInvalidCollateralList
		}
		canonical[i] = trimmed
	}
	for i := 0; i < len(canonical); i++ {
		for j := i + 1; j < len(canonical); j++ {
			if canonical[i] == canonical[j] {
				return nil, ErrDuplicateCollateral
			}
		}
	}
	feedList := make([]string, len(feeds))
	for i, feed := range feeds {
		trimmed := strings.TrimSpace(feed)
		if trimmed == "" {
			return nil, ErrOracleMismatch
		}
		feedList[i] = trimmed
	}
	return &GlobalConfig{
		Admin:                admin,
		MinCollateralRatio:   minRatio,
		HedgeIntervalSeconds: interval,
		ApprovedCollaterals:  canonical,
		OracleFeeds:          feedList,
		SynthMint:            strings.ToUpper(strings.TrimSpace(synthMint)),
	}, nil
}

// UpdateHedgeInterval replaces the hedge interval after re-validating bounds.
// Caller authorization (admin signature) is enforced at the command surface.
func (c *GlobalConfig) UpdateHedgeInterval(interval uint64) error {
	if interval < MinHedgeIntervalSeconds || interval > MaxHedgeIntervalSeconds {
		return ErrInvalidInterval
	}
	c.HedgeIntervalSeconds = interval
	return nil
}

// CollateralIndex resolves the slot index for a collateral symbol, returning
// -1 when the symbol is not approved.
func (c *GlobalConfig) CollateralIndex(symbol string) int {
	needle := strings.ToUpper(strings.TrimSpace(symbol))
	for i, approved := range c.ApprovedCollaterals {
		if approved == needle {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the configuration.
func (c *GlobalConfig) Clone() *GlobalConfig {
	if c == nil {
		return nil
	}
	clone := *c
	clone.ApprovedCollaterals = append([]string(nil), c.ApprovedCollaterals...)
	clone.OracleFeeds = append([]string(nil), c.OracleFeeds...)
	return &clone
}
