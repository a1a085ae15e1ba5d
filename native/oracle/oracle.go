package oracle

import (
	"errors"
	"math/big"
)

var (
	ErrInvalidOracle = errors.New("oracle: invalid or mismatched feed")
	ErrStalePrice    = errors.New("oracle: price sample is stale")
	ErrOverflow      = errors.New("oracle: arithmetic overflow")
)

// PriceSample is the raw reading published by a price feed: a signed mantissa
// scaled by 10^Exponent plus the publish timestamp.
type PriceSample struct {
	Mantissa    int64
	Exponent    int32
	PublishTime int64
}

// Feed is the read capability for price data. Implementations wrap whatever
// transport the deployment uses; the adapter only sees the sample.
type Feed interface {
	ReadSample(feedID string, now int64) (PriceSample, error)
}

// Config bounds adapter behaviour. The staleness window is a single deployment
// constant applied to every feed.
type Config struct {
	MaxStalenessSeconds int64
}

// DefaultConfig matches the production staleness window of one hour.
func DefaultConfig() Config {
	return Config{MaxStalenessSeconds: 3600}
}

// Adapter validates feed identity and freshness, and normalizes raw samples to
// the protocol's 8-decimal fixed-point scale.
type Adapter struct {
	feed Feed
	cfg  Config
}

// NewAdapter wires the adapter to a feed capability.
func NewAdapter(feed Feed, cfg Config) *Adapter {
	if cfg.MaxStalenessSeconds <= 0 {
		cfg = DefaultConfig()
	}
	return &Adapter{feed: feed, cfg: cfg}
}

// FetchPrice reads the sample for feedID and returns its normalized price.
// The supplied feed identity must match the identity configured for the
// collateral slot; a mismatch means a substituted feed and is rejected before
// any data is read.
func (a *Adapter) FetchPrice(feedID, expectedFeedID string, now int64) (uint64, error) {
	if a == nil || a.feed == nil {
		return 0, ErrInvalidOracle
	}
	if feedID == "" || feedID != expectedFeedID {
		return 0, ErrInvalidOracle
	}
	sample, err := a.feed.ReadSample(feedID, now)
	if err != nil {
		return 0, err
	}
	if sample.Mantissa <= 0 {
		return 0, ErrInvalidOracle
	}
	if age := now - sample.PublishTime; age > a.cfg.MaxStalenessSeconds {
		return 0, ErrStalePrice
	}
	return normalizeTo8Decimals(sample.Mantissa, sample.Exponent)
}

// FetchOutcome reads a binary outcome for prediction-market settlement. The
// same identity and staleness gates apply; the outcome is the sign of the
// published value.
func (a *Adapter) FetchOutcome(feedID, expectedFeedID string, now int64) (bool, error) {
	if a == nil || a.feed == nil {
		return false, ErrInvalidOracle
	}
	if feedID == "" || feedID != expectedFeedID {
		return false, ErrInvalidOracle
	}
	sample, err := a.feed.ReadSample(feedID, now)
	if err != nil {
		return false, err
	}
	if age := now - sample.PublishTime; age > a.cfg.MaxStalenessSeconds {
		return false, ErrStalePrice
	}
	return sample.Mantissa > 0, nil
}

var (
	scale8   = big.NewInt(100_000_000)
	maxU64   = new(big.Int).SetUint64(^uint64(0))
	bigTen   = big.NewInt(10)
	maxPower = int32(38)
)

// normalizeTo8Decimals converts mantissa x 10^exponent into an unsigned
// 8-decimal fixed-point value. All intermediates are widened; the final value
// must fit in 64 bits or the conversion aborts rather than wrapping.
func normalizeTo8Decimals(mantissa int64, exponent int32) (uint64, error) {
	if mantissa <= 0 {
		return 0, ErrInvalidOracle
	}
	if exponent < -maxPower || exponent > maxPower {
		return 0, ErrOverflow
	}
	value := big.NewInt(mantissa)
	if exponent < 0 {
		divisor := new(big.Int).Exp(bigTen, big.NewInt(int64(-exponent)), nil)
		value.Mul(value, scale8)
		value.Quo(value, divisor)
	} else {
		multiplier := new(big.Int).Exp(bigTen, big.NewInt(int64(exponent)), nil)
		value.Mul(value, multiplier)
		value.Mul(value, scale8)
	}
	if value.Cmp(maxU64) > 0 {
		return 0, ErrOverflow
	}
	return value.Uint64(), nil
}
