package synth

import (
	"errors"
	"math"
	"math/big"

	"synthchain/core/types"
	"synthchain/crypto"
	"synthchain/native/oracle"
	"synthchain/native/params"
	"synthchain/native/privacy"
)

var (
	ErrNilState               = errors.New("synth engine: state not configured")
	ErrNilVerifier            = errors.New("synth engine: proof verifier not configured")
	ErrConfigMissing          = errors.New("synth engine: global config not initialised")
	ErrConfigExists           = errors.New("synth engine: global config already initialised")
	ErrZeroAmount             = errors.New("synth engine: amount must be positive")
	ErrInvalidCollateralIndex = errors.New("synth engine: invalid collateral index")
	ErrUnderCollateralized    = errors.New("synth engine: collateral ratio below minimum")
	ErrOverflow               = errors.New("synth engine: arithmetic overflow")
	ErrInsufficientBalance    = errors.New("synth engine: insufficient balance")
	ErrUnauthorized           = errors.New("synth engine: signer not authorized")
	ErrOracleMismatch         = errors.New("synth engine: supplied feeds do not cover configured oracles")
	ErrNotLiquidatable        = errors.New("synth engine: position not eligible for liquidation")
	ErrHedgeCooldown          = errors.New("synth engine: hedge cooldown active")
	ErrInvalidProof           = errors.New("synth engine: proof verification failed")
	ErrInvalidOperation       = errors.New("synth engine: no active position to hedge")
)

// HealthFactorUnbounded is the sentinel returned for positions with zero debt.
const HealthFactorUnbounded = math.MaxUint64

// liquidationBonusPercent is the premium of collateral value a liquidator
// seizes over the debt repaid.
const liquidationBonusPercent = 5

// manualHedgeReductionPercent is the share of minted debt retired by an
// owner-initiated hedge override.
const manualHedgeReductionPercent = 10

type engineState interface {
	Config() (*params.GlobalConfig, error)
	PutConfig(cfg *params.GlobalConfig) error
	GetPosition(owner crypto.Address) (*Position, error)
	PutPosition(position *Position) error
	GetAccount(addr crypto.Address) (*types.Account, error)
	PutAccount(addr crypto.Address, account *types.Account) error
}

// Engine executes the collateral, liquidation and hedge state transitions.
// Every operation is a deterministic all-or-nothing transition over the
// supplied inputs: state is read, staged on clones, and persisted only after
// the final precondition has passed. The current time is always a parameter;
// the engine never samples a clock.
type Engine struct {
	state       engineState
	adapter     *oracle.Adapter
	verifier    privacy.Verifier
	vaultAddr   crypto.Address
	proofPolicy privacy.ProofPolicy
}

// NewEngine constructs an engine bound to the collateral vault address. The
// oracle adapter and proof verifier are capabilities wired afterwards.
func NewEngine(vaultAddr crypto.Address) *Engine {
	return &Engine{vaultAddr: vaultAddr, proofPolicy: privacy.DefaultProofPolicy()}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetOracleAdapter wires the price feed adapter used for appraisal.
func (e *Engine) SetOracleAdapter(adapter *oracle.Adapter) { e.adapter = adapter }

// SetVerifier wires the proof verification capability used by hedge gating.
func (e *Engine) SetVerifier(verifier privacy.Verifier) { e.verifier = verifier }

// SetProofPolicy overrides the accepted proof length window.
func (e *Engine) SetProofPolicy(policy privacy.ProofPolicy) { e.proofPolicy = policy }

// InitializeConfig validates and stores the one-per-deployment protocol
// configuration. Re-initialisation is rejected.
func (e *Engine) InitializeConfig(admin crypto.Address, minRatio, hedgeInterval uint64, collaterals, feeds []string, synthMint string) (*params.GlobalConfig, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if existing, err := e.state.Config(); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrConfigExists
	}
	cfg, err := params.NewGlobalConfig(admin, minRatio, hedgeInterval, collaterals, feeds, synthMint)
	if err != nil {
		return nil, err
	}
	if err := e.state.PutConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UpdateConfig replaces the hedge interval. Only the configured admin may
// update runtime parameters.
func (e *Engine) UpdateConfig(caller crypto.Address, hedgeInterval uint64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	cfg, err := e.requireConfig()
	if err != nil {
		return err
	}
	if !cfg.Admin.Equal(caller) {
		return ErrUnauthorized
	}
	if err := cfg.UpdateHedgeInterval(hedgeInterval); err != nil {
		return err
	}
	return e.state.PutConfig(cfg)
}

// Mint locks depositAmount of the indexed collateral and mints mintAmount of
// SYNTH against it. The deposit must cover the minted amount at the minimum
// collateral ratio using the presented feed's normalized price.
func (e *Engine) Mint(owner crypto.Address, collateralIndex int, depositAmount, mintAmount uint64, feedID string, now int64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if depositAmount == 0 || mintAmount == 0 {
		return ErrZeroAmount
	}
	cfg, err := e.requireConfig()
	if err != nil {
		return err
	}
	if collateralIndex < 0 || collateralIndex >= len(cfg.ApprovedCollaterals) {
		return ErrInvalidCollateralIndex
	}

	price, err := e.adapter.FetchPrice(feedID, cfg.OracleFeeds[collateralIndex], now)
	if err != nil {
		return err
	}

	collateralValue := mulU64(depositAmount, price)
	required := requiredValue(mintAmount, cfg.MinCollateralRatio)
	if collateralValue.Cmp(required) < 0 {
		return ErrUnderCollateralized
	}

	symbol := cfg.ApprovedCollaterals[collateralIndex]
	ownerAcc, err := e.loadAccount(owner)
	if err != nil {
		return err
	}
	vaultAcc, err := e.loadAccount(e.vaultAddr)
	if err != nil {
		return err
	}
	deposit := new(big.Int).SetUint64(depositAmount)
	if err := ownerAcc.Debit(symbol, deposit); err != nil {
		return ErrInsufficientBalance
	}
	vaultAcc.Credit(symbol, deposit)
	ownerAcc.Credit(cfg.SynthMint, new(big.Int).SetUint64(mintAmount))

	position, err := e.ensurePosition(owner, cfg)
	if err != nil {
		return err
	}
	position.CollateralAmounts[collateralIndex], err = checkedAddU64(position.CollateralAmounts[collateralIndex], depositAmount)
	if err != nil {
		return err
	}
	position.MintedDebt, err = checkedAddU64(position.MintedDebt, mintAmount)
	if err != nil {
		return err
	}
	position.CommitmentHash = privacy.PositionCommitment(position.Owner, position.CollateralAmounts, position.MintedDebt)

	if err := e.state.PutAccount(owner, ownerAcc); err != nil {
		return err
	}
	if err := e.state.PutAccount(e.vaultAddr, vaultAcc); err != nil {
		return err
	}
	return e.state.PutPosition(position)
}

// Burn retires burnAmount of the owner's SYNTH debt. When debt remains after
// the burn the position must still satisfy the minimum collateral ratio
// against the presented feeds.
func (e *Engine) Burn(owner crypto.Address, burnAmount uint64, feedIDs []string, now int64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if burnAmount == 0 {
		return ErrZeroAmount
	}
	cfg, err := e.requireConfig()
	if err != nil {
		return err
	}
	position, err := e.state.GetPosition(owner)
	if err != nil {
		return err
	}
	if position == nil || burnAmount > position.MintedDebt {
		return ErrInsufficientBalance
	}
	position = position.Clone()

	ownerAcc, err := e.loadAccount(owner)
	if err != nil {
		return err
	}
	if err := ownerAcc.Debit(cfg.SynthMint, new(big.Int).SetUint64(burnAmount)); err != nil {
		return ErrInsufficientBalance
	}

	position.MintedDebt -= burnAmount
	if position.MintedDebt > 0 {
		prices, err := e.collectPrices(cfg, position.CollateralAmounts, feedIDs, now)
		if err != nil {
			return err
		}
		value := appraise(position.CollateralAmounts, prices)
		if value.Cmp(requiredValue(position.MintedDebt, cfg.MinCollateralRatio)) < 0 {
			return ErrUnderCollateralized
		}
	}
	position.CommitmentHash = privacy.PositionCommitment(position.Owner, position.CollateralAmounts, position.MintedDebt)

	if err := e.state.PutAccount(owner, ownerAcc); err != nil {
		return err
	}
	return e.state.PutPosition(position)
}

// VerifyCollateralRatio succeeds when the appraised collateral value covers
// the minted debt at the minimum collateral ratio.
func (e *Engine) VerifyCollateralRatio(owner crypto.Address, feedIDs []string, now int64) error {
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
	if position == nil {
		return ErrInvalidOperation
	}
	prices, err := e.collectPrices(cfg, position.CollateralAmounts, feedIDs, now)
	if err != nil {
		return err
	}
	value := appraise(position.CollateralAmounts, prices)
	if value.Cmp(requiredValue(position.MintedDebt, cfg.MinCollateralRatio)) < 0 {
		return ErrUnderCollateralized
	}
	return nil
}

// HealthFactor returns the normalized collateral-value/debt ratio at the
// protocol scale. Zero debt yields the unbounded sentinel for any collateral
// configuration.
func (e *Engine) HealthFactor(owner crypto.Address, feedIDs []string, now int64) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	cfg, err := e.requireConfig()
	if err != nil {
		return 0, err
	}
	position, err := e.state.GetPosition(owner)
	if err != nil {
		return 0, err
	}
	if position == nil {
		return HealthFactorUnbounded, nil
	}
	if position.MintedDebt == 0 {
		return HealthFactorUnbounded, nil
	}
	prices, err := e.collectPrices(cfg, position.CollateralAmounts, feedIDs, now)
	if err != nil {
		return 0, err
	}
	value := appraise(position.CollateralAmounts, prices)
	value.Mul(value, ratioScale)
	value.Quo(value, new(big.Int).SetUint64(position.MintedDebt))
	return toU64(value)
}

// MaxMintable returns the largest SYNTH amount the supplied collateral can
// back at the minimum collateral ratio.
func (e *Engine) MaxMintable(amounts []uint64, feedIDs []string, now int64) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	cfg, err := e.requireConfig()
	if err != nil {
		return 0, err
	}
	prices, err := e.collectPrices(cfg, amounts, feedIDs, now)
	if err != nil {
		return 0, err
	}
	value := appraise(amounts, prices)
	value.Quo(value, new(big.Int).SetUint64(cfg.MinCollateralRatio))
	return toU64(value)
}

// Config exposes the stored configuration for queries.
func (e *Engine) Config() (*params.GlobalConfig, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.requireConfig()
}

// GetPosition exposes the stored position for queries.
func (e *Engine) GetPosition(owner crypto.Address) (*Position, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.state.GetPosition(owner)
}

func (e *Engine) requireConfig() (*params.GlobalConfig, error) {
	cfg, err := e.state.Config()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrConfigMissing
	}
	return cfg, nil
}

// ensurePosition is the single get-or-create factory for lazily initialised
// positions. Every operation that may touch a fresh position goes through it.
func (e *Engine) ensurePosition(owner crypto.Address, cfg *params.GlobalConfig) (*Position, error) {
	position, err := e.state.GetPosition(owner)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return &Position{
			Owner:             owner,
			CollateralAmounts: make([]uint64, len(cfg.ApprovedCollaterals)),
		}, nil
	}
	position = position.Clone()
	if len(position.CollateralAmounts) < len(cfg.ApprovedCollaterals) {
		padded := make([]uint64, len(cfg.ApprovedCollaterals))
		copy(padded, position.CollateralAmounts)
		position.CollateralAmounts = padded
	}
	return position, nil
}

func (e *Engine) loadAccount(addr crypto.Address) (*types.Account, error) {
	acc, err := e.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		acc = types.NewAccount()
	}
	return acc.Clone(), nil
}

// collectPrices fetches the normalized price for every funded collateral slot
// from its presented feed. The returned slice is slot-aligned; unfunded slots
// stay zero and are skipped by the appraisal.
func (e *Engine) collectPrices(cfg *params.GlobalConfig, amounts []uint64, feedIDs []string, now int64) ([]uint64, error) {
	if e.adapter == nil {
		return nil, oracle.ErrInvalidOracle
	}
	prices := make([]uint64, len(cfg.OracleFeeds))
	for i, amount := range amounts {
		if amount == 0 || i >= len(cfg.OracleFeeds) {
			continue
		}
		if i >= len(feedIDs) {
			return nil, ErrOracleMismatch
		}
		price, err := e.adapter.FetchPrice(feedIDs[i], cfg.OracleFeeds[i], now)
		if err != nil {
			return nil, err
		}
		prices[i] = price
	}
	return prices, nil
}

// fundedPrices filters the slot-aligned price vector down to funded slots for
// the consensus check.
func fundedPrices(amounts, prices []uint64) []uint64 {
	sampled := make([]uint64, 0, len(prices))
	for i, amount := range amounts {
		if amount == 0 || i >= len(prices) {
			continue
		}
		sampled = append(sampled, prices[i])
	}
	return sampled
}
