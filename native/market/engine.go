package market

import (
	"errors"
	"math/big"

	"synthchain/core/types"
	"synthchain/crypto"
	"synthchain/native/oracle"
	"synthchain/native/privacy"
)

var (
	ErrNilState               = errors.New("market engine: state not configured")
	ErrNilVerifier            = errors.New("market engine: proof verifier not configured")
	ErrInvalidMarket          = errors.New("market engine: invalid market parameters")
	ErrMarketExists           = errors.New("market engine: market already exists")
	ErrMarketNotFound         = errors.New("market engine: market not found")
	ErrMarketResolved         = errors.New("market engine: market already resolved")
	ErrResolutionNotReached   = errors.New("market engine: resolution time not reached")
	ErrInvalidResolutionTime  = errors.New("market engine: resolution time too soon")
	ErrZeroAmount             = errors.New("market engine: amount must be positive")
	ErrOverflow               = errors.New("market engine: arithmetic overflow")
	ErrInsufficientBalance    = errors.New("market engine: insufficient balance")
	ErrInvalidProof           = errors.New("market engine: proof verification failed")
	ErrInvalidAdvisoryRequest = errors.New("market engine: invalid advisory sizing request")
)

type engineState interface {
	GetMarket(id uint64) (*Market, error)
	PutMarket(market *Market) error
	GetAccount(addr crypto.Address) (*types.Account, error)
	PutAccount(addr crypto.Address, account *types.Account) error
}

// Engine executes the prediction market state transitions. Stakes are
// escrowed in the pool vault account until settlement; pool accounting is
// checked uint64 arithmetic widened through big.Int where products appear.
type Engine struct {
	state       engineState
	adapter     *oracle.Adapter
	verifier    privacy.Verifier
	vaultAddr   crypto.Address
	stakeSymbol string
	proofPolicy privacy.ProofPolicy
}

// NewEngine constructs a market engine escrowing stakes of stakeSymbol in the
// vault account.
func NewEngine(vaultAddr crypto.Address, stakeSymbol string) *Engine {
	return &Engine{
		vaultAddr:   vaultAddr,
		stakeSymbol: stakeSymbol,
		proofPolicy: privacy.DefaultProofPolicy(),
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetOracleAdapter wires the resolution feed adapter.
func (e *Engine) SetOracleAdapter(adapter *oracle.Adapter) { e.adapter = adapter }

// SetVerifier wires the settlement proof capability.
func (e *Engine) SetVerifier(verifier privacy.Verifier) { e.verifier = verifier }

// SetProofPolicy overrides the accepted proof length window.
func (e *Engine) SetProofPolicy(policy privacy.ProofPolicy) { e.proofPolicy = policy }

// Create opens a binary market. The question is bounded to MaxQuestionBytes
// and the resolution time must leave at least an hour of betting. The stored
// commitment binds question text and resolution time against later tampering.
// Whether settlement demands a proof is the creator's explicit choice.
func (e *Engine) Create(id uint64, creator crypto.Address, resolutionFeed, question string, resolutionTime int64, proofRequired bool, now int64) (*Market, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if len(question) == 0 || len(question) > MaxQuestionBytes {
		return nil, ErrInvalidMarket
	}
	if resolutionFeed == "" {
		return nil, ErrInvalidMarket
	}
	if resolutionTime <= now+minLeadTimeSeconds {
		return nil, ErrInvalidResolutionTime
	}
	if existing, err := e.state.GetMarket(id); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrMarketExists
	}
	market := &Market{
		ID:             id,
		Creator:        creator,
		ResolutionFeed: resolutionFeed,
		Question:       question,
		Commitment:     privacy.QuestionCommitment(question, uint64(resolutionTime)),
		ProofRequired:  proofRequired,
		ResolutionTime: resolutionTime,
	}
	if err := e.state.PutMarket(market); err != nil {
		return nil, err
	}
	return market, nil
}

// Bet escrows amount of the bettor's stake token into the vault and credits
// the chosen pool. Side true backs yes.
func (e *Engine) Bet(id uint64, bettor crypto.Address, side bool, amount uint64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if amount == 0 {
		return ErrZeroAmount
	}
	market, err := e.requireMarket(id)
	if err != nil {
		return err
	}
	if market.Resolved {
		return ErrMarketResolved
	}
	market = market.Clone()
	if side {
		market.YesPool, err = checkedAddU64(market.YesPool, amount)
	} else {
		market.NoPool, err = checkedAddU64(market.NoPool, amount)
	}
	if err != nil {
		return err
	}

	bettorAcc, err := e.loadAccount(bettor)
	if err != nil {
		return err
	}
	vaultAcc, err := e.loadAccount(e.vaultAddr)
	if err != nil {
		return err
	}
	stake := new(big.Int).SetUint64(amount)
	if err := bettorAcc.Debit(e.stakeSymbol, stake); err != nil {
		return ErrInsufficientBalance
	}
	vaultAcc.Credit(e.stakeSymbol, stake)

	if err := e.state.PutAccount(bettor, bettorAcc); err != nil {
		return err
	}
	if err := e.state.PutAccount(e.vaultAddr, vaultAcc); err != nil {
		return err
	}
	return e.state.PutMarket(market)
}

// Settle resolves the market from its resolution feed. Settling a resolved
// market is rejected with no state change. When the market was created with
// a proof requirement, the proof must verify over public inputs binding the
// market commitment and the observed outcome.
func (e *Engine) Settle(id uint64, proof []byte, now int64) (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	if e.adapter == nil {
		return false, oracle.ErrInvalidOracle
	}
	market, err := e.requireMarket(id)
	if err != nil {
		return false, err
	}
	if market.Resolved {
		return false, ErrMarketResolved
	}
	if now < market.ResolutionTime {
		return false, ErrResolutionNotReached
	}
	outcome, err := e.adapter.FetchOutcome(market.ResolutionFeed, market.ResolutionFeed, now)
	if err != nil {
		return false, err
	}
	if market.ProofRequired {
		if e.verifier == nil {
			return false, ErrNilVerifier
		}
		if !e.proofPolicy.Allows(proof) {
			return false, ErrInvalidProof
		}
		if !e.verifier.Verify(proof, settlePublicInputs(market.Commitment, outcome)) {
			return false, ErrInvalidProof
		}
	}
	market = market.Clone()
	market.Resolved = true
	market.Outcome = &outcome
	if err := e.state.PutMarket(market); err != nil {
		return false, err
	}
	return outcome, nil
}

// GetMarket exposes the stored market for queries.
func (e *Engine) GetMarket(id uint64) (*Market, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.state.GetMarket(id)
}

func (e *Engine) requireMarket(id uint64) (*Market, error) {
	market, err := e.state.GetMarket(id)
	if err != nil {
		return nil, err
	}
	if market == nil {
		return nil, ErrMarketNotFound
	}
	return market, nil
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

func settlePublicInputs(commitment [32]byte, outcome bool) [][]byte {
	flag := byte(0)
	if outcome {
		flag = 1
	}
	return [][]byte{commitment[:], {flag}}
}

func checkedAddU64(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}
