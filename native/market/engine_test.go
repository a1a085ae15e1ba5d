package market

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"synthchain/core/types"
	"synthchain/crypto"
	"synthchain/native/oracle"
	"synthchain/native/privacy"
)

const testNow = int64(1_700_000_000)

type mockState struct {
	markets  map[uint64]*Market
	accounts map[string]*types.Account
}

func newMockState() *mockState {
	return &mockState{
		markets:  make(map[uint64]*Market),
		accounts: make(map[string]*types.Account),
	}
}

func (m *mockState) GetMarket(id uint64) (*Market, error) { return m.markets[id], nil }

func (m *mockState) PutMarket(market *Market) error {
	m.markets[market.ID] = market
	return nil
}

func (m *mockState) GetAccount(addr crypto.Address) (*types.Account, error) {
	return m.accounts[addr.String()], nil
}

func (m *mockState) PutAccount(addr crypto.Address, account *types.Account) error {
	m.accounts[addr.String()] = account
	return nil
}

type stubFeed struct {
	samples map[string]oracle.PriceSample
}

func (f *stubFeed) ReadSample(feedID string, now int64) (oracle.PriceSample, error) {
	sample, ok := f.samples[feedID]
	if !ok {
		return oracle.PriceSample{}, oracle.ErrInvalidOracle
	}
	return sample, nil
}

func testAddr(tag byte) crypto.Address {
	raw := make([]byte, 20)
	raw[0] = tag
	return crypto.NewAddress(crypto.SynPrefix, raw)
}

type fixture struct {
	engine  *Engine
	state   *mockState
	feed    *stubFeed
	creator crypto.Address
	bettor  crypto.Address
	vault   crypto.Address
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	state := newMockState()
	feed := &stubFeed{samples: make(map[string]oracle.PriceSample)}
	vault := testAddr(0xfe)
	engine := NewEngine(vault, "SYNTH")
	engine.SetState(state)
	engine.SetOracleAdapter(oracle.NewAdapter(feed, oracle.DefaultConfig()))
	engine.SetVerifier(privacy.AcceptAllVerifier{})
	engine.SetProofPolicy(privacy.ProofPolicy{MinBytes: 1, MaxBytes: 2048})
	return &fixture{
		engine:  engine,
		state:   state,
		feed:    feed,
		creator: testAddr(0x01),
		bettor:  testAddr(0x02),
		vault:   vault,
	}
}

func (f *fixture) fund(addr crypto.Address, amount uint64) {
	acc := f.state.accounts[addr.String()]
	if acc == nil {
		acc = types.NewAccount()
		f.state.accounts[addr.String()] = acc
	}
	acc.Credit("SYNTH", new(big.Int).SetUint64(amount))
}

func (f *fixture) balance(addr crypto.Address) uint64 {
	acc := f.state.accounts[addr.String()]
	if acc == nil {
		return 0
	}
	return acc.Balance("SYNTH").Uint64()
}

func (f *fixture) create(t *testing.T, id uint64, proofRequired bool) *Market {
	t.Helper()
	m, err := f.engine.Create(id, f.creator, "feed-outcome", "does the pool settle above par", testNow+7200, proofRequired, testNow)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return m
}

func (f *fixture) setOutcome(mantissa int64, at int64) {
	f.feed.samples["feed-outcome"] = oracle.PriceSample{Mantissa: mantissa, Exponent: 0, PublishTime: at}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	long := strings.Repeat("q", MaxQuestionBytes+1)
	if _, err := f.engine.Create(1, f.creator, "feed-outcome", long, testNow+7200, false, testNow); !errors.Is(err, ErrInvalidMarket) {
		t.Fatalf("long question: expected ErrInvalidMarket, got %v", err)
	}
	if _, err := f.engine.Create(1, f.creator, "feed-outcome", "", testNow+7200, false, testNow); !errors.Is(err, ErrInvalidMarket) {
		t.Fatalf("empty question: expected ErrInvalidMarket, got %v", err)
	}
	if _, err := f.engine.Create(1, f.creator, "feed-outcome", "q", testNow+3600, false, testNow); !errors.Is(err, ErrInvalidResolutionTime) {
		t.Fatalf("short lead time: expected ErrInvalidResolutionTime, got %v", err)
	}

	f.create(t, 1, false)
	if _, err := f.engine.Create(1, f.creator, "feed-outcome", "q", testNow+7200, false, testNow); !errors.Is(err, ErrMarketExists) {
		t.Fatalf("duplicate id: expected ErrMarketExists, got %v", err)
	}
}

func TestCreateBindsCommitment(t *testing.T) {
	f := newFixture(t)
	m := f.create(t, 1, true)
	want := privacy.QuestionCommitment(m.Question, uint64(m.ResolutionTime))
	if m.Commitment != want {
		t.Fatalf("commitment does not bind question and resolution time")
	}
	if !m.ProofRequired {
		t.Fatalf("creator proof flag not stored")
	}
}

func TestBetMovesStake(t *testing.T) {
	f := newFixture(t)
	f.create(t, 1, false)
	f.fund(f.bettor, 1000)

	if err := f.engine.Bet(1, f.bettor, true, 300); err != nil {
		t.Fatalf("Bet yes: %v", err)
	}
	if err := f.engine.Bet(1, f.bettor, false, 100); err != nil {
		t.Fatalf("Bet no: %v", err)
	}
	m := f.state.markets[1]
	if m.YesPool != 300 || m.NoPool != 100 {
		t.Fatalf("pools = %d/%d, want 300/100", m.YesPool, m.NoPool)
	}
	if got := f.balance(f.bettor); got != 600 {
		t.Fatalf("bettor balance = %d, want 600", got)
	}
	if got := f.balance(f.vault); got != 400 {
		t.Fatalf("vault balance = %d, want 400", got)
	}
}

func TestBetValidation(t *testing.T) {
	f := newFixture(t)
	f.create(t, 1, false)
	f.fund(f.bettor, 10)

	if err := f.engine.Bet(1, f.bettor, true, 0); !errors.Is(err, ErrZeroAmount) {
		t.Fatalf("expected ErrZeroAmount, got %v", err)
	}
	if err := f.engine.Bet(2, f.bettor, true, 1); !errors.Is(err, ErrMarketNotFound) {
		t.Fatalf("expected ErrMarketNotFound, got %v", err)
	}
	if err := f.engine.Bet(1, f.bettor, true, 11); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestSettleResolvesOnce(t *testing.T) {
	f := newFixture(t)
	f.create(t, 1, false)
	f.fund(f.bettor, 100)
	if err := f.engine.Bet(1, f.bettor, true, 100); err != nil {
		t.Fatalf("Bet: %v", err)
	}

	settleAt := testNow + 7200
	f.setOutcome(1, settleAt)

	if _, err := f.engine.Settle(1, nil, testNow); !errors.Is(err, ErrResolutionNotReached) {
		t.Fatalf("early settle: expected ErrResolutionNotReached, got %v", err)
	}
	outcome, err := f.engine.Settle(1, nil, settleAt)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if !outcome {
		t.Fatalf("positive mantissa should resolve yes")
	}
	m := f.state.markets[1]
	if !m.Resolved || m.Outcome == nil || !*m.Outcome {
		t.Fatalf("market not terminal: %+v", m)
	}

	if _, err := f.engine.Settle(1, nil, settleAt+1); !errors.Is(err, ErrMarketResolved) {
		t.Fatalf("second settle: expected ErrMarketResolved, got %v", err)
	}
	if err := f.engine.Bet(1, f.bettor, true, 1); !errors.Is(err, ErrMarketResolved) {
		t.Fatalf("bet on resolved market: expected ErrMarketResolved, got %v", err)
	}
}

func TestSettleProofRequired(t *testing.T) {
	f := newFixture(t)
	f.create(t, 1, true)
	settleAt := testNow + 7200
	f.setOutcome(1, settleAt)

	if _, err := f.engine.Settle(1, nil, settleAt); !errors.Is(err, ErrInvalidProof) {
		t.Fatalf("missing proof: expected ErrInvalidProof, got %v", err)
	}
	if f.state.markets[1].Resolved {
		t.Fatalf("failed settle must not resolve the market")
	}
	if _, err := f.engine.Settle(1, []byte("proof"), settleAt); err != nil {
		t.Fatalf("Settle with proof: %v", err)
	}
}
