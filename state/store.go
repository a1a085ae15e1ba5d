package state

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"synthchain/core/types"
	"synthchain/crypto"
	"synthchain/native/market"
	"synthchain/native/params"
	"synthchain/native/synth"
	"synthchain/storage"
)

// Manager persists protocol state as RLP records over a key-value database.
// It backs both the synth and market engines; missing records surface as nil
// so the engines keep their lazy-initialisation semantics.
type Manager struct {
	db storage.Database
}

// NewManager wraps the supplied database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

type storedConfig struct {
	Admin                []byte
	MinCollateralRatio   uint64
	HedgeIntervalSeconds uint64
	ApprovedCollaterals  []string
	OracleFeeds          []string
	SynthMint            string
}

type storedPosition struct {
	Owner              []byte
	CollateralAmounts  []uint64
	MintedDebt         uint64
	Commitment         []byte
	LastHedgeTimestamp uint64
}

type storedMarket struct {
	ID             uint64
	Creator        []byte
	ResolutionFeed string
	Question       string
	YesPool        uint64
	NoPool         uint64
	Commitment     []byte
	ProofRequired  bool
	Resolved       bool
	Outcome        bool
	ResolutionTime uint64
}

type storedBalance struct {
	Symbol string
	Amount *big.Int
}

type storedAccount struct {
	Balances []storedBalance
}

func (m *Manager) get(key []byte) ([]byte, bool, error) {
	raw, err := m.db.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return raw, true, nil
}

func (m *Manager) put(key []byte, record interface{}) error {
	encoded, err := rlp.EncodeToBytes(record)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return m.db.Put(key, encoded)
}

// Config loads the global configuration, nil when uninitialised.
func (m *Manager) Config() (*params.GlobalConfig, error) {
	raw, ok, err := m.get(configKey)
	if err != nil || !ok {
		return nil, err
	}
	var stored storedConfig
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, fmt.Errorf("state: decode config: %w", err)
	}
	return &params.GlobalConfig{
		Admin:                crypto.NewAddress(crypto.SynPrefix, stored.Admin),
		MinCollateralRatio:   stored.MinCollateralRatio,
		HedgeIntervalSeconds: stored.HedgeIntervalSeconds,
		ApprovedCollaterals:  stored.ApprovedCollaterals,
		OracleFeeds:          stored.OracleFeeds,
		SynthMint:            stored.SynthMint,
	}, nil
}

// PutConfig stores the global configuration.
func (m *Manager) PutConfig(cfg *params.GlobalConfig) error {
	return m.put(configKey, &storedConfig{
		Admin:                cfg.Admin.Bytes(),
		MinCollateralRatio:   cfg.MinCollateralRatio,
		HedgeIntervalSeconds: cfg.HedgeIntervalSeconds,
		ApprovedCollaterals:  cfg.ApprovedCollaterals,
		OracleFeeds:          cfg.OracleFeeds,
		SynthMint:            cfg.SynthMint,
	})
}

// GetPosition loads a position, nil when the owner has none.
func (m *Manager) GetPosition(owner crypto.Address) (*synth.Position, error) {
	raw, ok, err := m.get(positionKey(owner))
	if err != nil || !ok {
		return nil, err
	}
	var stored storedPosition
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, fmt.Errorf("state: decode position: %w", err)
	}
	position := &synth.Position{
		Owner:              crypto.NewAddress(crypto.SynPrefix, stored.Owner),
		CollateralAmounts:  stored.CollateralAmounts,
		MintedDebt:         stored.MintedDebt,
		LastHedgeTimestamp: int64(stored.LastHedgeTimestamp),
	}
	copy(position.CommitmentHash[:], stored.Commitment)
	return position, nil
}

// PutPosition stores a position keyed by its owner.
func (m *Manager) PutPosition(position *synth.Position) error {
	return m.put(positionKey(position.Owner), &storedPosition{
		Owner:              position.Owner.Bytes(),
		CollateralAmounts:  position.CollateralAmounts,
		MintedDebt:         position.MintedDebt,
		Commitment:         position.CommitmentHash[:],
		LastHedgeTimestamp: uint64(position.LastHedgeTimestamp),
	})
}

// GetMarket loads a market, nil when the id is unknown.
func (m *Manager) GetMarket(id uint64) (*market.Market, error) {
	raw, ok, err := m.get(marketKey(id))
	if err != nil || !ok {
		return nil, err
	}
	var stored storedMarket
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, fmt.Errorf("state: decode market: %w", err)
	}
	loaded := &market.Market{
		ID:             stored.ID,
		Creator:        crypto.NewAddress(crypto.SynPrefix, stored.Creator),
		ResolutionFeed: stored.ResolutionFeed,
		Question:       stored.Question,
		YesPool:        stored.YesPool,
		NoPool:         stored.NoPool,
		ProofRequired:  stored.ProofRequired,
		Resolved:       stored.Resolved,
		ResolutionTime: int64(stored.ResolutionTime),
	}
	copy(loaded.Commitment[:], stored.Commitment)
	if stored.Resolved {
		outcome := stored.Outcome
		loaded.Outcome = &outcome
	}
	return loaded, nil
}

// PutMarket stores a market keyed by its id.
func (m *Manager) PutMarket(record *market.Market) error {
	stored := &storedMarket{
		ID:             record.ID,
		Creator:        record.Creator.Bytes(),
		ResolutionFeed: record.ResolutionFeed,
		Question:       record.Question,
		YesPool:        record.YesPool,
		NoPool:         record.NoPool,
		Commitment:     record.Commitment[:],
		ProofRequired:  record.ProofRequired,
		Resolved:       record.Resolved,
		ResolutionTime: uint64(record.ResolutionTime),
	}
	if record.Outcome != nil {
		stored.Outcome = *record.Outcome
	}
	return m.put(marketKey(record.ID), stored)
}

// GetAccount loads the balance record for an address, nil when unknown.
func (m *Manager) GetAccount(addr crypto.Address) (*types.Account, error) {
	raw, ok, err := m.get(accountKey(addr))
	if err != nil || !ok {
		return nil, err
	}
	var stored storedAccount
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, fmt.Errorf("state: decode account: %w", err)
	}
	account := types.NewAccount()
	for _, balance := range stored.Balances {
		account.Balances[balance.Symbol] = new(big.Int).Set(balance.Amount)
	}
	return account, nil
}

// PutAccount stores the balance record for an address. Balances are written
// in sorted symbol order so the encoding stays deterministic.
func (m *Manager) PutAccount(addr crypto.Address, account *types.Account) error {
	stored := &storedAccount{}
	for _, symbol := range account.Symbols() {
		stored.Balances = append(stored.Balances, storedBalance{
			Symbol: symbol,
			Amount: account.Balance(symbol),
		})
	}
	return m.put(accountKey(addr), stored)
}
