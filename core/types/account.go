package types

import (
	"errors"
	"math/big"
	"sort"
)

// ErrInsufficientBalance is returned when a debit exceeds the available token
// balance.
var ErrInsufficientBalance = errors.New("account: insufficient balance")

// Account holds the token balances tracked by the ledger for one address. The
// engine moves collateral between user accounts and module vaults and
// mints/burns SYNTH supply through it; address derivation and signing live
// outside the core.
type Account struct {
	Balances map[string]*big.Int
}

// NewAccount returns an account with an initialised balance table.
func NewAccount() *Account {
	return &Account{Balances: make(map[string]*big.Int)}
}

// Balance returns the balance for the given token symbol, zero when unset.
func (a *Account) Balance(symbol string) *big.Int {
	if a == nil || a.Balances == nil {
		return big.NewInt(0)
	}
	if bal, ok := a.Balances[symbol]; ok && bal != nil {
		return bal
	}
	return big.NewInt(0)
}

// Credit adds amount to the balance for symbol.
func (a *Account) Credit(symbol string, amount *big.Int) {
	if a == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	if a.Balances == nil {
		a.Balances = make(map[string]*big.Int)
	}
	a.Balances[symbol] = new(big.Int).Add(a.Balance(symbol), amount)
}

// Debit subtracts amount from the balance for symbol, failing when the balance
// would go negative.
func (a *Account) Debit(symbol string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	bal := a.Balance(symbol)
	if bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	a.Balances[symbol] = new(big.Int).Sub(bal, amount)
	return nil
}

// Clone returns a deep copy so staged mutations never leak into stored state.
func (a *Account) Clone() *Account {
	clone := NewAccount()
	if a == nil || a.Balances == nil {
		return clone
	}
	for symbol, bal := range a.Balances {
		if bal != nil {
			clone.Balances[symbol] = new(big.Int).Set(bal)
		}
	}
	return clone
}

// Symbols lists the token symbols with a recorded balance in sorted order so
// serialization stays deterministic.
func (a *Account) Symbols() []string {
	if a == nil || a.Balances == nil {
		return nil
	}
	symbols := make([]string, 0, len(a.Balances))
	for symbol := range a.Balances {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}
