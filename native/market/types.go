package market

import "synthchain/crypto"

// MaxQuestionBytes bounds the free-text market question.
const MaxQuestionBytes = 64

// minLeadTimeSeconds is the minimum gap between creation and resolution.
const minLeadTimeSeconds = 3600

// Market is a binary-outcome prediction market. Created once, mutated by bets
// while unresolved, then transitions to Resolved exactly once.
type Market struct {
	ID             uint64
	Creator        crypto.Address
	ResolutionFeed string
	Question       string
	YesPool        uint64
	NoPool         uint64
	Commitment     [32]byte
	ProofRequired  bool
	Resolved       bool
	Outcome        *bool
	ResolutionTime int64
}

// Clone returns a deep copy safe to stage mutations on.
func (m *Market) Clone() *Market {
	if m == nil {
		return nil
	}
	clone := *m
	if m.Outcome != nil {
		outcome := *m.Outcome
		clone.Outcome = &outcome
	}
	return &clone
}

// TotalPool returns the combined stake across both sides.
func (m *Market) TotalPool() uint64 {
	return m.YesPool + m.NoPool
}
