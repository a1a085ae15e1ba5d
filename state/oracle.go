package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"synthchain/native/oracle"
)

// storedSample keeps the sign out of band because the wire encoding only
// carries unsigned integers.
type storedSample struct {
	MantissaAbs uint64
	MantissaNeg bool
	ExponentAbs uint32
	ExponentNeg bool
	PublishTime uint64
}

// PutSample records the latest sample published for a feed.
func (m *Manager) PutSample(feedID string, sample oracle.PriceSample) error {
	stored := &storedSample{PublishTime: uint64(sample.PublishTime)}
	if sample.Mantissa < 0 {
		stored.MantissaNeg = true
		stored.MantissaAbs = uint64(-sample.Mantissa)
	} else {
		stored.MantissaAbs = uint64(sample.Mantissa)
	}
	if sample.Exponent < 0 {
		stored.ExponentNeg = true
		stored.ExponentAbs = uint32(-sample.Exponent)
	} else {
		stored.ExponentAbs = uint32(sample.Exponent)
	}
	return m.put(oracleKey(feedID), stored)
}

// ReadSample returns the latest sample for a feed, satisfying the price feed
// capability consumed by the oracle adapter. Staleness is the adapter's
// concern, not the store's.
func (m *Manager) ReadSample(feedID string, now int64) (oracle.PriceSample, error) {
	raw, ok, err := m.get(oracleKey(feedID))
	if err != nil {
		return oracle.PriceSample{}, err
	}
	if !ok {
		return oracle.PriceSample{}, oracle.ErrInvalidOracle
	}
	var stored storedSample
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return oracle.PriceSample{}, fmt.Errorf("state: decode oracle sample: %w", err)
	}
	sample := oracle.PriceSample{
		Mantissa:    int64(stored.MantissaAbs),
		Exponent:    int32(stored.ExponentAbs),
		PublishTime: int64(stored.PublishTime),
	}
	if stored.MantissaNeg {
		sample.Mantissa = -sample.Mantissa
	}
	if stored.ExponentNeg {
		sample.Exponent = -sample.Exponent
	}
	return sample, nil
}
