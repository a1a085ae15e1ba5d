package oracle

import (
	"errors"
	"testing"
)

type stubFeed struct {
	samples map[string]PriceSample
}

func (f *stubFeed) ReadSample(feedID string, now int64) (PriceSample, error) {
	sample, ok := f.samples[feedID]
	if !ok {
		return PriceSample{}, ErrInvalidOracle
	}
	return sample, nil
}

func newAdapter(samples map[string]PriceSample) *Adapter {
	return NewAdapter(&stubFeed{samples: samples}, DefaultConfig())
}

func TestFetchPriceNormalizesExponent(t *testing.T) {
	now := int64(1_700_000_000)
	adapter := newAdapter(map[string]PriceSample{
		"negexp":  {Mantissa: 123_456, Exponent: -4, PublishTime: now},
		"zeroexp": {Mantissa: 7, Exponent: 0, PublishTime: now},
		"posexp":  {Mantissa: 3, Exponent: 2, PublishTime: now},
	})

	cases := []struct {
		feed string
		want uint64
	}{
		// 123456 * 1e8 / 1e4 = 12.3456 at 8 decimals.
		{feed: "negexp", want: 1_234_560_000},
		{feed: "zeroexp", want: 700_000_000},
		{feed: "posexp", want: 30_000_000_000},
	}
	for _, tc := range cases {
		got, err := adapter.FetchPrice(tc.feed, tc.feed, now)
		if err != nil {
			t.Fatalf("FetchPrice(%s): unexpected error %v", tc.feed, err)
		}
		if got != tc.want {
			t.Fatalf("FetchPrice(%s) = %d, want %d", tc.feed, got, tc.want)
		}
	}
}

func TestFetchPriceRejectsFeedSubstitution(t *testing.T) {
	now := int64(1_700_000_000)
	adapter := newAdapter(map[string]PriceSample{
		"attacker": {Mantissa: 1, Exponent: 0, PublishTime: now},
	})
	if _, err := adapter.FetchPrice("attacker", "configured", now); !errors.Is(err, ErrInvalidOracle) {
		t.Fatalf("expected ErrInvalidOracle, got %v", err)
	}
}

func TestFetchPriceRejectsNonPositiveMantissa(t *testing.T) {
	now := int64(1_700_000_000)
	adapter := newAdapter(map[string]PriceSample{
		"zero": {Mantissa: 0, Exponent: 0, PublishTime: now},
		"neg":  {Mantissa: -5, Exponent: 0, PublishTime: now},
	})
	for _, feed := range []string{"zero", "neg"} {
		if _, err := adapter.FetchPrice(feed, feed, now); !errors.Is(err, ErrInvalidOracle) {
			t.Fatalf("FetchPrice(%s): expected ErrInvalidOracle, got %v", feed, err)
		}
	}
}

func TestFetchPriceRejectsStaleSample(t *testing.T) {
	now := int64(1_700_000_000)
	window := DefaultConfig().MaxStalenessSeconds
	adapter := newAdapter(map[string]PriceSample{
		"stale": {Mantissa: 1, Exponent: 0, PublishTime: now - window - 1},
		"edge":  {Mantissa: 1, Exponent: 0, PublishTime: now - window},
	})
	if _, err := adapter.FetchPrice("stale", "stale", now); !errors.Is(err, ErrStalePrice) {
		t.Fatalf("expected ErrStalePrice, got %v", err)
	}
	if _, err := adapter.FetchPrice("edge", "edge", now); err != nil {
		t.Fatalf("sample at the window edge should pass, got %v", err)
	}
}

func TestFetchPriceOverflow(t *testing.T) {
	now := int64(1_700_000_000)
	adapter := newAdapter(map[string]PriceSample{
		"huge": {Mantissa: 1 << 62, Exponent: 10, PublishTime: now},
	})
	if _, err := adapter.FetchPrice("huge", "huge", now); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestFetchOutcome(t *testing.T) {
	now := int64(1_700_000_000)
	adapter := newAdapter(map[string]PriceSample{
		"yes": {Mantissa: 1, Exponent: 0, PublishTime: now},
	})
	outcome, err := adapter.FetchOutcome("yes", "yes", now)
	if err != nil {
		t.Fatalf("FetchOutcome: %v", err)
	}
	if !outcome {
		t.Fatalf("positive mantissa should resolve true")
	}
}

func TestCheckConsensus(t *testing.T) {
	cases := []struct {
		name   string
		prices []uint64
		want   bool
	}{
		{name: "empty", prices: nil, want: true},
		{name: "single", prices: []uint64{100}, want: true},
		{name: "unanimous", prices: []uint64{100, 100, 100}, want: true},
		// mean 133, threshold 1: the two 100s agree with each other.
		{name: "two of three", prices: []uint64{100, 100, 200}, want: true},
		// mean 200, threshold 2: the samples are 200 apart.
		{name: "split pair", prices: []uint64{100, 300}, want: false},
	}
	for _, tc := range cases {
		if got := CheckConsensus(tc.prices); got != tc.want {
			t.Fatalf("%s: CheckConsensus(%v) = %v, want %v", tc.name, tc.prices, got, tc.want)
		}
	}
}

func TestRequireConsensus(t *testing.T) {
	if err := RequireConsensus([]uint64{100, 100, 200}); err != nil {
		t.Fatalf("unexpected consensus failure: %v", err)
	}
	if err := RequireConsensus([]uint64{100, 300}); !errors.Is(err, ErrConsensus) {
		t.Fatalf("expected ErrConsensus, got %v", err)
	}
}
