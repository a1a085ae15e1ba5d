package privacy

import (
	"crypto/rand"
	"errors"
)

var (
	ErrInvalidShareParams = errors.New("privacy: share parameters require n >= t and t > 0")
	ErrTooFewShares       = errors.New("privacy: too few shares for reconstruction")
	ErrEmptySecret        = errors.New("privacy: secret must not be empty")
)

// SplitSecret splits a secret into n shares whose XOR equals the secret:
// n-1 CSPRNG shares plus one corrective share. Presenting fewer than t shares
// is rejected at reconstruction, but the scheme itself is n-of-n — the
// threshold is a count gate attesting cooperation, not an algebraic (t,n)
// guarantee. Deployments needing true threshold semantics must swap in a
// polynomial scheme behind the same interface.
func SplitSecret(secret []byte, t, n int) ([][]byte, error) {
	if t <= 0 || n < t {
		return nil, ErrInvalidShareParams
	}
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	shares := make([][]byte, n)
	corrective := append([]byte(nil), secret...)
	for i := 0; i < n-1; i++ {
		share := make([]byte, len(secret))
		if _, err := rand.Read(share); err != nil {
			return nil, err
		}
		for j := range corrective {
			corrective[j] ^= share[j]
		}
		shares[i] = share
	}
	shares[n-1] = corrective
	return shares, nil
}

// ReconstructSecret XOR-folds the presented shares. The result length follows
// the longest share so ragged inputs cannot truncate the secret.
func ReconstructSecret(shares [][]byte, t int) ([]byte, error) {
	if t <= 0 {
		return nil, ErrInvalidShareParams
	}
	if len(shares) < t {
		return nil, ErrTooFewShares
	}
	maxLen := 0
	for _, share := range shares {
		if len(share) > maxLen {
			maxLen = len(share)
		}
	}
	if maxLen == 0 {
		return nil, ErrEmptySecret
	}
	secret := make([]byte, maxLen)
	for _, share := range shares {
		for i, b := range share {
			secret[i] ^= b
		}
	}
	return secret, nil
}
