package privacy

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"synthchain/crypto"
)

func testAddr(tag byte) crypto.Address {
	raw := make([]byte, 20)
	raw[0] = tag
	return crypto.NewAddress(crypto.SynPrefix, raw)
}

func TestPositionCommitmentSensitivity(t *testing.T) {
	owner := testAddr(0x01)
	base := PositionCommitment(owner, []uint64{10, 20}, 5)

	if got := PositionCommitment(owner, []uint64{10, 20}, 5); got != base {
		t.Fatalf("commitment not deterministic")
	}
	if got := PositionCommitment(owner, []uint64{10, 20}, 6); got == base {
		t.Fatalf("debt change must alter the commitment")
	}
	if got := PositionCommitment(owner, []uint64{20, 10}, 5); got == base {
		t.Fatalf("amount order must alter the commitment")
	}
	if got := PositionCommitment(testAddr(0x02), []uint64{10, 20}, 5); got == base {
		t.Fatalf("owner change must alter the commitment")
	}
}

func TestQuestionCommitmentBindsNonce(t *testing.T) {
	base := QuestionCommitment("will it settle", 42)
	if got := QuestionCommitment("will it settle", 43); got == base {
		t.Fatalf("nonce change must alter the commitment")
	}
	if got := QuestionCommitment("will it settle?", 42); got == base {
		t.Fatalf("question change must alter the commitment")
	}
	if got := QuestionCommitment("will it settle", 42); got != base {
		t.Fatalf("commitment must be deterministic")
	}
	if !ValidateCommitment(base) {
		t.Fatalf("populated commitment must validate")
	}
	if ValidateCommitment([32]byte{}) {
		t.Fatalf("zero commitment must not validate")
	}
}

func makeLeaves(n int) [][32]byte {
	leaves := make([][32]byte, n)
	for i := range leaves {
		leaves[i][0] = byte(i + 1)
	}
	return leaves
}

func TestMerkleRoundTrip(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 5, 8} {
		t.Run(fmt.Sprintf("leaves=%d", n), func(t *testing.T) {
			leaves := makeLeaves(n)
			root := MerkleRoot(leaves)
			for i := range leaves {
				proof, err := BuildMerkleProof(leaves, i)
				if err != nil {
					t.Fatalf("BuildMerkleProof(%d): %v", i, err)
				}
				if !VerifyMerkleProof(leaves[i], proof, root, i) {
					t.Fatalf("proof for leaf %d does not verify", i)
				}
			}
		})
	}
}

func TestMerkleCorruptedSiblingFails(t *testing.T) {
	leaves := makeLeaves(5)
	root := MerkleRoot(leaves)
	for i := range leaves {
		proof, err := BuildMerkleProof(leaves, i)
		if err != nil {
			t.Fatalf("BuildMerkleProof(%d): %v", i, err)
		}
		for level := range proof {
			corrupted := make([][32]byte, len(proof))
			copy(corrupted, proof)
			corrupted[level][0] ^= 0x01
			if VerifyMerkleProof(leaves[i], corrupted, root, i) {
				t.Fatalf("corrupted sibling at level %d for leaf %d still verifies", level, i)
			}
		}
	}
}

func TestMerkleWrongLeafFails(t *testing.T) {
	leaves := makeLeaves(4)
	root := MerkleRoot(leaves)
	proof, err := BuildMerkleProof(leaves, 0)
	if err != nil {
		t.Fatalf("BuildMerkleProof: %v", err)
	}
	var bogus [32]byte
	bogus[0] = 0xaa
	if VerifyMerkleProof(bogus, proof, root, 0) {
		t.Fatalf("foreign leaf must not verify")
	}
}

func TestSplitReconstructSecret(t *testing.T) {
	secret := []byte("the hedge committee signing key")
	shares, err := SplitSecret(secret, 2, 3)
	if err != nil {
		t.Fatalf("SplitSecret: %v", err)
	}
	if len(shares) != 3 {
		t.Fatalf("share count = %d, want 3", len(shares))
	}
	recovered, err := ReconstructSecret(shares, 2)
	if err != nil {
		t.Fatalf("ReconstructSecret: %v", err)
	}
	if !bytes.Equal(recovered, secret) {
		t.Fatalf("recovered %q, want %q", recovered, secret)
	}
}

func TestReconstructTooFewShares(t *testing.T) {
	shares, err := SplitSecret([]byte("secret"), 3, 3)
	if err != nil {
		t.Fatalf("SplitSecret: %v", err)
	}
	if _, err := ReconstructSecret(shares[:2], 3); !errors.Is(err, ErrTooFewShares) {
		t.Fatalf("expected ErrTooFewShares, got %v", err)
	}
}

func TestSplitSecretValidation(t *testing.T) {
	if _, err := SplitSecret(nil, 2, 3); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
	if _, err := SplitSecret([]byte("s"), 0, 3); !errors.Is(err, ErrInvalidShareParams) {
		t.Fatalf("expected ErrInvalidShareParams for zero threshold, got %v", err)
	}
	if _, err := SplitSecret([]byte("s"), 3, 2); !errors.Is(err, ErrInvalidShareParams) {
		t.Fatalf("expected ErrInvalidShareParams for n < t, got %v", err)
	}
}

func TestProofPolicy(t *testing.T) {
	policy := ProofPolicy{MinBytes: 4, MaxBytes: 8}
	if policy.Allows(nil) {
		t.Fatalf("empty proof must be rejected")
	}
	if policy.Allows([]byte("abc")) {
		t.Fatalf("short proof must be rejected")
	}
	if !policy.Allows([]byte("abcd")) {
		t.Fatalf("proof at minimum must pass")
	}
	if policy.Allows(bytes.Repeat([]byte{1}, 9)) {
		t.Fatalf("oversize proof must be rejected")
	}
}

func TestVerifierStubs(t *testing.T) {
	if !(AcceptAllVerifier{}).Verify(nil, nil) {
		t.Fatalf("AcceptAllVerifier must accept everything")
	}
	bounds := BoundsVerifier{MinBytes: 4, MaxBytes: 8}
	if bounds.Verify([]byte("abc"), nil) {
		t.Fatalf("short proof must be rejected")
	}
	if !bounds.Verify([]byte("abcd"), nil) {
		t.Fatalf("proof at minimum must pass")
	}
}
