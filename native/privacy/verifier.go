package privacy

// Verifier is the proof-verification capability consumed by the hedge
// controller and market settlement. The contract is an accept/reject decision
// over opaque proof bytes and the public inputs being attested; cryptographic
// soundness is the implementation's responsibility, not the core's. A
// production verifier must bind the public inputs to the proof — the core
// never assumes acceptance.
type Verifier interface {
	Verify(proof []byte, publicInputs [][]byte) bool
}

// ProofPolicy bounds the opaque proof bytes accepted before the verifier
// capability runs. An empty proof never passes.
type ProofPolicy struct {
	MinBytes int
	MaxBytes int
}

// DefaultProofPolicy mirrors the settlement proof envelope of the reference
// deployment.
func DefaultProofPolicy() ProofPolicy {
	return ProofPolicy{MinBytes: 32, MaxBytes: 2048}
}

// Allows reports whether the proof length falls inside the policy window.
func (p ProofPolicy) Allows(proof []byte) bool {
	if len(proof) == 0 {
		return false
	}
	if p.MinBytes > 0 && len(proof) < p.MinBytes {
		return false
	}
	if p.MaxBytes > 0 && len(proof) > p.MaxBytes {
		return false
	}
	return true
}

// BoundsVerifier accepts any proof whose byte length falls inside the
// configured window. It is the structural stand-in used until a real proof
// system is wired behind the Verifier interface; it provides no cryptographic
// assurance.
type BoundsVerifier struct {
	MinBytes int
	MaxBytes int
}

func (v BoundsVerifier) Verify(proof []byte, _ [][]byte) bool {
	if len(proof) == 0 {
		return false
	}
	if v.MinBytes > 0 && len(proof) < v.MinBytes {
		return false
	}
	if v.MaxBytes > 0 && len(proof) > v.MaxBytes {
		return false
	}
	return true
}

// AcceptAllVerifier accepts every proof unconditionally. It exists for local
// development and tests; the ProofPolicy still screens the proof envelope
// before it runs.
type AcceptAllVerifier struct{}

func (AcceptAllVerifier) Verify([]byte, [][]byte) bool { return true }
