package privacy

import (
	"bytes"
	"encoding/binary"

	"lukechampine.com/blake3"

	"synthchain/crypto"
)

// Commitments bind position and market data for later verification without
// revealing it at commitment time. The canonical encoding is length-delimited
// so distinct field boundaries can never collide.

func writeDelimited(buf *bytes.Buffer, data []byte) {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(data)))
	buf.Write(length[:])
	buf.Write(data)
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var raw [8]byte
	binary.BigEndian.PutUint64(raw[:], v)
	buf.Write(raw[:])
}

// PositionCommitment hashes the owner identity, each collateral amount and the
// minted debt into a single attestation of the position's contents.
func PositionCommitment(owner crypto.Address, collateralAmounts []uint64, mintedDebt uint64) [32]byte {
	buf := bytes.NewBuffer(nil)
	writeDelimited(buf, owner.Bytes())
	writeUint64(buf, uint64(len(collateralAmounts)))
	for _, amount := range collateralAmounts {
		writeUint64(buf, amount)
	}
	writeUint64(buf, mintedDebt)
	return blake3.Sum256(buf.Bytes())
}

// QuestionCommitment binds a market question to a nonce derived from its
// resolution time, preventing post-creation tampering with the question text.
func QuestionCommitment(question string, nonce uint64) [32]byte {
	buf := bytes.NewBuffer(nil)
	writeDelimited(buf, []byte(question))
	writeUint64(buf, nonce)
	return blake3.Sum256(buf.Bytes())
}

// ValidateCommitment reports whether a commitment has been populated.
func ValidateCommitment(commitment [32]byte) bool {
	for _, b := range commitment {
		if b != 0 {
			return true
		}
	}
	return false
}
