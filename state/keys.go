package state

import (
	"encoding/binary"

	"synthchain/crypto"
)

var (
	configKey      = []byte("synth/config")
	positionPrefix = []byte("synth/position/")
	accountPrefix  = []byte("synth/account/")
	marketPrefix   = []byte("market/")
	oraclePrefix   = []byte("oracle/sample/")
)

func positionKey(owner crypto.Address) []byte {
	return append(append([]byte(nil), positionPrefix...), owner.Bytes()...)
}

func accountKey(addr crypto.Address) []byte {
	return append(append([]byte(nil), accountPrefix...), addr.Bytes()...)
}

func oracleKey(feedID string) []byte {
	return append(append([]byte(nil), oraclePrefix...), feedID...)
}

func marketKey(id uint64) []byte {
	key := append([]byte(nil), marketPrefix...)
	var raw [8]byte
	binary.BigEndian.PutUint64(raw[:], id)
	return append(key, raw[:]...)
}
