package elementsutil

import (
	"encoding/binary"
	"errors"
)

const (
	explicitPrefix    = byte(0x01)
	explicitValueSize = 9
	explicitAssetSize = 33
)

var (
	// ErrInvalidValueLength is returned for values that are not 9 bytes.
	ErrInvalidValueLength = errors.New("invalid elements value length")
	// ErrInvalidValuePrefix is returned for blinded value commitments.
	ErrInvalidValuePrefix = errors.New("invalid elements value prefix")
)

// ValueToBytes converts a satoshi amount into an explicit Elements value.
func ValueToBytes(val uint64) []byte {
	res := make([]byte, explicitValueSize)
	res[0] = explicitPrefix
	binary.BigEndian.PutUint64(res[1:], val)
	return res
}

// ValueFromBytes decodes an explicit Elements value into satoshis.
func ValueFromBytes(val []byte) (uint64, error) {
	if len(val) != explicitValueSize {
		return 0, ErrInvalidValueLength
	}
	if val[0] != explicitPrefix {
		return 0, ErrInvalidValuePrefix
	}
	return binary.BigEndian.Uint64(val[1:]), nil
}

// IsExplicitValue tells whether val is an unblinded value.
func IsExplicitValue(val []byte) bool {
	return len(val) == explicitValueSize && val[0] == explicitPrefix
}

// IsExplicitAsset tells whether commitment is an unblinded asset.
func IsExplicitAsset(commitment []byte) bool {
	return len(commitment) == explicitAssetSize && commitment[0] == explicitPrefix
}
