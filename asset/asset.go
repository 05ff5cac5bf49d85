// Package asset defines the fixed-width identifier of a confidential asset.
package asset

import (
	"bytes"
	"encoding/hex"
	"errors"
)

// Size is the length in bytes of an asset identifier.
const Size = 32

// explicitPrefix marks an unblinded asset commitment on the wire.
const explicitPrefix = byte(0x01)

var (
	// ErrInvalidLength is returned when a hex string does not decode to
	// exactly Size bytes.
	ErrInvalidLength = errors.New("invalid asset id length")
	// ErrNotExplicit is returned when a commitment is not an explicit one.
	ErrNotExplicit = errors.New("asset commitment is not explicit")
)

// ID is an asset identifier stored in internal (hash) byte order. Its
// String form is the reversed hex used by nodes and explorers.
type ID [Size]byte

// NewIDFromString parses an asset identifier in display (reversed) hex.
func NewIDFromString(str string) (ID, error) {
	var id ID
	buf, err := hex.DecodeString(str)
	if err != nil {
		return id, err
	}
	if len(buf) != Size {
		return id, ErrInvalidLength
	}
	for i := range buf {
		id[Size-1-i] = buf[i]
	}
	return id, nil
}

// MustNewIDFromString is like NewIDFromString but panics on malformed input.
// Meant for package level constants.
func MustNewIDFromString(str string) ID {
	id, err := NewIDFromString(str)
	if err != nil {
		panic(err)
	}
	return id
}

// NewIDFromBytes copies an identifier given in internal byte order.
func NewIDFromBytes(buf []byte) (ID, error) {
	var id ID
	if len(buf) != Size {
		return id, ErrInvalidLength
	}
	copy(id[:], buf)
	return id, nil
}

// NewIDFromCommitment extracts the identifier from an explicit 33 byte
// asset commitment (0x01 prefix).
func NewIDFromCommitment(commitment []byte) (ID, error) {
	if len(commitment) != Size+1 || commitment[0] != explicitPrefix {
		return ID{}, ErrNotExplicit
	}
	return NewIDFromBytes(commitment[1:])
}

// Commitment returns the explicit asset commitment for id.
func (id ID) Commitment() []byte {
	return append([]byte{explicitPrefix}, id[:]...)
}

// String returns the display hex of id.
func (id ID) String() string {
	buf := make([]byte, Size)
	for i := range id {
		buf[Size-1-i] = id[i]
	}
	return hex.EncodeToString(buf)
}

// IsZero tells whether id is the all-zero identifier.
func (id ID) IsZero() bool {
	return id == ID{}
}

// Compare orders identifiers byte-wise over their internal representation.
func (id ID) Compare(other ID) int {
	return bytes.Compare(id[:], other[:])
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := NewIDFromString(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
