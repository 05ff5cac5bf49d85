package utxo

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const hardenedKeyStart = uint32(0x80000000)

var (
	// ErrNoKeyOrigin is returned when a descriptor carries no key origin.
	ErrNoKeyOrigin = errors.New("descriptor has no key origin")
)

// Derivation tells a signer which wallet key controls a coin.
type Derivation struct {
	Fingerprint [4]byte
	Path        []uint32
	// Compressed public key following the key origin, nil if the
	// descriptor has none.
	PubKey []byte
}

// ParseKeyOrigin extracts the first "[fingerprint/path]" key origin from an
// output descriptor such as "wpkh([d6043800/84'/1776'/0'/0/5]02...)#csum".
func ParseKeyOrigin(desc string) (*Derivation, error) {
	start := strings.Index(desc, "[")
	end := strings.Index(desc, "]")
	if start < 0 || end < start {
		return nil, ErrNoKeyOrigin
	}

	parts := strings.Split(desc[start+1:end], "/")
	fingerprint, err := hex.DecodeString(parts[0])
	if err != nil || len(fingerprint) != 4 {
		return nil, fmt.Errorf("invalid key origin fingerprint %q", parts[0])
	}

	d := &Derivation{Path: make([]uint32, 0, len(parts)-1)}
	copy(d.Fingerprint[:], fingerprint)

	for _, p := range parts[1:] {
		hardened := strings.HasSuffix(p, "'") || strings.HasSuffix(p, "h")
		p = strings.TrimRight(p, "'h")
		n, err := strconv.ParseUint(p, 10, 31)
		if err != nil {
			return nil, fmt.Errorf("invalid key origin path element %q", p)
		}
		index := uint32(n)
		if hardened {
			index += hardenedKeyStart
		}
		d.Path = append(d.Path, index)
	}

	key := desc[end+1:]
	if n := strings.IndexFunc(key, func(r rune) bool {
		return !strings.ContainsRune("0123456789abcdefABCDEF", r)
	}); n >= 0 {
		key = key[:n]
	}
	if len(key) == 66 {
		d.PubKey, _ = hex.DecodeString(key)
	}
	return d, nil
}

// KeyOrigin formats d as "[fingerprint/path]pubkey", accepted back by
// ParseKeyOrigin.
func (d Derivation) KeyOrigin() string {
	return "[" + d.String() + "]" + hex.EncodeToString(d.PubKey)
}

func (d Derivation) String() string {
	var sb strings.Builder
	sb.WriteString(hex.EncodeToString(d.Fingerprint[:]))
	for _, index := range d.Path {
		sb.WriteByte('/')
		if index >= hardenedKeyStart {
			sb.WriteString(strconv.FormatUint(uint64(index-hardenedKeyStart), 10))
			sb.WriteByte('\'')
			continue
		}
		sb.WriteString(strconv.FormatUint(uint64(index), 10))
	}
	return sb.String()
}
