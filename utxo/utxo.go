// Package utxo defines coin coordinates and the wallet coin record listed by
// a snapshot source.
package utxo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/vulpemventures/go-elements-funding/asset"
)

var (
	// ErrInvalidOutpoint is returned when an outpoint string is malformed.
	ErrInvalidOutpoint = errors.New("invalid outpoint")
)

// Outpoint identifies a spendable output by transaction id and index. It is
// comparable and can be used as a map key.
type Outpoint struct {
	Txid chainhash.Hash
	Vout uint32
}

// NewOutpoint returns the outpoint at vout of txid.
func NewOutpoint(txid chainhash.Hash, vout uint32) Outpoint {
	return Outpoint{Txid: txid, Vout: vout}
}

// NewOutpointFromString parses the "<txid>:<vout>" form, txid in display hex.
func NewOutpointFromString(str string) (Outpoint, error) {
	parts := strings.Split(str, ":")
	if len(parts) != 2 {
		return Outpoint{}, fmt.Errorf("%w: %q", ErrInvalidOutpoint, str)
	}
	hash, err := chainhash.NewHashFromStr(parts[0])
	if err != nil || len(parts[0]) != chainhash.MaxHashStringSize {
		return Outpoint{}, fmt.Errorf("%w: bad txid %q", ErrInvalidOutpoint, parts[0])
	}
	vout, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return Outpoint{}, fmt.Errorf("%w: bad vout %q", ErrInvalidOutpoint, parts[1])
	}
	return Outpoint{Txid: *hash, Vout: uint32(vout)}, nil
}

func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.Txid.String(), o.Vout)
}

// Compare orders outpoints by txid as displayed (reversed hex), then by
// output index.
func (o Outpoint) Compare(other Outpoint) int {
	for i := chainhash.HashSize - 1; i >= 0; i-- {
		if o.Txid[i] != other.Txid[i] {
			if o.Txid[i] < other.Txid[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case o.Vout < other.Vout:
		return -1
	case o.Vout > other.Vout:
		return 1
	}
	return 0
}

// MarshalText implements encoding.TextMarshaler.
func (o Outpoint) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outpoint) UnmarshalText(text []byte) error {
	parsed, err := NewOutpointFromString(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Coin is a spendable wallet output with its unblinded secrets. Coins are
// never mutated once listed.
type Coin struct {
	Outpoint     Outpoint
	Asset        asset.ID
	Amount       uint64
	Script       []byte
	AssetBlinder [32]byte
	ValueBlinder [32]byte
	Confidential bool
	Derivation   *Derivation
}
