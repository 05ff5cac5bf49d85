// Package issuance derives the identifiers of the assets created by an
// issuance or reissuance input.
package issuance

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/vulpemventures/fastsha256"
	"github.com/vulpemventures/go-elements-funding/asset"
	"github.com/vulpemventures/go-elements-funding/utxo"
)

// Kind distinguishes a new issuance from a reissuance.
type Kind int

const (
	// New creates a fresh asset (and optionally its reissuance token).
	New Kind = iota
	// Reissue mints more of an existing asset by spending its token.
	Reissue
)

func (k Kind) String() string {
	switch k {
	case New:
		return "new"
	case Reissue:
		return "reissue"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	// ErrInvalidKind is returned for unknown issuance kinds.
	ErrInvalidKind = errors.New("invalid issuance kind")
	// ErrReissueToken is returned when a reissuance asks for new tokens.
	ErrReissueToken = errors.New("reissuance cannot mint reissuance tokens")
	// ErrZeroIssuance is returned when both issued amounts are zero.
	ErrZeroIssuance = errors.New("issuance must mint a non-zero amount")
)

// Descriptor describes the issuance attached to an input. For a new
// issuance Entropy holds the contract hash, for a reissuance it holds the
// asset entropy of the original issuance.
type Descriptor struct {
	Kind        Kind
	AssetAmount uint64
	TokenAmount uint64
	Entropy     [32]byte
}

// Validate checks the descriptor against Elements consensus. A reissuance
// cannot mint inflation keys, and an issuance with both amounts zero is a
// null issuance field, which nodes read as no issuance at all.
func (d Descriptor) Validate() error {
	switch d.Kind {
	case New:
		if d.AssetAmount == 0 && d.TokenAmount == 0 {
			return ErrZeroIssuance
		}
	case Reissue:
		if d.TokenAmount != 0 {
			return ErrReissueToken
		}
		if d.AssetAmount == 0 {
			return ErrZeroIssuance
		}
	default:
		return ErrInvalidKind
	}
	return nil
}

// AssetEntropy returns the entropy the issued ids derive from, when the
// descriptor is attached to an input spending prevout.
func (d Descriptor) AssetEntropy(prevout utxo.Outpoint) [32]byte {
	if d.Kind == Reissue {
		return d.Entropy
	}
	return ComputeEntropy(prevout, d.Entropy)
}

// Asset returns the id of the asset minted by the descriptor.
func (d Descriptor) Asset(prevout utxo.Outpoint) asset.ID {
	return AssetFromEntropy(d.AssetEntropy(prevout))
}

// Token returns the id of the reissuance token of the descriptor's asset.
// Issuances built by this module are never blinded, so the token is always
// the unblinded-issuance variant.
func (d Descriptor) Token(prevout utxo.Outpoint) asset.ID {
	return TokenFromEntropy(d.AssetEntropy(prevout), false)
}

// ComputeEntropy derives the issuance entropy from the spent outpoint and
// the contract hash.
func ComputeEntropy(prevout utxo.Outpoint, contractHash [32]byte) [32]byte {
	buf := make([]byte, chainhash.HashSize+4)
	copy(buf, prevout.Txid[:])
	binary.LittleEndian.PutUint32(buf[chainhash.HashSize:], prevout.Vout)

	preimage := chainhash.DoubleHashB(buf)
	preimage = append(preimage, contractHash[:]...)
	return fastsha256.MidState256(preimage)
}

// AssetFromEntropy calculates the asset id for the given entropy.
func AssetFromEntropy(entropy [32]byte) asset.ID {
	buf := make([]byte, 64)
	copy(buf, entropy[:])
	return asset.ID(fastsha256.MidState256(buf))
}

// TokenFromEntropy calculates the reissuance token id for the given entropy.
// The id differs depending on whether the issuance amounts are blinded.
func TokenFromEntropy(entropy [32]byte, confidential bool) asset.ID {
	buf := make([]byte, 64)
	copy(buf, entropy[:])
	buf[32] = 1
	if confidential {
		buf[32] = 2
	}
	return asset.ID(fastsha256.MidState256(buf))
}
