// Package unblind recovers the plain asset and amount of ledger records,
// either because they are explicit or by unblinding them with a private
// blinding key.
package unblind

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/vulpemventures/go-elements-funding/asset"
	"github.com/vulpemventures/go-elements-funding/elementsutil"
	"github.com/vulpemventures/go-elements/confidential"
	"github.com/vulpemventures/go-elements/transaction"
)

var (
	// ErrNotExplicit is returned by Reveal for confidential records.
	ErrNotExplicit = errors.New("output is confidential")
	// ErrInvalidKey is returned for malformed blinding keys.
	ErrInvalidKey = errors.New("invalid blinding private key")
	// ErrNilOutput is returned when no record is given.
	ErrNilOutput = errors.New("missing output")
)

// Secrets holds the plain asset and amount of a record together with the
// blinding factors used to commit to them. Blinders are zero for explicit
// records.
type Secrets struct {
	Asset        asset.ID
	Value        uint64
	AssetBlinder [32]byte
	ValueBlinder [32]byte
}

// Unblinder recovers the secrets of a ledger record.
type Unblinder interface {
	Unblind(out *transaction.TxOutput) (*Secrets, error)
}

// IsConfidential tells whether the asset or the value of out is blinded.
func IsConfidential(out *transaction.TxOutput) bool {
	return !elementsutil.IsExplicitAsset(out.Asset) ||
		!elementsutil.IsExplicitValue(out.Value)
}

// Reveal returns the secrets of an explicit record.
func Reveal(out *transaction.TxOutput) (*Secrets, error) {
	if out == nil {
		return nil, ErrNilOutput
	}
	if IsConfidential(out) {
		return nil, ErrNotExplicit
	}
	id, err := asset.NewIDFromCommitment(out.Asset)
	if err != nil {
		return nil, err
	}
	value, err := elementsutil.ValueFromBytes(out.Value)
	if err != nil {
		return nil, err
	}
	return &Secrets{Asset: id, Value: value}, nil
}

// KeyUnblinder unblinds records with a single blinding private key.
type KeyUnblinder struct {
	key []byte
}

// NewKeyUnblinder returns an unblinder for the given 32 byte private key.
func NewKeyUnblinder(key []byte) (*KeyUnblinder, error) {
	if len(key) != btcec.PrivKeyBytesLen {
		return nil, ErrInvalidKey
	}
	return &KeyUnblinder{append([]byte(nil), key...)}, nil
}

// Unblind implements Unblinder. Explicit records are revealed as they are.
func (u *KeyUnblinder) Unblind(out *transaction.TxOutput) (*Secrets, error) {
	return unblindWithKey(out, u.key)
}

func unblindWithKey(out *transaction.TxOutput, key []byte) (*Secrets, error) {
	if out == nil {
		return nil, ErrNilOutput
	}
	if !IsConfidential(out) {
		return Reveal(out)
	}

	res, err := confidential.UnblindOutputWithKey(out, key)
	if err != nil {
		return nil, fmt.Errorf("failed to unblind output: %w", err)
	}

	id, err := asset.NewIDFromBytes(res.Asset)
	if err != nil {
		return nil, err
	}
	secrets := &Secrets{Asset: id, Value: res.Value}
	copy(secrets.AssetBlinder[:], res.AssetBlindingFactor)
	copy(secrets.ValueBlinder[:], res.ValueBlindingFactor)
	return secrets, nil
}
