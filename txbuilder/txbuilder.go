// Package txbuilder assembles the unsigned PSET receiving the inputs picked
// by a resolution.
package txbuilder

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/vulpemventures/go-elements-funding/asset"
	"github.com/vulpemventures/go-elements-funding/coinselect"
	"github.com/vulpemventures/go-elements-funding/issuance"
	"github.com/vulpemventures/go-elements-funding/unblind"
	"github.com/vulpemventures/go-elements-funding/utxo"
	"github.com/vulpemventures/go-elements/psetv2"
	"github.com/vulpemventures/go-elements/transaction"
)

var (
	// ErrUnknownAsset is returned when an asset reference names an input
	// that does not issue it.
	ErrUnknownAsset = errors.New("asset reference not issued by input")
	// ErrMissingScript is returned when a non-fee output has no lock script.
	ErrMissingScript = errors.New("output has no lock script")
)

// Input is the metadata kept for each PSET input that the PSET itself does
// not carry.
type Input struct {
	InputID   string
	Outpoint  utxo.Outpoint
	Secrets   unblind.Secrets
	Finalizer coinselect.Finalizer
	// Set only for issuance inputs. Token is set only when tokens are minted.
	IssuanceAsset *asset.ID
	IssuanceToken *asset.ID
}

// Builder is a coinselect.Sink filling a PSET.
type Builder struct {
	pset    *psetv2.Pset
	updater *psetv2.Updater
	inputs  []Input
}

// New returns a builder for an empty PSET with the given fallback locktime.
func New(locktime uint32) (*Builder, error) {
	p, err := psetv2.New(nil, nil, &locktime)
	if err != nil {
		return nil, err
	}
	updater, err := psetv2.NewUpdater(p)
	if err != nil {
		return nil, err
	}
	return &Builder{pset: p, updater: updater}, nil
}

// AddInput implements coinselect.Sink.
func (b *Builder) AddInput(in coinselect.ResolvedInput) error {
	index := len(b.pset.Inputs)
	if err := b.updater.AddInputs([]psetv2.InputArgs{{
		Txid:     in.Outpoint.Txid.String(),
		TxIndex:  in.Outpoint.Vout,
		Sequence: in.Sequence,
	}}); err != nil {
		return fmt.Errorf("input %s: %w", in.Outpoint, err)
	}

	if in.TxOut != nil {
		if err := b.updater.AddInWitnessUtxo(index, in.TxOut); err != nil {
			return fmt.Errorf("input %s: %w", in.Outpoint, err)
		}
	}
	if d := in.Derivation; d != nil && len(d.PubKey) > 0 {
		if err := b.updater.AddInBip32Derivation(index, psetv2.DerivationPathWithPubKey{
			PubKey:               d.PubKey,
			MasterKeyFingerprint: binary.LittleEndian.Uint32(d.Fingerprint[:]),
			Bip32Path:            d.Path,
		}); err != nil {
			return fmt.Errorf("input %s: %w", in.Outpoint, err)
		}
	}

	meta := Input{
		InputID:   in.InputID,
		Outpoint:  in.Outpoint,
		Secrets:   in.Secrets,
		Finalizer: in.Finalizer,
	}

	if d := in.Issuance; d != nil {
		setIssuance(&b.pset.Inputs[index], d, in.Secrets)
		issued := d.Asset(in.Outpoint)
		meta.IssuanceAsset = &issued
		if d.TokenAmount > 0 {
			token := d.Token(in.Outpoint)
			meta.IssuanceToken = &token
		}
	}

	b.inputs = append(b.inputs, meta)
	return nil
}

// setIssuance stores an unblinded issuance on a PSET input. A reissuance
// commits to the asset blinder of the spent token output, 1 if that output
// is explicit.
func setIssuance(in *psetv2.Input, d *issuance.Descriptor, secrets unblind.Secrets) {
	nonce := make([]byte, 32)
	if d.Kind == issuance.Reissue {
		if secrets.AssetBlinder == ([32]byte{}) {
			nonce[0] = 1
		} else {
			copy(nonce, secrets.AssetBlinder[:])
		}
	}
	entropy := d.Entropy
	in.IssuanceValue = d.AssetAmount
	in.IssuanceInflationKeys = d.TokenAmount
	in.IssuanceAssetEntropy = entropy[:]
	in.IssuanceBlindingNonce = nonce
}

// AddOutput appends an explicit output. An empty script makes it a fee
// output.
func (b *Builder) AddOutput(id asset.ID, amount uint64, script []byte) error {
	return b.updater.AddOutputs([]psetv2.OutputArgs{{
		Asset:  id.String(),
		Amount: amount,
		Script: script,
	}})
}

// AddOutputs appends the outputs of req, scripts[i] locking req.Outputs[i].
// The fee output always pays req.FeeTarget of the policy asset with an empty
// script, and is appended last when req has none.
func (b *Builder) AddOutputs(req *coinselect.Request, scripts [][]byte) error {
	hasFee := false
	for i, out := range req.Outputs {
		if out.ID == coinselect.FeeOutputID {
			hasFee = true
			if err := b.AddOutput(req.PolicyAsset, req.FeeTarget, nil); err != nil {
				return err
			}
			continue
		}

		var script []byte
		if i < len(scripts) {
			script = scripts[i]
		}
		if len(script) == 0 {
			return fmt.Errorf("%w: %q", ErrMissingScript, out.ID)
		}
		id, err := b.AssetOf(out.Asset)
		if err != nil {
			return err
		}
		if err := b.AddOutput(id, out.Amount, script); err != nil {
			return fmt.Errorf("output %q: %w", out.ID, err)
		}
	}
	if !hasFee {
		return b.AddOutput(req.PolicyAsset, req.FeeTarget, nil)
	}
	return nil
}

// AssetOf returns the asset id ref designates, once the inputs it refers to
// have been added.
func (b *Builder) AssetOf(ref coinselect.AssetRef) (asset.ID, error) {
	if ref.Kind == coinselect.AssetExplicit {
		return ref.Asset, nil
	}
	if int(ref.InputIndex) < len(b.inputs) {
		in := b.inputs[ref.InputIndex]
		switch ref.Kind {
		case coinselect.NewIssuanceAsset, coinselect.ReissuanceAsset:
			if in.IssuanceAsset != nil {
				return *in.IssuanceAsset, nil
			}
		case coinselect.NewIssuanceToken:
			if in.IssuanceToken != nil {
				return *in.IssuanceToken, nil
			}
		}
	}
	return asset.ID{}, fmt.Errorf("%w: %s of input %d", ErrUnknownAsset, ref.Kind, ref.InputIndex)
}

// Pset returns the PSET under construction.
func (b *Builder) Pset() *psetv2.Pset {
	return b.pset
}

// Inputs returns the metadata of the inputs, in PSET order.
func (b *Builder) Inputs() []Input {
	return b.inputs
}

// Tx returns the unsigned transaction the PSET describes.
func (b *Builder) Tx() (*transaction.Transaction, error) {
	return b.pset.UnsignedTx()
}

// ToHex serializes the unsigned transaction.
func (b *Builder) ToHex() (string, error) {
	tx, err := b.Tx()
	if err != nil {
		return "", err
	}
	return tx.ToHex()
}

// ToBase64 serializes the PSET.
func (b *Builder) ToBase64() (string, error) {
	return b.pset.ToBase64()
}
