// Package request decodes JSON funding requests and encodes their results.
package request

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/vulpemventures/go-elements-funding/asset"
	"github.com/vulpemventures/go-elements-funding/coinselect"
	"github.com/vulpemventures/go-elements-funding/issuance"
	"github.com/vulpemventures/go-elements-funding/unblind"
	"github.com/vulpemventures/go-elements-funding/utxo"
	"github.com/vulpemventures/go-elements/address"
)

// Request is the JSON form of a funding request.
type Request struct {
	FeeTargetSat uint64   `json:"fee_target_sat"`
	Inputs       []Input  `json:"inputs"`
	Outputs      []Output `json:"outputs"`
}

// Output is a requested output. The amount of the fee output is replaced
// by the request fee target.
type Output struct {
	ID        string `json:"id"`
	AmountSat uint64 `json:"amount_sat"`
	Asset     Asset  `json:"asset"`
	// Optional lock, as hex script or address. Used when building the
	// unsigned transaction; fee outputs have none.
	Script  string `json:"script,omitempty"`
	Address string `json:"address,omitempty"`
}

// Asset names an output asset: "asset_id", "new_issuance_asset",
// "new_issuance_token" or "re_issuance_asset".
type Asset struct {
	Type       string `json:"type"`
	AssetID    string `json:"asset_id,omitempty"`
	InputIndex uint32 `json:"input_index,omitempty"`
}

// Input is a declared input and where its coin comes from.
type Input struct {
	ID         string     `json:"id"`
	UtxoSource UtxoSource `json:"utxo_source"`
	Blinder    Blinder    `json:"blinder"`
	Sequence   *uint32    `json:"sequence,omitempty"`
	Issuance   *Issuance  `json:"issuance,omitempty"`
	Finalizer  *Finalizer `json:"finalizer,omitempty"`
}

// UtxoSource holds either a provided outpoint or a wallet filter.
type UtxoSource struct {
	Provided *struct {
		Outpoint string `json:"outpoint"`
	} `json:"provided,omitempty"`
	Wallet *struct {
		Filter Filter `json:"filter"`
	} `json:"wallet,omitempty"`
}

// Filter constrains the wallet coins an input may take.
type Filter struct {
	AssetID string  `json:"asset_id,omitempty"`
	Amount  *Amount `json:"amount,omitempty"`
	Script  string  `json:"script,omitempty"`
	Address string  `json:"address,omitempty"`
}

// Amount is an exact or minimum amount constraint.
type Amount struct {
	Exact *uint64 `json:"exact,omitempty"`
	Min   *uint64 `json:"min,omitempty"`
}

// Issuance attaches a "new" or "reissue" issuance to an input.
type Issuance struct {
	Kind           string `json:"kind"`
	AssetAmountSat uint64 `json:"asset_amount_sat"`
	TokenAmountSat uint64 `json:"token_amount_sat"`
	// Contract hash for new issuances, asset entropy for reissuances, both
	// in display hex. Defaults to zero.
	Entropy string `json:"entropy,omitempty"`
}

// Finalizer is "wallet" or a hex "script" spending the input.
type Finalizer struct {
	Type   string `json:"type"`
	Script string `json:"script,omitempty"`
}

// Blinder is "wallet", "explicit" or {"provided": {"secret_key": ...}}.
// The secret key is hex or WIF.
type Blinder struct {
	Kind      string
	SecretKey string
}

// UnmarshalJSON accepts both the string and the object forms.
func (b *Blinder) UnmarshalJSON(data []byte) error {
	var kind string
	if err := json.Unmarshal(data, &kind); err == nil {
		b.Kind = kind
		return nil
	}
	var provided struct {
		Provided *struct {
			SecretKey string `json:"secret_key"`
		} `json:"provided"`
	}
	if err := json.Unmarshal(data, &provided); err != nil {
		return err
	}
	if provided.Provided == nil {
		return fmt.Errorf("unknown blinder %s", string(data))
	}
	b.Kind = "provided"
	b.SecretKey = provided.Provided.SecretKey
	return nil
}

// MarshalJSON writes the form UnmarshalJSON reads.
func (b Blinder) MarshalJSON() ([]byte, error) {
	if b.Kind != "provided" {
		return json.Marshal(b.Kind)
	}
	return json.Marshal(map[string]interface{}{
		"provided": map[string]string{"secret_key": b.SecretKey},
	})
}

// Decode parses a JSON request, rejecting unknown fields.
func Decode(data []byte) (*Request, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var req Request
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: %w", coinselect.ErrInvalidRequest, err)
	}
	return &req, nil
}

// ToResolution converts the request into the engine form.
func (r *Request) ToResolution(policyAsset asset.ID) (*coinselect.Request, error) {
	req := &coinselect.Request{
		Outputs:     make([]coinselect.Output, 0, len(r.Outputs)),
		Inputs:      make([]coinselect.Input, 0, len(r.Inputs)),
		FeeTarget:   r.FeeTargetSat,
		PolicyAsset: policyAsset,
	}

	for i, out := range r.Outputs {
		ref, err := out.Asset.toRef()
		if err != nil {
			return nil, invalidf("output %d (%q): %v", i, out.ID, err)
		}
		req.Outputs = append(req.Outputs, coinselect.Output{
			ID: out.ID, Amount: out.AmountSat, Asset: ref,
		})
	}

	for i, in := range r.Inputs {
		converted, err := in.toInput()
		if err != nil {
			return nil, invalidf("input %d (%q): %v", i, in.ID, err)
		}
		req.Inputs = append(req.Inputs, *converted)
	}
	return req, nil
}

// LockScript returns the output script of the output, nil if none is set.
func (o Output) LockScript() ([]byte, error) {
	return lockScript(o.Script, o.Address)
}

func (a Asset) toRef() (coinselect.AssetRef, error) {
	switch a.Type {
	case "asset_id":
		id, err := asset.NewIDFromString(a.AssetID)
		if err != nil {
			return coinselect.AssetRef{}, fmt.Errorf("invalid asset id: %w", err)
		}
		return coinselect.Explicit(id), nil
	case "new_issuance_asset":
		return coinselect.IssuedAsset(a.InputIndex), nil
	case "new_issuance_token":
		return coinselect.IssuedToken(a.InputIndex), nil
	case "re_issuance_asset":
		return coinselect.ReissuedAsset(a.InputIndex), nil
	default:
		return coinselect.AssetRef{}, fmt.Errorf("unknown asset type %q", a.Type)
	}
}

func (in Input) toInput() (*coinselect.Input, error) {
	res := &coinselect.Input{ID: in.ID, Sequence: coinselect.DefaultSequence}
	if in.Sequence != nil {
		res.Sequence = *in.Sequence
	}

	src := in.UtxoSource
	switch {
	case src.Provided != nil && src.Wallet == nil:
		o, err := utxo.NewOutpointFromString(src.Provided.Outpoint)
		if err != nil {
			return nil, err
		}
		res.Outpoint = &o
	case src.Wallet != nil && src.Provided == nil:
		f, err := src.Wallet.Filter.toFilter()
		if err != nil {
			return nil, err
		}
		res.Filter = f
	default:
		return nil, fmt.Errorf("utxo_source must be either provided or wallet")
	}

	blinder, err := in.Blinder.toBlinder()
	if err != nil {
		return nil, err
	}
	res.Blinder = blinder

	if in.Issuance != nil {
		d, err := in.Issuance.toDescriptor()
		if err != nil {
			return nil, err
		}
		res.Issuance = d
	}

	if in.Finalizer != nil {
		switch in.Finalizer.Type {
		case "wallet":
		case "script":
			script, err := hex.DecodeString(in.Finalizer.Script)
			if err != nil || len(script) == 0 {
				return nil, fmt.Errorf("invalid finalizer script")
			}
			res.Finalizer = coinselect.Finalizer{Kind: coinselect.FinalizerScript, Script: script}
		default:
			return nil, fmt.Errorf("unknown finalizer type %q", in.Finalizer.Type)
		}
	}
	return res, nil
}

func (f Filter) toFilter() (*coinselect.Filter, error) {
	res := &coinselect.Filter{}
	if f.AssetID != "" {
		id, err := asset.NewIDFromString(f.AssetID)
		if err != nil {
			return nil, fmt.Errorf("invalid filter asset id: %w", err)
		}
		res.Asset = &id
	}
	if f.Amount != nil {
		switch {
		case f.Amount.Exact != nil && f.Amount.Min == nil:
			res.Amount = coinselect.AmountFilter{Kind: coinselect.AmountExact, Value: *f.Amount.Exact}
		case f.Amount.Min != nil && f.Amount.Exact == nil:
			res.Amount = coinselect.AmountFilter{Kind: coinselect.AmountMin, Value: *f.Amount.Min}
		default:
			return nil, fmt.Errorf("amount filter must be either exact or min")
		}
	}
	script, err := lockScript(f.Script, f.Address)
	if err != nil {
		return nil, err
	}
	res.Script = script
	return res, nil
}

func (b Blinder) toBlinder() (coinselect.Blinder, error) {
	switch b.Kind {
	case "", "wallet":
		return coinselect.Blinder{Kind: coinselect.BlinderWallet}, nil
	case "explicit":
		return coinselect.Blinder{Kind: coinselect.BlinderExplicit}, nil
	case "provided":
		key, err := parseSecretKey(b.SecretKey)
		if err != nil {
			return coinselect.Blinder{}, err
		}
		u, err := unblind.NewKeyUnblinder(key)
		if err != nil {
			return coinselect.Blinder{}, err
		}
		return coinselect.Blinder{Kind: coinselect.BlinderProvided, Unblinder: u}, nil
	default:
		return coinselect.Blinder{}, fmt.Errorf("unknown blinder %q", b.Kind)
	}
}

func (i Issuance) toDescriptor() (*issuance.Descriptor, error) {
	d := &issuance.Descriptor{
		AssetAmount: i.AssetAmountSat,
		TokenAmount: i.TokenAmountSat,
	}
	switch i.Kind {
	case "new":
		d.Kind = issuance.New
	case "reissue":
		d.Kind = issuance.Reissue
	default:
		return nil, fmt.Errorf("unknown issuance kind %q", i.Kind)
	}
	if i.Entropy != "" {
		// same byte order as asset ids
		entropy, err := asset.NewIDFromString(i.Entropy)
		if err != nil {
			return nil, fmt.Errorf("invalid issuance entropy: %w", err)
		}
		d.Entropy = entropy
	}
	if d.Kind == issuance.Reissue && i.Entropy == "" {
		return nil, fmt.Errorf("reissuance needs the asset entropy")
	}
	return d, nil
}

func parseSecretKey(str string) ([]byte, error) {
	if key, err := hex.DecodeString(str); err == nil {
		if len(key) != 32 {
			return nil, fmt.Errorf("invalid secret key length %d", len(key))
		}
		return key, nil
	}
	wif, err := btcutil.DecodeWIF(str)
	if err != nil {
		return nil, fmt.Errorf("secret key is neither hex nor WIF")
	}
	return wif.PrivKey.Serialize(), nil
}

func lockScript(script, addr string) ([]byte, error) {
	switch {
	case script != "" && addr != "":
		return nil, fmt.Errorf("set either script or address")
	case script != "":
		buf, err := hex.DecodeString(script)
		if err != nil {
			return nil, fmt.Errorf("invalid script: %w", err)
		}
		return buf, nil
	case addr != "":
		buf, err := address.ToOutputScript(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid address: %w", err)
		}
		return buf, nil
	}
	return nil, nil
}

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{coinselect.ErrInvalidRequest}, args...)...)
}
