package coinselect

import (
	"fmt"

	"github.com/vulpemventures/go-elements-funding/asset"
	"github.com/vulpemventures/go-elements-funding/issuance"
	"github.com/vulpemventures/go-elements-funding/unblind"
	"github.com/vulpemventures/go-elements-funding/utxo"
	"github.com/vulpemventures/go-elements/transaction"
)

// FeeOutputID is the id of the caller output carrying the network fee.
const FeeOutputID = "fee"

// DefaultSequence is the sequence of inputs added to cover deficits.
const DefaultSequence = uint32(0xffffffff)

// AssetRefKind tells how an output names its asset.
type AssetRefKind int

const (
	// AssetExplicit is an asset known up front.
	AssetExplicit AssetRefKind = iota
	// NewIssuanceAsset is the asset issued by the referenced input.
	NewIssuanceAsset
	// NewIssuanceToken is the reissuance token issued by the referenced input.
	NewIssuanceToken
	// ReissuanceAsset is the asset reissued by the referenced input.
	ReissuanceAsset
)

func (k AssetRefKind) String() string {
	switch k {
	case AssetExplicit:
		return "asset_id"
	case NewIssuanceAsset:
		return "new_issuance_asset"
	case NewIssuanceToken:
		return "new_issuance_token"
	case ReissuanceAsset:
		return "re_issuance_asset"
	default:
		return fmt.Sprintf("asset_ref(%d)", int(k))
	}
}

// issuanceKind returns the issuance kind an issuance-derived reference
// must resolve against.
func (k AssetRefKind) issuanceKind() issuance.Kind {
	if k == ReissuanceAsset {
		return issuance.Reissue
	}
	return issuance.New
}

// AssetRef is either an explicit asset or an asset derived from the
// issuance of the declared input at InputIndex.
type AssetRef struct {
	Kind       AssetRefKind
	Asset      asset.ID
	InputIndex uint32
}

// Explicit references a known asset.
func Explicit(id asset.ID) AssetRef {
	return AssetRef{Kind: AssetExplicit, Asset: id}
}

// IssuedAsset references the asset issued by input index.
func IssuedAsset(index uint32) AssetRef {
	return AssetRef{Kind: NewIssuanceAsset, InputIndex: index}
}

// IssuedToken references the token issued by input index.
func IssuedToken(index uint32) AssetRef {
	return AssetRef{Kind: NewIssuanceToken, InputIndex: index}
}

// ReissuedAsset references the asset reissued by input index.
func ReissuedAsset(index uint32) AssetRef {
	return AssetRef{Kind: ReissuanceAsset, InputIndex: index}
}

// Output is a requested transaction output.
type Output struct {
	ID     string
	Amount uint64
	Asset  AssetRef
}

// AmountFilterKind selects how a filter constrains coin amounts.
type AmountFilterKind int

const (
	// AmountAny accepts any amount.
	AmountAny AmountFilterKind = iota
	// AmountExact accepts only Value.
	AmountExact
	// AmountMin accepts Value or more.
	AmountMin
)

// AmountFilter constrains the amount of a wallet coin.
type AmountFilter struct {
	Kind  AmountFilterKind
	Value uint64
}

// Filter selects wallet coins for a declared input. Nil fields match any
// coin.
type Filter struct {
	Asset  *asset.ID
	Amount AmountFilter
	Script []byte
}

// BlinderKind tells how a provided outpoint is unblinded.
type BlinderKind int

const (
	// BlinderWallet unblinds with the wallet blinding keys.
	BlinderWallet BlinderKind = iota
	// BlinderProvided unblinds with a caller supplied key.
	BlinderProvided
	// BlinderExplicit asserts the record is not confidential.
	BlinderExplicit
)

// Blinder describes how to recover the secrets of a provided outpoint.
type Blinder struct {
	Kind      BlinderKind
	Unblinder unblind.Unblinder
}

// FinalizerKind tells a signer how an input will be proven spendable.
type FinalizerKind int

const (
	// FinalizerWallet inputs are signed by the wallet keys.
	FinalizerWallet FinalizerKind = iota
	// FinalizerScript inputs are satisfied by an external script spend.
	FinalizerScript
)

// Finalizer is carried untouched to the sink.
type Finalizer struct {
	Kind   FinalizerKind
	Script []byte
}

// Input is a caller-declared input. Exactly one of Outpoint and Filter is
// set.
type Input struct {
	ID        string
	Outpoint  *utxo.Outpoint
	Filter    *Filter
	Blinder   Blinder
	Sequence  uint32
	Issuance  *issuance.Descriptor
	Finalizer Finalizer
}

// Request is the input of a resolution.
type Request struct {
	Outputs     []Output
	Inputs      []Input
	FeeTarget   uint64
	PolicyAsset asset.ID
}

// ResolvedInput is a concrete input appended to the sink.
type ResolvedInput struct {
	// InputID is empty for inputs added to cover deficits.
	InputID      string
	Outpoint     utxo.Outpoint
	TxOut        *transaction.TxOutput
	Secrets      unblind.Secrets
	Confidential bool
	Sequence     uint32
	Issuance     *issuance.Descriptor
	Finalizer    Finalizer
	Derivation   *utxo.Derivation
	Auxiliary    bool
}

// Sink receives resolved inputs in order. It is never read back.
type Sink interface {
	AddInput(in ResolvedInput) error
}

// Result is the outcome of a successful resolution.
type Result struct {
	Inputs []ResolvedInput
	Demand Balances
	Supply Balances
}

// Surplus returns, per asset, how much supply exceeds demand. Assets with
// no surplus are omitted.
func (r *Result) Surplus() Balances {
	surplus := make(Balances)
	for id, supplied := range r.Supply {
		if demanded := r.Demand[id]; supplied > demanded {
			surplus[id] = supplied - demanded
		}
	}
	return surplus
}
