package request

import (
	"encoding/json"

	"github.com/vulpemventures/go-elements-funding/asset"
	"github.com/vulpemventures/go-elements-funding/coinselect"
	"github.com/vulpemventures/go-elements-funding/utxo"
)

// Result is the JSON form of a resolution.
type Result struct {
	Inputs  []ResolvedInput     `json:"inputs"`
	Demand  map[asset.ID]uint64 `json:"demand"`
	Supply  map[asset.ID]uint64 `json:"supply"`
	Surplus map[asset.ID]uint64 `json:"surplus"`
	TxHex   string              `json:"tx_hex,omitempty"`
	Pset    string              `json:"pset,omitempty"`
}

// ResolvedInput is the JSON form of one input picked by a resolution.
type ResolvedInput struct {
	ID           string        `json:"id,omitempty"`
	Outpoint     utxo.Outpoint `json:"outpoint"`
	AssetID      asset.ID      `json:"asset_id"`
	AmountSat    uint64        `json:"amount_sat"`
	Sequence     uint32        `json:"sequence"`
	Confidential bool          `json:"confidential"`
	Auxiliary    bool          `json:"auxiliary"`
	Derivation   string        `json:"derivation,omitempty"`
}

// NewResult converts an engine result. txHex and pset, the base64 PSET, may
// be empty.
func NewResult(res *coinselect.Result, txHex, pset string) *Result {
	out := &Result{
		Inputs:  make([]ResolvedInput, 0, len(res.Inputs)),
		Demand:  res.Demand,
		Supply:  res.Supply,
		Surplus: res.Surplus(),
		TxHex:   txHex,
		Pset:    pset,
	}
	for _, in := range res.Inputs {
		r := ResolvedInput{
			ID:           in.InputID,
			Outpoint:     in.Outpoint,
			AssetID:      in.Secrets.Asset,
			AmountSat:    in.Secrets.Value,
			Sequence:     in.Sequence,
			Confidential: in.Confidential,
			Auxiliary:    in.Auxiliary,
		}
		if in.Derivation != nil {
			r.Derivation = in.Derivation.String()
		}
		out.Inputs = append(out.Inputs, r)
	}
	return out
}

// EncodeResult renders res as indented JSON.
func EncodeResult(res *coinselect.Result, txHex, pset string) ([]byte, error) {
	return json.MarshalIndent(NewResult(res, txHex, pset), "", "  ")
}
