package network

import (
	"fmt"

	"github.com/vulpemventures/go-elements-funding/asset"
)

// Network holds the parameters the funding engine needs for one chain.
type Network struct {
	Name string
	// Human-readable part for Blech32 encoded confidential addresses.
	Blech32 string
	// Policy asset hash, in display hex. Fees are always paid in it.
	AssetID string
	// Default elementsd RPC port.
	RPCPort string
	// BIP44 coin type used in wallet derivation paths.
	HDCoinType uint32
}

// Liquid defines the network parameters for the main Liquid network.
var Liquid = Network{
	Name:       "liquid",
	Blech32:    "lq",
	AssetID:    "6f0279e9ed041c3d710a9f57d0c02928416460c4b722ae3457a11eec381c526d",
	RPCPort:    "7041",
	HDCoinType: 1776,
}

// Testnet defines the network parameters for the Liquid testnet.
var Testnet = Network{
	Name:       "testnet",
	Blech32:    "tlq",
	AssetID:    "144c654344aa716d6f3abcc1ca90e5641e4e2a7f633bc09fe3baf64585819a49",
	RPCPort:    "7039",
	HDCoinType: 1,
}

// Regtest defines the network parameters for the regression test network.
var Regtest = Network{
	Name:       "regtest",
	Blech32:    "el",
	AssetID:    "5ac9f65c0efcc4775e0baec4ec03abdde22473cd3cf33c0419ca290e0751b225",
	RPCPort:    "18884",
	HDCoinType: 1,
}

var byName = map[string]*Network{
	Liquid.Name:  &Liquid,
	Testnet.Name: &Testnet,
	Regtest.Name: &Regtest,
}

// FromName returns the parameters of the named network.
func FromName(name string) (*Network, error) {
	n, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown network %q", name)
	}
	return n, nil
}

// PolicyAsset returns the fee asset of the network.
func (n Network) PolicyAsset() asset.ID {
	return asset.MustNewIDFromString(n.AssetID)
}
