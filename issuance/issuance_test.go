package issuance

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/go-elements-funding/utxo"
)

func testPrevout(vout uint32) utxo.Outpoint {
	var txid chainhash.Hash
	for i := range txid {
		txid[i] = byte(i)
	}
	return utxo.NewOutpoint(txid, vout)
}

func decode32(t *testing.T, str string) [32]byte {
	buf, err := hex.DecodeString(str)
	require.NoError(t, err)
	require.Len(t, buf, 32)
	var out [32]byte
	copy(out[:], buf)
	return out
}

func TestIssuanceIDs(t *testing.T) {
	tests := []struct {
		name         string
		vout         uint32
		contractHash string
		entropy      string
		asset        string
		token        string
		blindedToken string
	}{
		{
			name:         "no contract",
			vout:         1,
			contractHash: "0000000000000000000000000000000000000000000000000000000000000000",
			entropy:      "9030992b0266e8877d571143782a3af12f5c99d1ab606f2c7823aa263a80f887",
			asset:        "56d3c72d2fc9d1fb9754d4a5e72e160d373ddeb0ced33269823b1d1449ba8130",
			token:        "293afbd5bfe45726b504587835e593f085bd7f932cf80d621b39e1a7bb8defac",
			blindedToken: "f22013acad2758d6a0ee289ddad279bafec293d603bbe038c72dfbc5a5ba37e0",
		},
		{
			name:         "with contract",
			vout:         0,
			contractHash: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			entropy:      "fd3b37c305a0f2d9ce740f5fb2a8c5e5887a7da8bd60f6218d7c952baa382850",
			asset:        "498149681cf2ade5fe74f72859121bc67b4e1499cd98afd11062d6feb1224e33",
			token:        "f563b3fb285254718308bef6f0a9f42825ec96a11def993c31a0c6c6a6b37607",
			blindedToken: "9be063e9150e8f02566100d4003fce083e5380f67def1ba56e5a08bc63e919ac",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prevout := testPrevout(tt.vout)
			d := Descriptor{
				Kind:        New,
				AssetAmount: 1000,
				TokenAmount: 1,
				Entropy:     decode32(t, tt.contractHash),
			}
			require.NoError(t, d.Validate())

			entropy := d.AssetEntropy(prevout)
			assert.Equal(t, tt.entropy, hex.EncodeToString(entropy[:]))
			assert.Equal(t, tt.asset, d.Asset(prevout).String())
			assert.Equal(t, tt.token, d.Token(prevout).String())
			assert.Equal(t, tt.blindedToken, TokenFromEntropy(entropy, true).String())
		})
	}
}

func TestReissueUsesEntropyAsIs(t *testing.T) {
	newIssuance := Descriptor{Kind: New, AssetAmount: 5}
	entropy := newIssuance.AssetEntropy(testPrevout(1))

	reissue := Descriptor{Kind: Reissue, AssetAmount: 10, Entropy: entropy}
	require.NoError(t, reissue.Validate())

	// the spent outpoint does not take part in a reissuance
	assert.Equal(t, newIssuance.Asset(testPrevout(1)), reissue.Asset(testPrevout(7)))
	assert.Equal(t, entropy, reissue.AssetEntropy(testPrevout(3)))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		d    Descriptor
		err  error
	}{
		{"token only", Descriptor{Kind: New, TokenAmount: 1}, nil},
		{"asset only", Descriptor{Kind: New, AssetAmount: 1}, nil},
		{"reissue", Descriptor{Kind: Reissue, AssetAmount: 1}, nil},
		{"empty new", Descriptor{Kind: New}, ErrZeroIssuance},
		{"reissue with token", Descriptor{Kind: Reissue, AssetAmount: 1, TokenAmount: 1}, ErrReissueToken},
		{"reissue token only", Descriptor{Kind: Reissue, TokenAmount: 1}, ErrReissueToken},
		{"empty reissue", Descriptor{Kind: Reissue}, ErrZeroIssuance},
		{"unknown kind", Descriptor{Kind: Kind(9), AssetAmount: 1}, ErrInvalidKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.d.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
