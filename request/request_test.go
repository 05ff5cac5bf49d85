package request_test

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/go-elements-funding/asset"
	"github.com/vulpemventures/go-elements-funding/coinselect"
	"github.com/vulpemventures/go-elements-funding/issuance"
	"github.com/vulpemventures/go-elements-funding/network"
	"github.com/vulpemventures/go-elements-funding/request"
)

const txid = "1111111111111111111111111111111111111111111111111111111111111111"

var policy = network.Regtest.PolicyAsset()

const fullRequest = `{
  "fee_target_sat": 120,
  "inputs": [
    {
      "id": "issuer",
      "utxo_source": {"provided": {"outpoint": "` + txid + `:1"}},
      "blinder": "explicit",
      "sequence": 0,
      "issuance": {"kind": "new", "asset_amount_sat": 1000, "token_amount_sat": 1}
    },
    {
      "id": "spender",
      "utxo_source": {"wallet": {"filter": {
        "asset_id": "5ac9f65c0efcc4775e0baec4ec03abdde22473cd3cf33c0419ca290e0751b225",
        "amount": {"min": 500},
        "script": "0014` + "1111111111111111111111111111111111111111" + `"
      }}},
      "blinder": {"provided": {"secret_key": "` + "0101010101010101010101010101010101010101010101010101010101010101" + `"}},
      "finalizer": {"type": "script", "script": "51"}
    }
  ],
  "outputs": [
    {"id": "pay", "amount_sat": 700, "asset": {"type": "asset_id", "asset_id": "5ac9f65c0efcc4775e0baec4ec03abdde22473cd3cf33c0419ca290e0751b225"}, "script": "0014aa"},
    {"id": "minted", "amount_sat": 1000, "asset": {"type": "new_issuance_asset", "input_index": 0}},
    {"id": "token", "amount_sat": 1, "asset": {"type": "new_issuance_token", "input_index": 0}}
  ]
}`

func TestDecode(t *testing.T) {
	parsed, err := request.Decode([]byte(fullRequest))
	require.NoError(t, err)

	req, err := parsed.ToResolution(policy)
	require.NoError(t, err)

	assert.Equal(t, uint64(120), req.FeeTarget)
	assert.Equal(t, policy, req.PolicyAsset)
	require.Len(t, req.Inputs, 2)
	require.Len(t, req.Outputs, 3)

	issuer := req.Inputs[0]
	require.NotNil(t, issuer.Outpoint)
	assert.Equal(t, txid+":1", issuer.Outpoint.String())
	assert.Nil(t, issuer.Filter)
	assert.Equal(t, coinselect.BlinderExplicit, issuer.Blinder.Kind)
	assert.Equal(t, uint32(0), issuer.Sequence)
	require.NotNil(t, issuer.Issuance)
	assert.Equal(t, issuance.New, issuer.Issuance.Kind)
	assert.Equal(t, uint64(1000), issuer.Issuance.AssetAmount)
	assert.Equal(t, uint64(1), issuer.Issuance.TokenAmount)
	assert.Equal(t, coinselect.FinalizerWallet, issuer.Finalizer.Kind)

	spender := req.Inputs[1]
	assert.Nil(t, spender.Outpoint)
	require.NotNil(t, spender.Filter)
	require.NotNil(t, spender.Filter.Asset)
	assert.Equal(t, "5ac9f65c0efcc4775e0baec4ec03abdde22473cd3cf33c0419ca290e0751b225", spender.Filter.Asset.String())
	assert.Equal(t, coinselect.AmountFilter{Kind: coinselect.AmountMin, Value: 500}, spender.Filter.Amount)
	assert.Equal(t, "00141111111111111111111111111111111111111111", hex.EncodeToString(spender.Filter.Script))
	assert.Equal(t, coinselect.BlinderProvided, spender.Blinder.Kind)
	assert.NotNil(t, spender.Blinder.Unblinder)
	assert.Equal(t, coinselect.DefaultSequence, spender.Sequence)
	assert.Equal(t, coinselect.FinalizerScript, spender.Finalizer.Kind)
	assert.Equal(t, []byte{0x51}, spender.Finalizer.Script)

	assert.Equal(t, coinselect.AssetExplicit, req.Outputs[0].Asset.Kind)
	assert.Equal(t, coinselect.IssuedAsset(0), req.Outputs[1].Asset)
	assert.Equal(t, coinselect.IssuedToken(0), req.Outputs[2].Asset)

	script, err := parsed.Outputs[0].LockScript()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x14, 0xaa}, script)

	script, err = parsed.Outputs[1].LockScript()
	require.NoError(t, err)
	assert.Nil(t, script)
}

func TestDecodeReissuance(t *testing.T) {
	entropy := "9030992b0266e8877d571143782a3af12f5c99d1ab606f2c7823aa263a80f887"
	body := `{"inputs": [{"id": "token",
		"utxo_source": {"provided": {"outpoint": "` + txid + `:0"}},
		"issuance": {"kind": "reissue", "asset_amount_sat": 50, "entropy": "` + entropy + `"}}],
		"outputs": [{"id": "more", "amount_sat": 50, "asset": {"type": "re_issuance_asset", "input_index": 0}}]}`

	parsed, err := request.Decode([]byte(body))
	require.NoError(t, err)
	req, err := parsed.ToResolution(policy)
	require.NoError(t, err)

	in := req.Inputs[0]
	assert.Equal(t, coinselect.BlinderWallet, in.Blinder.Kind)
	require.NotNil(t, in.Issuance)
	assert.Equal(t, issuance.Reissue, in.Issuance.Kind)
	assert.Equal(t, asset.MustNewIDFromString(entropy), asset.ID(in.Issuance.Entropy))
	assert.Equal(t, coinselect.ReissuedAsset(0), req.Outputs[0].Asset)
}

func TestDecodeWIFSecretKey(t *testing.T) {
	key := make([]byte, 32)
	key[31] = 7
	priv, _ := btcec.PrivKeyFromBytes(key)
	wif, err := btcutil.NewWIF(priv, &chaincfg.MainNetParams, true)
	require.NoError(t, err)

	body := `{"inputs": [{"id": "a",
		"utxo_source": {"provided": {"outpoint": "` + txid + `:0"}},
		"blinder": {"provided": {"secret_key": "` + wif.String() + `"}}}], "outputs": []}`

	parsed, err := request.Decode([]byte(body))
	require.NoError(t, err)
	req, err := parsed.ToResolution(policy)
	require.NoError(t, err)
	assert.Equal(t, coinselect.BlinderProvided, req.Inputs[0].Blinder.Kind)
}

func TestDecodeInvalid(t *testing.T) {
	provided := `"utxo_source": {"provided": {"outpoint": "` + txid + `:0"}}`
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"inputs": [`},
		{"unknown field", `{"inputs": [], "outputs": [], "extra": 1}`},
		{"unknown blinder", `{"inputs": [{"id": "a", ` + provided + `, "blinder": "magic"}]}`},
		{"blinder object", `{"inputs": [{"id": "a", ` + provided + `, "blinder": {"other": {}}}]}`},
		{"short secret key", `{"inputs": [{"id": "a", ` + provided + `, "blinder": {"provided": {"secret_key": "0101"}}}]}`},
		{"bad secret key", `{"inputs": [{"id": "a", ` + provided + `, "blinder": {"provided": {"secret_key": "nope"}}}]}`},
		{"bad outpoint", `{"inputs": [{"id": "a", "utxo_source": {"provided": {"outpoint": "abc:0"}}}]}`},
		{"no source", `{"inputs": [{"id": "a", "utxo_source": {}}]}`},
		{"both sources", `{"inputs": [{"id": "a", "utxo_source": {"provided": {"outpoint": "` + txid + `:0"}, "wallet": {"filter": {}}}}]}`},
		{"exact and min", `{"inputs": [{"id": "a", "utxo_source": {"wallet": {"filter": {"amount": {"exact": 1, "min": 1}}}}}]}`},
		{"empty amount", `{"inputs": [{"id": "a", "utxo_source": {"wallet": {"filter": {"amount": {}}}}}]}`},
		{"script and address", `{"inputs": [{"id": "a", "utxo_source": {"wallet": {"filter": {"script": "51", "address": "x"}}}}]}`},
		{"bad filter asset", `{"inputs": [{"id": "a", "utxo_source": {"wallet": {"filter": {"asset_id": "00"}}}}]}`},
		{"bad script", `{"inputs": [{"id": "a", "utxo_source": {"wallet": {"filter": {"script": "zz"}}}}]}`},
		{"unknown issuance kind", `{"inputs": [{"id": "a", ` + provided + `, "issuance": {"kind": "burn"}}]}`},
		{"reissue without entropy", `{"inputs": [{"id": "a", ` + provided + `, "issuance": {"kind": "reissue", "asset_amount_sat": 1}}]}`},
		{"bad entropy", `{"inputs": [{"id": "a", ` + provided + `, "issuance": {"kind": "new", "entropy": "1234"}}]}`},
		{"unknown finalizer", `{"inputs": [{"id": "a", ` + provided + `, "finalizer": {"type": "other"}}]}`},
		{"empty finalizer script", `{"inputs": [{"id": "a", ` + provided + `, "finalizer": {"type": "script"}}]}`},
		{"unknown asset type", `{"outputs": [{"id": "o", "amount_sat": 1, "asset": {"type": "other"}}]}`},
		{"bad output asset", `{"outputs": [{"id": "o", "amount_sat": 1, "asset": {"type": "asset_id", "asset_id": "zz"}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := request.Decode([]byte(tt.body))
			if err == nil {
				_, err = parsed.ToResolution(policy)
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, coinselect.ErrInvalidRequest)
		})
	}
}

func TestEncodeResult(t *testing.T) {
	res := &coinselect.Result{
		Demand: coinselect.Balances{policy: 1000},
		Supply: coinselect.Balances{policy: 1500},
	}
	data, err := request.EncodeResult(res, "deadbeef", "cHNldP8=")
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.JSONEq(t, `{"`+policy.String()+`": 500}`, string(decoded["surplus"]))
	assert.JSONEq(t, `"deadbeef"`, string(decoded["tx_hex"]))
	assert.JSONEq(t, `"cHNldP8="`, string(decoded["pset"]))
	assert.JSONEq(t, `[]`, string(decoded["inputs"]))
	assert.True(t, strings.Contains(string(data), "\n  "))

	data, err = request.EncodeResult(res, "", "")
	require.NoError(t, err)
	decoded = nil
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.NotContains(t, decoded, "tx_hex")
	assert.NotContains(t, decoded, "pset")
}
