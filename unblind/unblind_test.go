package unblind

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/go-elements-funding/asset"
	"github.com/vulpemventures/go-elements-funding/elementsutil"
	"github.com/vulpemventures/go-elements/slip77"
	"github.com/vulpemventures/go-elements/transaction"
)

var testAsset = asset.MustNewIDFromString(
	"5ac9f65c0efcc4775e0baec4ec03abdde22473cd3cf33c0419ca290e0751b225",
)

func explicitOutput(value uint64) *transaction.TxOutput {
	return &transaction.TxOutput{
		Asset:  testAsset.Commitment(),
		Value:  elementsutil.ValueToBytes(value),
		Script: []byte{0x51},
	}
}

func confidentialOutput() *transaction.TxOutput {
	assetCommitment := make([]byte, 33)
	assetCommitment[0] = 0x0a
	valueCommitment := make([]byte, 33)
	valueCommitment[0] = 0x08
	return &transaction.TxOutput{
		Asset:  assetCommitment,
		Value:  valueCommitment,
		Script: []byte{0x00, 0x14, 0x01},
	}
}

func TestReveal(t *testing.T) {
	secrets, err := Reveal(explicitOutput(1500))
	require.NoError(t, err)
	assert.Equal(t, testAsset, secrets.Asset)
	assert.Equal(t, uint64(1500), secrets.Value)
	assert.Equal(t, [32]byte{}, secrets.AssetBlinder)
	assert.Equal(t, [32]byte{}, secrets.ValueBlinder)

	_, err = Reveal(confidentialOutput())
	assert.ErrorIs(t, err, ErrNotExplicit)

	_, err = Reveal(nil)
	assert.ErrorIs(t, err, ErrNilOutput)
}

func TestIsConfidential(t *testing.T) {
	assert.False(t, IsConfidential(explicitOutput(1)))
	assert.True(t, IsConfidential(confidentialOutput()))

	half := explicitOutput(1)
	half.Value = confidentialOutput().Value
	assert.True(t, IsConfidential(half))
}

func TestKeyUnblinder(t *testing.T) {
	_, err := NewKeyUnblinder([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidKey)

	key := make([]byte, 32)
	key[31] = 1
	u, err := NewKeyUnblinder(key)
	require.NoError(t, err)

	secrets, err := u.Unblind(explicitOutput(42))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), secrets.Value)

	_, err = u.Unblind(confidentialOutput())
	assert.Error(t, err)
}

func TestSlip77(t *testing.T) {
	seed, _ := hex.DecodeString("000102030405060708090a0b0c0d0e0f")
	keys, err := slip77.FromSeed(seed)
	require.NoError(t, err)
	require.Equal(
		t,
		"eb24d23aad8b9d31eaaf724440da6d7f942cf2c704a9ab79de18a943605e1103",
		hex.EncodeToString(keys.MasterKey),
	)

	script, _ := hex.DecodeString("0014" + "1111111111111111111111111111111111111111")
	privKey, _, err := keys.DeriveKey(script)
	require.NoError(t, err)
	assert.Equal(
		t,
		"87f47cd4e43472fa5bfa11b54e5ab7d14b70d6ae86767a4b401f299398c652e6",
		hex.EncodeToString(privKey.Serialize()),
	)

	s := NewSlip77(keys)

	secrets, err := s.Unblind(explicitOutput(9))
	require.NoError(t, err)
	assert.Equal(t, uint64(9), secrets.Value)

	_, err = s.Unblind(nil)
	assert.ErrorIs(t, err, ErrNilOutput)

	// The derived key does not open the fake commitments.
	_, err = s.Unblind(confidentialOutput())
	assert.Error(t, err)

	noScript := confidentialOutput()
	noScript.Script = nil
	_, err = s.Unblind(noScript)
	assert.Error(t, err)
}
