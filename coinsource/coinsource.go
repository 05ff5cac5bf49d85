// Package coinsource lists the wallet coins a resolution can spend.
package coinsource

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/vulpemventures/go-elements-funding/asset"
	"github.com/vulpemventures/go-elements-funding/utxo"
)

// Source returns every currently spendable wallet coin.
type Source interface {
	ListCoins(ctx context.Context) ([]utxo.Coin, error)
}

// Store is a Source persisting a coin snapshot. Locked coins are kept but
// not listed, so that concurrent resolutions do not pick the same ones.
type Store interface {
	Source
	Save(ctx context.Context, coins []utxo.Coin) error
	Lock(ctx context.Context, outpoints ...utxo.Outpoint) error
	Unlock(ctx context.Context, outpoints ...utxo.Outpoint) error
	Locked(ctx context.Context) ([]utxo.Outpoint, error)
	Close() error
}

// Store backends accepted by Open.
const (
	BackendLevelDB = "leveldb"
	BackendBolt    = "bolt"
)

var (
	// ErrUnknownBackend is returned by Open for unsupported store kinds.
	ErrUnknownBackend = errors.New("unknown store backend")
	// ErrUnknownCoin is returned when locking a coin not in the snapshot.
	ErrUnknownCoin = errors.New("coin not in snapshot")
)

// Static is an immutable in-memory Source.
type Static []utxo.Coin

// ListCoins implements Source.
func (s Static) ListCoins(ctx context.Context) ([]utxo.Coin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	coins := make([]utxo.Coin, len(s))
	copy(coins, s)
	return coins, nil
}

// Open opens the store of the given backend ("leveldb" or "bolt") at path.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendLevelDB:
		return OpenLevelDB(path)
	case BackendBolt:
		return OpenBolt(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// outpointKey encodes an outpoint as txid (internal order) followed by the
// big endian vout.
func outpointKey(o utxo.Outpoint) []byte {
	key := make([]byte, chainhash.HashSize+4)
	copy(key, o.Txid[:])
	binary.BigEndian.PutUint32(key[chainhash.HashSize:], o.Vout)
	return key
}

func outpointFromKey(key []byte) (utxo.Outpoint, error) {
	if len(key) != chainhash.HashSize+4 {
		return utxo.Outpoint{}, fmt.Errorf("invalid outpoint key length %d", len(key))
	}
	var o utxo.Outpoint
	copy(o.Txid[:], key[:chainhash.HashSize])
	o.Vout = binary.BigEndian.Uint32(key[chainhash.HashSize:])
	return o, nil
}

type coinRecord struct {
	Asset        asset.ID `json:"asset"`
	Amount       uint64   `json:"amount"`
	Script       string   `json:"script"`
	AssetBlinder string   `json:"asset_blinder,omitempty"`
	ValueBlinder string   `json:"value_blinder,omitempty"`
	Confidential bool     `json:"confidential"`
	Derivation   string   `json:"derivation,omitempty"`
}

func encodeCoin(c utxo.Coin) ([]byte, error) {
	rec := coinRecord{
		Asset:        c.Asset,
		Amount:       c.Amount,
		Script:       hex.EncodeToString(c.Script),
		Confidential: c.Confidential,
	}
	if c.Confidential {
		rec.AssetBlinder = hex.EncodeToString(c.AssetBlinder[:])
		rec.ValueBlinder = hex.EncodeToString(c.ValueBlinder[:])
	}
	if c.Derivation != nil {
		rec.Derivation = c.Derivation.KeyOrigin()
	}
	return json.Marshal(rec)
}

func decodeCoin(key, value []byte) (utxo.Coin, error) {
	outpoint, err := outpointFromKey(key)
	if err != nil {
		return utxo.Coin{}, err
	}
	var rec coinRecord
	if err := json.Unmarshal(value, &rec); err != nil {
		return utxo.Coin{}, fmt.Errorf("invalid coin record %s: %w", outpoint, err)
	}

	c := utxo.Coin{
		Outpoint:     outpoint,
		Asset:        rec.Asset,
		Amount:       rec.Amount,
		Confidential: rec.Confidential,
	}
	if c.Script, err = hex.DecodeString(rec.Script); err != nil {
		return utxo.Coin{}, err
	}
	if err := decodeBlinder(rec.AssetBlinder, &c.AssetBlinder); err != nil {
		return utxo.Coin{}, err
	}
	if err := decodeBlinder(rec.ValueBlinder, &c.ValueBlinder); err != nil {
		return utxo.Coin{}, err
	}
	if rec.Derivation != "" {
		if c.Derivation, err = utxo.ParseKeyOrigin(rec.Derivation); err != nil {
			return utxo.Coin{}, err
		}
	}
	return c, nil
}

func decodeBlinder(str string, out *[32]byte) error {
	if str == "" {
		return nil
	}
	buf, err := hex.DecodeString(str)
	if err != nil {
		return err
	}
	if len(buf) != 32 {
		return fmt.Errorf("invalid blinder length %d", len(buf))
	}
	copy(out[:], buf)
	return nil
}

func sortCoins(coins []utxo.Coin) {
	sort.Slice(coins, func(i, j int) bool {
		return coins[i].Outpoint.Compare(coins[j].Outpoint) < 0
	})
}

func sortOutpoints(outpoints []utxo.Outpoint) {
	sort.Slice(outpoints, func(i, j int) bool {
		return outpoints[i].Compare(outpoints[j]) < 0
	})
}
