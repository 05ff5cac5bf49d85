// Package ledger fetches the on-chain record of an outpoint.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/vulpemventures/go-elements-funding/internal/nodeclient"
	"github.com/vulpemventures/go-elements-funding/utxo"
	"github.com/vulpemventures/go-elements/transaction"
)

var (
	// ErrNotFound is returned when the outpoint is unknown.
	ErrNotFound = errors.New("output not found")
)

// Fetcher returns the ledger record of an outpoint, possibly blinded.
type Fetcher interface {
	FetchTxOut(ctx context.Context, outpoint utxo.Outpoint) (*transaction.TxOutput, error)
}

// Memory is a Fetcher backed by transactions held in memory.
type Memory struct {
	lock sync.RWMutex
	txs  map[chainhash.Hash]*transaction.Transaction
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{txs: make(map[chainhash.Hash]*transaction.Transaction)}
}

// AddTransaction makes the outputs of tx fetchable.
func (m *Memory) AddTransaction(tx *transaction.Transaction) chainhash.Hash {
	m.lock.Lock()
	defer m.lock.Unlock()

	txid := tx.TxHash()
	m.txs[txid] = tx
	return txid
}

// FetchTxOut implements Fetcher.
func (m *Memory) FetchTxOut(
	ctx context.Context, outpoint utxo.Outpoint,
) (*transaction.TxOutput, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	tx, ok := m.txs[outpoint.Txid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, outpoint)
	}
	return txOut(tx, outpoint)
}

// RPC is a Fetcher querying elementsd with getrawtransaction. Decoded
// transactions are cached since several outpoints often share one.
type RPC struct {
	client nodeclient.Requester

	lock  sync.Mutex
	cache map[chainhash.Hash]*transaction.Transaction
}

// NewRPC returns a Fetcher using the given node client.
func NewRPC(client nodeclient.Requester) *RPC {
	return &RPC{
		client: client,
		cache:  make(map[chainhash.Hash]*transaction.Transaction),
	}
}

// FetchTxOut implements Fetcher.
func (r *RPC) FetchTxOut(
	ctx context.Context, outpoint utxo.Outpoint,
) (*transaction.TxOutput, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	tx, ok := r.cache[outpoint.Txid]
	if !ok {
		var txHex string
		if err := nodeclient.Call(
			ctx, r.client, "getrawtransaction", &txHex, outpoint.Txid.String(), false,
		); err != nil {
			return nil, err
		}

		decoded, err := transaction.NewTxFromHex(txHex)
		if err != nil {
			return nil, fmt.Errorf("failed to decode tx %s: %w", outpoint.Txid, err)
		}
		if decoded.TxHash() != outpoint.Txid {
			return nil, fmt.Errorf("node returned tx %s for %s", decoded.TxHash(), outpoint.Txid)
		}
		r.cache[outpoint.Txid] = decoded
		tx = decoded
	}
	return txOut(tx, outpoint)
}

func txOut(
	tx *transaction.Transaction, outpoint utxo.Outpoint,
) (*transaction.TxOutput, error) {
	if int(outpoint.Vout) >= len(tx.Outputs) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, outpoint)
	}
	return tx.Outputs[outpoint.Vout], nil
}
