package coinselect

import (
	"context"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/go-elements-funding/asset"
	"github.com/vulpemventures/go-elements-funding/coinsource"
	"github.com/vulpemventures/go-elements-funding/elementsutil"
	"github.com/vulpemventures/go-elements-funding/ledger"
	"github.com/vulpemventures/go-elements-funding/unblind"
	"github.com/vulpemventures/go-elements-funding/utxo"
	"github.com/vulpemventures/go-elements/transaction"
)

var (
	lbtc   = asset.MustNewIDFromString("5ac9f65c0efcc4775e0baec4ec03abdde22473cd3cf33c0419ca290e0751b225")
	assetX = asset.ID{0xaa}
	assetY = asset.ID{0xbb}
)

// op returns an outpoint whose display order is driven by b.
func op(b byte, vout uint32) utxo.Outpoint {
	var txid chainhash.Hash
	txid[31] = b
	return utxo.NewOutpoint(txid, vout)
}

func explicitOut(id asset.ID, amount uint64) *transaction.TxOutput {
	return &transaction.TxOutput{
		Asset:  id.Commitment(),
		Value:  elementsutil.ValueToBytes(amount),
		Script: []byte{0x00, 0x14, 0x01},
	}
}

func confidentialOut() *transaction.TxOutput {
	assetCommitment := make([]byte, 33)
	assetCommitment[0] = 0x0a
	valueCommitment := make([]byte, 33)
	valueCommitment[0] = 0x08
	return &transaction.TxOutput{
		Asset:  assetCommitment,
		Value:  valueCommitment,
		Script: []byte{0x00, 0x14, 0x02},
	}
}

type fakeLedger struct {
	records map[utxo.Outpoint]*transaction.TxOutput
	calls   int
}

func (f *fakeLedger) FetchTxOut(
	_ context.Context, outpoint utxo.Outpoint,
) (*transaction.TxOutput, error) {
	f.calls++
	out, ok := f.records[outpoint]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return out, nil
}

type countingSource struct {
	coinsource.Static
	calls int
}

func (c *countingSource) ListCoins(ctx context.Context) ([]utxo.Coin, error) {
	c.calls++
	return c.Static.ListCoins(ctx)
}

type fixedUnblinder struct {
	secrets *unblind.Secrets
	err     error
}

func (f fixedUnblinder) Unblind(*transaction.TxOutput) (*unblind.Secrets, error) {
	return f.secrets, f.err
}

type recordingSink struct {
	inputs []ResolvedInput
	err    error
}

func (s *recordingSink) AddInput(in ResolvedInput) error {
	if s.err != nil {
		return s.err
	}
	s.inputs = append(s.inputs, in)
	return nil
}

// supplyBatch is the supply of every asset around one run of auxiliary
// inputs of the same asset.
type supplyBatch struct {
	asset  asset.ID
	before Balances
	after  Balances
}

// batchSink tracks the supply built by the emitted inputs and groups
// auxiliary inputs into batches.
type batchSink struct {
	recordingSink
	supply  Balances
	batches []supplyBatch
}

func newBatchSink() *batchSink {
	return &batchSink{supply: make(Balances)}
}

func (s *batchSink) AddInput(in ResolvedInput) error {
	if err := s.recordingSink.AddInput(in); err != nil {
		return err
	}
	id := in.Secrets.Asset
	n := len(s.batches)
	if in.Auxiliary && (n == 0 || s.batches[n-1].asset != id) {
		s.batches = append(s.batches, supplyBatch{asset: id, before: copyBalances(s.supply)})
	}
	s.supply[id] += in.Secrets.Value
	if in.Auxiliary {
		s.batches[len(s.batches)-1].after = copyBalances(s.supply)
	}
	return nil
}

func copyBalances(b Balances) Balances {
	res := make(Balances, len(b))
	for id, v := range b {
		res[id] = v
	}
	return res
}

// deficitOf is what supply misses to cover demand for id.
func deficitOf(demand, supply Balances, id asset.ID) uint64 {
	if supply[id] >= demand[id] {
		return 0
	}
	return demand[id] - supply[id]
}

func totalDeficit(demand, supply Balances) uint64 {
	var total uint64
	for id := range demand {
		total += deficitOf(demand, supply, id)
	}
	return total
}

type harness struct {
	source *countingSource
	ledger *fakeLedger
	wallet unblind.Unblinder
	nodes  int
}

func newHarness() *harness {
	return &harness{
		source: &countingSource{},
		ledger: &fakeLedger{records: make(map[utxo.Outpoint]*transaction.TxOutput)},
	}
}

// coin adds a wallet coin with an explicit record.
func (h *harness) coin(b byte, id asset.ID, amount uint64) utxo.Coin {
	c := utxo.Coin{
		Outpoint: op(b, 0),
		Asset:    id,
		Amount:   amount,
		Script:   []byte{0x00, 0x14, b},
	}
	h.source.Static = append(h.source.Static, c)
	h.ledger.records[c.Outpoint] = explicitOut(id, amount)
	return c
}

// record adds a ledger record that is not a wallet coin.
func (h *harness) record(o utxo.Outpoint, out *transaction.TxOutput) {
	h.ledger.records[o] = out
}

func (h *harness) resolve(t *testing.T, req *Request) (*Result, *recordingSink, error) {
	t.Helper()
	sink := &recordingSink{}
	res, err := h.resolveInto(t, req, sink)
	return res, sink, err
}

func (h *harness) resolveInto(t *testing.T, req *Request, sink Sink) (*Result, error) {
	t.Helper()
	r, err := NewResolver(Options{
		Coins:          h.source,
		Ledger:         h.ledger,
		Wallet:         h.wallet,
		MaxSearchNodes: h.nodes,
	})
	require.NoError(t, err)
	return r.Resolve(context.Background(), req, sink)
}

func outputs(id asset.ID, amounts ...uint64) []Output {
	outs := make([]Output, 0, len(amounts))
	for _, a := range amounts {
		outs = append(outs, Output{ID: "out", Amount: a, Asset: Explicit(id)})
	}
	return outs
}

func provided(id string, o utxo.Outpoint) Input {
	return Input{ID: id, Outpoint: &o, Sequence: DefaultSequence}
}

func outpointsOf(inputs []ResolvedInput) []utxo.Outpoint {
	res := make([]utxo.Outpoint, 0, len(inputs))
	for _, in := range inputs {
		res = append(res, in.Outpoint)
	}
	return res
}

func amountsOf(inputs []ResolvedInput) []uint64 {
	res := make([]uint64, 0, len(inputs))
	for _, in := range inputs {
		res = append(res, in.Secrets.Value)
	}
	return res
}

var errSink = errors.New("sink is full")
