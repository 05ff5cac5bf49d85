// Package coinselect resolves the inputs of a multi-asset transaction:
// declared inputs are resolved first, then wallet coins are added until
// every asset demanded by the outputs and the fee is covered.
package coinselect

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vulpemventures/go-elements-funding/coinsource"
	"github.com/vulpemventures/go-elements-funding/ledger"
	"github.com/vulpemventures/go-elements-funding/unblind"
	"github.com/vulpemventures/go-elements-funding/utxo"
	"github.com/vulpemventures/go-elements/transaction"
)

// Options configures a Resolver.
type Options struct {
	Coins  coinsource.Source
	Ledger ledger.Fetcher
	// Wallet unblinds declared outpoints with a wallet blinder. Optional.
	Wallet         unblind.Unblinder
	MaxSearchNodes int
	Logger         *logrus.Entry
}

// Resolver holds no state between resolutions. Resolutions sharing the same
// coins must be serialized by the caller.
type Resolver struct {
	coins    coinsource.Source
	ledger   ledger.Fetcher
	wallet   unblind.Unblinder
	maxNodes int
	log      *logrus.Entry
}

// NewResolver returns a Resolver for the given collaborators.
func NewResolver(opts Options) (*Resolver, error) {
	if opts.Coins == nil {
		return nil, errors.New("missing coin source")
	}
	if opts.Ledger == nil {
		return nil, errors.New("missing ledger fetcher")
	}
	if opts.MaxSearchNodes < 0 {
		return nil, fmt.Errorf("invalid max search nodes %d", opts.MaxSearchNodes)
	}
	maxNodes := opts.MaxSearchNodes
	if maxNodes == 0 {
		maxNodes = DefaultMaxSearchNodes
	}
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Resolver{
		coins:    opts.Coins,
		ledger:   opts.Ledger,
		wallet:   opts.Wallet,
		maxNodes: maxNodes,
		log:      log.WithField("component", "coinselect"),
	}, nil
}

// resolution is the state of one Resolve call.
type resolution struct {
	*Resolver
	eq       *equation
	snapshot []utxo.Coin
	sink     Sink
	inputs   []ResolvedInput
}

// Resolve determines the inputs covering req and appends them, in order, to
// sink, which may be nil. On error the sink may have received a prefix of
// the inputs and must be discarded.
func (r *Resolver) Resolve(ctx context.Context, req *Request, sink Sink) (*Result, error) {
	if req == nil {
		return nil, invalidRequestf("missing request")
	}
	if req.PolicyAsset.IsZero() {
		return nil, invalidRequestf("missing policy asset")
	}

	res := &resolution{Resolver: r, eq: newEquation(), sink: sink}
	if err := res.eq.buildDemand(req); err != nil {
		return nil, err
	}

	snapshot, err := r.coins.ListCoins(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet coins: %w", err)
	}
	res.snapshot = snapshot

	if err := res.resolveDeclared(ctx, req.Inputs); err != nil {
		return nil, err
	}
	if err := res.fundDeficits(ctx); err != nil {
		return nil, err
	}
	if !res.eq.balanced() {
		return nil, fundingf("demand left uncovered")
	}

	r.log.WithFields(logrus.Fields{
		"declared":  len(req.Inputs),
		"auxiliary": len(res.inputs) - len(req.Inputs),
		"assets":    len(res.eq.demand),
	}).Info("inputs resolved")

	return &Result{
		Inputs: res.inputs,
		Demand: res.eq.demand,
		Supply: res.eq.supply,
	}, nil
}

func (r *resolution) fetch(ctx context.Context, outpoint utxo.Outpoint) (*transaction.TxOutput, error) {
	txOut, err := r.ledger.FetchTxOut(ctx, outpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch output %s: %w", outpoint, err)
	}
	return txOut, nil
}

func (r *resolution) emit(in ResolvedInput) error {
	if r.sink != nil {
		if err := r.sink.AddInput(in); err != nil {
			return fmt.Errorf("failed to add input %s: %w", in.Outpoint, err)
		}
	}
	r.inputs = append(r.inputs, in)
	return nil
}

func coinSecrets(c utxo.Coin) unblind.Secrets {
	return unblind.Secrets{
		Asset:        c.Asset,
		Value:        c.Amount,
		AssetBlinder: c.AssetBlinder,
		ValueBlinder: c.ValueBlinder,
	}
}

func isConfidential(txOut *transaction.TxOutput) bool {
	return txOut != nil && unblind.IsConfidential(txOut)
}
