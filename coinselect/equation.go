package coinselect

import (
	"github.com/vulpemventures/go-elements-funding/asset"
	"github.com/vulpemventures/go-elements-funding/utxo"
)

// Balances maps assets to amounts.
type Balances map[asset.ID]uint64

func (b Balances) add(id asset.ID, amount uint64) error {
	current := b[id]
	if current+amount < current {
		return invalidRequestf("amount overflow on asset %s", id)
	}
	b[id] = current + amount
	return nil
}

type deferredDemand struct {
	kind     AssetRefKind
	amount   uint64
	outputID string
}

// equation is the bookkeeping of one resolution. Demand, supply and the
// used set only grow.
type equation struct {
	demand   Balances
	supply   Balances
	used     map[utxo.Outpoint]struct{}
	deferred map[uint32][]deferredDemand
}

func newEquation() *equation {
	return &equation{
		demand:   make(Balances),
		supply:   make(Balances),
		used:     make(map[utxo.Outpoint]struct{}),
		deferred: make(map[uint32][]deferredDemand),
	}
}

func (e *equation) reserve(outpoint utxo.Outpoint) error {
	if e.isUsed(outpoint) {
		return invalidRequestf("outpoint %s spent twice", outpoint)
	}
	e.used[outpoint] = struct{}{}
	return nil
}

func (e *equation) isUsed(outpoint utxo.Outpoint) bool {
	_, ok := e.used[outpoint]
	return ok
}

func (e *equation) deficit(id asset.ID) uint64 {
	demand, supply := e.demand[id], e.supply[id]
	if supply >= demand {
		return 0
	}
	return demand - supply
}

// largestDeficit returns the asset missing the most, the smaller id winning
// ties. ok is false once the equation is balanced.
func (e *equation) largestDeficit() (id asset.ID, missing uint64, ok bool) {
	for candidate := range e.demand {
		d := e.deficit(candidate)
		if d == 0 {
			continue
		}
		if !ok || d > missing || (d == missing && candidate.Compare(id) < 0) {
			id, missing, ok = candidate, d, true
		}
	}
	return
}

func (e *equation) balanced() bool {
	_, _, unbalanced := e.largestDeficit()
	return !unbalanced
}
