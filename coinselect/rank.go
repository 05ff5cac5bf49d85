package coinselect

import (
	"bytes"
	"sort"

	"github.com/vulpemventures/go-elements-funding/asset"
	"github.com/vulpemventures/go-elements-funding/utxo"
)

func (f Filter) matches(c utxo.Coin) bool {
	if f.Asset != nil && *f.Asset != c.Asset {
		return false
	}
	switch f.Amount.Kind {
	case AmountExact:
		if c.Amount != f.Amount.Value {
			return false
		}
	case AmountMin:
		if c.Amount < f.Amount.Value {
			return false
		}
	}
	if f.Script != nil && !bytes.Equal(f.Script, c.Script) {
		return false
	}
	return true
}

// candidateScore ranks a coin for a filtered input. Lower is better, fields
// compared in order.
type candidateScore struct {
	totalDeficit uint64
	ownDeficit   uint64
	distance     uint64
	outpoint     utxo.Outpoint
}

func (s candidateScore) less(other candidateScore) bool {
	if s.totalDeficit != other.totalDeficit {
		return s.totalDeficit < other.totalDeficit
	}
	if s.ownDeficit != other.ownDeficit {
		return s.ownDeficit < other.ownDeficit
	}
	if s.distance != other.distance {
		return s.distance < other.distance
	}
	return s.outpoint.Compare(other.outpoint) < 0
}

// score simulates adding c to the supply.
func (e *equation) score(c utxo.Coin) (candidateScore, error) {
	before := e.supply[c.Asset]
	after := before + c.Amount
	if after < before {
		return candidateScore{}, invalidRequestf(
			"amount overflow while scoring candidate %s", c.Outpoint,
		)
	}

	var total uint64
	for id, demand := range e.demand {
		supply := e.supply[id]
		if id == c.Asset {
			supply = after
		}
		if supply >= demand {
			continue
		}
		remaining := demand - supply
		if total+remaining < total {
			return candidateScore{}, invalidRequestf("deficit overflow while scoring candidates")
		}
		total += remaining
	}

	demand := e.demand[c.Asset]
	s := candidateScore{
		totalDeficit: total,
		ownDeficit:   saturatingSub(demand, after),
		outpoint:     c.Outpoint,
	}
	need := saturatingSub(demand, before)
	if c.Amount >= need {
		s.distance = c.Amount - need
	} else {
		s.distance = need - c.Amount
	}
	return s, nil
}

// bestMatch returns the best ranked unused coin matching f, if any.
func (e *equation) bestMatch(snapshot []utxo.Coin, f Filter) (*utxo.Coin, error) {
	var (
		best      *utxo.Coin
		bestScore candidateScore
	)
	for i := range snapshot {
		c := snapshot[i]
		if e.isUsed(c.Outpoint) || !f.matches(c) {
			continue
		}
		s, err := e.score(c)
		if err != nil {
			return nil, err
		}
		if best == nil || s.less(bestScore) {
			best, bestScore = &snapshot[i], s
		}
	}
	return best, nil
}

// fundingCandidates returns the unused, non-empty coins of id in canonical
// order: amount descending, then outpoint ascending.
func (e *equation) fundingCandidates(snapshot []utxo.Coin, id asset.ID) []utxo.Coin {
	candidates := make([]utxo.Coin, 0)
	for _, c := range snapshot {
		if c.Asset != id || c.Amount == 0 || e.isUsed(c.Outpoint) {
			continue
		}
		candidates = append(candidates, c)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Amount != candidates[j].Amount {
			return candidates[i].Amount > candidates[j].Amount
		}
		return candidates[i].Outpoint.Compare(candidates[j].Outpoint) < 0
	})
	return candidates
}

func saturatingSub(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}
