package coinselect

import (
	"math"
	"sort"

	"github.com/vulpemventures/go-elements-funding/utxo"
)

// DefaultMaxSearchNodes bounds the exact-match search.
const DefaultMaxSearchNodes = 100000

// exactSubset searches candidates, sorted in canonical order, for a subset
// whose amounts sum to target. The smallest subset wins, ties broken by the
// sorted list of outpoints. Returns nil if no subset exists or if the search
// visits maxNodes nodes before completing.
func exactSubset(candidates []utxo.Coin, target uint64, maxNodes int) []int {
	n := len(candidates)
	if n == 0 || target == 0 {
		return nil
	}

	// suffix[i] is the sum of amounts from i on, saturated.
	suffix := make([]uint64, n+1)
	for i := n - 1; i >= 0; i-- {
		s := suffix[i+1] + candidates[i].Amount
		if s < suffix[i+1] {
			s = math.MaxUint64
		}
		suffix[i] = s
	}
	if suffix[0] < target {
		return nil
	}

	var (
		best      []int
		bestKey   []utxo.Outpoint
		selection = make([]int, 0, n)
		sum       uint64
		next      int
	)
	for nodes := 0; ; nodes++ {
		if nodes >= maxNodes {
			return nil
		}

		backtrack := false
		switch {
		case sum == target:
			key := sortedOutpoints(candidates, selection)
			if best == nil || len(selection) < len(best) ||
				(len(selection) == len(best) && lessOutpoints(key, bestKey)) {
				best = append([]int{}, selection...)
				bestKey = key
			}
			backtrack = true
		case next >= n:
			backtrack = true
		case remainingCannotReach(sum, suffix[next], target):
			backtrack = true
		case best != nil && len(selection) >= len(best):
			// any completion would be larger than the best match
			backtrack = true
		}

		if !backtrack {
			// include candidates[next] first, amounts being descending
			amount := candidates[next].Amount
			if amount > target-sum {
				next++
				continue
			}
			selection = append(selection, next)
			sum += amount
			next++
			continue
		}

		if len(selection) == 0 {
			break
		}
		// move to the branch excluding the last included candidate
		last := selection[len(selection)-1]
		selection = selection[:len(selection)-1]
		sum -= candidates[last].Amount
		next = last + 1
	}
	return best
}

func remainingCannotReach(sum, remaining, target uint64) bool {
	return remaining < target-sum
}

func sortedOutpoints(candidates []utxo.Coin, selection []int) []utxo.Outpoint {
	outpoints := make([]utxo.Outpoint, 0, len(selection))
	for _, i := range selection {
		outpoints = append(outpoints, candidates[i].Outpoint)
	}
	sort.Slice(outpoints, func(i, j int) bool {
		return outpoints[i].Compare(outpoints[j]) < 0
	})
	return outpoints
}

func lessOutpoints(a, b []utxo.Outpoint) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := a[i].Compare(b[i]); c != 0 {
			return c < 0
		}
	}
	return len(a) < len(b)
}
