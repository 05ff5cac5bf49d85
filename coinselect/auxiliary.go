package coinselect

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vulpemventures/go-elements-funding/utxo"
)

const (
	strategyExact         = "exact"
	strategyLargestSingle = "largest-single"
	strategyLargestFirst  = "largest-first"
)

// selectFunding picks the coins closing the deficit of one asset from its
// ranked candidates.
func selectFunding(
	candidates []utxo.Coin, deficit uint64, maxNodes int,
) ([]utxo.Coin, string, error) {
	if len(candidates) == 0 {
		return nil, "", fundingf("no wallet coins left to cover missing amount %d", deficit)
	}

	if exact := exactSubset(candidates, deficit, maxNodes); exact != nil {
		selected := make([]utxo.Coin, 0, len(exact))
		for _, i := range exact {
			selected = append(selected, candidates[i])
		}
		return selected, strategyExact, nil
	}

	if candidates[0].Amount >= deficit {
		return candidates[:1], strategyLargestSingle, nil
	}

	var sum uint64
	for i, c := range candidates {
		sum += c.Amount
		if sum < c.Amount {
			return nil, "", invalidRequestf("amount overflow while accumulating wallet coins")
		}
		if sum >= deficit {
			return candidates[:i+1], strategyLargestFirst, nil
		}
	}
	return nil, "", fundingf("wallet coins sum to %d, missing amount is %d", sum, deficit)
}

// fundingSelector is the selection run by fundDeficits.
var fundingSelector = selectFunding

// fundDeficits adds wallet coins until no asset has a positive deficit.
func (r *resolution) fundDeficits(ctx context.Context) error {
	for {
		id, missing, ok := r.eq.largestDeficit()
		if !ok {
			return nil
		}

		candidates := r.eq.fundingCandidates(r.snapshot, id)
		selected, strategy, err := fundingSelector(candidates, missing, r.maxNodes)
		if err != nil {
			return fmt.Errorf("asset %s: %w", id, err)
		}

		for _, c := range selected {
			if err := r.addAuxiliary(ctx, c); err != nil {
				return err
			}
			r.log.WithFields(logrus.Fields{
				"asset":    id.String(),
				"outpoint": c.Outpoint.String(),
				"amount":   c.Amount,
				"strategy": strategy,
			}).Debug("selected wallet coin")
		}

		if r.eq.deficit(id) >= missing {
			return fundingf("unable to make progress covering asset %s", id)
		}
	}
}

func (r *resolution) addAuxiliary(ctx context.Context, c utxo.Coin) error {
	if err := r.eq.reserve(c.Outpoint); err != nil {
		return err
	}
	txOut, err := r.fetch(ctx, c.Outpoint)
	if err != nil {
		return err
	}
	if err := r.eq.supply.add(c.Asset, c.Amount); err != nil {
		return err
	}
	return r.emit(ResolvedInput{
		Outpoint:     c.Outpoint,
		TxOut:        txOut,
		Secrets:      coinSecrets(c),
		Confidential: isConfidential(txOut),
		Sequence:     DefaultSequence,
		Finalizer:    Finalizer{Kind: FinalizerWallet},
		Derivation:   c.Derivation,
		Auxiliary:    true,
	})
}
