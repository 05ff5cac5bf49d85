package coinselect

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vulpemventures/go-elements-funding/unblind"
	"github.com/vulpemventures/go-elements-funding/utxo"
	"github.com/vulpemventures/go-elements/transaction"
)

// resolveDeclared resolves the caller inputs in order, then checks every
// deferred demand found its input.
func (r *resolution) resolveDeclared(ctx context.Context, inputs []Input) error {
	for i, in := range inputs {
		if err := r.resolveInput(ctx, uint32(i), in); err != nil {
			return err
		}
	}
	if len(r.eq.deferred) == 0 {
		return nil
	}
	first := uint32(len(inputs))
	for index := range r.eq.deferred {
		if index < first {
			first = index
		}
	}
	return invalidRequestf("unresolved demand on input %d", first)
}

func (r *resolution) resolveInput(ctx context.Context, index uint32, in Input) error {
	if (in.Outpoint == nil) == (in.Filter == nil) {
		return invalidRequestf("input %q must name either an outpoint or a wallet filter", in.ID)
	}
	if in.Issuance != nil {
		if err := in.Issuance.Validate(); err != nil {
			return fmt.Errorf("%w: input %q: %w", ErrInvalidRequest, in.ID, err)
		}
	}

	var (
		outpoint   utxo.Outpoint
		txOut      *transaction.TxOutput
		secrets    *unblind.Secrets
		derivation *utxo.Derivation
		err        error
	)
	if in.Outpoint != nil {
		outpoint = *in.Outpoint
		if err := r.eq.reserve(outpoint); err != nil {
			return err
		}
		if txOut, err = r.fetch(ctx, outpoint); err != nil {
			return err
		}
		if secrets, err = r.unblindDeclared(in, txOut); err != nil {
			return err
		}
	} else {
		coin, err := r.eq.bestMatch(r.snapshot, *in.Filter)
		if err != nil {
			return err
		}
		if coin == nil {
			return fundingf("no wallet coin matches the filter of input %q", in.ID)
		}
		outpoint = coin.Outpoint
		if err := r.eq.reserve(outpoint); err != nil {
			return err
		}
		if txOut, err = r.fetch(ctx, outpoint); err != nil {
			return err
		}
		s := coinSecrets(*coin)
		secrets = &s
		derivation = coin.Derivation
	}

	if err = r.eq.supply.add(secrets.Asset, secrets.Value); err != nil {
		return err
	}
	if d := in.Issuance; d != nil {
		if err := r.eq.supply.add(d.Asset(outpoint), d.AssetAmount); err != nil {
			return err
		}
		if d.TokenAmount > 0 {
			if err := r.eq.supply.add(d.Token(outpoint), d.TokenAmount); err != nil {
				return err
			}
		}
	}
	if err := r.activateDeferred(index, in, outpoint); err != nil {
		return err
	}

	return r.emit(ResolvedInput{
		InputID:      in.ID,
		Outpoint:     outpoint,
		TxOut:        txOut,
		Secrets:      *secrets,
		Confidential: isConfidential(txOut),
		Sequence:     in.Sequence,
		Issuance:     in.Issuance,
		Finalizer:    in.Finalizer,
		Derivation:   derivation,
	})
}

// unblindDeclared recovers the secrets of an explicitly named outpoint.
func (r *resolution) unblindDeclared(
	in Input, txOut *transaction.TxOutput,
) (*unblind.Secrets, error) {
	if !isConfidential(txOut) {
		secrets, err := unblind.Reveal(txOut)
		if err != nil {
			return nil, fmt.Errorf("%w: input %q: %w", ErrInvalidRequest, in.ID, err)
		}
		return secrets, nil
	}

	switch in.Blinder.Kind {
	case BlinderExplicit:
		return nil, invalidRequestf("input %q is declared explicit but its output is confidential", in.ID)
	case BlinderProvided:
		if in.Blinder.Unblinder == nil {
			return nil, invalidRequestf("input %q has no blinding key", in.ID)
		}
		secrets, err := in.Blinder.Unblinder.Unblind(txOut)
		if err != nil {
			return nil, fmt.Errorf("%w: input %q: %w", ErrInvalidRequest, in.ID, err)
		}
		return secrets, nil
	case BlinderWallet:
		if r.wallet == nil {
			return nil, invalidRequestf("input %q needs the wallet blinding keys, none configured", in.ID)
		}
		secrets, err := r.wallet.Unblind(txOut)
		if err != nil {
			return nil, fmt.Errorf("failed to unblind input %q: %w", in.ID, err)
		}
		return secrets, nil
	default:
		return nil, invalidRequestf("input %q has unknown blinder kind %d", in.ID, in.Blinder.Kind)
	}
}

// activateDeferred moves the demand filed against input index into the
// demand map, now that the issued ids are known.
func (r *resolution) activateDeferred(index uint32, in Input, outpoint utxo.Outpoint) error {
	pending, ok := r.eq.deferred[index]
	if !ok {
		return nil
	}

	for _, p := range pending {
		d := in.Issuance
		if d == nil {
			return invalidRequestf(
				"output %q is %s of input %d which has no issuance", p.outputID, p.kind, index,
			)
		}
		if d.Kind != p.kind.issuanceKind() {
			return invalidRequestf(
				"output %q is %s but input %q is a %s issuance", p.outputID, p.kind, in.ID, d.Kind,
			)
		}

		id := d.Asset(outpoint)
		if p.kind == NewIssuanceToken {
			id = d.Token(outpoint)
		}
		if err := r.eq.demand.add(id, p.amount); err != nil {
			return err
		}
		r.log.WithFields(logrus.Fields{
			"output": p.outputID,
			"input":  index,
			"asset":  id.String(),
			"amount": p.amount,
		}).Debug("activated issuance demand")
	}
	delete(r.eq.deferred, index)
	return nil
}
