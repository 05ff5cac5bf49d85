package coinselect

// buildDemand turns the requested outputs into concrete demand, files
// issuance-derived outputs as deferred demand of their input, and adds the
// fee target on the policy asset. The amount of a caller "fee" output is
// not counted.
func (e *equation) buildDemand(req *Request) error {
	seenFee := false
	for _, out := range req.Outputs {
		if out.ID == FeeOutputID {
			if seenFee {
				return invalidRequestf("duplicate %q output", FeeOutputID)
			}
			seenFee = true
			if out.Asset.Kind != AssetExplicit || out.Asset.Asset != req.PolicyAsset {
				return invalidRequestf(
					"%q output must be on policy asset %s", FeeOutputID, req.PolicyAsset,
				)
			}
			continue
		}

		switch out.Asset.Kind {
		case AssetExplicit:
			if err := e.demand.add(out.Asset.Asset, out.Amount); err != nil {
				return err
			}
		case NewIssuanceAsset, NewIssuanceToken, ReissuanceAsset:
			if int(out.Asset.InputIndex) >= len(req.Inputs) {
				return invalidRequestf(
					"output %q references input %d, only %d declared",
					out.ID, out.Asset.InputIndex, len(req.Inputs),
				)
			}
			index := out.Asset.InputIndex
			e.deferred[index] = append(e.deferred[index], deferredDemand{
				kind:     out.Asset.Kind,
				amount:   out.Amount,
				outputID: out.ID,
			})
		default:
			return invalidRequestf("output %q has unknown asset kind %s", out.ID, out.Asset.Kind)
		}
	}

	return e.demand.add(req.PolicyAsset, req.FeeTarget)
}
