package unblind

import (
	"github.com/vulpemventures/go-elements/slip77"
	"github.com/vulpemventures/go-elements/transaction"
)

// Slip77 unblinds wallet records with the blinding key SLIP-77 derives for
// each output script.
type Slip77 struct {
	keys *slip77.Slip77
}

// NewSlip77 returns an unblinder deriving its keys from keys.
func NewSlip77(keys *slip77.Slip77) *Slip77 {
	return &Slip77{keys}
}

// Unblind implements Unblinder.
func (s *Slip77) Unblind(out *transaction.TxOutput) (*Secrets, error) {
	if out == nil {
		return nil, ErrNilOutput
	}
	if !IsConfidential(out) {
		return Reveal(out)
	}
	key, _, err := s.keys.DeriveKey(out.Script)
	if err != nil {
		return nil, err
	}
	return unblindWithKey(out, key.Serialize())
}
