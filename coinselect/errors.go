package coinselect

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is wrapped by every error caused by a malformed or
	// self-contradictory request, including amount overflows.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrFunding is wrapped by every error caused by the wallet coins not
	// being able to cover the demand.
	ErrFunding = errors.New("insufficient funds")
)

func invalidRequestf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidRequest}, args...)...)
}

func fundingf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrFunding}, args...)...)
}
