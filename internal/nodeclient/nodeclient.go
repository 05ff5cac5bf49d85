// Package nodeclient talks JSON-RPC to an elementsd node.
package nodeclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/rpcclient"
)

// Config holds the connection parameters of the node.
type Config struct {
	Host string
	User string
	Pass string
	TLS  bool
}

// Requester is satisfied by *rpcclient.Client.
type Requester interface {
	RawRequest(method string, params []json.RawMessage) (json.RawMessage, error)
}

// New connects to elementsd in HTTP POST mode.
func New(cfg Config) (*rpcclient.Client, error) {
	connCfg := &rpcclient.ConnConfig{
		Host:         cfg.Host,
		User:         cfg.User,
		Pass:         cfg.Pass,
		HTTPPostMode: true, // elementsd only supports HTTP POST mode
		DisableTLS:   !cfg.TLS,
	}
	return rpcclient.New(connCfg, nil)
}

// Call performs method with the given params and decodes the response into
// result. The request is not issued if ctx is already done.
func Call(
	ctx context.Context, r Requester, method string, result interface{},
	params ...interface{},
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rawParams := make([]json.RawMessage, 0, len(params))
	for _, p := range params {
		buf, err := json.Marshal(p)
		if err != nil {
			return err
		}
		rawParams = append(rawParams, buf)
	}

	resp, err := r.RawRequest(method, rawParams)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(resp, result); err != nil {
		return fmt.Errorf("%s: invalid response: %w", method, err)
	}
	return nil
}
