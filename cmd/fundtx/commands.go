package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vulpemventures/go-elements-funding/asset"
	"github.com/vulpemventures/go-elements-funding/coinselect"
	"github.com/vulpemventures/go-elements-funding/coinsource"
	"github.com/vulpemventures/go-elements-funding/ledger"
	"github.com/vulpemventures/go-elements-funding/request"
	"github.com/vulpemventures/go-elements-funding/txbuilder"
	"github.com/vulpemventures/go-elements-funding/unblind"
	"github.com/vulpemventures/go-elements-funding/utxo"
	"github.com/vulpemventures/go-elements/slip77"
)

type syncCommand struct {
	app *app
}

func (c *syncCommand) Execute(_ []string) error {
	a := c.app
	if err := a.setup(); err != nil {
		return err
	}

	client, err := a.nodeClient()
	if err != nil {
		return err
	}
	defer client.Shutdown()

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	src := coinsource.NewRPC(client, a.cfg.MinConf, a.logger("coinsource"))
	coins, err := src.ListCoins(a.ctx)
	if err != nil {
		return err
	}
	if err := store.Save(a.ctx, coins); err != nil {
		return err
	}

	a.logger("sync").WithField("coins", len(coins)).Info("coin snapshot saved")
	return nil
}

type coinsCommand struct {
	app *app

	Asset  string `long:"asset" description:"Only show coins of this asset"`
	Locked bool   `long:"locked" description:"Show the locked outpoints instead"`
}

func (c *coinsCommand) Execute(_ []string) error {
	a := c.app
	if err := a.setup(); err != nil {
		return err
	}

	var filter *asset.ID
	if c.Asset != "" {
		id, err := asset.NewIDFromString(c.Asset)
		if err != nil {
			return fmt.Errorf("invalid asset: %w", err)
		}
		filter = &id
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if c.Locked {
		locked, err := store.Locked(a.ctx)
		if err != nil {
			return err
		}
		for _, o := range locked {
			fmt.Println(o)
		}
		return nil
	}

	coins, err := store.ListCoins(a.ctx)
	if err != nil {
		return err
	}
	for _, coin := range coins {
		if filter != nil && coin.Asset != *filter {
			continue
		}
		kind := "explicit"
		if coin.Confidential {
			kind = "confidential"
		}
		fmt.Printf("%s %s %d %s\n", coin.Outpoint, coin.Asset, coin.Amount, kind)
	}
	return nil
}

type resolveCommand struct {
	app *app

	Live     bool   `long:"live" description:"List coins from the node instead of the stored snapshot"`
	Lock     bool   `long:"lock" description:"Lock the selected wallet coins in the store"`
	Locktime uint32 `long:"locktime" description:"Fallback locktime of the unsigned PSET"`

	Args struct {
		Request string `positional-arg-name:"request" description:"Request file, - for stdin" required:"yes"`
	} `positional-args:"yes"`
}

func (c *resolveCommand) Execute(_ []string) error {
	a := c.app
	if err := a.setup(); err != nil {
		return err
	}

	parsed, err := readRequest(c.Args.Request)
	if err != nil {
		return err
	}
	req, err := parsed.ToResolution(a.cfg.Network.PolicyAsset())
	if err != nil {
		return err
	}

	client, err := a.nodeClient()
	if err != nil {
		return err
	}
	defer client.Shutdown()

	var store coinsource.Store
	if !c.Live || c.Lock {
		if store, err = a.openStore(); err != nil {
			return err
		}
		defer store.Close()
	}

	var coins coinsource.Source = store
	if c.Live {
		coins = coinsource.NewRPC(client, a.cfg.MinConf, a.logger("coinsource"))
	}

	opts := coinselect.Options{
		Coins:          coins,
		Ledger:         ledger.NewRPC(client),
		MaxSearchNodes: a.cfg.MaxSearchNodes,
		Logger:         a.logger("resolve"),
	}
	if a.cfg.MasterBlindingKey != nil {
		keys, err := slip77.FromMasterKey(a.cfg.MasterBlindingKey)
		if err != nil {
			return err
		}
		opts.Wallet = unblind.NewSlip77(keys)
	}

	resolver, err := coinselect.NewResolver(opts)
	if err != nil {
		return err
	}

	builder, err := txbuilder.New(c.Locktime)
	if err != nil {
		return err
	}
	res, err := resolver.Resolve(a.ctx, req, builder)
	if err != nil {
		return err
	}

	txHex, pset, err := c.addOutputs(builder, parsed, req)
	if err != nil {
		return err
	}

	if c.Lock {
		if err := lockSelected(a, store, res); err != nil {
			return err
		}
	}

	out, err := request.EncodeResult(res, txHex, pset)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// addOutputs completes the PSET and returns it with its unsigned
// transaction. Both are empty when some non-fee output has no lock script.
func (c *resolveCommand) addOutputs(
	builder *txbuilder.Builder, parsed *request.Request, req *coinselect.Request,
) (string, string, error) {
	scripts := make([][]byte, len(parsed.Outputs))
	for i, out := range parsed.Outputs {
		script, err := out.LockScript()
		if err != nil {
			return "", "", fmt.Errorf("%w: output %q: %v", coinselect.ErrInvalidRequest, out.ID, err)
		}
		if script == nil && out.ID != coinselect.FeeOutputID {
			c.app.logger("resolve").WithField("output", out.ID).
				Warn("output has no lock script, skipping transaction")
			return "", "", nil
		}
		scripts[i] = script
	}

	if err := builder.AddOutputs(req, scripts); err != nil {
		return "", "", err
	}
	txHex, err := builder.ToHex()
	if err != nil {
		return "", "", err
	}
	pset, err := builder.ToBase64()
	if err != nil {
		return "", "", err
	}
	return txHex, pset, nil
}

func readRequest(path string) (*request.Request, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return request.Decode(data)
}

// lockSelected locks the resolved inputs found in the snapshot. Provided
// outpoints outside of it are left alone.
func lockSelected(a *app, store coinsource.Store, res *coinselect.Result) error {
	log := a.logger("resolve")
	for _, in := range res.Inputs {
		err := store.Lock(a.ctx, in.Outpoint)
		if errors.Is(err, coinsource.ErrUnknownCoin) {
			log.WithField("outpoint", in.Outpoint).Debug("outpoint not in snapshot, not locked")
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

type unlockCommand struct {
	app *app

	All bool `long:"all" description:"Unlock every locked coin"`

	Args struct {
		Outpoints []string `positional-arg-name:"outpoint" description:"txid:vout"`
	} `positional-args:"yes"`
}

func (c *unlockCommand) Execute(_ []string) error {
	a := c.app
	if err := a.setup(); err != nil {
		return err
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	var outpoints []utxo.Outpoint
	if c.All {
		if outpoints, err = store.Locked(a.ctx); err != nil {
			return err
		}
	} else {
		if len(c.Args.Outpoints) == 0 {
			return errors.New("no outpoint given, use --all to unlock every coin")
		}
		for _, str := range c.Args.Outpoints {
			o, err := utxo.NewOutpointFromString(str)
			if err != nil {
				return err
			}
			outpoints = append(outpoints, o)
		}
	}

	if err := store.Unlock(a.ctx, outpoints...); err != nil {
		return err
	}
	a.logger("unlock").WithField("coins", len(outpoints)).Info("coins unlocked")
	return nil
}
