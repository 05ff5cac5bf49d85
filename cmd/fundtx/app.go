package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/rpcclient"
	"github.com/sirupsen/logrus"
	"github.com/vulpemventures/go-elements-funding/coinsource"
	"github.com/vulpemventures/go-elements-funding/internal/config"
	"github.com/vulpemventures/go-elements-funding/internal/nodeclient"
)

type globalOptions struct {
	ConfigFile string `short:"C" long:"config" description:"Path to the configuration file"`
}

// app is shared by all commands. Configuration is loaded when a command runs
// so that --config is already parsed.
type app struct {
	ctx  context.Context
	opts globalOptions
	cfg  *config.Config
	log  *logrus.Logger
}

func (a *app) setup() error {
	cfg, err := config.Load(a.opts.ConfigFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = cfg.Logger()
	return nil
}

func (a *app) logger(component string) *logrus.Entry {
	return a.log.WithField("component", component)
}

func (a *app) openStore() (coinsource.Store, error) {
	if err := os.MkdirAll(filepath.Dir(a.cfg.StorePath), 0o700); err != nil {
		return nil, err
	}
	store, err := coinsource.Open(a.cfg.StoreBackend, a.cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("open coin store: %w", err)
	}
	return store, nil
}

func (a *app) nodeClient() (*rpcclient.Client, error) {
	client, err := nodeclient.New(a.cfg.RPC)
	if err != nil {
		return nil, fmt.Errorf("connect to node %s: %w", a.cfg.RPC.Host, err)
	}
	return client, nil
}
