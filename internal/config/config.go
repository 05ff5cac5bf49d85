// Package config loads fundtx settings from defaults, an optional yaml file
// and FUNDTX_ prefixed environment variables.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/vulpemventures/go-elements-funding/coinselect"
	"github.com/vulpemventures/go-elements-funding/coinsource"
	"github.com/vulpemventures/go-elements-funding/internal/nodeclient"
	"github.com/vulpemventures/go-elements-funding/network"
)

// Configuration keys. Each can be set in fundtx.yaml or through the
// FUNDTX_ prefixed environment variable, dots becoming underscores.
const (
	// NetworkKey is the network name: liquid, testnet or regtest.
	NetworkKey = "network"
	// DatadirKey is the directory holding the config file and the store.
	DatadirKey = "datadir"
	// RPCHostKey is the host:port of the node RPC.
	RPCHostKey = "rpc.host"
	// RPCUserKey is the node RPC user.
	RPCUserKey = "rpc.user"
	// RPCPassKey is the node RPC password.
	RPCPassKey = "rpc.pass"
	// RPCTLSKey enables TLS towards the node.
	RPCTLSKey = "rpc.tls"
	// StoreBackendKey is the coin store backend, leveldb or bolt.
	StoreBackendKey = "store.backend"
	// MaxSearchNodesKey bounds the nodes visited by the exact-match search.
	MaxSearchNodesKey = "selection.max_nodes"
	// MinConfKey is the confirmations a wallet coin needs to be listed.
	MinConfKey = "selection.min_conf"
	// MasterBlindingKeyKey is the hex SLIP-77 master blinding key.
	MasterBlindingKeyKey = "wallet.master_blinding_key"
	// LogLevelKey is the logrus level name.
	LogLevelKey = "log.level"
	// LogJSONKey switches logs to JSON.
	LogJSONKey = "log.json"

	envPrefix = "FUNDTX"
	fileName  = "fundtx"
)

var defaultDatadir = btcutil.AppDataDir("fundtx", false)

// Config is the resolved configuration.
type Config struct {
	Network      *network.Network
	Datadir      string
	RPC          nodeclient.Config
	StoreBackend string
	// StorePath is the store location inside the network data dir.
	StorePath         string
	MaxSearchNodes    int
	MinConf           int
	MasterBlindingKey []byte
	LogLevel          logrus.Level
	LogJSON           bool
}

// Load reads the configuration. An empty configFile looks for fundtx.yaml in
// the data dir and ignores its absence.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetDefault(NetworkKey, network.Liquid.Name)
	v.SetDefault(DatadirKey, defaultDatadir)
	v.SetDefault(RPCHostKey, "")
	v.SetDefault(RPCUserKey, "")
	v.SetDefault(RPCPassKey, "")
	v.SetDefault(RPCTLSKey, false)
	v.SetDefault(StoreBackendKey, coinsource.BackendLevelDB)
	v.SetDefault(MaxSearchNodesKey, coinselect.DefaultMaxSearchNodes)
	v.SetDefault(MinConfKey, 1)
	v.SetDefault(MasterBlindingKeyKey, "")
	v.SetDefault(LogLevelKey, logrus.InfoLevel.String())
	v.SetDefault(LogJSONKey, false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(fileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(v.GetString(DatadirKey))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error while reading config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	net, err := network.FromName(v.GetString(NetworkKey))
	if err != nil {
		return nil, err
	}

	backend := v.GetString(StoreBackendKey)
	if backend != coinsource.BackendLevelDB && backend != coinsource.BackendBolt {
		return nil, fmt.Errorf("%w: %q", coinsource.ErrUnknownBackend, backend)
	}

	maxNodes := v.GetInt(MaxSearchNodesKey)
	if maxNodes <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %d", MaxSearchNodesKey, maxNodes)
	}

	minConf := v.GetInt(MinConfKey)
	if minConf < 0 {
		return nil, fmt.Errorf("%s must not be negative, got %d", MinConfKey, minConf)
	}

	var masterKey []byte
	if str := v.GetString(MasterBlindingKeyKey); str != "" {
		masterKey, err = hex.DecodeString(str)
		if err != nil || len(masterKey) != 32 {
			return nil, fmt.Errorf("%s must be 32 bytes in hex", MasterBlindingKeyKey)
		}
	}

	level, err := logrus.ParseLevel(v.GetString(LogLevelKey))
	if err != nil {
		return nil, err
	}

	host := v.GetString(RPCHostKey)
	if host == "" {
		host = "localhost:" + net.RPCPort
	}

	datadir := v.GetString(DatadirKey)
	return &Config{
		Network: net,
		Datadir: datadir,
		RPC: nodeclient.Config{
			Host: host,
			User: v.GetString(RPCUserKey),
			Pass: v.GetString(RPCPassKey),
			TLS:  v.GetBool(RPCTLSKey),
		},
		StoreBackend:      backend,
		StorePath:         filepath.Join(datadir, net.Name, "coins-"+backend),
		MaxSearchNodes:    maxNodes,
		MinConf:           minConf,
		MasterBlindingKey: masterKey,
		LogLevel:          level,
		LogJSON:           v.GetBool(LogJSONKey),
	}, nil
}

// Logger builds the root logger described by the configuration.
func (c *Config) Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)
	if c.LogJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
