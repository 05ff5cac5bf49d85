package coinsource

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/sirupsen/logrus"
	"github.com/vulpemventures/go-elements-funding/asset"
	"github.com/vulpemventures/go-elements-funding/internal/nodeclient"
	"github.com/vulpemventures/go-elements-funding/utxo"
)

// listUnspentResult models one entry of elementsd's listunspent.
type listUnspentResult struct {
	TxID             string  `json:"txid"`
	Vout             uint32  `json:"vout"`
	ScriptPubKey     string  `json:"scriptPubKey"`
	Amount           float64 `json:"amount"`
	Asset            string  `json:"asset"`
	AmountBlinder    string  `json:"amountblinder"`
	AssetBlinder     string  `json:"assetblinder"`
	AmountCommitment string  `json:"amountcommitment"`
	AssetCommitment  string  `json:"assetcommitment"`
	Spendable        bool    `json:"spendable"`
	Desc             string  `json:"desc"`
}

// RPC lists the spendable coins of the elementsd wallet.
type RPC struct {
	client  nodeclient.Requester
	minConf int
	log     *logrus.Entry
}

// NewRPC returns a Source over the node wallet. Coins with fewer than
// minConf confirmations are not listed.
func NewRPC(client nodeclient.Requester, minConf int, log *logrus.Entry) *RPC {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &RPC{client, minConf, log.WithField("component", "coinsource")}
}

// ListCoins implements Source.
func (r *RPC) ListCoins(ctx context.Context) ([]utxo.Coin, error) {
	var unspents []listUnspentResult
	if err := nodeclient.Call(
		ctx, r.client, "listunspent", &unspents, r.minConf,
	); err != nil {
		return nil, err
	}

	coins := make([]utxo.Coin, 0, len(unspents))
	for _, u := range unspents {
		if !u.Spendable {
			continue
		}
		c, err := r.parseUnspent(u)
		if err != nil {
			return nil, fmt.Errorf("listunspent entry %s:%d: %w", u.TxID, u.Vout, err)
		}
		if c.Amount == 0 {
			continue
		}
		coins = append(coins, c)
	}
	sortCoins(coins)

	r.log.WithField("coins", len(coins)).Debug("listed node wallet coins")
	return coins, nil
}

func (r *RPC) parseUnspent(u listUnspentResult) (utxo.Coin, error) {
	outpoint, err := utxo.NewOutpointFromString(fmt.Sprintf("%s:%d", u.TxID, u.Vout))
	if err != nil {
		return utxo.Coin{}, err
	}
	id, err := asset.NewIDFromString(u.Asset)
	if err != nil {
		return utxo.Coin{}, err
	}
	amount, err := btcutil.NewAmount(u.Amount)
	if err != nil {
		return utxo.Coin{}, err
	}
	if amount < 0 {
		return utxo.Coin{}, fmt.Errorf("negative amount %v", amount)
	}
	script, err := hex.DecodeString(u.ScriptPubKey)
	if err != nil {
		return utxo.Coin{}, err
	}

	c := utxo.Coin{
		Outpoint:     outpoint,
		Asset:        id,
		Amount:       uint64(amount),
		Script:       script,
		Confidential: u.AmountCommitment != "" || u.AssetCommitment != "",
	}
	// the node prints blinders in display order
	if err := decodeDisplayBlinder(u.AssetBlinder, &c.AssetBlinder); err != nil {
		return utxo.Coin{}, err
	}
	if err := decodeDisplayBlinder(u.AmountBlinder, &c.ValueBlinder); err != nil {
		return utxo.Coin{}, err
	}
	if u.Desc != "" {
		if d, err := utxo.ParseKeyOrigin(u.Desc); err == nil {
			c.Derivation = d
		}
	}
	return c, nil
}

func decodeDisplayBlinder(str string, out *[32]byte) error {
	if err := decodeBlinder(str, out); err != nil {
		return err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return nil
}
