package coinsource

import (
	"context"
	"fmt"
	"time"

	"github.com/vulpemventures/go-elements-funding/utxo"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketCoins = []byte("coins_by_outpoint")
	bucketLocks = []byte("locks_by_outpoint")
)

// Bolt is a Store backed by bbolt.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens, or creates, the bbolt store file at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketCoins, bucketLocks} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Bolt{db}, nil
}

// Save replaces the stored snapshot with coins. Locks on coins that are no
// longer in the snapshot are dropped.
func (b *Bolt) Save(ctx context.Context, coins []utxo.Coin) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		keep := make(map[string]struct{}, len(coins))
		coinsBucket := tx.Bucket(bucketCoins)
		for _, c := range coins {
			value, err := encodeCoin(c)
			if err != nil {
				return err
			}
			key := outpointKey(c.Outpoint)
			keep[string(key)] = struct{}{}
			if err := coinsBucket.Put(key, value); err != nil {
				return err
			}
		}

		for _, name := range [][]byte{bucketCoins, bucketLocks} {
			bucket := tx.Bucket(name)
			stale := make([][]byte, 0)
			if err := bucket.ForEach(func(k, _ []byte) error {
				if _, ok := keep[string(k)]; !ok {
					stale = append(stale, append([]byte{}, k...))
				}
				return nil
			}); err != nil {
				return err
			}
			for _, k := range stale {
				if err := bucket.Delete(k); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// ListCoins implements Source.
func (b *Bolt) ListCoins(ctx context.Context) ([]utxo.Coin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	coins := make([]utxo.Coin, 0)
	err := b.db.View(func(tx *bolt.Tx) error {
		locks := tx.Bucket(bucketLocks)
		return tx.Bucket(bucketCoins).ForEach(func(k, v []byte) error {
			if locks.Get(k) != nil {
				return nil
			}
			c, err := decodeCoin(k, v)
			if err != nil {
				return err
			}
			coins = append(coins, c)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortCoins(coins)
	return coins, nil
}

// Lock excludes the given coins from ListCoins.
func (b *Bolt) Lock(ctx context.Context, outpoints ...utxo.Outpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		coinsBucket := tx.Bucket(bucketCoins)
		locks := tx.Bucket(bucketLocks)
		for _, o := range outpoints {
			key := outpointKey(o)
			if coinsBucket.Get(key) == nil {
				return ErrUnknownCoin
			}
			if err := locks.Put(key, []byte{1}); err != nil {
				return err
			}
		}
		return nil
	})
}

// Unlock makes the given coins listable again.
func (b *Bolt) Unlock(ctx context.Context, outpoints ...utxo.Outpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		locks := tx.Bucket(bucketLocks)
		for _, o := range outpoints {
			if err := locks.Delete(outpointKey(o)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Locked returns the locked outpoints.
func (b *Bolt) Locked(ctx context.Context) ([]utxo.Outpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	outpoints := make([]utxo.Outpoint, 0)
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketLocks).ForEach(func(k, _ []byte) error {
			o, err := outpointFromKey(k)
			if err != nil {
				return err
			}
			outpoints = append(outpoints, o)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortOutpoints(outpoints)
	return outpoints, nil
}

// Close releases the database.
func (b *Bolt) Close() error {
	return b.db.Close()
}
