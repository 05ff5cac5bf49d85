package coinsource

import (
	"context"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
	"github.com/vulpemventures/go-elements-funding/utxo"
)

var (
	coinPrefix = []byte("coin-")
	lockPrefix = []byte("lock-")
)

// LevelDB is a Store backed by goleveldb.
type LevelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens, or creates, the LevelDB store at path.
func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDB{db}, nil
}

func prefixed(prefix, key []byte) []byte {
	return append(append([]byte{}, prefix...), key...)
}

// Save replaces the stored snapshot with coins. Locks on coins that are no
// longer in the snapshot are dropped.
func (l *LevelDB) Save(ctx context.Context, coins []utxo.Coin) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	keep := make(map[string]struct{}, len(coins))
	for _, c := range coins {
		value, err := encodeCoin(c)
		if err != nil {
			return err
		}
		key := outpointKey(c.Outpoint)
		keep[string(key)] = struct{}{}
		batch.Put(prefixed(coinPrefix, key), value)
	}

	for _, prefix := range [][]byte{coinPrefix, lockPrefix} {
		iter := l.db.NewIterator(util.BytesPrefix(prefix), nil)
		for iter.Next() {
			if _, ok := keep[string(iter.Key()[len(prefix):])]; !ok {
				batch.Delete(append([]byte{}, iter.Key()...))
			}
		}
		iter.Release()
		if err := iter.Error(); err != nil {
			return err
		}
	}

	return l.db.Write(batch, nil)
}

// ListCoins implements Source.
func (l *LevelDB) ListCoins(ctx context.Context) ([]utxo.Coin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap, err := l.db.GetSnapshot()
	if err != nil {
		return nil, err
	}
	defer snap.Release()

	coins := make([]utxo.Coin, 0)
	iter := snap.NewIterator(util.BytesPrefix(coinPrefix), nil)
	defer iter.Release()
	for iter.Next() {
		key := iter.Key()[len(coinPrefix):]
		locked, err := snap.Has(prefixed(lockPrefix, key), nil)
		if err != nil {
			return nil, err
		}
		if locked {
			continue
		}
		c, err := decodeCoin(key, iter.Value())
		if err != nil {
			return nil, err
		}
		coins = append(coins, c)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}

	sortCoins(coins)
	return coins, nil
}

// Lock excludes the given coins from ListCoins.
func (l *LevelDB) Lock(ctx context.Context, outpoints ...utxo.Outpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	for _, o := range outpoints {
		key := outpointKey(o)
		ok, err := l.db.Has(prefixed(coinPrefix, key), nil)
		if err != nil {
			return err
		}
		if !ok {
			return ErrUnknownCoin
		}
		batch.Put(prefixed(lockPrefix, key), []byte{1})
	}
	return l.db.Write(batch, nil)
}

// Unlock makes the given coins listable again.
func (l *LevelDB) Unlock(ctx context.Context, outpoints ...utxo.Outpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	for _, o := range outpoints {
		batch.Delete(prefixed(lockPrefix, outpointKey(o)))
	}
	return l.db.Write(batch, nil)
}

// Locked returns the locked outpoints.
func (l *LevelDB) Locked(ctx context.Context) ([]utxo.Outpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	outpoints := make([]utxo.Outpoint, 0)
	iter := l.db.NewIterator(util.BytesPrefix(lockPrefix), nil)
	defer iter.Release()
	for iter.Next() {
		o, err := outpointFromKey(iter.Key()[len(lockPrefix):])
		if err != nil {
			return nil, err
		}
		outpoints = append(outpoints, o)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	sortOutpoints(outpoints)
	return outpoints, nil
}

// Close releases the database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}
