package kv

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const (
	minCacheSize      = 128
	minOpenFilesCache = 64
)

// implements Store interface
type levelDB struct {
	db       *leveldb.DB
	writeOpt *opt.WriteOptions
}

func newLevelDB(s storage.Storage, options Options) (*levelDB, error) {
	cacheSize := options.CacheSize
	if cacheSize < minCacheSize {
		cacheSize = minCacheSize
	}
	openFiles := options.OpenFilesCacheCapacity
	if openFiles < minOpenFilesCache {
		openFiles = minOpenFilesCache
	}

	db, err := leveldb.Open(s, &opt.Options{
		OpenFilesCacheCapacity: openFiles,
		BlockCacheCapacity:     cacheSize / 2 * opt.MiB,
		WriteBuffer:            cacheSize / 4 * opt.MiB, // Two of these are used internally
		Filter:                 filter.NewBloomFilter(10),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open level db")
	}
	return &levelDB{
		db:       db,
		writeOpt: &opt.WriteOptions{Sync: !options.NoSync},
	}, nil
}

func newMemLevelDB(options Options) (*levelDB, error) {
	return newLevelDB(storage.NewMemStorage(), options)
}

func newFSLevelDB(filePath string, options Options) (*levelDB, error) {
	s, err := storage.OpenFile(filePath, false)
	if err != nil {
		return nil, errors.Wrapf(err, "open level db at %s", filePath)
	}
	ldb, err := newLevelDB(s, options)
	if err != nil {
		s.Close()
		return nil, err
	}
	return ldb, nil
}

func (ldb *levelDB) Has(key []byte) (bool, error) {
	has, err := ldb.db.Has(key, nil)
	if err != nil {
		return false, errors.Wrap(err, "has")
	}
	return has, nil
}

func (ldb *levelDB) Get(key []byte) (*OptValue, error) {
	data, err := ldb.db.Get(key, nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return &OptValue{}, nil
		}
		return nil, errors.Wrap(err, "get")
	}
	return &OptValue{data}, nil
}

func (ldb *levelDB) Put(key []byte, value []byte) error {
	if err := ldb.db.Put(key, value, ldb.writeOpt); err != nil {
		return errors.Wrap(err, "put")
	}
	return nil
}

func (ldb *levelDB) Delete(key []byte) error {
	if err := ldb.db.Delete(key, ldb.writeOpt); err != nil {
		return errors.Wrap(err, "delete")
	}
	return nil
}

func (ldb *levelDB) NewIterator(r *Range) Iterator {
	return ldb.db.NewIterator(r.toUtil(), nil)
}

func (ldb *levelDB) Compact(r *Range) error {
	var rng util.Range
	if ur := r.toUtil(); ur != nil {
		rng = *ur
	}
	if err := ldb.db.CompactRange(rng); err != nil {
		return errors.Wrap(err, "compact")
	}
	return nil
}

func (ldb *levelDB) Close() error {
	if err := ldb.db.Close(); err != nil {
		return errors.Wrap(err, "close")
	}
	return nil
}

func (ldb *levelDB) NewBatch() Batch {
	return &levelDBBatch{
		ldb:   ldb,
		batch: &leveldb.Batch{},
	}
}

// implements Batch interface
type levelDBBatch struct {
	ldb   *levelDB
	batch *leveldb.Batch
}

func (batch *levelDBBatch) Delete(key []byte) error {
	batch.batch.Delete(key)
	return nil
}

func (batch *levelDBBatch) Put(key []byte, value []byte) error {
	batch.batch.Put(key, value)
	return nil
}

func (batch *levelDBBatch) Reset() {
	batch.batch.Reset()
}

func (batch *levelDBBatch) Write() error {
	if err := batch.ldb.db.Write(batch.batch, batch.ldb.writeOpt); err != nil {
		return errors.Wrap(err, "write batch")
	}
	return nil
}

func (batch *levelDBBatch) Len() int {
	return batch.batch.Len()
}
