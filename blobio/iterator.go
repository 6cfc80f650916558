package blobio

import (
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/vechain/blobstore/blob"
	"github.com/vechain/blobstore/kv"
)

// BlobIterator iterates blobs in kv store
type BlobIterator struct {
	store *Store
	iter  kv.Iterator
}

// NewIterator create iterator over blobs whose key hex starts with blobKeyHexPrefix.
func (s *Store) NewIterator(blobKeyHexPrefix string) (*BlobIterator, error) {
	hexPrefix := hex.EncodeToString(blobPrefix) + blobKeyHexPrefix
	rng, err := kv.NewRangeWithHexPrefix(hexPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "new blob iterator")
	}
	return &BlobIterator{
		store: s,
		iter:  s.kv.NewIterator(rng),
	}, nil
}

// Next advance iterator
func (bi *BlobIterator) Next() bool {
	return bi.iter.Next()
}

// Release release resource alloced for iterator
func (bi *BlobIterator) Release() {
	bi.iter.Release()
}

// Error returns error occurred
func (bi *BlobIterator) Error() error {
	return errors.Wrap(bi.iter.Error(), "blob iterator")
}

// Key returns key of current blob
func (bi *BlobIterator) Key() (blob.Key, error) {
	key, err := blob.KeyFromBytes(bi.iter.Key()[len(blobPrefix):])
	if err != nil {
		return blob.Key{}, errors.Wrap(err, "blob iterator")
	}
	return key, nil
}

// Blob returns current blob, verified against its key
func (bi *BlobIterator) Blob() (*blob.Blob, error) {
	key, err := bi.Key()
	if err != nil {
		return nil, err
	}
	// the iterator reuses its value buffer
	value := append([]byte(nil), bi.iter.Value()...)
	b, err := bi.store.load(key, value)
	if err != nil {
		return nil, errors.Wrap(err, "blob iterator")
	}
	return b, nil
}
