// Package blob defines content-addressable keys and the blobs they name.
package blob

import (
	"io"

	"github.com/pkg/errors"
	"github.com/vechain/blobstore/crypto"
)

// DataLenHardLimit largest blob accepted from remote peers
const DataLenHardLimit = 64 * 1024 * 1024

// Blob data type stored in blobstore
type Blob struct {
	data      []byte
	cachedKey *Key
}

// New construct a blob
func New(data []byte) *Blob {
	return &Blob{data: data}
}

// Data get blob data
func (blob *Blob) Data() []byte {
	return blob.data
}

// Key compute key of blob data
// the computed key is cached
func (blob *Blob) Key() Key {
	if key := blob.cachedKey; key != nil {
		return *key
	}
	key := KeyOfData(blob.data)
	blob.cachedKey = &key
	return key
}

// KeyOfData compute key of data
func KeyOfData(data []byte) Key {
	return KeyFromHash(crypto.HashSum(data))
}

// KeyOfReader streams content from r and returns its key and length.
func KeyOfReader(r io.Reader) (Key, int64, error) {
	h, n, err := crypto.HashReader(r)
	if err != nil {
		return Key{}, n, errors.Wrap(err, "key of reader")
	}
	return KeyFromHash(h), n, nil
}
