package blobio

import (
	"github.com/pkg/errors"
	"github.com/vechain/blobstore/blob"
	"github.com/vechain/blobstore/kv"
)

const (
	// CorruptBlobMark mark indicates that stored data failed verification
	CorruptBlobMark = "corrupt"
	markPrefix      = ".marks/"
)

func makeMarkKey(blobKey blob.Key, mark string) []byte {
	digest := blobKey.Digest()
	return append([]byte(markPrefix+mark+"/"), digest[:]...)
}

func extractBlobKey(markKey []byte, mark string) (blob.Key, error) {
	prefix := markPrefix + mark + "/"
	if len(markKey) < len(prefix) {
		return blob.Key{}, errors.New("invalid blob mark")
	}
	key, err := blob.KeyFromBytes(markKey[len(prefix):])
	if err != nil {
		return blob.Key{}, errors.Wrap(err, "invalid blob mark")
	}
	return key, nil
}

// MarkBlob mark a blob
func MarkBlob(w kv.Writer, blobKey blob.Key, mark string) error {
	key := makeMarkKey(blobKey, mark)
	return errors.Wrap(w.Put(key, []byte{}), "mark blob")
}

// UnmarkBlob delete mark to a blob
func UnmarkBlob(w kv.Writer, blobKey blob.Key, mark string) error {
	key := makeMarkKey(blobKey, mark)
	return errors.Wrap(w.Delete(key), "unmark blob")
}

// IsMarked tests whether a blob carries mark
func IsMarked(r kv.Reader, blobKey blob.Key, mark string) (bool, error) {
	has, err := r.Has(makeMarkKey(blobKey, mark))
	return has, errors.Wrap(err, "is marked")
}

// NewMarkIterator returns an iterator for all blob keys marked with mark
func NewMarkIterator(store kv.Store, mark string) *MarkIterator {
	rng := kv.NewRangeWithBytesPrefix([]byte(markPrefix + mark + "/"))
	return &MarkIterator{
		mark: mark,
		it:   store.NewIterator(rng),
	}
}

// MarkIterator iterates marked blob keys
type MarkIterator struct {
	mark string
	it   kv.Iterator
}

// Next move iterator next
func (mi *MarkIterator) Next() bool {
	return mi.it.Next()
}

// Release release the iterator
func (mi *MarkIterator) Release() {
	mi.it.Release()
}

// Error returns error occurred
func (mi *MarkIterator) Error() error {
	return errors.Wrap(mi.it.Error(), "iterate mark")
}

// BlobKey returns blob key
func (mi *MarkIterator) BlobKey() (blob.Key, error) {
	blobKey, err := extractBlobKey(mi.it.Key(), mi.mark)
	if err != nil {
		return blob.Key{}, errors.Wrap(err, "iterate mark")
	}
	return blobKey, nil
}

// CountMarked returns count of blobs carrying mark.
func CountMarked(store kv.Store, mark string) (int, error) {
	iter := NewMarkIterator(store, mark)
	defer iter.Release()
	n := 0
	for iter.Next() {
		n++
	}
	return n, iter.Error()
}
