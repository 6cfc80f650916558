// Package blobio provides IO operations for blob
package blobio

import (
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/vechain/blobstore/blob"
	"github.com/vechain/blobstore/kv"
)

var (
	blobPrefix = []byte("/")
)

// value codecs, first byte of every stored value
const (
	codecRaw  byte = 0
	codecZstd byte = 1
)

var (
	// ErrNotFound blob not in store
	ErrNotFound = errors.New("blob not found")
	// ErrPinned blob is referenced by a live ref
	ErrPinned = errors.New("blob pinned")
	// ErrCorrupt stored data does not match its key
	ErrCorrupt = errors.New("blob corrupt")
)

func makeBlobKey(blobKey blob.Key) []byte {
	digest := blobKey.Digest()
	return append(append([]byte{}, blobPrefix...), digest[:]...)
}

// OptBlob presents optional blob.
type OptBlob struct {
	V *blob.Blob
}

// Options options of blob store
type Options struct {
	// CompressThreshold blobs of at least this size are stored zstd compressed.
	// Zero or negative disables compression.
	CompressThreshold int
}

// Store keeps blobs in a kv store, addressed by the raw digest of their key.
type Store struct {
	kv   kv.Store
	opts Options
	pins *blob.Table
	// serializes Pin against Delete
	pinMu sync.Mutex
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

// NewStore create a blob store over kv.
func NewStore(store kv.Store, opts Options) (*Store, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1), zstd.WithLowerEncoderMem(true))
	if err != nil {
		return nil, errors.Wrap(err, "new blob store")
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		enc.Close()
		return nil, errors.Wrap(err, "new blob store")
	}
	return &Store{
		kv:   store,
		opts: opts,
		pins: blob.NewTable(),
		enc:  enc,
		dec:  dec,
	}, nil
}

// KV returns the underlying kv store.
func (s *Store) KV() kv.Store {
	return s.kv
}

// Close releases codec resources. It does not close the kv store.
func (s *Store) Close() {
	s.enc.Close()
	s.dec.Close()
}

func (s *Store) encodeValue(data []byte) []byte {
	if s.opts.CompressThreshold > 0 && len(data) >= s.opts.CompressThreshold {
		compressed := s.enc.EncodeAll(data, []byte{codecZstd})
		// keep raw when compression doesn't pay
		if len(compressed) < len(data)+1 {
			return compressed
		}
	}
	value := make([]byte, 0, len(data)+1)
	value = append(value, codecRaw)
	return append(value, data...)
}

func (s *Store) decodeValue(value []byte) ([]byte, error) {
	if len(value) == 0 {
		return nil, errors.New("empty value")
	}
	switch value[0] {
	case codecRaw:
		return value[1:], nil
	case codecZstd:
		data, err := s.dec.DecodeAll(value[1:], nil)
		if err != nil {
			return nil, errors.Wrap(err, "zstd")
		}
		return data, nil
	default:
		return nil, errors.Errorf("unknown codec %d", value[0])
	}
}

// load decodes and verifies a stored value against its key.
func (s *Store) load(key blob.Key, value []byte) (*blob.Blob, error) {
	data, err := s.decodeValue(value)
	if err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "%s: %v", key, err)
	}
	b := blob.New(data)
	if !b.Key().Equal(key) {
		return nil, errors.Wrapf(ErrCorrupt, "%s: key value mismatch", key)
	}
	return b, nil
}

func (s *Store) markCorrupt(key blob.Key) {
	log.Warnf("blob %s is corrupt", key)
	if err := MarkBlob(s.kv, key, CorruptBlobMark); err != nil {
		log.Errorf("mark corrupt blob %s: %v", key, err)
	}
}

// Has returns whether the blob is stored.
func (s *Store) Has(key blob.Key) (bool, error) {
	has, err := s.kv.Has(makeBlobKey(key))
	if err != nil {
		return false, errors.Wrap(err, "has blob")
	}
	return has, nil
}

// Get get blob by key.
// Data failing verification marks the key corrupt and returns ErrCorrupt.
func (s *Store) Get(key blob.Key) (*OptBlob, error) {
	value, err := s.kv.Get(makeBlobKey(key))
	if err != nil {
		return nil, errors.Wrap(err, "get blob")
	}
	if value.V == nil {
		return &OptBlob{}, nil
	}
	b, err := s.load(key, value.V)
	if err != nil {
		s.markCorrupt(key)
		return nil, errors.Wrap(err, "get blob")
	}
	return &OptBlob{b}, nil
}

// Put store blob.
func (s *Store) Put(b *blob.Blob) error {
	return errors.Wrap(s.PutBatch(s.kv, b), "put blob")
}

// PutBatch writes blob into w, which is usually a kv.Batch.
func (s *Store) PutBatch(w kv.Writer, b *blob.Blob) error {
	key := b.Key()
	if err := w.Put(makeBlobKey(key), s.encodeValue(b.Data())); err != nil {
		return err
	}
	// a fresh copy heals a corrupt one
	return UnmarkBlob(w, key, CorruptBlobMark)
}

// Delete removes a blob and its marks.
// Pinned blobs are not deleted.
func (s *Store) Delete(key blob.Key) error {
	s.pinMu.Lock()
	defer s.pinMu.Unlock()

	if s.pins.Pinned(key) {
		return errors.Wrapf(ErrPinned, "delete blob %s", key)
	}
	batch := s.kv.NewBatch()
	if err := batch.Delete(makeBlobKey(key)); err != nil {
		return errors.Wrap(err, "delete blob")
	}
	if err := UnmarkBlob(batch, key, CorruptBlobMark); err != nil {
		return errors.Wrap(err, "delete blob")
	}
	return errors.Wrap(batch.Write(), "delete blob")
}

// Pin returns a ref keeping the blob from deletion until released.
func (s *Store) Pin(key blob.Key) (*blob.Ref, error) {
	s.pinMu.Lock()
	defer s.pinMu.Unlock()

	has, err := s.Has(key)
	if err != nil {
		return nil, errors.Wrap(err, "pin")
	}
	if !has {
		return nil, errors.Wrapf(ErrNotFound, "pin %s", key)
	}
	return s.pins.Acquire(key), nil
}

// PinnedCount returns count of live refs.
func (s *Store) PinnedCount() int {
	return s.pins.Len()
}

// Count returns count of stored blobs.
func (s *Store) Count() (int, error) {
	iter := s.kv.NewIterator(kv.NewRangeWithBytesPrefix(blobPrefix))
	defer iter.Release()
	n := 0
	for iter.Next() {
		n++
	}
	if err := iter.Error(); err != nil {
		return 0, errors.Wrap(err, "count blobs")
	}
	return n, nil
}
