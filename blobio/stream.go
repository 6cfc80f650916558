package blobio

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/vechain/blobstore/blob"
)

// ReadBlob read blob from reader
// Stream layout per blob: raw key, 4 bytes big-endian data length, data.
// The stream ends with EmptyKey.
func ReadBlob(reader io.Reader) (*OptBlob, error) {
	var raw [blob.KeyLength]byte
	// firstly read key
	if _, err := io.ReadFull(reader, raw[:]); err != nil {
		return nil, errors.Wrap(err, "read blob")
	}
	key, err := blob.KeyFromBytes(raw[:])
	if err != nil {
		return nil, errors.Wrap(err, "read blob")
	}
	if key.Equal(blob.EmptyKey) {
		// reach the end of stream
		return &OptBlob{}, nil
	}

	ind := [4]byte{}
	// then read 4 bytes, which indicate length of blob data
	if _, err := io.ReadFull(reader, ind[:]); err != nil {
		return nil, errors.Wrap(err, "read blob")
	}
	blobLen := binary.BigEndian.Uint32(ind[:])
	if blobLen > blob.DataLenHardLimit {
		return nil, errors.Errorf("read blob: length %d exceeds limit", blobLen)
	}
	data := make([]byte, blobLen)
	// finally read blob data
	if _, err := io.ReadFull(reader, data); err != nil {
		return nil, errors.Wrap(err, "read blob")
	}

	b := blob.New(data)
	// verify key
	if !b.Key().Equal(key) {
		return nil, errors.Wrapf(ErrCorrupt, "read blob %s: key value mismatch", key)
	}
	return &OptBlob{b}, nil
}

// WriteBlob write blob to writer
func WriteBlob(writer io.Writer, b *blob.Blob) error {
	digest := b.Key().Digest()
	// write blob key
	if _, err := writer.Write(digest[:]); err != nil {
		return errors.Wrap(err, "write blob")
	}
	ind := [4]byte{}
	binary.BigEndian.PutUint32(ind[:], uint32(len(b.Data())))
	// write blob data size indicator
	if _, err := writer.Write(ind[:]); err != nil {
		return errors.Wrap(err, "write blob")
	}
	// write blob data
	if _, err := writer.Write(b.Data()); err != nil {
		return errors.Wrap(err, "write blob")
	}
	return nil
}

// EndWriteBlob end the write stream
func EndWriteBlob(writer io.Writer) error {
	digest := blob.EmptyKey.Digest()
	if _, err := writer.Write(digest[:]); err != nil {
		return errors.Wrap(err, "end write blob")
	}
	return nil
}

// Export writes every blob matching the hex prefix to w, then ends the stream.
// It returns count of blobs written.
func (s *Store) Export(w io.Writer, blobKeyHexPrefix string) (int, error) {
	iter, err := s.NewIterator(blobKeyHexPrefix)
	if err != nil {
		return 0, err
	}
	defer iter.Release()

	n := 0
	for iter.Next() {
		b, err := iter.Blob()
		if err != nil {
			return n, errors.Wrap(err, "export")
		}
		if err := WriteBlob(w, b); err != nil {
			return n, errors.Wrap(err, "export")
		}
		n++
	}
	if err := iter.Error(); err != nil {
		return n, errors.Wrap(err, "export")
	}
	return n, errors.Wrap(EndWriteBlob(w), "export")
}

// Import reads a blob stream into the store, in batches.
// It returns count of blobs imported.
func (s *Store) Import(r io.Reader) (int, error) {
	// use batch to optimize write performance
	const batchLen = 100
	batch := s.kv.NewBatch()
	n, pending := 0, 0
	for {
		b, err := ReadBlob(r)
		if err != nil {
			return n, errors.Wrap(err, "import")
		}
		if b.V == nil {
			break
		}
		if err := s.PutBatch(batch, b.V); err != nil {
			return n, errors.Wrap(err, "import")
		}
		n++
		pending++
		if pending >= batchLen {
			if err := batch.Write(); err != nil {
				return n, errors.Wrap(err, "import")
			}
			batch.Reset()
			pending = 0
		}
	}
	if pending > 0 {
		if err := batch.Write(); err != nil {
			return n, errors.Wrap(err, "import")
		}
	}
	return n, nil
}
