package blobio_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/blobstore/blob"
	. "github.com/vechain/blobstore/blobio"
)

func TestIter(t *testing.T) {
	assert := assert.New(t)
	s := newStore(t, Options{CompressThreshold: 512})

	var blobs []*blob.Blob
	for i := 0; i < 10; i++ {
		b := randomBlob(1024)
		blobs = append(blobs, b)
		assert.Nil(s.Put(b))
	}

	iter, err := s.NewIterator("")
	require.NoError(t, err)
	defer iter.Release()
	count := 0
	for iter.Next() {
		count++
		b, err := iter.Blob()
		assert.Nil(err)

		key, err := iter.Key()
		assert.Nil(err)
		assert.Equal(b.Key(), key)

		found := false
		for _, x := range blobs {
			if x.Key() == b.Key() {
				found = true
				break
			}
		}
		assert.True(found)
	}
	assert.Nil(iter.Error())
	assert.Equal(len(blobs), count)
}

func TestIterPrefix(t *testing.T) {
	assert := assert.New(t)
	s := newStore(t, Options{})

	for i := 0; i < 50; i++ {
		assert.Nil(s.Put(randomBlob(16)))
	}
	total := 0
	for _, prefix := range []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "a", "b", "c", "d", "e", "f"} {
		iter, err := s.NewIterator(prefix)
		require.NoError(t, err)
		for iter.Next() {
			key, err := iter.Key()
			assert.Nil(err)
			assert.Equal(prefix, key.ToHex()[:1])
			total++
		}
		iter.Release()
	}
	assert.Equal(50, total)

	_, err := s.NewIterator("zz")
	assert.NotNil(err)
}
