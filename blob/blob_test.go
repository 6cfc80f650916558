package blob_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	. "github.com/vechain/blobstore/blob"
)

func TestBlob(t *testing.T) {
	assert := assert.New(t)

	data := []byte("hello world")
	b := New(data)
	assert.Equal(data, b.Data())
	assert.Equal("sha1-Kq5sNclPz7QV2+lfQIuc6R7oRu0=", b.Key().String())
	// cached
	assert.Equal(b.Key(), b.Key())

	key, n, err := KeyOfReader(bytes.NewReader(data))
	assert.Nil(err)
	assert.Equal(int64(len(data)), n)
	assert.Equal(b.Key(), key)
	assert.Equal(KeyOfData(data), key)
}
