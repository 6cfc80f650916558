package node_test

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/blobstore/blob"
	"github.com/vechain/blobstore/blobio"
	"github.com/vechain/blobstore/kv"
	. "github.com/vechain/blobstore/node"
	"github.com/vechain/blobstore/refs"
	"github.com/vechain/blobstore/utils/httpx"
)

func newNode(t *testing.T) (*Node, *blobio.Store) {
	db, err := kv.NewMemStore(kv.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	blobs, err := blobio.NewStore(db, blobio.Options{CompressThreshold: 256})
	require.NoError(t, err)
	t.Cleanup(blobs.Close)
	return New(blobs, refs.New(db), Options{ScrubInterval: -1}), blobs
}

func newRPC(t *testing.T, n *Node) *RPC {
	srv := httptest.NewServer(NewHTTPHandler(n))
	t.Cleanup(srv.Close)
	return NewRPC().WithAddr(srv.Listener.Addr().String())
}

// random keys, many carrying '/' or '+' in base64, exercise path escaping
func keyedBlobs(n int) []*blob.Blob {
	var blobs []*blob.Blob
	for len(blobs) < n {
		data := make([]byte, 1+rand.Int()%2048)
		rand.Read(data)
		blobs = append(blobs, blob.New(data))
	}
	return blobs
}

func TestBlobRoundTrip(t *testing.T) {
	assert := assert.New(t)
	n, _ := newNode(t)
	rpc := newRPC(t, n)

	for _, b := range keyedBlobs(20) {
		opt, err := rpc.GetBlob(b.Key())
		assert.Nil(err)
		assert.Nil(opt.V)

		assert.Nil(rpc.PutBlob(b))

		opt, err = rpc.GetBlob(b.Key())
		assert.Nil(err, b.Key().String())
		if assert.NotNil(opt.V) {
			assert.Equal(b.Data(), opt.V.Data())
		}
	}

	status, err := rpc.GetStatus()
	assert.Nil(err)
	assert.Equal(20, status.BlobCount)
	assert.Equal(0, status.PinnedCount)
}

func TestDeleteBlob(t *testing.T) {
	assert := assert.New(t)
	n, blobs := newNode(t)
	rpc := newRPC(t, n)

	b := blob.New([]byte("to be deleted"))
	assert.Nil(rpc.PutBlob(b))

	ref, err := blobs.Pin(b.Key())
	require.NoError(t, err)
	err = rpc.DeleteBlob(b.Key())
	assert.Equal(http.StatusConflict, httpx.StatusCode(err))
	ref.Release()

	assert.Nil(rpc.DeleteBlob(b.Key()))
	opt, err := rpc.GetBlob(b.Key())
	assert.Nil(err)
	assert.Nil(opt.V)
}

func TestMalformedKey(t *testing.T) {
	assert := assert.New(t)
	n, _ := newNode(t)
	srv := httptest.NewServer(NewHTTPHandler(n))
	defer srv.Close()

	for _, k := range []string{"sha1-", "md5-AAAAAAAAAAAAAAAAAAAAAAAAAAA=", "nodash"} {
		resp, err := http.Get(srv.URL + HTTPPathPrefix + "blobs/" + k)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(http.StatusBadRequest, resp.StatusCode, k)
	}
}

func TestContentDigestHeader(t *testing.T) {
	assert := assert.New(t)
	n, _ := newNode(t)
	srv := httptest.NewServer(NewHTTPHandler(n))
	defer srv.Close()

	key, err := n.PutBlob([]byte(""))
	assert.Nil(err)
	assert.Equal("sha1-2jmj7l5rSw0yVb/vlWAYkK/YBwk=", key.String())

	resp, err := http.Get(srv.URL + HTTPPathPrefix + "blobs/sha1-2jmj7l5rSw0yVb%2FvlWAYkK%2FYBwk=")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(http.StatusOK, resp.StatusCode)
	assert.Equal("sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		resp.Header.Get(ContentDigestHeaderKey))
}

func TestRefs(t *testing.T) {
	assert := assert.New(t)
	n, _ := newNode(t)
	rpc := newRPC(t, n)

	key := blob.KeyOfData([]byte("v1"))
	opt, err := rpc.GetRef("release/v1")
	assert.Nil(err)
	assert.Nil(opt.V)

	assert.Nil(rpc.SetRef("release/v1", key))
	opt, err = rpc.GetRef("release/v1")
	assert.Nil(err)
	assert.Equal(key, *opt.V)

	entries, err := rpc.ListRefs()
	assert.Nil(err)
	assert.Equal([]refs.Entry{{Name: "release/v1", Key: key}}, entries)

	assert.Nil(rpc.DeleteRef("release/v1"))
	entries, err = rpc.ListRefs()
	assert.Nil(err)
	assert.Empty(entries)
}

func TestBlobSlice(t *testing.T) {
	assert := assert.New(t)
	n, _ := newNode(t)
	rpc := newRPC(t, n)

	for _, b := range keyedBlobs(30) {
		assert.Nil(rpc.PutBlob(b))
	}

	reader, err := rpc.GetBlobSlice("")
	require.NoError(t, err)
	defer reader.Close()

	dst, err := kv.NewMemStore(kv.Options{})
	require.NoError(t, err)
	defer dst.Close()
	dstBlobs, err := blobio.NewStore(dst, blobio.Options{})
	require.NoError(t, err)
	defer dstBlobs.Close()

	count, err := dstBlobs.Import(reader)
	assert.Nil(err)
	assert.Equal(30, count)
}

func TestScrub(t *testing.T) {
	assert := assert.New(t)
	n, blobs := newNode(t)

	good := blob.New([]byte("good"))
	bad := blob.New([]byte("bad"))
	assert.Nil(blobs.Put(good))
	digest := bad.Key().Digest()
	assert.Nil(blobs.KV().Put(append([]byte("/"), digest[:]...), []byte{0, 'x'}))

	corrupt, err := n.Scrub(context.Background())
	assert.Nil(err)
	assert.Equal(1, corrupt)

	status, err := n.GetStatus()
	assert.Nil(err)
	assert.Equal(2, status.BlobCount)
	assert.Equal(1, status.CorruptCount)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = n.Scrub(ctx)
	assert.ErrorIs(err, context.Canceled)
}

func TestStartShutdown(t *testing.T) {
	db, err := kv.NewMemStore(kv.Options{})
	require.NoError(t, err)
	defer db.Close()
	blobs, err := blobio.NewStore(db, blobio.Options{})
	require.NoError(t, err)
	defer blobs.Close()

	n := New(blobs, refs.New(db), Options{ScrubInterval: 10 * time.Millisecond})
	n.Start()
	time.Sleep(50 * time.Millisecond)
	n.Shutdown()
}
