// Package node serves a local blob store over http.
package node

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/vechain/blobstore/blob"
	"github.com/vechain/blobstore/blobio"
	"github.com/vechain/blobstore/refs"
)

// DefaultScrubInterval gap between two scrub rounds
const DefaultScrubInterval = time.Hour

// Options options of node
type Options struct {
	// ScrubInterval gap between verification rounds over stored blobs.
	// Zero means DefaultScrubInterval, negative disables scrubbing.
	ScrubInterval time.Duration
}

// Node defines local node of blobstore.
type Node struct {
	blobs *blobio.Store
	refs  *refs.Manager
	opts  Options

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates node instance
func New(blobs *blobio.Store, refMgr *refs.Manager, opts Options) *Node {
	if opts.ScrubInterval == 0 {
		opts.ScrubInterval = DefaultScrubInterval
	}
	return &Node{
		blobs: blobs,
		refs:  refMgr,
		opts:  opts,
	}
}

// Start start running node
func (n *Node) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	if n.opts.ScrubInterval > 0 {
		n.wg.Add(1)
		go n.scrubLoop(ctx)
	}
}

// Shutdown terminate running node and block until stopped.
func (n *Node) Shutdown() {
	if n.cancel != nil {
		n.cancel()
	}
	n.wg.Wait()
}

// scrubLoop
func (n *Node) scrubLoop(ctx context.Context) {
	log.Info("enter scrub loop")

	timer := time.NewTimer(n.opts.ScrubInterval)
	defer func() {
		if err := recover(); err != nil {
			log.Warnln("scrub loop recovered:", err)
		}
		timer.Stop()
		n.wg.Done()
		log.Info("leave scrub loop")
	}()

	for {
		select {
		case <-timer.C:
			if _, err := n.Scrub(ctx); err != nil {
				log.Errorf("scrub: %v", err)
			}
			timer.Reset(n.opts.ScrubInterval)
		case <-ctx.Done():
			return
		}
	}
}

// Scrub verifies every stored blob and marks corrupt ones.
// It returns count of corrupt blobs found.
func (n *Node) Scrub(ctx context.Context) (int, error) {
	var (
		nIter    = 0
		nCorrupt = 0
	)
	defer func() {
		if nIter > 0 {
			log.Infof("scrub: %d/%d corrupt", nCorrupt, nIter)
		}
	}()

	iter, err := n.blobs.NewIterator("")
	if err != nil {
		return 0, err
	}
	defer iter.Release()
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nCorrupt, err
		}
		nIter++
		key, err := iter.Key()
		if err != nil {
			log.Warnf("scrub: %v", err)
			continue
		}
		if _, err := iter.Blob(); err != nil {
			if !errors.Is(err, blobio.ErrCorrupt) {
				return nCorrupt, err
			}
			nCorrupt++
			log.Warnf("scrub: %v", err)
			if err := blobio.MarkBlob(n.blobs.KV(), key, blobio.CorruptBlobMark); err != nil {
				return nCorrupt, err
			}
		}
	}
	return nCorrupt, iter.Error()
}

// GetBlob get blob by key.
// The blob is pinned while being read.
func (n *Node) GetBlob(key blob.Key) (*blobio.OptBlob, error) {
	ref, err := n.blobs.Pin(key)
	if err != nil {
		if errors.Is(err, blobio.ErrNotFound) {
			return &blobio.OptBlob{}, nil
		}
		return nil, err
	}
	defer ref.Release()
	return n.blobs.Get(key)
}

// PutBlob stores data and returns its key.
func (n *Node) PutBlob(data []byte) (blob.Key, error) {
	b := blob.New(data)
	if err := n.blobs.Put(b); err != nil {
		return blob.Key{}, err
	}
	return b.Key(), nil
}

// DeleteBlob removes a blob.
func (n *Node) DeleteBlob(key blob.Key) error {
	return n.blobs.Delete(key)
}

// GetStatus returns node status.
func (n *Node) GetStatus() (*StatusResponse, error) {
	blobCount, err := n.blobs.Count()
	if err != nil {
		return nil, err
	}
	corruptCount, err := blobio.CountMarked(n.blobs.KV(), blobio.CorruptBlobMark)
	if err != nil {
		return nil, err
	}
	entries, err := n.refs.List()
	if err != nil {
		return nil, err
	}
	return &StatusResponse{
		BlobCount:    blobCount,
		CorruptCount: corruptCount,
		PinnedCount:  n.blobs.PinnedCount(),
		RefCount:     len(entries),
	}, nil
}
