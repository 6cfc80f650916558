package node

import (
	"github.com/vechain/blobstore/blob"
)

// StatusResponse status of node
type StatusResponse struct {
	BlobCount    int `json:"blobCount"`
	CorruptCount int `json:"corruptCount"`
	PinnedCount  int `json:"pinnedCount"`
	RefCount     int `json:"refCount"`
}

// PutBlobResponse response body struct for put blob
type PutBlobResponse struct {
	Key blob.Key `json:"key"`
}

// SetRefRequest request body struct for set ref
type SetRefRequest struct {
	Key blob.Key `json:"key"`
}
