package node

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	digest "github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
	"github.com/vechain/blobstore/blob"
	"github.com/vechain/blobstore/blobio"
	"github.com/vechain/blobstore/refs"
	"github.com/vechain/blobstore/utils/httpx"
)

// RPC http client of node
type RPC struct {
	client  *http.Client
	baseURL string
	ctx     context.Context
}

var defaultTransport = http.Transport{}

// NewRPC create rpc client
func NewRPC() *RPC {
	return &RPC{
		client: &http.Client{Transport: &defaultTransport},
		ctx:    context.Background(),
	}
}

// WithAddr returns a copy targeting node at addr (host:port)
func (rpc *RPC) WithAddr(addr string) *RPC {
	cp := *rpc
	cp.baseURL = "http://" + addr + HTTPPathPrefix
	return &cp
}

// WithContext returns a copy bound to ctx
func (rpc *RPC) WithContext(ctx context.Context) *RPC {
	if ctx == nil {
		panic("nil ctx")
	}
	cp := *rpc
	cp.ctx = ctx
	return &cp
}

func (rpc *RPC) newRequest(method string, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, rpc.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	return req.WithContext(rpc.ctx), nil
}

func (rpc *RPC) doRequest(req *http.Request) (*http.Response, []byte, error) {
	resp, err := rpc.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	if err := httpx.HandleResponseError(resp); err != nil {
		return nil, nil, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, data, nil
}

func (rpc *RPC) doJSON(method string, path string, reqBody interface{}, respBody interface{}) (*http.Response, error) {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}
	req, err := rpc.newRequest(method, path, body)
	if err != nil {
		return nil, err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", httpx.JSONContentType)
	}
	resp, data, err := rpc.doRequest(req)
	if err != nil {
		return nil, err
	}
	if respBody != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.Unmarshal(data, respBody); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func blobPath(key blob.Key) string {
	return "blobs/" + url.PathEscape(key.String())
}

func refPath(name string) string {
	return "refs/" + url.PathEscape(name)
}

// GetStatus query node status
func (rpc *RPC) GetStatus() (*StatusResponse, error) {
	var status StatusResponse
	if _, err := rpc.doJSON(http.MethodGet, "status", nil, &status); err != nil {
		return nil, errors.Wrap(err, "get status")
	}
	return &status, nil
}

// GetBlob fetch blob, verifying both its key and content digest.
func (rpc *RPC) GetBlob(blobKey blob.Key) (*blobio.OptBlob, error) {
	req, err := rpc.newRequest(http.MethodGet, blobPath(blobKey), nil)
	if err != nil {
		return nil, err
	}
	resp, data, err := rpc.doRequest(req)
	if err != nil {
		return nil, errors.Wrap(err, "get blob")
	}
	if resp.StatusCode == http.StatusNoContent {
		return &blobio.OptBlob{}, nil
	}
	b := blob.New(data)
	if !b.Key().Equal(blobKey) {
		return nil, errors.New("get blob with wrong key")
	}
	if h := resp.Header.Get(ContentDigestHeaderKey); h != "" {
		dgst, err := digest.Parse(h)
		if err != nil {
			return nil, errors.Wrap(err, "get blob")
		}
		verifier := dgst.Verifier()
		verifier.Write(data)
		if !verifier.Verified() {
			return nil, errors.New("get blob with wrong content digest")
		}
	}
	return &blobio.OptBlob{V: b}, nil
}

// PutBlob store blob at node
func (rpc *RPC) PutBlob(b *blob.Blob) error {
	req, err := rpc.newRequest(http.MethodPost, "blobs", bytes.NewReader(b.Data()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", httpx.OctetStreamContentType)
	_, data, err := rpc.doRequest(req)
	if err != nil {
		return errors.Wrap(err, "put blob")
	}
	var respBody PutBlobResponse
	if err := json.Unmarshal(data, &respBody); err != nil {
		return errors.Wrap(err, "put blob")
	}
	if !respBody.Key.Equal(b.Key()) {
		return errors.New("put blob returned incorrect key")
	}
	return nil
}

// DeleteBlob remove blob from node
func (rpc *RPC) DeleteBlob(blobKey blob.Key) error {
	_, err := rpc.doJSON(http.MethodDelete, blobPath(blobKey), nil, nil)
	return errors.Wrap(err, "delete blob")
}

// GetBlobSlice returns blob stream of blobs whose key hex starts with prefix.
// Read it with blobio.ReadBlob.
func (rpc *RPC) GetBlobSlice(prefix string) (io.ReadCloser, error) {
	req, err := rpc.newRequest(http.MethodGet, "blobs?prefix="+url.QueryEscape(prefix), nil)
	if err != nil {
		return nil, err
	}
	resp, err := rpc.client.Do(req)
	if err != nil {
		return nil, err
	}
	if err := httpx.HandleResponseError(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

// ListRefs list refs
func (rpc *RPC) ListRefs() ([]refs.Entry, error) {
	var entries []refs.Entry
	if _, err := rpc.doJSON(http.MethodGet, "refs", nil, &entries); err != nil {
		return nil, errors.Wrap(err, "list refs")
	}
	return entries, nil
}

// GetRef resolve ref
func (rpc *RPC) GetRef(name string) (*refs.OptKey, error) {
	var entry refs.Entry
	resp, err := rpc.doJSON(http.MethodGet, refPath(name), nil, &entry)
	if err != nil {
		return nil, errors.Wrap(err, "get ref")
	}
	if resp.StatusCode == http.StatusNoContent {
		return &refs.OptKey{}, nil
	}
	return &refs.OptKey{V: &entry.Key}, nil
}

// SetRef point ref to key
func (rpc *RPC) SetRef(name string, key blob.Key) error {
	_, err := rpc.doJSON(http.MethodPut, refPath(name), &SetRefRequest{Key: key}, nil)
	return errors.Wrap(err, "set ref")
}

// DeleteRef remove ref
func (rpc *RPC) DeleteRef(name string) error {
	_, err := rpc.doJSON(http.MethodDelete, refPath(name), nil, nil)
	return errors.Wrap(err, "delete ref")
}
