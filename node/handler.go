package node

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	digest "github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/vechain/blobstore/blob"
	"github.com/vechain/blobstore/blobio"
	"github.com/vechain/blobstore/refs"
	"github.com/vechain/blobstore/utils/httpx"
)

const (
	// HTTPPathPrefix path prefix
	HTTPPathPrefix = "/node/"

	// ContentDigestHeaderKey carries sha256 digest of blob data, for clients not trusting sha1 alone.
	ContentDigestHeaderKey = "X-Blob-Content-Digest"
)

// NewHTTPHandler create http handler to expose operations to local node
func NewHTTPHandler(node *Node) http.Handler {
	// canonical keys contain '/', which must stay escaped inside a path segment
	router := mux.NewRouter().UseEncodedPath()

	sub := router.PathPrefix(HTTPPathPrefix).Subrouter()
	sub.Methods(http.MethodGet).Path("/status").HandlerFunc(httpx.WrapHandlerFunc(node.handleGetStatus))

	sub.Methods(http.MethodGet).Path("/blobs/{key}").HandlerFunc(httpx.WrapHandlerFunc(node.handleGetBlob))
	sub.Methods(http.MethodDelete).Path("/blobs/{key}").HandlerFunc(httpx.WrapHandlerFunc(node.handleDeleteBlob))
	sub.Methods(http.MethodPost).Path("/blobs").HandlerFunc(httpx.WrapHandlerFunc(node.handlePutBlob))
	sub.Methods(http.MethodGet).Path("/blobs").Queries("prefix", "{prefix}").HandlerFunc(httpx.WrapHandlerFunc(node.handleGetBlobSlice))

	sub.Methods(http.MethodGet).Path("/refs").HandlerFunc(httpx.WrapHandlerFunc(node.handleListRefs))
	sub.Methods(http.MethodGet).Path("/refs/{name}").HandlerFunc(httpx.WrapHandlerFunc(node.handleGetRef))
	sub.Methods(http.MethodPut).Path("/refs/{name}").HandlerFunc(httpx.WrapHandlerFunc(node.handleSetRef))
	sub.Methods(http.MethodDelete).Path("/refs/{name}").HandlerFunc(httpx.WrapHandlerFunc(node.handleDeleteRef))

	return router
}

func pathVar(req *http.Request, name string) (string, error) {
	v, err := url.PathUnescape(mux.Vars(req)[name])
	if err != nil {
		return "", httpx.Error(err, http.StatusBadRequest)
	}
	return v, nil
}

func keyVar(req *http.Request) (blob.Key, error) {
	str, err := pathVar(req, "key")
	if err != nil {
		return blob.Key{}, err
	}
	key, err := blob.ParseKey(str)
	if err != nil {
		return blob.Key{}, httpx.Error(err, http.StatusBadRequest)
	}
	return key, nil
}

func (n *Node) handleGetStatus(w http.ResponseWriter, req *http.Request) error {
	status, err := n.GetStatus()
	if err != nil {
		return err
	}
	return httpx.ResponseJSON(w, status)
}

func (n *Node) handleGetBlob(w http.ResponseWriter, req *http.Request) error {
	key, err := keyVar(req)
	if err != nil {
		return err
	}

	blob, err := n.GetBlob(key)
	if err != nil {
		return err
	}
	if blob.V == nil {
		return httpx.Error(nil, http.StatusNoContent)
	}

	w.Header().Set("Content-Type", httpx.OctetStreamContentType)
	w.Header().Set(ContentDigestHeaderKey, digest.FromBytes(blob.V.Data()).String())
	w.Write(blob.V.Data())
	return nil
}

func (n *Node) handleDeleteBlob(w http.ResponseWriter, req *http.Request) error {
	key, err := keyVar(req)
	if err != nil {
		return err
	}
	if err := n.DeleteBlob(key); err != nil {
		if errors.Is(err, blobio.ErrPinned) {
			return httpx.Error(err, http.StatusConflict)
		}
		return err
	}
	return nil
}

func (n *Node) handlePutBlob(w http.ResponseWriter, req *http.Request) error {
	if req.ContentLength > blob.DataLenHardLimit {
		return httpx.Error(errors.New("content length exceeds limit"), http.StatusNotAcceptable)
	}
	if req.ContentLength < 0 {
		return httpx.Error(errors.New("content length unknown"), http.StatusNotAcceptable)
	}
	data := make([]byte, req.ContentLength)
	if _, err := io.ReadFull(req.Body, data); err != nil {
		return err
	}

	key, err := n.PutBlob(data)
	if err != nil {
		return err
	}
	return httpx.ResponseJSON(w, &PutBlobResponse{
		Key: key,
	})
}

func (n *Node) handleGetBlobSlice(w http.ResponseWriter, req *http.Request) error {
	prefix := mux.Vars(req)["prefix"]

	blobIter, err := n.blobs.NewIterator(prefix)
	if err != nil {
		return httpx.Error(err, http.StatusBadRequest)
	}
	defer blobIter.Release()

	// chunked
	w.Header().Set("Content-Type", httpx.OctetStreamContentType)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	for blobIter.Next() {
		blob, err := blobIter.Blob()
		if err != nil {
			log.Errorf("iterate blob: %v", err)
			return nil
		}

		if err := blobio.WriteBlob(w, blob); err != nil {
			log.Error(err)
			return nil
		}
	}

	if err := blobIter.Error(); err != nil {
		log.Error("Failed to iterate slice, cause:", err)
		return nil
	}

	if err := blobio.EndWriteBlob(w); err != nil {
		log.Error(err)
	}
	return nil
}

func (n *Node) handleListRefs(w http.ResponseWriter, req *http.Request) error {
	entries, err := n.refs.List()
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []refs.Entry{}
	}
	return httpx.ResponseJSON(w, entries)
}

func (n *Node) handleGetRef(w http.ResponseWriter, req *http.Request) error {
	name, err := pathVar(req, "name")
	if err != nil {
		return err
	}
	key, err := n.refs.Get(name)
	if err != nil {
		return err
	}
	if key.V == nil {
		return httpx.Error(nil, http.StatusNoContent)
	}
	return httpx.ResponseJSON(w, &refs.Entry{Name: name, Key: *key.V})
}

func (n *Node) handleSetRef(w http.ResponseWriter, req *http.Request) error {
	name, err := pathVar(req, "name")
	if err != nil {
		return err
	}
	var reqBody SetRefRequest
	if err := json.NewDecoder(io.LimitReader(req.Body, 4096)).Decode(&reqBody); err != nil {
		return httpx.Error(err, http.StatusBadRequest)
	}
	if err := n.refs.Set(name, reqBody.Key); err != nil {
		if errors.Is(err, refs.ErrInvalidName) {
			return httpx.Error(err, http.StatusBadRequest)
		}
		return err
	}
	return nil
}

func (n *Node) handleDeleteRef(w http.ResponseWriter, req *http.Request) error {
	name, err := pathVar(req, "name")
	if err != nil {
		return err
	}
	return n.refs.Delete(name)
}
