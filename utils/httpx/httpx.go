// Package httpx helpers for http handlers and clients.
package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// content types
const (
	JSONContentType        = "application/json; charset=utf-8"
	OctetStreamContentType = "application/octet-stream"
	TextContentType        = "text/plain; charset=utf-8"
)

// HandlerFunc http handler returning error
type HandlerFunc func(w http.ResponseWriter, req *http.Request) error

type httpError struct {
	cause  error
	status int
}

func (e *httpError) Error() string {
	if e.cause == nil {
		return http.StatusText(e.status)
	}
	return e.cause.Error()
}

func (e *httpError) Cause() error {
	return e.cause
}

// Error attaches http status to cause. cause can be nil.
func Error(cause error, status int) error {
	return &httpError{cause: cause, status: status}
}

// WrapHandlerFunc converts HandlerFunc into http.HandlerFunc.
// Errors not created by Error respond 500.
func WrapHandlerFunc(f HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := f(w, req)
		if err == nil {
			return
		}
		if he, ok := err.(*httpError); ok {
			if he.cause == nil {
				w.WriteHeader(he.status)
				return
			}
			http.Error(w, he.cause.Error(), he.status)
			return
		}
		if !IsCausedByContextCanceled(err) {
			log.Warnf("%s %s: %v", req.Method, req.URL.Path, err)
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ResponseJSON write obj in JSON
func ResponseJSON(w http.ResponseWriter, obj interface{}) error {
	w.Header().Set("Content-Type", JSONContentType)
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		return errors.Wrap(err, "response json")
	}
	return nil
}

// ResponseError error responded by remote
type ResponseError struct {
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("remote: %d %s", e.StatusCode, e.Message)
}

// StatusCode returns http status carried by err, 0 if none.
func StatusCode(err error) int {
	var re *ResponseError
	if errors.As(err, &re) {
		return re.StatusCode
	}
	return 0
}

// HandleResponseError returns *ResponseError for non-2xx responses.
func HandleResponseError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &ResponseError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(data)),
	}
}

// IsCausedByContextCanceled tests whether err caused by context canceled
func IsCausedByContextCanceled(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	return errors.Cause(err) == context.Canceled
}
