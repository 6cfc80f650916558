package httpx_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	. "github.com/vechain/blobstore/utils/httpx"
)

func TestWrapHandlerFunc(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{nil, http.StatusOK},
		{Error(errors.New("bad"), http.StatusBadRequest), http.StatusBadRequest},
		{Error(nil, http.StatusNoContent), http.StatusNoContent},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		h := WrapHandlerFunc(func(w http.ResponseWriter, req *http.Request) error {
			return c.err
		})
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, c.status, rec.Code)

		err := HandleResponseError(rec.Result())
		if c.status >= 300 {
			assert.Equal(t, c.status, StatusCode(errors.Wrap(err, "wrapped")))
		} else {
			assert.Nil(t, err)
		}
	}
}

func TestResponseJSON(t *testing.T) {
	assert := assert.New(t)

	rec := httptest.NewRecorder()
	assert.Nil(ResponseJSON(rec, map[string]int{"a": 1}))
	assert.Equal(JSONContentType, rec.Header().Get("Content-Type"))
	assert.JSONEq(`{"a":1}`, rec.Body.String())
}

func TestIsCausedByContextCanceled(t *testing.T) {
	assert := assert.New(t)

	assert.False(IsCausedByContextCanceled(nil))
	assert.True(IsCausedByContextCanceled(context.Canceled))
	assert.True(IsCausedByContextCanceled(errors.Wrap(context.Canceled, "x")))
	assert.True(IsCausedByContextCanceled(&url.Error{Op: "Get", URL: "/", Err: context.Canceled}))
	assert.False(IsCausedByContextCanceled(errors.New("x")))
}
