package kv_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	. "github.com/vechain/blobstore/kv"
)

func TestRange(t *testing.T) {
	assert := assert.New(t)

	r1, err := NewRangeWithHexPrefix("a")
	assert.Nil(err)

	from, _ := hex.DecodeString("a0")
	to, _ := hex.DecodeString("b0")
	assert.Equal(NewRange(from, to), r1)

	r2, err := NewRangeWithHexPrefix("2f01")
	assert.Nil(err)
	assert.Equal(NewRange([]byte{0x2f, 0x01}, []byte{0x2f, 0x02}), r2)

	// no upper bound past 0xff...
	assert.Equal(NewRange([]byte{0xff}, nil), NewRangeWithBytesPrefix([]byte{0xff}))
	assert.Equal(NewRange([]byte{0x01, 0xff}, []byte{0x02}), NewRangeWithBytesPrefix([]byte{0x01, 0xff}))

	_, err = NewRangeWithHexPrefix("xy")
	assert.NotNil(err)
	_, err = NewRangeWithHexPrefix("x")
	assert.NotNil(err)
}
