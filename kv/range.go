package kv

import (
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Range describes key range [from, to) of kv store.
// A nil bound is open.
type Range struct {
	from []byte
	to   []byte
}

// NewRange create a range.
func NewRange(from []byte, to []byte) *Range {
	return &Range{
		from: from,
		to:   to,
	}
}

func (r *Range) toUtil() *util.Range {
	if r == nil {
		return nil
	}
	return &util.Range{Start: r.from, Limit: r.to}
}

// prefixLimit returns the smallest key greater than every key with the prefix,
// nil when there is none.
func prefixLimit(prefix []byte) []byte {
	for i := len(prefix) - 1; i >= 0; i-- {
		if c := prefix[i]; c < 0xff {
			limit := make([]byte, i+1)
			copy(limit, prefix)
			limit[i] = c + 1
			return limit
		}
	}
	return nil
}

// NewRangeWithBytesPrefix create a range defined by bytes prefix.
func NewRangeWithBytesPrefix(prefix []byte) *Range {
	return &Range{from: prefix, to: prefixLimit(prefix)}
}

// NewRangeWithHexPrefix create a range defined by hex prefix.
// The hex can be odd.
func NewRangeWithHexPrefix(hexPrefix string) (*Range, error) {
	if len(hexPrefix)%2 == 0 {
		prefix, err := hex.DecodeString(hexPrefix)
		if err != nil {
			return nil, errors.Wrap(err, "new range")
		}
		return NewRangeWithBytesPrefix(prefix), nil
	}

	// odd hex spans [x0, xf]
	start, err := hex.DecodeString(hexPrefix + "0")
	if err != nil {
		return nil, errors.Wrap(err, "new range")
	}
	end, err := hex.DecodeString(hexPrefix + "f")
	if err != nil {
		return nil, errors.Wrap(err, "new range")
	}
	return &Range{from: start, to: prefixLimit(end)}, nil
}
