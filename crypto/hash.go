// Package crypto provides the digest primitive blob keys are derived from.
package crypto

import (
	"crypto/sha1"
	"encoding/hex"
	"hash"
	"io"

	"github.com/pkg/errors"
)

// HashLength length of hash in bytes
const HashLength = sha1.Size

// Hash hash type
type Hash [HashLength]byte

// ToHex convert hash into hex string (without '0x' prefix)
func (h Hash) ToHex() string {
	return hex.EncodeToString(h[:])
}

// NewHasher returns a streaming hasher.
// Sum(nil) of the returned hasher yields exactly HashLength bytes.
func NewHasher() hash.Hash {
	return sha1.New()
}

// HashSum compute hash of data
func HashSum(data []byte) Hash {
	return sha1.Sum(data)
}

// HashReader streams r through the hasher until EOF.
// It returns the hash and the number of bytes consumed.
func HashReader(r io.Reader) (Hash, int64, error) {
	h := NewHasher()
	n, err := io.Copy(h, r)
	if err != nil {
		return Hash{}, n, errors.Wrap(err, "hash reader")
	}
	var sum Hash
	copy(sum[:], h.Sum(nil))
	return sum, n, nil
}
