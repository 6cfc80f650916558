package blob

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"github.com/vechain/blobstore/crypto"
)

// KeyLength length of blob key digest.
const KeyLength = crypto.HashLength

const separator = '-'

// standard alphabet, padded, no line wrapping.
// Strict rejects non-zero trailing bits so that decoding is the exact inverse of encoding.
var encoding = base64.StdEncoding.Strict()

// EmptyKey a key with all zero bytes
var EmptyKey = Key{alg: SHA1}

// Key identifies a blob by the digest of its content.
// It's an immutable value; two keys are equal iff their digests are.
type Key struct {
	alg    Algorithm
	digest [KeyLength]byte
}

// KeyFromBytes builds a key from a precomputed digest.
func KeyFromBytes(b []byte) (Key, error) {
	if len(b) != KeyLength {
		return Key{}, errors.Wrapf(ErrInvalidDigestLength, "key from %d bytes", len(b))
	}
	key := Key{alg: SHA1}
	copy(key.digest[:], b)
	return key, nil
}

// KeyFromHash builds a key from the output of the digest primitive.
func KeyFromHash(h crypto.Hash) Key {
	return Key{alg: SHA1, digest: h}
}

// Algorithm returns the digest algorithm tag.
func (k Key) Algorithm() Algorithm {
	if k.alg == "" {
		return SHA1
	}
	return k.alg
}

// Digest returns the raw digest by value.
func (k Key) Digest() [KeyLength]byte {
	return k.digest
}

// Bytes returns a copy of the raw digest.
func (k Key) Bytes() []byte {
	b := make([]byte, KeyLength)
	copy(b, k.digest[:])
	return b
}

// Equal reports whether both keys carry the same digest.
func (k Key) Equal(other Key) bool {
	return k.digest == other.digest
}

// Hash returns a 64-bit hash of the digest, consistent with Equal.
func (k Key) Hash() uint64 {
	return xxhash.Sum64(k.digest[:])
}

// String encodes the key into its canonical form "<tag>-<base64>".
func (k Key) String() string {
	tag := k.Algorithm()
	var sb strings.Builder
	sb.Grow(len(tag) + 1 + encoding.EncodedLen(KeyLength))
	sb.WriteString(string(tag))
	sb.WriteByte(separator)
	sb.WriteString(encoding.EncodeToString(k.digest[:]))
	return sb.String()
}

// ParseKey decodes a key from its canonical form.
func ParseKey(str string) (Key, error) {
	i := strings.IndexByte(str, separator)
	if i < 0 {
		return Key{}, errors.Wrapf(ErrMalformedKeyString, "parse key %q: no separator", str)
	}
	alg := Algorithm(str[:i])
	if !alg.Valid() {
		return Key{}, errors.Wrapf(ErrMalformedKeyString, "parse key %q: unknown algorithm", str)
	}

	payload := str[i+1:]
	// the decoder skips line breaks, which would make the form ambiguous
	if strings.ContainsAny(payload, "\r\n") {
		return Key{}, errors.Wrapf(ErrMalformedKeyString, "parse key %q: line break in payload", str)
	}
	bin, err := encoding.DecodeString(payload)
	if err != nil {
		return Key{}, errors.Wrapf(ErrMalformedKeyString, "parse key %q: %v", str, err)
	}
	if len(bin) != alg.Size() {
		return Key{}, errors.Wrapf(ErrMalformedKeyString, "parse key %q: decoded %d bytes", str, len(bin))
	}

	key := Key{alg: alg}
	copy(key.digest[:], bin)
	return key, nil
}

// ToHex convert key digest into hex string (without '0x' prefix)
func (k Key) ToHex() string {
	return hex.EncodeToString(k.digest[:])
}

// ParseHexKey parse hex string to blob key
func ParseHexKey(str string) (Key, error) {
	bin, err := hex.DecodeString(str)
	if err != nil {
		return Key{}, errors.Wrapf(ErrMalformedKeyString, "parse hex key: %v", err)
	}
	key, err := KeyFromBytes(bin)
	if err != nil {
		return Key{}, errors.Wrap(err, "parse hex key")
	}
	return key, nil
}

// MarshalText implements encoding.TextMarshaler.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Key) UnmarshalText(text []byte) error {
	key, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = key
	return nil
}

// UnmarshalJSON unmarshal JSON
func (k *Key) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.Wrap(err, "unmarshal key")
	}
	key, err := ParseKey(str)
	if err != nil {
		return errors.Wrap(err, "unmarshal key")
	}
	*k = key
	return nil
}

// MarshalJSON Marshal JSON
func (k Key) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(k.String())
	if err != nil {
		return nil, errors.Wrap(err, "marshal key")
	}
	return data, nil
}
