package blob

import "github.com/vechain/blobstore/crypto"

// Algorithm tags the digest algorithm a key was produced with.
// It is the prefix of the canonical string form.
type Algorithm string

// SHA1 the only algorithm keys are currently produced with.
const SHA1 Algorithm = "sha1"

// algorithms known to the codec, by tag to digest size.
// Tags absent here are rejected when decoding.
var algorithms = map[Algorithm]int{
	SHA1: crypto.HashLength,
}

// Valid reports whether the tag is a registered algorithm.
func (a Algorithm) Valid() bool {
	_, ok := algorithms[a]
	return ok
}

// Size returns digest size in bytes, 0 for unknown tags.
func (a Algorithm) Size() int {
	return algorithms[a]
}

func (a Algorithm) String() string {
	return string(a)
}
