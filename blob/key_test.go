package blob_test

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	. "github.com/vechain/blobstore/blob"
	yaml "gopkg.in/yaml.v2"
)

const zeroKeyString = "sha1-AAAAAAAAAAAAAAAAAAAAAAAAAAA="

func randomKey(t *testing.T) Key {
	b := make([]byte, KeyLength)
	rand.Read(b)
	key, err := KeyFromBytes(b)
	require.NoError(t, err)
	return key
}

func TestKey(t *testing.T) {
	assert := assert.New(t)

	key := KeyOfData([]byte{})
	assert.Equal("sha1-2jmj7l5rSw0yVb/vlWAYkK/YBwk=", key.String())
	assert.Equal("da39a3ee5e6b4b0d3255bfef95601890afd80709", key.ToHex())
	assert.Equal(SHA1, key.Algorithm())

	_key, err := ParseHexKey(key.ToHex())
	assert.Nil(err)
	assert.Equal(key, _key)

	data, _ := json.Marshal(&key)
	assert.Equal("\""+key.String()+"\"", string(data))

	var k Key
	assert.Nil(json.Unmarshal(data, &k))
	assert.Equal(key, k)
}

func TestZeroDigest(t *testing.T) {
	assert := assert.New(t)

	key, err := KeyFromBytes(make([]byte, KeyLength))
	assert.Nil(err)
	assert.Equal(zeroKeyString, key.String())
	assert.True(key.Equal(EmptyKey))

	decoded, err := ParseKey(zeroKeyString)
	assert.Nil(err)
	assert.Equal(make([]byte, KeyLength), decoded.Bytes())
}

func TestKeyFromBytesLength(t *testing.T) {
	for _, n := range []int{0, 1, 19, 21, 32} {
		_, err := KeyFromBytes(make([]byte, n))
		assert.ErrorIs(t, err, ErrInvalidDigestLength, "len %d", n)
	}
}

func TestRoundTrip(t *testing.T) {
	assert := assert.New(t)

	for i := 0; i < 100; i++ {
		key := randomKey(t)
		str := key.String()

		// deterministic
		assert.Equal(str, key.String())

		decoded, err := ParseKey(str)
		assert.Nil(err)
		assert.Equal(key.Bytes(), decoded.Bytes())
		assert.Equal(str, decoded.String())
	}
}

func TestEqualAcrossConstructors(t *testing.T) {
	assert := assert.New(t)

	key := randomKey(t)
	decoded, err := ParseKey(key.String())
	assert.Nil(err)
	fromHex, err := ParseHexKey(key.ToHex())
	assert.Nil(err)

	assert.True(key.Equal(decoded))
	assert.True(key.Equal(fromHex))
	assert.Equal(key.Hash(), decoded.Hash())
	assert.Equal(key.Hash(), fromHex.Hash())
	assert.True(key == decoded)

	set := map[Key]bool{key: true}
	assert.True(set[decoded])

	other := randomKey(t)
	assert.False(key.Equal(other))
}

func TestBytesIsCopy(t *testing.T) {
	assert := assert.New(t)

	key := randomKey(t)
	str := key.String()
	b := key.Bytes()
	for i := range b {
		b[i] ^= 0xff
	}
	assert.Equal(str, key.String())

	d := key.Digest()
	d[0] ^= 0xff
	assert.Equal(str, key.String())
}

func TestParseMalformed(t *testing.T) {
	cases := []struct {
		name string
		str  string
	}{
		{"empty", ""},
		{"no separator", "sha1AAAAAAAAAAAAAAAAAAAAAAAAAAA="},
		{"unknown tag", "md5-AAAAAAAAAAAAAAAAAAAAAAAAAAA="},
		{"tag case", "SHA1-AAAAAAAAAAAAAAAAAAAAAAAAAAA="},
		{"empty tag", "-AAAAAAAAAAAAAAAAAAAAAAAAAAA="},
		{"empty payload", "sha1-"},
		{"bad alphabet", "sha1-AAAAAAAAAAAAA*AAAAAAAAAAAAA="},
		{"url alphabet", "sha1-AAAAAAAAAAAAA_AAAAAAAAAAAAA="},
		{"missing padding", "sha1-AAAAAAAAAAAAAAAAAAAAAAAAAAA"},
		{"extra padding", "sha1-AAAAAAAAAAAAAAAAAAAAAAAAAAA=="},
		{"trailing bits", "sha1-AAAAAAAAAAAAAAAAAAAAAAAAAAB="},
		{"line break", "sha1-AAAAAAAAAAAAAA\nAAAAAAAAAAAAA="},
		{"19 bytes", "sha1-AAAAAAAAAAAAAAAAAAAAAAAAAA=="},
		{"21 bytes", "sha1-AAAAAAAAAAAAAAAAAAAAAAAAAAAA"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseKey(c.str)
			assert.ErrorIs(t, err, ErrMalformedKeyString)
		})
	}
}

func TestParseHexKeyErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := ParseHexKey("zz")
	assert.ErrorIs(err, ErrMalformedKeyString)
	_, err = ParseHexKey("abcd")
	assert.ErrorIs(err, ErrInvalidDigestLength)
}

func TestTextMarshal(t *testing.T) {
	assert := assert.New(t)

	type doc struct {
		Key  Key            `json:"key" yaml:"key"`
		Keys map[Key]string `json:"keys" yaml:"-"`
	}
	key := randomKey(t)
	in := doc{Key: key, Keys: map[Key]string{key: "v"}}

	data, err := json.Marshal(in)
	assert.Nil(err)
	var out doc
	assert.Nil(json.Unmarshal(data, &out))
	assert.Equal(in, out)

	data, err = yaml.Marshal(&in)
	assert.Nil(err)
	assert.Contains(string(data), key.String())
	var yout doc
	assert.Nil(yaml.Unmarshal(data, &yout))
	assert.Equal(key, yout.Key)

	var k Key
	assert.ErrorIs(json.Unmarshal([]byte(`"md5-AAAAAAAAAAAAAAAAAAAAAAAAAAA="`), &k), ErrMalformedKeyString)
}

func TestAlgorithm(t *testing.T) {
	assert := assert.New(t)

	assert.True(SHA1.Valid())
	assert.Equal(KeyLength, SHA1.Size())
	assert.False(Algorithm("md5").Valid())
	assert.Equal(0, Algorithm("md5").Size())
	assert.Equal(SHA1, Key{}.Algorithm())
}
