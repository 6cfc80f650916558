package key

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/blobstore/blob"
)

func TestSumFiles(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	var paths []string
	for i := 0; i < 10; i++ {
		path := filepath.Join(dir, strconv.Itoa(i))
		require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(i)), 0o644))
		paths = append(paths, path)
	}

	keys, err := SumFiles(context.Background(), paths, 3)
	assert.Nil(err)
	for i, key := range keys {
		assert.Equal(blob.KeyOfData([]byte(strconv.Itoa(i))), key)
	}

	buf := &bytes.Buffer{}
	printSums(buf, paths[:1], keys[:1])
	assert.Equal(keys[0].String()+"  "+paths[0]+"\n", buf.String())

	_, err = SumFiles(context.Background(), append(paths, filepath.Join(dir, "missing")), 3)
	assert.NotNil(err)
}
