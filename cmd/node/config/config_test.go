package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	. "github.com/vechain/blobstore/cmd/node/config"
)

func TestUnmarshal(t *testing.T) {
	assert := assert.New(t)

	cfg, err := Unmarshal([]byte(`
bind: 127.0.0.1:9000
logLevel: debug
scrubInterval: 30m
store:
  compressThreshold: 1024
  noSync: true
`))
	require.NoError(t, err)
	assert.Equal("127.0.0.1:9000", cfg.Bind)
	assert.Equal(30*time.Minute, cfg.ScrubInterval)
	assert.Equal(1024, cfg.Store.CompressThreshold)
	assert.True(cfg.Store.NoSync)
	// defaults kept
	assert.Equal(128, cfg.Store.CacheSize)

	lvl, err := cfg.Level()
	assert.Nil(err)
	assert.Equal(log.DebugLevel, lvl)
}

func TestInvalid(t *testing.T) {
	assert := assert.New(t)

	_, err := Unmarshal([]byte("logLevel: loud\n"))
	assert.NotNil(err)
	_, err = Unmarshal([]byte("bind: \"\"\n"))
	assert.NotNil(err)
	_, err = Unmarshal([]byte("unknownField: 1\n"))
	assert.NotNil(err)
}

func TestMarshalLoad(t *testing.T) {
	assert := assert.New(t)

	cfg := Default()
	cfg.Dir = "/var/lib/blobstore"
	data, err := cfg.Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "node.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := Load(path)
	assert.Nil(err)
	assert.Equal(cfg, loaded)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NotNil(err)
}
