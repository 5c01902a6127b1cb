package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
warehouse:
  path: /var/lib/warehouse
s3:
  bucket: lake-bucket
  prefix: tables
  region: us-east-1
tables:
  - namespace: db
    name: events
  - namespace: db
    name: users
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/warehouse", cfg.Warehouse.Path)
	assert.Equal(t, "lake-bucket", cfg.S3.Bucket)
	require.Len(t, cfg.Tables, 2)
	assert.Equal(t, "events", cfg.Tables[0].Name)
	assert.Equal(t, "db", cfg.Tables[1].Namespace)
}

func TestLoadConfigMissing(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
