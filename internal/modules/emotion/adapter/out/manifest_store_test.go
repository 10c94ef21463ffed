package out_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	emotionout "mindtrack/internal/modules/emotion/adapter/out"
)

func writeManifests(t *testing.T, base, raw string) {
	t.Helper()
	dir := filepath.Join(base, "classifiers")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "classifiers.json"), []byte(raw), 0o644))
}

func TestFileManifestStoreLoadMissingReturnsEmpty(t *testing.T) {
	t.Parallel()
	manifests, err := emotionout.NewFileManifestStore(t.TempDir()).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, manifests)
}

func TestFileManifestStoreResolvesRelativeBinary(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	writeManifests(t, base, `[
  {
    "name": "reference",
    "version": "1.0.0",
    "binary": "classifiers/classifier-reference",
    "sha256": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
    "enabled": true
  }
]`)
	manifests, err := emotionout.NewFileManifestStore(base).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, manifests, 1)
	assert.Equal(t, filepath.Join(base, "classifiers", "classifier-reference"), manifests[0].Binary)
}

func TestFileManifestStoreRejectsUnknownField(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	writeManifests(t, base, `[{"name":"reference","version":"1.0.0","binary":"/tmp/x","sha256":"","enabled":true,"capabilities":["command"]}]`)
	_, err := emotionout.NewFileManifestStore(base).Load(context.Background())
	require.Error(t, err)
}

func TestFileManifestStoreRejectsDuplicateNames(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	writeManifests(t, base, `[
  {"name":"reference","version":"1.0.0","binary":"/opt/a","sha256":"","enabled":true},
  {"name":"reference","version":"1.1.0","binary":"/opt/b","sha256":"","enabled":false}
]`)
	_, err := emotionout.NewFileManifestStore(base).Load(context.Background())
	require.ErrorContains(t, err, "duplicate classifier")
}
