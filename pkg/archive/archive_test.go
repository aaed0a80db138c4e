package archive

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/itnotebooks/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gozip "github.com/to404hanga/pkg404/gotools/zip"
)

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestPackUnpack(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := filepath.Join(dir, "project")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "src", "main", "java"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "empty"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "AUTHORS.csv"), []byte("a1;Ana\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "src", "main", "java", "Main.java"), []byte("class Main {}"), 0o644))

	s := NewZipService(0)
	zipPath := filepath.Join(dir, "out", "project.zip")
	require.NoError(t, s.Pack(ctx, src, zipPath))

	dest := filepath.Join(dir, "unpacked")
	require.NoError(t, s.Unpack(ctx, zipPath, dest))
	b, err := os.ReadFile(filepath.Join(dest, "src", "main", "java", "Main.java"))
	require.NoError(t, err)
	assert.Equal(t, "class Main {}", string(b))
	assert.FileExists(t, filepath.Join(dest, "AUTHORS.csv"))
	assert.DirExists(t, filepath.Join(dest, "empty"))
}

func TestUnpackRejectsZipSlip(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "evil.zip")
	writeZip(t, zipPath, map[string]string{"../escape.txt": "x"})

	err := NewZipService(0).Unpack(context.Background(), zipPath, filepath.Join(dir, "dest"))
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "escape.txt"))
}

func TestUnpackEntrySizeLimit(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "big.zip")
	writeZip(t, zipPath, map[string]string{"big.txt": strings.Repeat("a", 64)})

	err := NewZipService(32).Unpack(context.Background(), zipPath, filepath.Join(dir, "dest"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 32 bytes")

	assert.NoError(t, NewZipService(64).Unpack(context.Background(), zipPath, filepath.Join(dir, "ok")))
}

func TestUnpackNotZip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))
	assert.Error(t, NewZipService(0).Unpack(context.Background(), path, filepath.Join(dir, "dest")))
}

func TestPackKeepsNestedArchives(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := filepath.Join(dir, "project")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "lib", "fixtures.zip"), []byte("nested"), 0o644))

	s := NewZipService(0)
	zipPath := filepath.Join(dir, "project.zip")
	require.NoError(t, s.Pack(ctx, src, zipPath))
	dest := filepath.Join(dir, "dest")
	require.NoError(t, s.Unpack(ctx, zipPath, dest))
	assert.FileExists(t, filepath.Join(dest, "lib", "fixtures.zip"))
}

func TestEncryptedPackUnpack(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := filepath.Join(dir, "project")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "AUTHORS.csv"), []byte("a1;Ana\n"), 0o644))

	enc := NewZipService(0, WithEncryption(gozip.EncryptConfig{Password: "s3cret", Enc: gozip.Default}))
	zipPath := filepath.Join(dir, "project.zip")
	require.NoError(t, enc.Pack(ctx, src, zipPath))

	dest := filepath.Join(dir, "dest")
	require.NoError(t, enc.Unpack(ctx, zipPath, dest))
	b, err := os.ReadFile(filepath.Join(dest, "AUTHORS.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a1;Ana\n", string(b))

	err = NewZipService(0).Unpack(ctx, zipPath, filepath.Join(dir, "plain"))
	assert.ErrorIs(t, err, ErrPasswordRequired)

	// 空密码不启用加密
	assert.Nil(t, NewZipService(0, WithEncryption(gozip.EncryptConfig{})).encrypt)
}
