package classpath

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/namenv/classfile/classfiletest"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func writeClass(t *testing.T, root, name string) {
	t.Helper()
	writeFile(t, filepath.Join(root, filepath.FromSlash(name)+".class"), classfiletest.Class(name).Bytes())
}

func writeZip(t *testing.T, path string, files map[string][]byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	zw := zip.NewWriter(f)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func classBytes(name string) []byte {
	return classfiletest.Class(name).Bytes()
}
