package namenv

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/namenv/classfile/classfiletest"
	"github.com/dhamidi/namenv/problem"
	"github.com/dhamidi/namenv/project"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func writeClass(t *testing.T, root string, b *classfiletest.Builder) {
	t.Helper()
	writeFile(t, filepath.Join(root, filepath.FromSlash(b.Name)+".class"), b.Bytes())
}

func writeJar(t *testing.T, path string, classes ...*classfiletest.Builder) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	zw := zip.NewWriter(f)
	for _, c := range classes {
		w, err := zw.Create(c.Name + ".class")
		require.NoError(t, err)
		_, err = w.Write(c.Bytes())
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

// workspace writes a namenv.toml into a fresh directory and loads it.
func workspace(t *testing.T, toml string) *project.Workspace {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, project.FileName), []byte(toml))
	ws, err := project.LoadFrom(dir)
	require.NoError(t, err)
	return ws
}

func newEnv(t *testing.T, ws *project.Workspace, name string, mutate ...func(*Options)) (*Environment, *problem.Collector) {
	t.Helper()
	c := &problem.Collector{}
	opts := OptionsFrom(ws.Options)
	opts.Reporter = c
	for _, m := range mutate {
		m(&opts)
	}
	env, err := New(ws, name, opts)
	require.NoError(t, err)
	t.Cleanup(env.Cleanup)
	return env, c
}

func at(ws *project.Workspace, parts ...string) string {
	return filepath.Join(append([]string{ws.Root}, parts...)...)
}

func sprintf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
