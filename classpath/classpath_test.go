package classpath

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/namenv/access"
	"github.com/dhamidi/namenv/classfile/classfiletest"
	"github.com/dhamidi/namenv/module"
)

func TestBinaryFolder(t *testing.T) {
	dir := t.TempDir()
	writeClass(t, dir, "p/Foo")
	writeClass(t, dir, "p/internal/Impl")
	rules, err := access.ParseRuleSet(access.Library, dir, []string{"-p/internal/**"})
	require.NoError(t, err)
	b := NewBinaryFolder(dir, false, rules)

	assert.True(t, b.IsPackage("p", ""))
	assert.True(t, b.IsPackage("p/internal", ""))
	assert.False(t, b.IsPackage("q", ""))

	a := b.FindClass("Foo.class", "p", "", "p/Foo.class")
	require.NotNil(t, a)
	assert.True(t, a.IsBinary())
	assert.Equal(t, "p/Foo", a.TypeName())
	assert.Nil(t, a.Restriction)
	assert.Equal(t, PriorityLibrary, a.Priority)

	a = b.FindClass("Impl.class", "p/internal", "", "p/internal/Impl.class")
	require.NotNil(t, a)
	require.NotNil(t, a.Restriction)
	assert.Equal(t, access.ForbiddenReference, a.Restriction.ProblemID())

	assert.Nil(t, b.FindClass("Bar.class", "p", "", "p/Bar.class"))

	t.Run("library listings are cached until reset", func(t *testing.T) {
		writeClass(t, dir, "p/Late")
		assert.Nil(t, b.FindClass("Late.class", "p", "", "p/Late.class"))
		b.Reset()
		assert.NotNil(t, b.FindClass("Late.class", "p", "", "p/Late.class"))
	})

	t.Run("undecodable class is skipped", func(t *testing.T) {
		writeFile(t, filepath.Join(dir, "p", "Broken.class"), []byte{0xCA, 0xFE})
		b.Reset()
		assert.Nil(t, b.FindClass("Broken.class", "p", "", "p/Broken.class"))
		assert.NotNil(t, b.FindClass("Foo.class", "p", "", "p/Foo.class"))
	})
}

func TestOutputFolderIsReadFresh(t *testing.T) {
	dir := t.TempDir()
	out := NewBinaryFolder(dir, true, nil)
	assert.Nil(t, out.FindClass("Foo.class", "p", "", "p/Foo.class"))
	writeClass(t, dir, "p/Foo")
	a := out.FindClass("Foo.class", "p", "", "p/Foo.class")
	require.NotNil(t, a)
	assert.Equal(t, PriorityOutput, a.Priority)
}

func TestModuleBinding(t *testing.T) {
	dir := t.TempDir()
	writeClass(t, dir, "p/Foo")
	b := NewBinaryFolder(dir, false, nil)
	assert.Empty(t, b.ModuleNames(nil))

	b.AcceptModule(&module.Descriptor{Name: "m"})
	assert.Equal(t, []string{"m"}, b.ModuleNames(nil))
	assert.Equal(t, []string{"m"}, b.ModuleNames([]string{"m", "x"}))
	assert.Empty(t, b.ModuleNames([]string{"x"}))
	assert.NotNil(t, b.Module("m"))

	a := b.FindClass("Foo.class", "p", "m", "p/Foo.class")
	require.NotNil(t, a)
	assert.Equal(t, "m", a.Module)
	assert.Nil(t, b.FindClass("Foo.class", "p", "other", "p/Foo.class"))
	assert.False(t, b.IsPackage("p", "other"))

	b.Reset()
	assert.Empty(t, b.ModuleNames(nil))
}

func TestLibrary(t *testing.T) {
	dir := t.TempDir()
	jar := filepath.Join(dir, "lib.jar")
	writeZip(t, jar, map[string][]byte{
		"p/q/Foo.class":        classBytes("p/q/Foo"),
		"p/q/Foo$Inner.class":  classBytes("p/q/Foo$Inner"),
		"META-INF/MANIFEST.MF": []byte("Manifest-Version: 1.0\n"),
	})
	lib := NewLibrary(jar, nil, 0)
	defer lib.Cleanup()

	assert.True(t, lib.IsPackage("p/q", ""))
	assert.True(t, lib.IsPackage("p", ""))
	assert.False(t, lib.IsPackage("META-INF", ""))

	a := lib.FindClass("Foo.class", "p/q", "", "p/q/Foo.class")
	require.NotNil(t, a)
	assert.Equal(t, "p/q/Foo", a.TypeName())
	assert.Same(t, lib, a.Location)
	assert.NotNil(t, lib.FindClass("Foo$Inner.class", "p/q", "", "p/q/Foo$Inner.class"))
	assert.Nil(t, lib.FindClass("Bar.class", "p/q", "", "p/q/Bar.class"))

	lib.Cleanup()
	assert.NotNil(t, lib.FindClass("Foo.class", "p/q", "", "p/q/Foo.class"), "reopens after cleanup")

	t.Run("default package", func(t *testing.T) {
		jar := filepath.Join(dir, "top.jar")
		writeZip(t, jar, map[string][]byte{
			"Foo.class":   classBytes("Foo"),
			"p/Bar.class": classBytes("p/Bar"),
		})
		lib := NewLibrary(jar, nil, 0)
		defer lib.Cleanup()

		assert.True(t, lib.IsPackage("", ""))
		a := lib.FindClass("Foo.class", "", "", "Foo.class")
		require.NotNil(t, a)
		assert.Equal(t, "Foo", a.TypeName())
		assert.NotNil(t, lib.FindClass("Bar.class", "p", "", "p/Bar.class"))
		assert.Nil(t, lib.FindClass("Bar.class", "", "", "Bar.class"))

		folder := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(folder, "Foo.class"), classBytes("Foo"), 0644))
		assert.NotNil(t, NewBinaryFolder(folder, false, nil).FindClass("Foo.class", "", "", "Foo.class"),
			"jars and folders agree on the default package")
	})

	t.Run("no default package", func(t *testing.T) {
		assert.False(t, lib.IsPackage("", ""))
	})
}

func TestLibraryMultiRelease(t *testing.T) {
	jar := filepath.Join(t.TempDir(), "mr.jar")
	writeZip(t, jar, map[string][]byte{
		"META-INF/MANIFEST.MF":             []byte("Multi-Release: true\n"),
		"p/Foo.class":                      classfiletest.Class("p/Foo").Bytes(),
		"META-INF/versions/11/p/Foo.class": classfiletest.Class("p/Foo").WithSourceFile("Foo11.java").Bytes(),
		"META-INF/versions/11/p/New.class": classBytes("p/New"),
	})

	base := NewLibrary(jar, nil, 8)
	a := base.FindClass("Foo.class", "p", "", "p/Foo.class")
	require.NotNil(t, a)
	assert.Equal(t, "", a.Binary.SourceFileName())
	assert.Nil(t, base.FindClass("New.class", "p", "", "p/New.class"))

	v17 := NewLibrary(jar, nil, 17)
	a = v17.FindClass("Foo.class", "p", "", "p/Foo.class")
	require.NotNil(t, a)
	assert.Equal(t, "Foo11.java", a.Binary.SourceFileName())
	assert.NotNil(t, v17.FindClass("New.class", "p", "", "p/New.class"))
}

func TestLibraryJmod(t *testing.T) {
	jmod := filepath.Join(t.TempDir(), "java.sql.jmod")
	writeZip(t, jmod, map[string][]byte{
		"classes/java/sql/Driver.class": classBytes("java/sql/Driver"),
		"lib/libfoo.so":                 {0},
	})
	lib := NewLibrary(jmod, nil, 0)
	assert.True(t, lib.IsPackage("java/sql", ""))
	assert.False(t, lib.IsPackage("lib", ""))
	assert.NotNil(t, lib.FindClass("Driver.class", "java/sql", "", "java/sql/Driver.class"))
}

func TestLibraryBroken(t *testing.T) {
	jar := filepath.Join(t.TempDir(), "broken.jar")
	writeFile(t, jar, []byte("garbage"))
	lib := NewLibrary(jar, nil, 0)
	assert.False(t, lib.IsPackage("p", ""))
	assert.Nil(t, lib.FindClass("Foo.class", "p", "", "p/Foo.class"))
}

func TestJrtImage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "java.base", module.InfoClass), classfiletest.ModuleInfo(classfiletest.Module{
		Name:    "java.base",
		Exports: []classfiletest.Exports{{Package: "java/lang"}},
	}).Bytes())
	writeClass(t, filepath.Join(root, "java.base"), "java/lang/Object")
	writeFile(t, filepath.Join(root, "java.sql", module.InfoClass), classfiletest.ModuleInfo(classfiletest.Module{
		Name:     "java.sql",
		Requires: []classfiletest.Requires{{Module: "java.base"}},
	}).Bytes())
	writeClass(t, filepath.Join(root, "java.sql"), "java/sql/Driver")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "not-a-module"), 0755))

	jrt := NewJrtImage(root, nil)
	assert.Equal(t, []string{"java.base", "java.sql"}, jrt.ModuleNames(nil))
	assert.Equal(t, []string{"java.sql"}, jrt.ModuleNames([]string{"java.sql"}))
	assert.Len(t, jrt.Modules(), 2)

	assert.True(t, jrt.IsPackage("java/sql", ""))
	assert.True(t, jrt.IsPackage("java/sql", "java.sql"))
	assert.False(t, jrt.IsPackage("java/sql", "java.base"))

	a := jrt.FindClass("Driver.class", "java/sql", "", "java/sql/Driver.class")
	require.NotNil(t, a)
	assert.Equal(t, "java.sql", a.Module)
	assert.Nil(t, jrt.FindClass("Driver.class", "java/sql", "java.base", "java/sql/Driver.class"))
}

func TestSourceFolder(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	bin := filepath.Join(src, "bin")
	writeFile(t, filepath.Join(src, "p", "Foo.java"), []byte("package p; class Foo {}"))
	writeFile(t, filepath.Join(src, "p", "Script.groovy"), []byte("println 1"))
	writeFile(t, filepath.Join(src, "p", "gen", "Gen.java"), []byte("package p.gen; class Gen {}"))
	writeFile(t, filepath.Join(src, "p", "notes.txt"), []byte("x"))
	writeFile(t, filepath.Join(src, "module-info.java"), []byte("module m {}"))
	writeFile(t, filepath.Join(bin, "Stale.java"), []byte("class Stale {}"))
	writeClass(t, bin, "p/Foo")
	writeClass(t, bin, "p/gen/Gen")

	_, err := NewSourceFolder(src, NewBinaryFolder(bin, true, nil), []string{"[oops"}, nil)
	assert.Error(t, err)

	sf, err := NewSourceFolder(src, NewBinaryFolder(bin, true, nil), nil, []string{"**/gen/**"})
	require.NoError(t, err)

	files, err := sf.SourceFiles()
	require.NoError(t, err)
	var names []string
	for _, f := range files {
		names = append(names, f.TypeName+"@"+f.Language)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"p/Foo@java", "p/Script@groovy"}, names)

	a := sf.FindClass("Foo.class", "p", "", "p/Foo.class")
	require.NotNil(t, a)
	assert.Same(t, sf, a.Location)
	assert.Equal(t, PriorityOutput, a.Priority)
	assert.Nil(t, sf.FindClass("Gen.class", "p/gen", "", "p/gen/Gen.class"), "excluded source hides its class")

	assert.True(t, sf.IsPackage("p", ""))
	assert.True(t, sf.IsExcluded("p/gen/Gen.java"))
}

func TestKeysAndDedup(t *testing.T) {
	a := NewBinaryFolder("/x/bin", true, nil)
	b := NewBinaryFolder("/x/./bin/", false, nil)
	c := NewLibrary("/x/bin", nil, 0)

	assert.Equal(t, a.Key(), b.Key())
	assert.True(t, Equal(a, b))
	assert.NotEqual(t, a.Key(), c.Key())
	assert.False(t, Equal(a, c))

	got := Dedup([]Location{a, c, b})
	assert.Equal(t, []Location{a, c}, got)
}
