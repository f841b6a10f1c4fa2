package namenv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/namenv/classfile/classfiletest"
	"github.com/dhamidi/namenv/module"
	"github.com/dhamidi/namenv/problem"
	"github.com/dhamidi/namenv/project"
)

const modularApp = `
[options]
allow-automatic-modules = true
add-reads = ["app=java.logging"]

[[project]]
name = "app"
  [[project.classpath]]
  kind = "source"
  path = "src"
  [[project.classpath]]
  kind = "jrt"
  path = "jdk"
  [[project.classpath]]
  kind = "library"
  path = "lib/commons-lang3-3.12.jar"
  module = true
  [[project.classpath]]
  kind = "library"
  path = "mods"
  module = true
`

func modularWorkspace(t *testing.T) *project.Workspace {
	t.Helper()
	ws := workspace(t, modularApp)
	writeClass(t, at(ws, "app", "jdk", "java.base"), classfiletest.ModuleInfo(classfiletest.Module{
		Name:    "java.base",
		Exports: []classfiletest.Exports{{Package: "java/lang"}},
	}))
	writeClass(t, at(ws, "app", "jdk", "java.base"), classfiletest.Class("java/lang/String"))
	writeClass(t, at(ws, "app", "jdk", "java.sql"), classfiletest.ModuleInfo(classfiletest.Module{
		Name:     "java.sql",
		Requires: []classfiletest.Requires{{Module: "java.base"}},
		Exports:  []classfiletest.Exports{{Package: "java/sql"}},
	}))
	writeClass(t, at(ws, "app", "jdk", "java.sql"), classfiletest.Class("java/sql/Driver"))

	writeJar(t, at(ws, "app", "lib", "commons-lang3-3.12.jar"), classfiletest.Class("org/apache/commons/lang3/StringUtils"))

	writeClass(t, at(ws, "app", "mods", "alpha"), classfiletest.ModuleInfo(classfiletest.Module{Name: "alpha"}))
	writeClass(t, at(ws, "app", "mods", "alpha"), classfiletest.Class("a/A"))
	writeJar(t, at(ws, "app", "mods", "beta.jar"),
		classfiletest.ModuleInfo(classfiletest.Module{Name: "beta"}),
		classfiletest.Class("b/B"))

	writeFile(t, at(ws, "app", "src", module.InfoJava), []byte("module app { requires java.base; }"))
	return ws
}

func TestModules(t *testing.T) {
	ws := modularWorkspace(t)
	env, _ := newEnv(t, ws, "app")

	assert.Equal(t, []string{"alpha", "app", "beta", "commons.lang3", "java.base", "java.sql"}, env.ModuleNames())
	assert.Equal(t, []string{"commons.lang3"}, env.AutomaticModules())

	app := env.Module("app")
	require.NotNil(t, app)
	assert.True(t, app.Reads("java.logging"), "--add-reads applied")
	assert.True(t, app.Reads("java.base"))
	assert.Nil(t, env.Module("java.logging"))

	tests := []struct {
		name       string
		wantModule string
	}{
		{"java/lang/String", "java.base"},
		{"java/sql/Driver", "java.sql"},
		{"java.sql:java/sql/Driver", "java.sql"},
		{"a/A", "alpha"},
		{"beta:b/B", "beta"},
		{"org/apache/commons/lang3/StringUtils", "commons.lang3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, err := env.FindType(tt.name)
			require.NoError(t, err)
			require.NotNil(t, answer)
			assert.Equal(t, tt.wantModule, answer.Module)
		})
	}

	for _, name := range []string{"java.base:java/sql/Driver", "nosuch:a/A", "alpha:b/B"} {
		answer, err := env.FindType(name)
		require.NoError(t, err)
		assert.Nil(t, answer, name)
	}

	writeClass(t, at(ws, "app", "bin"), classfiletest.Class("app/Main"))
	answer, err := env.FindTypeInModule("app/Main", "app")
	require.NoError(t, err)
	require.NotNil(t, answer)
	assert.Equal(t, "app", answer.Module)

	assert.True(t, env.IsPackageInModule("java/sql", "java.sql"))
	assert.False(t, env.IsPackageInModule("java/sql", "java.base"))

	closure, err := env.ModuleClosure()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "app", "beta", "commons.lang3", "java.base", "java.sql"}, closure)
}

func TestModulesRebindAfterReset(t *testing.T) {
	ws := modularWorkspace(t)
	env, _ := newEnv(t, ws, "app")
	env.SetNames(nil, nil)

	answer, err := env.FindType("a/A")
	require.NoError(t, err)
	require.NotNil(t, answer)
	assert.Equal(t, "alpha", answer.Module)
	assert.Equal(t, []string{"alpha"}, answer.Location.ModuleNames(nil))
}

func TestLimitModules(t *testing.T) {
	ws := modularWorkspace(t)
	env, _ := newEnv(t, ws, "app", func(o *Options) {
		o.LimitModules = []string{"java.base"}
	})

	assert.Equal(t, []string{"alpha", "app", "beta", "commons.lang3", "java.base"}, env.ModuleNames())

	answer, err := env.FindType("java/sql/Driver")
	require.NoError(t, err)
	assert.Nil(t, answer, "java.sql is outside the limited module graph")

	answer, err = env.FindType("java/lang/String")
	require.NoError(t, err)
	require.NotNil(t, answer)
	assert.Equal(t, "java.base", answer.Module)

	closure, err := env.ModuleClosure()
	require.NoError(t, err)
	assert.NotContains(t, closure, "java.sql")

	env, _ = newEnv(t, ws, "app", func(o *Options) {
		o.LimitModules = []string{"java.base"}
		o.AddModules = []string{"java.sql"}
	})
	assert.Contains(t, env.ModuleNames(), "java.sql")
}

func TestModuleNameMismatch(t *testing.T) {
	ws := workspace(t, `
[[project]]
name = "app"
  [[project.classpath]]
  kind = "library"
  path = "mods"
  module = true
`)
	writeFile(t, at(ws, "app", "mods", "foo", module.InfoJava), []byte("module bar {}"))

	c := &problem.Collector{}
	_, err := New(ws, "app", Options{Reporter: c})
	var mismatch *module.NameMismatchError
	require.True(t, errors.As(err, &mismatch), "got %v", err)
	assert.Equal(t, "bar", mismatch.Declared)
	assert.Equal(t, "foo", mismatch.Directory)
	assert.Len(t, c.Of(problem.ModuleNameMismatch), 1)
}
