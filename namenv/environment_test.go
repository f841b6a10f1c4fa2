package namenv

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/namenv/access"
	"github.com/dhamidi/namenv/classfile/classfiletest"
	"github.com/dhamidi/namenv/classpath"
	"github.com/dhamidi/namenv/flow"
	"github.com/dhamidi/namenv/module"
	"github.com/dhamidi/namenv/problem"
)

const appWithJar = `
[[project]]
name = "app"
  [[project.classpath]]
  kind = "source"
  path = "src"
  [[project.classpath]]
  kind = "library"
  path = "lib/foo.jar"
`

func TestOutputShadowsLibrary(t *testing.T) {
	ws := workspace(t, appWithJar)
	jar := at(ws, "app", "lib", "foo.jar")
	writeJar(t, jar, classfiletest.Class("p/Foo").WithSourceFile("Stale.java"))
	writeFile(t, at(ws, "app", "src", "p", "Foo.java"), []byte("package p; class Foo {}"))

	env, _ := newEnv(t, ws, "app")

	bin := at(ws, "app", "bin")
	info, err := os.Stat(bin)
	require.NoError(t, err, "output folder is created")
	assert.True(t, info.IsDir())

	locs := env.BinaryLocations()
	require.Len(t, locs, 2)
	assert.True(t, locs[0].IsOutputFolder())
	assert.Equal(t, jar, locs[1].Path())

	answer, err := env.FindType("p/Foo")
	require.NoError(t, err)
	require.True(t, answer.IsBinary())
	assert.Equal(t, jar, answer.Location.Path())
	assert.Equal(t, "Stale.java", answer.Binary.SourceFileName())

	// compile src/p/Foo.java into bin
	writeClass(t, bin, classfiletest.Class("p/Foo").WithSourceFile("Foo.java"))
	env.SetNames(nil, nil)

	answer, err = env.FindType("p.Foo")
	require.NoError(t, err)
	require.True(t, answer.IsBinary())
	assert.Equal(t, bin, answer.Location.Path())
	assert.Equal(t, "Foo.java", answer.Binary.SourceFileName())
	assert.Equal(t, classpath.PriorityOutput, answer.Priority)

	answer, err = env.FindType("p/Missing")
	require.NoError(t, err)
	assert.Nil(t, answer)
}

func TestSuggestedAnswers(t *testing.T) {
	const toml = `
[options]
parallel-lookup = %v

[[project]]
name = "app"
  [[project.classpath]]
  kind = "library"
  path = "first.jar"
  rules = [%q]
  [[project.classpath]]
  kind = "library"
  path = "second.jar"
  rules = [%q]
`
	tests := []struct {
		name         string
		first, other string
		want         string
		restriction  access.ProblemID
	}{
		{"unrestricted beats suggestion", "~?p/**", "+p/**", "second.jar", access.NoProblem},
		{"first suggestion wins", "~?p/**", "~?p/**", "first.jar", access.DiscouragedReference},
		{"lesser restriction wins", "-?p/**", "~?p/**", "second.jar", access.DiscouragedReference},
		{"non ignorable answer is final", "-p/**", "+p/**", "first.jar", access.ForbiddenReference},
		{"forbidden is not better than discouraged", "~?p/**", "-p/**", "first.jar", access.DiscouragedReference},
	}
	for _, parallel := range []bool{false, true} {
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				ws := workspace(t, sprintf(toml, parallel, tt.first, tt.other))
				writeJar(t, at(ws, "app", "first.jar"), classfiletest.Class("p/Foo"))
				writeJar(t, at(ws, "app", "second.jar"), classfiletest.Class("p/Foo"))
				env, _ := newEnv(t, ws, "app")

				answer, err := env.FindType("p/Foo")
				require.NoError(t, err)
				require.NotNil(t, answer)
				assert.Equal(t, tt.want, filepath.Base(answer.Location.Path()))
				assert.Equal(t, tt.restriction, answer.Restriction.ProblemID())
			})
		}
	}
}

func TestReportRestriction(t *testing.T) {
	ws := workspace(t, `
[[project]]
name = "app"
  [[project.classpath]]
  kind = "library"
  path = "a.jar"
  rules = ["+p/api/**", "~p/impl/**", "-**"]
`)
	writeJar(t, at(ws, "app", "a.jar"),
		classfiletest.Class("p/api/Foo"),
		classfiletest.Class("p/impl/Bar"),
		classfiletest.Class("p/secret/Baz"))
	env, c := newEnv(t, ws, "app")

	for _, name := range []string{"p/api/Foo", "p/impl/Bar", "p/secret/Baz", "p/Missing"} {
		answer, err := env.FindType(name)
		require.NoError(t, err)
		env.ReportRestriction(name, answer)
	}

	diags := c.Diagnostics()
	require.Len(t, diags, 2)
	assert.Equal(t, problem.DiscouragedReference, diags[0].ID)
	assert.Equal(t, problem.Warning, diags[0].Severity)
	assert.Equal(t, "p/impl/Bar", diags[0].Subject)
	assert.Equal(t, problem.ForbiddenReference, diags[1].ID)
	assert.Equal(t, problem.Error, diags[1].Severity)
	assert.Equal(t, "forbidden reference (rule -** on library a.jar)", diags[1].Message)
}

func TestIgnoreAccessRules(t *testing.T) {
	ws := workspace(t, `
[options]
ignore-access-rules = true
[[project]]
name = "app"
  [[project.classpath]]
  kind = "library"
  path = "a.jar"
  rules = ["-**"]
`)
	writeJar(t, at(ws, "app", "a.jar"), classfiletest.Class("p/Foo"))
	env, _ := newEnv(t, ws, "app")
	answer, err := env.FindType("p/Foo")
	require.NoError(t, err)
	assert.Nil(t, answer.Restriction)
}

func TestSetNames(t *testing.T) {
	ws := workspace(t, appWithJar)
	writeJar(t, at(ws, "app", "lib", "foo.jar"), classfiletest.Class("p/Gone"))
	env, _ := newEnv(t, ws, "app")
	src := env.SourceLocations()[0]

	unit := func(rel string) *classpath.SourceFile {
		sf := classpath.NewSourceFile(filepath.Join(src.Path(), rel), rel)
		sf.Folder = src
		return sf
	}
	env.SetNames(
		[]string{"p/Gone", "mod.a:p/Other"},
		[]*classpath.SourceFile{unit("p/Unit.java"), unit("p/Script.groovy"), unit("p/A.java"), unit("p/A$B.java")},
	)

	t.Run("initial names answer nothing", func(t *testing.T) {
		answer, err := env.FindType("p/Gone")
		require.NoError(t, err)
		assert.Nil(t, answer)
	})

	t.Run("additional units", func(t *testing.T) {
		answer, err := env.FindType("p/Unit")
		require.NoError(t, err)
		require.True(t, answer.IsSource())
		assert.Equal(t, "p/Unit", answer.Source.TypeName)
		assert.Same(t, src, answer.Location)

		answer, err = env.FindType("p/Unit$Inner")
		require.NoError(t, err)
		require.True(t, answer.IsSource())
		assert.Equal(t, "p/Unit", answer.Source.TypeName)

		answer, err = env.FindType("p/A$B")
		require.NoError(t, err)
		require.True(t, answer.IsSource())
		assert.Equal(t, "p/A$B", answer.Source.TypeName)

		answer, err = env.FindType("p/Script")
		require.NoError(t, err)
		require.True(t, answer.IsSource())
	})

	t.Run("skipped languages", func(t *testing.T) {
		env.SkipAdditionalUnits(classpath.LanguageGroovy)
		answer, err := env.FindType("p/Script")
		require.NoError(t, err)
		assert.Nil(t, answer)
	})

	t.Run("incremental build aborts", func(t *testing.T) {
		env.SetIncremental(true)
		defer env.SetIncremental(false)

		_, err := env.FindType("p/Gone")
		var abort *AbortIncrementalBuildError
		require.True(t, errors.As(err, &abort))
		assert.Equal(t, "p/Gone", abort.TypeName)

		_, err = env.FindType("mod.a:p/Other")
		require.Error(t, err)

		answer, err := env.FindType("p/Other")
		require.NoError(t, err)
		assert.Nil(t, answer)
	})

	t.Run("new round forgets names", func(t *testing.T) {
		env.SetNames(nil, nil)
		answer, err := env.FindType("p/Gone")
		require.NoError(t, err)
		assert.True(t, answer.IsBinary())
		answer, err = env.FindType("p/Unit")
		require.NoError(t, err)
		assert.Nil(t, answer)
	})
}

func TestProjectEntries(t *testing.T) {
	ws := workspace(t, `
[[project]]
name = "core"
  [[project.classpath]]
  kind = "source"
  path = "src/main"
  [[project.classpath]]
  kind = "source"
  path = "src/gen"

[[project]]
name = "unbuilt"
output = "never"
  [[project.classpath]]
  kind = "source"
  path = "src"

[[project]]
name = "app"
  [[project.classpath]]
  kind = "source"
  path = "src"
  [[project.classpath]]
  kind = "project"
  path = "core"
  rules = ["-p/internal/**"]
  [[project.classpath]]
  kind = "project"
  path = "unbuilt"
`)
	coreBin := at(ws, "core", "bin")
	writeClass(t, coreBin, classfiletest.Class("p/Core"))
	writeClass(t, coreBin, classfiletest.Class("p/internal/Impl"))

	core, _ := newEnv(t, ws, "core")
	assert.Len(t, core.SourceLocations(), 2)
	require.Len(t, core.BinaryLocations(), 1, "shared output folder appears once")

	env, _ := newEnv(t, ws, "app")
	locs := env.BinaryLocations()
	require.Len(t, locs, 2, "missing output of unbuilt is skipped")
	assert.Equal(t, at(ws, "app", "bin"), locs[0].Path())
	assert.Equal(t, coreBin, locs[1].Path())
	assert.True(t, locs[1].IsOutputFolder())

	answer, err := env.FindType("p/Core")
	require.NoError(t, err)
	require.True(t, answer.IsBinary())
	assert.Nil(t, answer.Restriction)

	answer, err = env.FindType("p/internal/Impl")
	require.NoError(t, err)
	require.NotNil(t, answer.Restriction)
	assert.Equal(t, access.ForbiddenReference, answer.Restriction.ProblemID())
	assert.Equal(t, access.Project, answer.Restriction.EntryKind)

	assert.True(t, env.IsPackage("p/internal"))
	assert.True(t, env.IsPackage("p"))
	assert.False(t, env.IsPackage("q"))

	_, err = New(ws, "nope", Options{})
	assert.Error(t, err)
}

func TestIsPackageInSources(t *testing.T) {
	ws := workspace(t, appWithJar)
	writeJar(t, at(ws, "app", "lib", "foo.jar"), classfiletest.Class("lib/pkg/Foo"))
	writeFile(t, at(ws, "app", "src", "only", "source", "X.java"), []byte("package only.source;"))
	env, _ := newEnv(t, ws, "app")

	assert.True(t, env.IsPackage("lib/pkg"))
	assert.True(t, env.IsPackage("lib"))
	assert.True(t, env.IsPackage("only.source"))
	assert.False(t, env.IsPackage("nowhere"))

	files, err := env.SourceFiles()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "only/source/X", files[0].TypeName)
}

func TestMissingLibrary(t *testing.T) {
	ws := workspace(t, appWithJar)

	env, c := newEnv(t, ws, "app")
	assert.Len(t, env.BinaryLocations(), 1)
	assert.Len(t, c.Of(problem.ClasspathIOError), 1)

	_, err := New(ws, "app", Options{PropagateIOErrors: true})
	assert.Error(t, err)
}

func TestMalformedModuleOption(t *testing.T) {
	ws := workspace(t, appWithJar)
	c := &problem.Collector{}
	_, err := New(ws, "app", Options{AddReads: []string{"a-without-target"}, Reporter: c})
	require.Error(t, err)
	assert.True(t, errors.Is(err, module.ErrMalformedOption))
	assert.Len(t, c.Of(problem.MalformedModuleOption), 1)
}

func TestHierarchy(t *testing.T) {
	ws := workspace(t, appWithJar)
	writeJar(t, at(ws, "app", "lib", "foo.jar"),
		classfiletest.Class("com/acme/BoomException").Extends("java/io/IOException"),
		classfiletest.Class("com/acme/Fizzle").Extends("com/acme/BoomException"),
	)
	env, _ := newEnv(t, ws, "app")
	h := env.Hierarchy()

	assert.True(t, flow.IsSubtype(h, "com/acme/Fizzle", flow.Exception))
	assert.False(t, flow.IsUnchecked(h, "com/acme/Fizzle"))

	env, c := newEnv(t, ws, "app", func(o *Options) { o.StrictExceptionHandlers = true })
	checker := env.Checker()
	assert.True(t, checker.Strict)
	checker.CheckMethod(&flow.Method{Name: "run", Body: []flow.Statement{
		flow.Try{
			Body: []flow.Statement{flow.Invoke{Name: "boom", Throws: []string{"com/acme/Fizzle"}}},
			Catches: []flow.Catch{
				{Types: []string{"com/acme/BoomException"}, Line: 3},
				{Types: []string{"java/io/IOException"}, Line: 4},
			},
		},
	}})
	diags := c.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, problem.UnreachableCatchBlock, diags[0].ID)
	assert.Equal(t, 4, diags[0].Line)
}
