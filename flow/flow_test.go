package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/namenv/problem"
)

const (
	ioException  = "java/io/IOException"
	fileNotFound = "java/io/FileNotFoundException"
	npe          = "java/lang/NullPointerException"
)

func check(t *testing.T, strict bool, m *Method) (*problem.Collector, Result) {
	t.Helper()
	c := &problem.Collector{}
	checker := NewChecker(nil, c)
	checker.Strict = strict
	return c, checker.CheckMethod(m)
}

func ids(c *problem.Collector) []problem.ID {
	var out []problem.ID
	for _, d := range c.Diagnostics() {
		out = append(out, d.ID)
	}
	return out
}

func TestFlowInfo(t *testing.T) {
	a := FlowInfo{}.Assign(0).Assign(70)
	b := FlowInfo{}.Assign(0)

	assert.True(t, a.IsDefinitelyAssigned(70))
	assert.False(t, b.IsDefinitelyAssigned(70))
	assert.Equal(t, 2, a.AssignedCount())

	m := a.MergedWith(b)
	assert.True(t, m.IsDefinitelyAssigned(0))
	assert.False(t, m.IsDefinitelyAssigned(70))

	assert.Equal(t, a, DeadEnd().MergedWith(a))
	assert.Equal(t, b, b.MergedWith(DeadEnd()))
	assert.True(t, DeadEnd().IsDefinitelyAssigned(5))

	c := b.Copy()
	c = c.Assign(1)
	assert.False(t, b.IsDefinitelyAssigned(1), "copy must not alias")

	assert.True(t, b.AddInitializationsFrom(a).IsDefinitelyAssigned(70))
}

func TestHierarchy(t *testing.T) {
	assert.True(t, IsSubtype(BuiltinHierarchy, fileNotFound, Exception))
	assert.False(t, IsSubtype(BuiltinHierarchy, Exception, fileNotFound))
	assert.True(t, IsUnchecked(BuiltinHierarchy, npe))
	assert.False(t, IsUnchecked(BuiltinHierarchy, ioException))
	assert.False(t, IsUnchecked(BuiltinHierarchy, "com/acme/Unknown"))

	h := Chain(MapHierarchy{"com/acme/Boom": ioException}, BuiltinHierarchy)
	assert.True(t, IsSubtype(h, "com/acme/Boom", Throwable))

	loop := MapHierarchy{"a/A": "a/B", "a/B": "a/A"}
	assert.False(t, IsSubtype(loop, "a/A", "a/C"))
}

func TestCatchReachability(t *testing.T) {
	tryIOThenException := func() *Method {
		return &Method{Name: "read", Body: []Statement{
			Try{
				Body: []Statement{Invoke{Name: "open", Throws: []string{fileNotFound}, Line: 3}},
				Catches: []Catch{
					{Types: []string{ioException}, Line: 4},
					{Types: []string{Exception}, Line: 5},
				},
			},
		}}
	}

	t.Run("strict reports exception unreachable", func(t *testing.T) {
		c, _ := check(t, true, tryIOThenException())
		diags := c.Diagnostics()
		require.Len(t, diags, 1)
		assert.Equal(t, problem.UnreachableCatchBlock, diags[0].ID)
		assert.Equal(t, 5, diags[0].Line)
		assert.Contains(t, diags[0].Message, Exception)
	})

	t.Run("lenient treats exception as reached", func(t *testing.T) {
		c, _ := check(t, false, tryIOThenException())
		assert.Empty(t, c.Diagnostics())
	})

	t.Run("something only exception covers", func(t *testing.T) {
		m := tryIOThenException()
		try := m.Body[0].(Try)
		try.Body = append(try.Body, Invoke{Name: "sleep", Throws: []string{"java/lang/InterruptedException"}})
		m.Body[0] = try
		c, _ := check(t, true, m)
		assert.Empty(t, c.Diagnostics())
	})

	t.Run("never thrown", func(t *testing.T) {
		c, _ := check(t, false, &Method{Name: "m", Body: []Statement{
			Try{Body: []Statement{Assign{Var: "x"}}, Catches: []Catch{{Types: []string{ioException}, Line: 9}}},
		}})
		assert.Equal(t, []problem.ID{problem.UnreachableCatchBlock}, ids(c))
	})

	t.Run("hidden by broader handler", func(t *testing.T) {
		c, _ := check(t, false, &Method{Name: "m", Body: []Statement{
			Try{
				Body: []Statement{Throw{Type: fileNotFound}},
				Catches: []Catch{
					{Types: []string{ioException}, Line: 4},
					{Types: []string{fileNotFound}, Line: 5},
				},
			},
		}})
		diags := c.Diagnostics()
		require.Len(t, diags, 1)
		assert.Equal(t, problem.HiddenCatchBlock, diags[0].ID)
		assert.Equal(t, 5, diags[0].Line)
	})

	t.Run("more generic raise reaches subtype handler", func(t *testing.T) {
		c, _ := check(t, false, &Method{Name: "m", Throws: []string{ioException}, Body: []Statement{
			Try{
				Body:    []Statement{Invoke{Name: "read", Throws: []string{ioException}}},
				Catches: []Catch{{Types: []string{fileNotFound}}},
			},
		}})
		assert.Empty(t, c.Diagnostics())
	})

	t.Run("unchecked handlers are always reachable", func(t *testing.T) {
		c, _ := check(t, true, &Method{Name: "m", Body: []Statement{
			Try{Catches: []Catch{{Types: []string{npe}}, {Types: []string{Error}}}},
		}})
		assert.Empty(t, c.Diagnostics())
	})

	t.Run("multi catch", func(t *testing.T) {
		c, _ := check(t, true, &Method{Name: "m", Body: []Statement{
			Try{
				Body:    []Statement{Throw{Type: ioException}},
				Catches: []Catch{{Types: []string{ioException, "java/sql/SQLException"}, Line: 7}},
			},
		}})
		diags := c.Diagnostics()
		require.Len(t, diags, 1)
		assert.Equal(t, problem.UnreachableCatchBlock, diags[0].ID)
		assert.Contains(t, diags[0].Message, "java/sql/SQLException")
	})
}

func TestNestedTry(t *testing.T) {
	m := &Method{Name: "m", Body: []Statement{
		Try{
			Body: []Statement{
				Try{
					Body:    []Statement{Throw{Type: fileNotFound}},
					Catches: []Catch{{Types: []string{"java/sql/SQLException"}, Line: 4}},
				},
			},
			Catches: []Catch{{Types: []string{ioException}, Line: 6}},
		},
	}}
	c, res := check(t, true, m)
	assert.Equal(t, []problem.ID{problem.UnreachableCatchBlock}, ids(c))
	assert.Empty(t, res.Unhandled)
}

func TestUnhandledAndDeclared(t *testing.T) {
	t.Run("unhandled", func(t *testing.T) {
		c, res := check(t, false, &Method{Name: "m", Body: []Statement{
			Invoke{Name: "open", Throws: []string{fileNotFound}, Line: 2},
			Invoke{Name: "deref", Throws: []string{npe}, Line: 3},
		}})
		diags := c.Of(problem.UnhandledException)
		require.Len(t, diags, 1)
		assert.Equal(t, 2, diags[0].Line)
		assert.Equal(t, []string{fileNotFound}, res.Unhandled)
	})

	t.Run("declared", func(t *testing.T) {
		c, res := check(t, false, &Method{Name: "m", Throws: []string{ioException}, Body: []Statement{
			Invoke{Name: "open", Throws: []string{fileNotFound}},
		}})
		assert.Empty(t, c.Diagnostics())
		assert.Empty(t, res.Unhandled)
	})

	t.Run("unused declared", func(t *testing.T) {
		c, _ := check(t, false, &Method{Name: "m", Throws: []string{ioException, npe}, Line: 1})
		diags := c.Diagnostics()
		require.Len(t, diags, 1)
		assert.Equal(t, problem.UnusedDeclaredThrownException, diags[0].ID)
		assert.Contains(t, diags[0].Message, ioException)
	})

	t.Run("dead code raises nothing", func(t *testing.T) {
		c, _ := check(t, false, &Method{Name: "m", Body: []Statement{
			Return{},
			Invoke{Name: "open", Throws: []string{ioException}},
		}})
		assert.Empty(t, c.Diagnostics())
	})
}

func TestEscapingFinally(t *testing.T) {
	c, res := check(t, false, &Method{Name: "m", Body: []Statement{
		Try{
			Body:    []Statement{Throw{Type: ioException}},
			Finally: []Statement{Return{}},
		},
		Assign{Var: "after"},
	}})
	assert.Empty(t, c.Diagnostics())
	assert.Empty(t, res.Unhandled)
	assert.False(t, res.Exit.IsReachable())
}

func TestFlowThroughTry(t *testing.T) {
	checker := NewChecker(nil, nil)
	res := checker.CheckMethod(&Method{Name: "m", Throws: []string{ioException}, Body: []Statement{
		&Try{
			Body: []Statement{
				Assign{Var: "a"},
				Invoke{Name: "read", Throws: []string{ioException}},
				Assign{Var: "b"},
			},
			Catches: []Catch{{Types: []string{ioException}, Body: []Statement{Assign{Var: "c"}}}},
			Finally: []Statement{Assign{Var: "f"}},
		},
	}})

	require.True(t, res.Exit.IsReachable())
	a, b, f := checker.Local("a"), checker.Local("b"), checker.Local("f")
	assert.True(t, res.Exit.IsDefinitelyAssigned(a), "assigned before the call on both paths")
	assert.False(t, res.Exit.IsDefinitelyAssigned(b), "skipped when read throws")
	assert.True(t, res.Exit.IsDefinitelyAssigned(f), "finally always runs")
	assert.Equal(t, -1, checker.Local("nope"))
}

func TestInitsOnReturn(t *testing.T) {
	ctx := NewExceptionHandlingFlowContext(nil, nil, nil, FlowInfo{}, BuiltinHierarchy, false)
	assert.False(t, ctx.InitsOnReturn().IsReachable())

	ctx.RecordReturnFrom(FlowInfo{}.Assign(0).Assign(1))
	assert.True(t, ctx.InitsOnReturn().IsDefinitelyAssigned(1))

	ctx.RecordReturnFrom(FlowInfo{}.Assign(0))
	got := ctx.InitsOnReturn()
	assert.True(t, got.IsDefinitelyAssigned(0))
	assert.False(t, got.IsDefinitelyAssigned(1))

	ctx.RecordReturnFrom(DeadEnd())
	assert.True(t, ctx.InitsOnReturn().IsDefinitelyAssigned(0))
}

func TestManyHandlers(t *testing.T) {
	var handled []string
	for i := 0; i < 40; i++ {
		handled = append(handled, npe)
	}
	handled[35] = ioException
	ctx := NewExceptionHandlingFlowContext(nil, handled, nil, FlowInfo{}, BuiltinHierarchy, true)
	assert.True(t, ctx.IsReached(34))
	assert.False(t, ctx.IsReached(35))

	ctx.RecordHandlingException(35, FlowInfo{}.Assign(3), true)
	assert.True(t, ctx.IsReached(35))
	assert.False(t, ctx.IsNeeded(35))
	assert.True(t, ctx.InitsOnException(35).IsDefinitelyAssigned(3))
}
