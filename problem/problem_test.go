package problem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{ID: HiddenCatchBlock, Severity: Warning, Message: "hidden", Subject: "p/Foo.java", Line: 12}
	assert.Equal(t, "p/Foo.java:12: warning [HiddenCatchBlock] hidden", d.String())

	d = Diagnostic{ID: ProjectCycle, Severity: Error, Message: "cycle"}
	assert.Equal(t, "error [ProjectCycle] cycle", d.String())
}

func TestCollector(t *testing.T) {
	var c Collector
	var seen int
	r := Tee(&c, ReporterFunc(func(Diagnostic) { seen++ }))

	r.Report(Diagnostic{ID: HiddenCatchBlock, Severity: Warning})
	r.Report(Diagnostic{ID: UnreachableCatchBlock, Severity: Error})

	assert.Equal(t, 2, seen)
	assert.Len(t, c.Diagnostics(), 2)
	assert.Len(t, c.Of(UnreachableCatchBlock), 1)
	assert.True(t, c.HasErrors())

	c.Reset()
	assert.Empty(t, c.Diagnostics())
	assert.False(t, c.HasErrors())
}
