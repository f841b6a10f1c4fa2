// Package problem carries diagnostics from name resolution and flow
// analysis to whoever is listening.
package problem

import (
	"fmt"
	"sync"

	"github.com/tliron/commonlog"
)

type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	}
	return "info"
}

type ID int

const (
	UnreachableCatchBlock ID = iota + 1
	HiddenCatchBlock
	UnusedDeclaredThrownException
	UnhandledException
	ModuleNameMismatch
	MalformedModuleOption
	ClasspathIOError
	ProjectCycle
	ForbiddenReference
	DiscouragedReference
)

var idNames = map[ID]string{
	UnreachableCatchBlock:         "UnreachableCatchBlock",
	HiddenCatchBlock:              "HiddenCatchBlock",
	UnusedDeclaredThrownException: "UnusedDeclaredThrownException",
	UnhandledException:            "UnhandledException",
	ModuleNameMismatch:            "ModuleNameMismatch",
	MalformedModuleOption:         "MalformedModuleOption",
	ClasspathIOError:              "ClasspathIOError",
	ProjectCycle:                  "ProjectCycle",
	ForbiddenReference:            "ForbiddenReference",
	DiscouragedReference:          "DiscouragedReference",
}

func (id ID) String() string {
	if name, ok := idNames[id]; ok {
		return name
	}
	return fmt.Sprintf("ID(%d)", int(id))
}

type Diagnostic struct {
	ID       ID
	Severity Severity
	Message  string
	// Subject is the file, type or module the diagnostic is about.
	Subject string
	Line    int
}

func (d Diagnostic) String() string {
	where := d.Subject
	if d.Line > 0 {
		where = fmt.Sprintf("%s:%d", where, d.Line)
	}
	if where == "" {
		return fmt.Sprintf("%s [%s] %s", d.Severity, d.ID, d.Message)
	}
	return fmt.Sprintf("%s: %s [%s] %s", where, d.Severity, d.ID, d.Message)
}

type Reporter interface {
	Report(d Diagnostic)
}

type ReporterFunc func(d Diagnostic)

func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// Discard drops every diagnostic.
var Discard Reporter = ReporterFunc(func(Diagnostic) {})

// Collector keeps diagnostics in report order. It is safe for concurrent use.
type Collector struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
}

func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diagnostics = append(c.diagnostics, d)
}

func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Diagnostic(nil), c.diagnostics...)
}

// Reset drops everything collected so far.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diagnostics = nil
}

// Of returns the diagnostics with the given id.
func (c *Collector) Of(id ID) []Diagnostic {
	var out []Diagnostic
	for _, d := range c.Diagnostics() {
		if d.ID == id {
			out = append(out, d)
		}
	}
	return out
}

func (c *Collector) HasErrors() bool {
	for _, d := range c.Diagnostics() {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// LogReporter writes diagnostics to a commonlog logger.
type LogReporter struct {
	Log commonlog.Logger
}

func NewLogReporter(name string) *LogReporter {
	return &LogReporter{Log: commonlog.GetLogger(name)}
}

func (r *LogReporter) Report(d Diagnostic) {
	switch d.Severity {
	case Error:
		r.Log.Errorf("%s", d)
	case Warning:
		r.Log.Warningf("%s", d)
	default:
		r.Log.Infof("%s", d)
	}
}

// Tee reports to every reporter in order.
func Tee(reporters ...Reporter) Reporter {
	return ReporterFunc(func(d Diagnostic) {
		for _, r := range reporters {
			r.Report(d)
		}
	})
}
