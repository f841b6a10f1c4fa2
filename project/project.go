// Package project loads the workspace description that lists projects and
// their classpath entries.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	graphlib "github.com/dominikbraun/graph"
	"github.com/pelletier/go-toml"

	"github.com/dhamidi/namenv/access"
)

// FileName is the workspace file looked up by LoadFrom.
const FileName = "namenv.toml"

const DefaultOutput = "bin"

type EntryKind string

const (
	KindSource  EntryKind = "source"
	KindProject EntryKind = "project"
	KindLibrary EntryKind = "library"
	KindJrt     EntryKind = "jrt"
)

// Workspace is a set of projects sharing module-system options.
type Workspace struct {
	Root     string
	File     string
	Options  Options
	Projects []*Project
}

type Options struct {
	Release                 int
	AddReads                []string
	AddExports              []string
	AddModules              []string
	LimitModules            []string
	AllowAutomaticModules   bool
	PropagateIOErrors       bool
	StrictExceptionHandlers bool
	ParallelLookup          bool
	IgnoreAccessRules       bool
	SkipAdditionalUnits     []string
}

// Project represents a project with its classpath.
type Project struct {
	Name      string
	Dir       string
	Output    string
	Classpath []*Entry
	Workspace *Workspace
}

// Entry is one raw classpath entry. Paths are relative to the project
// directory, except project entries which name another project.
type Entry struct {
	Kind    EntryKind
	Path    string
	Output  string
	Include []string
	Exclude []string
	Rules   []string
	Module  bool
}

type ConfigError struct {
	File string
	Msg  string
	Err  error
}

func (e *ConfigError) Error() string {
	msg := e.File + ": " + e.Msg
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

type tomlWorkspace struct {
	Options  tomlOptions    `toml:"options"`
	Projects []*tomlProject `toml:"project"`
}

type tomlOptions struct {
	Release                 int      `toml:"release"`
	AddReads                []string `toml:"add-reads,omitempty"`
	AddExports              []string `toml:"add-exports,omitempty"`
	AddModules              []string `toml:"add-modules,omitempty"`
	LimitModules            []string `toml:"limit-modules,omitempty"`
	AllowAutomaticModules   bool     `toml:"allow-automatic-modules"`
	PropagateIOErrors       bool     `toml:"propagate-io-errors"`
	StrictExceptionHandlers bool     `toml:"strict-exception-handlers"`
	ParallelLookup          bool     `toml:"parallel-lookup"`
	IgnoreAccessRules       bool     `toml:"ignore-access-rules"`
	SkipAdditionalUnits     []string `toml:"skip-additional-units,omitempty"`
}

type tomlProject struct {
	Name      string       `toml:"name"`
	Dir       string       `toml:"dir"`
	Output    string       `toml:"output"`
	Classpath []*tomlEntry `toml:"classpath"`
}

type tomlEntry struct {
	Kind    string   `toml:"kind"`
	Path    string   `toml:"path"`
	Output  string   `toml:"output,omitempty"`
	Include []string `toml:"include,omitempty"`
	Exclude []string `toml:"exclude,omitempty"`
	Rules   []string `toml:"rules,omitempty"`
	Module  bool     `toml:"module"`
}

// Load reads a workspace file. The workspace root is the file's directory.
func Load(path string) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workspace file: %w", err)
	}
	return Parse(data, path)
}

// LoadFrom reads the workspace file in dir.
func LoadFrom(dir string) (*Workspace, error) {
	return Load(filepath.Join(dir, FileName))
}

func Parse(data []byte, file string) (*Workspace, error) {
	tw := &tomlWorkspace{}
	if err := toml.Unmarshal(data, tw); err != nil {
		return nil, &ConfigError{File: file, Msg: "invalid TOML", Err: err}
	}

	ws := &Workspace{
		Root: filepath.Dir(file),
		File: file,
		Options: Options{
			Release:                 tw.Options.Release,
			AddReads:                tw.Options.AddReads,
			AddExports:              tw.Options.AddExports,
			AddModules:              tw.Options.AddModules,
			LimitModules:            tw.Options.LimitModules,
			AllowAutomaticModules:   tw.Options.AllowAutomaticModules,
			PropagateIOErrors:       tw.Options.PropagateIOErrors,
			StrictExceptionHandlers: tw.Options.StrictExceptionHandlers,
			ParallelLookup:          tw.Options.ParallelLookup,
			IgnoreAccessRules:       tw.Options.IgnoreAccessRules,
			SkipAdditionalUnits:     tw.Options.SkipAdditionalUnits,
		},
	}

	for _, tp := range tw.Projects {
		p := &Project{Name: tp.Name, Dir: tp.Dir, Output: tp.Output, Workspace: ws}
		if p.Dir == "" {
			p.Dir = p.Name
		}
		if p.Output == "" {
			p.Output = DefaultOutput
		}
		for _, te := range tp.Classpath {
			p.Classpath = append(p.Classpath, &Entry{
				Kind:    EntryKind(te.Kind),
				Path:    te.Path,
				Output:  te.Output,
				Include: te.Include,
				Exclude: te.Exclude,
				Rules:   te.Rules,
				Module:  te.Module,
			})
		}
		ws.Projects = append(ws.Projects, p)
	}

	if err := ws.validate(); err != nil {
		return nil, err
	}
	return ws, nil
}

func (w *Workspace) errorf(err error, format string, args ...any) error {
	return &ConfigError{File: w.File, Msg: fmt.Sprintf(format, args...), Err: err}
}

func (w *Workspace) validate() error {
	seen := map[string]bool{}
	for _, p := range w.Projects {
		if p.Name == "" {
			return w.errorf(nil, "project without name")
		}
		if seen[p.Name] {
			return w.errorf(nil, "duplicate project %q", p.Name)
		}
		seen[p.Name] = true
	}
	for _, p := range w.Projects {
		for _, e := range p.Classpath {
			switch e.Kind {
			case KindSource, KindLibrary, KindJrt:
			case KindProject:
				if !seen[e.Path] {
					return w.errorf(nil, "project %q references unknown project %q", p.Name, e.Path)
				}
			default:
				return w.errorf(nil, "project %q: unknown classpath entry kind %q", p.Name, e.Kind)
			}
			if e.Path == "" {
				return w.errorf(nil, "project %q: %s entry without path", p.Name, e.Kind)
			}
			for _, r := range e.Rules {
				if _, err := access.ParseRule(r); err != nil {
					return w.errorf(err, "project %q", p.Name)
				}
			}
		}
	}
	_, err := w.BuildOrder()
	return err
}

// ErrCycle is wrapped by the ConfigError reporting a project reference cycle.
var ErrCycle = errors.New("project reference cycle")

func (w *Workspace) graph() (graphlib.Graph[string, string], error) {
	g := graphlib.New(graphlib.StringHash, graphlib.Directed(), graphlib.PreventCycles())
	for _, p := range w.Projects {
		if err := g.AddVertex(p.Name); err != nil {
			return nil, err
		}
	}
	for _, p := range w.Projects {
		for _, ref := range p.References() {
			// dependency first: ref -> p
			err := g.AddEdge(ref, p.Name)
			switch {
			case err == nil, errors.Is(err, graphlib.ErrEdgeAlreadyExists):
			case errors.Is(err, graphlib.ErrEdgeCreatesCycle):
				return nil, w.errorf(ErrCycle, "%s -> %s", p.Name, ref)
			default:
				return nil, err
			}
		}
	}
	return g, nil
}

// BuildOrder lists projects so that every project follows the projects it
// references. Ties are broken by name.
func (w *Workspace) BuildOrder() ([]*Project, error) {
	g, err := w.graph()
	if err != nil {
		return nil, err
	}
	names, err := graphlib.StableTopologicalSort(g, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, err
	}
	order := make([]*Project, 0, len(names))
	for _, name := range names {
		order = append(order, w.Project(name))
	}
	return order, nil
}

// Project returns the project with the given name, or nil if not found.
func (w *Workspace) Project(name string) *Project {
	for _, p := range w.Projects {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Names returns the sorted project names.
func (w *Workspace) Names() []string {
	names := make([]string, 0, len(w.Projects))
	for _, p := range w.Projects {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

// References lists the projects named by project entries, in classpath
// order.
func (p *Project) References() []string {
	var refs []string
	for _, e := range p.Classpath {
		if e.Kind == KindProject {
			refs = append(refs, e.Path)
		}
	}
	return refs
}

// Path resolves a path relative to the project directory.
func (p *Project) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.Workspace.Root, p.Dir, rel)
}

func (p *Project) OutputDir() string {
	return p.Path(p.Output)
}

// OutputFor returns the output folder of a source entry, defaulting to the
// project output.
func (p *Project) OutputFor(e *Entry) string {
	if e.Output != "" {
		return p.Path(e.Output)
	}
	return p.OutputDir()
}

// SourceEntries returns the source entries in classpath order.
func (p *Project) SourceEntries() []*Entry {
	var out []*Entry
	for _, e := range p.Classpath {
		if e.Kind == KindSource {
			out = append(out, e)
		}
	}
	return out
}

// EnsureOutDir creates the given output directory and its parents.
func (p *Project) EnsureOutDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
