// Package namenv answers "where is this type defined" for one project of a
// workspace, searching its classpath in priority order.
package namenv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/namenv/access"
	"github.com/dhamidi/namenv/classpath"
	"github.com/dhamidi/namenv/module"
	"github.com/dhamidi/namenv/problem"
	"github.com/dhamidi/namenv/project"
)

var log = commonlog.GetLogger("namenv")

type Options struct {
	Release               int
	AddReads              []string
	AddExports            []string
	AddModules            []string
	LimitModules          []string
	AllowAutomaticModules bool
	PropagateIOErrors     bool
	// ParallelLookup asks every binary location at once and ranks the
	// answers afterwards.
	ParallelLookup bool
	// IgnoreAccessRules drops the access rules of library entries.
	IgnoreAccessRules   bool
	SkipAdditionalUnits []string
	// StrictExceptionHandlers makes Throwable and Exception handlers
	// subject to reachability checks like any other handler.
	StrictExceptionHandlers bool
	Reporter                problem.Reporter
}

// OptionsFrom copies the workspace options.
func OptionsFrom(o project.Options) Options {
	return Options{
		Release:               o.Release,
		AddReads:              o.AddReads,
		AddExports:            o.AddExports,
		AddModules:            o.AddModules,
		LimitModules:          o.LimitModules,
		AllowAutomaticModules: o.AllowAutomaticModules,
		PropagateIOErrors:     o.PropagateIOErrors,
		ParallelLookup:        o.ParallelLookup,
		IgnoreAccessRules:     o.IgnoreAccessRules,
		SkipAdditionalUnits:   o.SkipAdditionalUnits,

		StrictExceptionHandlers: o.StrictExceptionHandlers,
	}
}

// AbortIncrementalBuildError is returned when an incremental build looks
// up a type it was started with: the type was renamed or deleted from its
// source and every answer would be stale.
type AbortIncrementalBuildError struct {
	TypeName string
}

func (e *AbortIncrementalBuildError) Error() string {
	return fmt.Sprintf("abort incremental build: %s was renamed or removed", e.TypeName)
}

// Environment is the name environment of one project. It is used by one
// compilation round at a time; lookups may run concurrently within a
// round.
type Environment struct {
	workspace *project.Workspace
	project   *project.Project
	opts      Options
	reporter  problem.Reporter
	finder    *module.Finder
	updater   *module.Updater

	sourceLocations []*classpath.SourceFolder
	binaryLocations []classpath.Location
	jrtImages       []*classpath.JrtImage

	discovered []binding
	modules    map[string]*moduleEntry

	initialTypeNames map[string]bool
	additionalUnits  map[string]*classpath.SourceFile
	incremental      bool
	skipLanguages    map[string]bool

	mu         sync.Mutex
	superTypes map[string]string
}

// binding ties a module found on the classpath to the locations holding it.
type binding struct {
	descriptor *module.Descriptor
	locations  []classpath.Location
}

type moduleEntry struct {
	descriptor *module.Descriptor
	locations  []classpath.Location
	system     bool
}

// New builds the environment of projectName and starts a first round with
// no initial names and no additional units.
func New(ws *project.Workspace, projectName string, opts Options) (*Environment, error) {
	p := ws.Project(projectName)
	if p == nil {
		return nil, fmt.Errorf("unknown project %q", projectName)
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = problem.Discard
	}

	updater, err := module.ParseUpdater(opts.AddReads, opts.AddExports)
	if err != nil {
		var oe *module.OptionError
		if errors.As(err, &oe) {
			reporter.Report(problem.Diagnostic{
				ID:       problem.MalformedModuleOption,
				Severity: problem.Error,
				Message:  err.Error(),
				Subject:  oe.Option,
			})
		}
		return nil, err
	}

	env := &Environment{
		workspace: ws,
		project:   p,
		opts:      opts,
		reporter:  reporter,
		updater:   updater,
		finder: &module.Finder{
			AllowAutomatic:    opts.AllowAutomaticModules,
			Release:           opts.Release,
			PropagateIOErrors: opts.PropagateIOErrors,
		},
	}
	env.SkipAdditionalUnits(opts.SkipAdditionalUnits...)
	if err := env.ComputeClasspathLocations(); err != nil {
		return nil, err
	}
	env.SetNames(nil, nil)
	return env, nil
}

func (e *Environment) Project() *project.Project { return e.project }

// ComputeClasspathLocations turns the project's classpath entries into
// locations. Source entries get their output folder created on disk.
// Output folders come first, in classpath order and without duplicates,
// followed by every other binary location.
func (e *Environment) ComputeClasspathLocations() error {
	p := e.project
	e.sourceLocations = nil
	e.jrtImages = nil
	e.discovered = nil

	var outputFolders, others []classpath.Location
	outputs := map[string]*classpath.BinaryFolder{}
	var projectModule *module.Descriptor
	var projectLocations []classpath.Location
	seen := map[string]bool{}

	for _, entry := range p.Classpath {
		switch entry.Kind {
		case project.KindSource:
			outPath := p.OutputFor(entry)
			if err := p.EnsureOutDir(outPath); err != nil {
				return fmt.Errorf("failed to create output folder %s: %w", outPath, err)
			}
			key := classpath.NormalizePath(outPath)
			out, ok := outputs[key]
			if !ok {
				out = classpath.NewBinaryFolder(outPath, true, nil)
				outputs[key] = out
				outputFolders = append(outputFolders, out)
			}
			sf, err := classpath.NewSourceFolder(p.Path(entry.Path), out, entry.Include, entry.Exclude)
			if err != nil {
				return err
			}
			e.sourceLocations = append(e.sourceLocations, sf)
			projectLocations = append(projectLocations, sf)
			if projectModule == nil {
				d, err := e.sourceModule(sf.Path(), out.Path())
				if err != nil {
					return err
				}
				projectModule = d
			}

		case project.KindProject:
			ref := e.workspace.Project(entry.Path)
			if ref == nil {
				return fmt.Errorf("project %s: unknown prerequisite project %q", p.Name, entry.Path)
			}
			rules, err := e.rules(access.Project, ref.Name, entry.Rules)
			if err != nil {
				return err
			}
			var refModule *module.Descriptor
			var refLocations []classpath.Location
			for _, se := range ref.SourceEntries() {
				outPath := ref.OutputFor(se)
				key := classpath.NormalizePath(outPath)
				if seen[key] {
					continue
				}
				seen[key] = true
				if info, err := os.Stat(outPath); err != nil || !info.IsDir() {
					log.Debugf("skipping missing output folder %s of project %s", outPath, ref.Name)
					continue
				}
				bf := classpath.NewBinaryFolder(outPath, true, rules)
				others = append(others, bf)
				refLocations = append(refLocations, bf)
				if refModule == nil {
					d, err := e.sourceModule(ref.Path(se.Path), outPath)
					if err != nil {
						return err
					}
					refModule = d
				}
			}
			if refModule != nil {
				e.discovered = append(e.discovered, binding{refModule, refLocations})
			}

		case project.KindLibrary:
			locs, err := e.library(entry)
			if err != nil {
				return err
			}
			others = append(others, locs...)

		case project.KindJrt:
			rules, err := e.rules(access.Library, entry.Path, entry.Rules)
			if err != nil {
				return err
			}
			jrt := classpath.NewJrtImage(p.Path(entry.Path), rules)
			e.jrtImages = append(e.jrtImages, jrt)
			others = append(others, jrt)
		}
	}

	if projectModule != nil {
		e.discovered = append([]binding{{projectModule, projectLocations}}, e.discovered...)
	}
	e.binaryLocations = classpath.Dedup(append(outputFolders, others...))
	for _, loc := range e.binaryLocations {
		log.Debugf("project %s: %s", p.Name, loc)
	}
	return e.resolveModules()
}

func (e *Environment) rules(kind access.EntryKind, name string, raw []string) (*access.RuleSet, error) {
	if e.opts.IgnoreAccessRules && kind == access.Library {
		return nil, nil
	}
	return access.ParseRuleSet(kind, name, raw)
}

// library resolves a library entry. A module path directory that is not a
// module itself contributes one location per module inside it.
func (e *Environment) library(entry *project.Entry) ([]classpath.Location, error) {
	path := e.project.Path(entry.Path)
	rules, err := e.rules(access.Library, entry.Path, entry.Rules)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, e.ioProblem(path, err)
	}
	if !entry.Module {
		return []classpath.Location{e.newLibraryLocation(path, info.IsDir(), rules)}, nil
	}

	found, err := e.finder.Scan(path)
	if err != nil {
		return nil, e.moduleProblem(path, err)
	}
	if len(found) == 0 || (len(found) == 1 && found[0].Path == path) {
		loc := e.newLibraryLocation(path, info.IsDir(), rules)
		if len(found) == 1 {
			e.discovered = append(e.discovered, binding{found[0].Descriptor, []classpath.Location{loc}})
		}
		return []classpath.Location{loc}, nil
	}
	var locs []classpath.Location
	for _, f := range found {
		fi, err := os.Stat(f.Path)
		if err != nil {
			continue
		}
		loc := e.newLibraryLocation(f.Path, fi.IsDir(), rules)
		e.discovered = append(e.discovered, binding{f.Descriptor, []classpath.Location{loc}})
		locs = append(locs, loc)
	}
	return locs, nil
}

func (e *Environment) newLibraryLocation(path string, isDir bool, rules *access.RuleSet) classpath.Location {
	if isDir {
		return classpath.NewBinaryFolder(path, false, rules)
	}
	return classpath.NewLibrary(path, rules, e.opts.Release)
}

// sourceModule reads the module declared by a source folder, falling back
// to a compiled descriptor in its output folder.
func (e *Environment) sourceModule(sourceDir, outputDir string) (*module.Descriptor, error) {
	src := filepath.Join(sourceDir, module.InfoJava)
	if _, err := os.Stat(src); err == nil {
		d, err := module.ParseSourceFile(src)
		if err != nil {
			return nil, e.moduleProblem(src, err)
		}
		return d, nil
	}
	data, err := os.ReadFile(filepath.Join(outputDir, module.InfoClass))
	if err != nil {
		return nil, nil
	}
	d, err := module.Decode(data)
	if err != nil {
		log.Warningf("ignoring %s in %s: %s", module.InfoClass, outputDir, err)
		return nil, nil
	}
	return d, nil
}

func (e *Environment) ioProblem(path string, err error) error {
	e.reporter.Report(problem.Diagnostic{
		ID:       problem.ClasspathIOError,
		Severity: problem.Warning,
		Message:  err.Error(),
		Subject:  path,
	})
	if e.opts.PropagateIOErrors {
		return fmt.Errorf("classpath entry %s: %w", path, err)
	}
	log.Warningf("ignoring classpath entry %s: %s", path, err)
	return nil
}

func (e *Environment) moduleProblem(path string, err error) error {
	id := problem.ClasspathIOError
	var mismatch *module.NameMismatchError
	if errors.As(err, &mismatch) {
		id = problem.ModuleNameMismatch
	}
	e.reporter.Report(problem.Diagnostic{ID: id, Severity: problem.Error, Message: err.Error(), Subject: path})
	return err
}

// SetNames starts a compilation round. Lookups of initialTypeNames
// ("a/b/C" or "mod:a/b/C") answer nothing, or abort when the build is
// incremental; additionalUnits are answered as source. Every location is
// reset and rebound to its module.
func (e *Environment) SetNames(initialTypeNames []string, additionalUnits []*classpath.SourceFile) {
	e.initialTypeNames = nil
	if initialTypeNames != nil {
		e.initialTypeNames = make(map[string]bool, len(initialTypeNames))
		for _, name := range initialTypeNames {
			e.initialTypeNames[name] = true
		}
	}
	e.additionalUnits = nil
	if additionalUnits != nil {
		e.additionalUnits = make(map[string]*classpath.SourceFile, len(additionalUnits))
		for _, unit := range additionalUnits {
			if unit != nil {
				e.additionalUnits[unit.TypeName] = unit
			}
		}
	}

	for _, loc := range e.sourceLocations {
		loc.Reset()
	}
	for _, loc := range e.binaryLocations {
		loc.Reset()
	}
	for _, b := range e.discovered {
		d := e.updater.Apply(b.descriptor)
		for _, loc := range b.locations {
			loc.AcceptModule(d)
		}
	}

	e.mu.Lock()
	e.superTypes = nil
	e.mu.Unlock()
}

func (e *Environment) SetIncremental(incremental bool) { e.incremental = incremental }

// SkipAdditionalUnits stops answering additional units written in the
// given languages.
func (e *Environment) SkipAdditionalUnits(languages ...string) {
	if e.skipLanguages == nil {
		e.skipLanguages = map[string]bool{}
	}
	for _, l := range languages {
		e.skipLanguages[l] = true
	}
}

// Cleanup ends the last round and releases open archives.
func (e *Environment) Cleanup() {
	e.initialTypeNames = nil
	e.additionalUnits = nil
	for _, loc := range e.sourceLocations {
		loc.Cleanup()
	}
	for _, loc := range e.binaryLocations {
		loc.Cleanup()
	}
}

func (e *Environment) SourceLocations() []*classpath.SourceFolder { return e.sourceLocations }

// BinaryLocations returns the locations searched by FindType, in order.
func (e *Environment) BinaryLocations() []classpath.Location { return e.binaryLocations }

// SourceFiles lists the compilation units of every source folder.
func (e *Environment) SourceFiles() ([]*classpath.SourceFile, error) {
	var all []*classpath.SourceFile
	for _, loc := range e.sourceLocations {
		files, err := loc.SourceFiles()
		if err != nil {
			return nil, err
		}
		all = append(all, files...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].TypeName < all[j].TypeName })
	return all, nil
}
