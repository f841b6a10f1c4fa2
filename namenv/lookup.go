package namenv

import (
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dhamidi/namenv/access"
	"github.com/dhamidi/namenv/classpath"
	"github.com/dhamidi/namenv/flow"
	"github.com/dhamidi/namenv/problem"
)

// FindType looks up a type by its qualified name, "a/b/C" or "a.b.C",
// optionally prefixed by a module as in "mod:a/b/C". A nil answer without
// error means not found.
func (e *Environment) FindType(name string) (*classpath.Answer, error) {
	moduleName := ""
	if i := strings.IndexByte(name, ':'); i >= 0 {
		moduleName, name = name[:i], name[i+1:]
	}
	return e.findClass(strings.ReplaceAll(name, ".", "/"), moduleName)
}

// FindTypeInModule looks up a '/'-separated type name in one module. An
// empty module name searches everywhere.
func (e *Environment) FindTypeInModule(qualifiedTypeName, moduleName string) (*classpath.Answer, error) {
	return e.findClass(qualifiedTypeName, moduleName)
}

func (e *Environment) findClass(qualifiedTypeName, moduleName string) (*classpath.Answer, error) {
	moduleQualifiedName := qualifiedTypeName
	if moduleName != "" {
		moduleQualifiedName = moduleName + ":" + qualifiedTypeName
	}
	if e.initialTypeNames[moduleQualifiedName] {
		if e.incremental {
			log.Infof("aborting incremental build: %s is no longer defined by its source", qualifiedTypeName)
			return nil, &AbortIncrementalBuildError{TypeName: qualifiedTypeName}
		}
		return nil, nil
	}

	if unit := e.additionalUnit(qualifiedTypeName); unit != nil {
		answer := &classpath.Answer{Source: unit, Module: unit.Module}
		if unit.Folder != nil {
			answer.Location = unit.Folder
		}
		return answer, nil
	}

	qBinaryFileName := qualifiedTypeName + ".class"
	qPackageName, binaryFileName := "", qBinaryFileName
	if i := strings.LastIndexByte(qualifiedTypeName, '/'); i >= 0 {
		qPackageName, binaryFileName = qualifiedTypeName[:i], qBinaryFileName[i+1:]
	}

	locations := e.binaryLocations
	if moduleName != "" && len(e.modules) > 0 {
		entry := e.modules[moduleName]
		if entry == nil {
			return nil, nil
		}
		locations = entry.locations
	}

	lookup := func(loc classpath.Location) *classpath.Answer {
		return loc.FindClass(binaryFileName, qPackageName, moduleName, qBinaryFileName)
	}
	if e.opts.ParallelLookup && len(locations) > 1 {
		return e.best(gather(locations, lookup)), nil
	}
	var suggested *classpath.Answer
	for _, loc := range locations {
		answer, done := e.rank(lookup(loc), suggested)
		if done {
			return answer, nil
		}
		suggested = answer
	}
	return suggested, nil
}

// additionalUnit answers a unit queued for this round. Only top level
// names are queued, so a nested name falls back to its enclosing unit
// unless a unit with the '$' in its own name exists.
func (e *Environment) additionalUnit(qualifiedTypeName string) *classpath.SourceFile {
	if e.additionalUnits == nil || len(e.sourceLocations) == 0 {
		return nil
	}
	if unit := e.additionalUnits[qualifiedTypeName]; unit != nil && !e.skipLanguages[unit.Language] {
		return unit
	}
	if i := strings.IndexByte(qualifiedTypeName, '$'); i > 0 {
		if unit := e.additionalUnits[qualifiedTypeName[:i]]; unit != nil && !e.skipLanguages[unit.Language] {
			return unit
		}
	}
	return nil
}

// rank folds one location's answer into the running suggestion. done is
// set when answer is final: not ignorable and better than the suggestion.
func (e *Environment) rank(answer, suggested *classpath.Answer) (best *classpath.Answer, done bool) {
	if answer == nil {
		return suggested, false
	}
	if answer.Module != "" && len(e.modules) > 0 && e.modules[answer.Module] == nil {
		// filtered out by --limit-modules
		return suggested, false
	}
	if !answer.IgnoreIfBetter() {
		if answer.IsBetter(suggested) {
			return answer, true
		}
	} else if answer.IsBetter(suggested) {
		return answer, false
	}
	return suggested, false
}

func (e *Environment) best(answers []*classpath.Answer) *classpath.Answer {
	var suggested *classpath.Answer
	for _, answer := range answers {
		best, done := e.rank(answer, suggested)
		if done {
			return best
		}
		suggested = best
	}
	return suggested
}

// gather queries every location concurrently. Answers keep location order
// so that ranking them gives the same result as a sequential scan.
func gather(locations []classpath.Location, lookup func(classpath.Location) *classpath.Answer) []*classpath.Answer {
	answers := make([]*classpath.Answer, len(locations))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, loc := range locations {
		i, loc := i, loc
		g.Go(func() error {
			answers[i] = lookup(loc)
			return nil
		})
	}
	_ = g.Wait()
	return answers
}

// ReportRestriction reports a reference to typeName that resolved to a
// forbidden or discouraged answer. Unrestricted answers report nothing.
func (e *Environment) ReportRestriction(typeName string, answer *classpath.Answer) {
	if answer == nil || answer.Restriction == nil {
		return
	}
	d := problem.Diagnostic{
		ID:       problem.ForbiddenReference,
		Severity: problem.Error,
		Message:  answer.Restriction.String(),
		Subject:  typeName,
	}
	if answer.Restriction.ProblemID() == access.DiscouragedReference {
		d.ID, d.Severity = problem.DiscouragedReference, problem.Warning
	}
	e.reporter.Report(d)
}

// IsPackage reports whether any location holds the package.
func (e *Environment) IsPackage(qualifiedPackageName string) bool {
	return e.IsPackageInModule(qualifiedPackageName, "")
}

// IsPackageInModule reports whether the package exists in a module. An
// empty module name asks every location.
func (e *Environment) IsPackageInModule(qualifiedPackageName, moduleName string) bool {
	qualifiedPackageName = strings.ReplaceAll(qualifiedPackageName, ".", "/")
	if moduleName != "" && len(e.modules) > 0 {
		for _, loc := range e.ModuleLocations(moduleName) {
			if loc.IsPackage(qualifiedPackageName, moduleName) {
				return true
			}
		}
		return false
	}
	for _, loc := range e.binaryLocations {
		if loc.IsPackage(qualifiedPackageName, "") {
			return true
		}
	}
	for _, loc := range e.sourceLocations {
		if loc.IsPackage(qualifiedPackageName, "") {
			return true
		}
	}
	return false
}

// Hierarchy returns the type hierarchy seen through this environment:
// superclasses come from the binary answers, then from the built-in table.
func (e *Environment) Hierarchy() flow.TypeHierarchy {
	return flow.Chain(flow.HierarchyFunc(e.superClass), flow.BuiltinHierarchy)
}

// Checker returns an exception checker that resolves types through the
// environment and reports to its reporter.
func (e *Environment) Checker() *flow.Checker {
	c := flow.NewChecker(e.Hierarchy(), e.reporter)
	c.Strict = e.opts.StrictExceptionHandlers
	return c
}

func (e *Environment) superClass(name string) (string, bool) {
	e.mu.Lock()
	super, ok := e.superTypes[name]
	e.mu.Unlock()
	if ok {
		return super, true
	}
	answer, err := e.FindType(name)
	if err != nil || !answer.IsBinary() {
		return "", false
	}
	super = answer.Binary.SuperClassName()
	e.mu.Lock()
	if e.superTypes == nil {
		e.superTypes = map[string]string{}
	}
	e.superTypes[name] = super
	e.mu.Unlock()
	return super, true
}
