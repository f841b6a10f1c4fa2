package namenv

import (
	"slices"
	"sort"

	"github.com/dhamidi/namenv/classpath"
	"github.com/dhamidi/namenv/module"
)

// resolveModules builds the module table from the discovered modules and
// the runtime images. With --limit-modules, system modules outside the
// closure of the limit set, the added modules and the project's own
// modules are left out.
func (e *Environment) resolveModules() error {
	e.modules = map[string]*moduleEntry{}
	var named []string
	for _, b := range e.discovered {
		name := b.descriptor.Name
		if _, dup := e.modules[name]; dup {
			log.Warningf("module %s is defined more than once, using the first", name)
			continue
		}
		e.modules[name] = &moduleEntry{descriptor: e.updater.Apply(b.descriptor), locations: b.locations}
		named = append(named, name)
	}
	for _, jrt := range e.jrtImages {
		for _, d := range jrt.Modules() {
			if _, dup := e.modules[d.Name]; dup {
				continue
			}
			e.modules[d.Name] = &moduleEntry{
				descriptor: e.updater.Apply(d),
				locations:  []classpath.Location{jrt},
				system:     true,
			}
		}
	}

	if len(e.opts.LimitModules) == 0 {
		return nil
	}
	roots := append(append(slices.Clone(e.opts.LimitModules), e.opts.AddModules...), named...)
	keep, err := module.Closure(roots, e.descriptors())
	if err != nil {
		return err
	}
	for name, entry := range e.modules {
		if entry.system && !slices.Contains(keep, name) {
			log.Debugf("module %s left out by limit-modules", name)
			delete(e.modules, name)
		}
	}
	return nil
}

func (e *Environment) descriptors() []*module.Descriptor {
	names := e.ModuleNames()
	out := make([]*module.Descriptor, 0, len(names))
	for _, name := range names {
		out = append(out, e.modules[name].descriptor)
	}
	return out
}

// Module returns a known module with --add-reads and --add-exports
// applied, or nil.
func (e *Environment) Module(name string) *module.Descriptor {
	if entry := e.modules[name]; entry != nil {
		return entry.descriptor
	}
	return nil
}

// ModuleNames lists every known module, sorted.
func (e *Environment) ModuleNames() []string {
	names := make([]string, 0, len(e.modules))
	for name := range e.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ModuleLocations returns the locations holding a module.
func (e *Environment) ModuleLocations(name string) []classpath.Location {
	if entry := e.modules[name]; entry != nil {
		return entry.locations
	}
	return nil
}

// AutomaticModules lists the automatic modules derived from plain jars.
func (e *Environment) AutomaticModules() []string {
	var names []string
	for name, entry := range e.modules {
		if entry.descriptor.IsAutomatic {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ModuleClosure returns the modules reachable from the root set: the
// project's own modules, --add-modules, and either --limit-modules or
// every module with an unqualified export.
func (e *Environment) ModuleClosure() ([]string, error) {
	gr, err := module.NewGraph(e.descriptors())
	if err != nil {
		return nil, err
	}
	roots := slices.Clone(e.opts.AddModules)
	for _, b := range e.discovered {
		roots = append(roots, b.descriptor.Name)
	}
	if len(e.opts.LimitModules) > 0 {
		roots = append(roots, e.opts.LimitModules...)
	} else {
		roots = append(roots, gr.DefaultRoots()...)
	}
	return gr.Closure(roots)
}
