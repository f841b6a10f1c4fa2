package module

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var ErrMalformedOption = errors.New("malformed module option")

type OptionError struct {
	Option string
	Value  string
	Reason string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Option, e.Value, e.Reason)
}

func (e *OptionError) Unwrap() error { return ErrMalformedOption }

// AddReads is a parsed --add-reads source=target[,target...].
type AddReads struct {
	Source  string
	Targets []string
}

// AddExports is a parsed --add-exports source/package=target[,target...].
type AddExports struct {
	Source  string
	Package string
	Targets []string
}

func ParseAddReads(value string) (AddReads, error) {
	fail := func(reason string) (AddReads, error) {
		return AddReads{}, &OptionError{Option: "--add-reads", Value: value, Reason: reason}
	}
	source, targets, ok := strings.Cut(value, "=")
	if !ok {
		return fail("expected source=target")
	}
	source = strings.TrimSpace(source)
	if source == "" {
		return fail("missing source module")
	}
	list, err := splitTargets(targets)
	if err != nil {
		return fail(err.Error())
	}
	return AddReads{Source: source, Targets: list}, nil
}

func ParseAddExports(value string) (AddExports, error) {
	fail := func(reason string) (AddExports, error) {
		return AddExports{}, &OptionError{Option: "--add-exports", Value: value, Reason: reason}
	}
	lhs, targets, ok := strings.Cut(value, "=")
	if !ok {
		return fail("expected source/package=target")
	}
	source, pkg, ok := strings.Cut(lhs, "/")
	source, pkg = strings.TrimSpace(source), strings.TrimSpace(pkg)
	if !ok || source == "" || pkg == "" {
		return fail("expected source/package before '='")
	}
	list, err := splitTargets(targets)
	if err != nil {
		return fail(err.Error())
	}
	return AddExports{Source: source, Package: strings.ReplaceAll(pkg, ".", "/"), Targets: list}, nil
}

func splitTargets(s string) ([]string, error) {
	var list []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, errors.New("empty target module")
		}
		list = append(list, t)
	}
	return list, nil
}

// Updater applies --add-reads and --add-exports to descriptors.
type Updater struct {
	reads   map[string][]string
	exports map[string][]AddExports
}

func NewUpdater(reads []AddReads, exports []AddExports) *Updater {
	u := &Updater{reads: map[string][]string{}, exports: map[string][]AddExports{}}
	for _, r := range reads {
		u.reads[r.Source] = append(u.reads[r.Source], r.Targets...)
	}
	for _, e := range exports {
		u.exports[e.Source] = append(u.exports[e.Source], e)
	}
	return u
}

// ParseUpdater parses raw option values.
func ParseUpdater(addReads, addExports []string) (*Updater, error) {
	var reads []AddReads
	for _, v := range addReads {
		r, err := ParseAddReads(v)
		if err != nil {
			return nil, err
		}
		reads = append(reads, r)
	}
	var exports []AddExports
	for _, v := range addExports {
		e, err := ParseAddExports(v)
		if err != nil {
			return nil, err
		}
		exports = append(exports, e)
	}
	return NewUpdater(reads, exports), nil
}

// Apply returns d with the extra reads and exports for its name. d itself
// is never modified.
func (u *Updater) Apply(d *Descriptor) *Descriptor {
	if u == nil || d == nil {
		return d
	}
	reads, exports := u.reads[d.Name], u.exports[d.Name]
	if len(reads) == 0 && len(exports) == 0 {
		return d
	}
	out := d.Clone()
	for _, target := range reads {
		if !out.Reads(target) {
			out.Requires = append(out.Requires, RequiresDirective{ModuleName: target})
		}
	}
	for _, e := range exports {
		idx := slices.IndexFunc(out.Exports, func(x ExportsDirective) bool { return x.PackageName == e.Package })
		if idx < 0 {
			out.Exports = append(out.Exports, ExportsDirective{PackageName: e.Package, ToModules: slices.Clone(e.Targets)})
			continue
		}
		if len(out.Exports[idx].ToModules) == 0 {
			continue // already unqualified
		}
		for _, t := range e.Targets {
			if !slices.Contains(out.Exports[idx].ToModules, t) {
				out.Exports[idx].ToModules = append(out.Exports[idx].ToModules, t)
			}
		}
	}
	return out
}
