// Package module finds, reads and relates module descriptors.
package module

import (
	"slices"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/namenv/classfile"
)

var log = commonlog.GetLogger("namenv.module")

// Unnamed is the pseudo module holding everything on the plain classpath.
const Unnamed = ""

type Descriptor struct {
	Name        string
	IsOpen      bool
	IsAutomatic bool
	Requires    []RequiresDirective
	Exports     []ExportsDirective
	Opens       []ExportsDirective
	Uses        []string
	Provides    []ProvidesDirective
	// Packages is the ModulePackages attribute when read from a class file.
	Packages []string
	// SourceFile is where the descriptor was read from.
	SourceFile string
}

type RequiresDirective struct {
	ModuleName   string
	IsTransitive bool
	IsStatic     bool
}

// ExportsDirective is used for both exports and opens. An empty ToModules
// means unqualified.
type ExportsDirective struct {
	PackageName string
	ToModules   []string
}

type ProvidesDirective struct {
	ServiceName         string
	ImplementationNames []string
}

// Reads reports whether d has a requires directive for name.
func (d *Descriptor) Reads(name string) bool {
	return slices.ContainsFunc(d.Requires, func(r RequiresDirective) bool { return r.ModuleName == name })
}

// ExportsTo reports whether pkg is exported to target. An empty target asks
// for an unqualified export. Automatic modules export every package.
func (d *Descriptor) ExportsTo(pkg, target string) bool {
	if d.IsAutomatic {
		return true
	}
	pkg = strings.ReplaceAll(pkg, ".", "/")
	for _, e := range d.Exports {
		if e.PackageName != pkg {
			continue
		}
		if len(e.ToModules) == 0 || (target != "" && slices.Contains(e.ToModules, target)) {
			return true
		}
	}
	return false
}

// HasUnqualifiedExport reports whether any package is exported to everyone.
func (d *Descriptor) HasUnqualifiedExport() bool {
	for _, e := range d.Exports {
		if len(e.ToModules) == 0 {
			return true
		}
	}
	return d.IsAutomatic
}

func (d *Descriptor) Clone() *Descriptor {
	c := *d
	c.Requires = slices.Clone(d.Requires)
	c.Exports = make([]ExportsDirective, len(d.Exports))
	for i, e := range d.Exports {
		c.Exports[i] = ExportsDirective{PackageName: e.PackageName, ToModules: slices.Clone(e.ToModules)}
	}
	c.Opens = slices.Clone(d.Opens)
	c.Uses = slices.Clone(d.Uses)
	c.Provides = slices.Clone(d.Provides)
	c.Packages = slices.Clone(d.Packages)
	return &c
}

// FromClassFile converts the Module attribute of a module-info class.
func FromClassFile(cf *classfile.ClassFile) *Descriptor {
	attr := cf.ModuleAttribute()
	if attr == nil {
		return nil
	}
	d := &Descriptor{
		Name:       attr.Name,
		IsOpen:     attr.IsOpen(),
		Uses:       slices.Clone(attr.Uses),
		Packages:   slices.Clone(cf.ModulePackages()),
		SourceFile: cf.SourceFileName(),
	}
	for _, r := range attr.Requires {
		d.Requires = append(d.Requires, RequiresDirective{
			ModuleName:   r.Module,
			IsTransitive: r.IsTransitive(),
			IsStatic:     r.IsStatic(),
		})
	}
	for _, e := range attr.Exports {
		d.Exports = append(d.Exports, ExportsDirective{PackageName: e.Package, ToModules: slices.Clone(e.To)})
	}
	for _, o := range attr.Opens {
		d.Opens = append(d.Opens, ExportsDirective{PackageName: o.Package, ToModules: slices.Clone(o.To)})
	}
	for _, p := range attr.Provides {
		d.Provides = append(d.Provides, ProvidesDirective{ServiceName: p.Service, ImplementationNames: slices.Clone(p.With)})
	}
	return d
}

// Decode reads a module-info class file.
func Decode(data []byte) (*Descriptor, error) {
	cf, err := classfile.Decode(data, classfile.DecodeAttributes)
	if err != nil {
		return nil, err
	}
	d := FromClassFile(cf)
	if d == nil {
		return nil, &classfile.FormatError{Reason: classfile.ReasonMalformedAttribute, Detail: "module-info without Module attribute"}
	}
	return d, nil
}
