// Package classpath implements the places a name environment looks for
// types: source folders with their output folders, binary folders,
// archives and runtime images.
package classpath

import (
	"path/filepath"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/namenv/access"
	"github.com/dhamidi/namenv/classfile"
	"github.com/dhamidi/namenv/module"
)

var log = commonlog.GetLogger("namenv.classpath")

type Mode int

const (
	ModeSource Mode = iota
	ModeBinary
	ModeLibrary
	ModeJrt
)

func (m Mode) String() string {
	switch m {
	case ModeSource:
		return "source"
	case ModeBinary:
		return "binary"
	case ModeLibrary:
		return "library"
	}
	return "jrt"
}

// Location is one classpath entry. All names are '/'-separated. An empty
// moduleName matches any module.
type Location interface {
	Mode() Mode
	Path() string
	// Key identifies the location by mode and normalized path.
	Key() uint64
	IsOutputFolder() bool
	AccessRules() *access.RuleSet

	IsPackage(qualifiedPackageName, moduleName string) bool
	// FindClass looks up binaryFileName ("Foo.class") in
	// qualifiedPackageName ("p/q"); qualifiedBinaryFileName is "p/q/Foo.class".
	FindClass(binaryFileName, qualifiedPackageName, moduleName, qualifiedBinaryFileName string) *Answer

	// Reset drops the module binding and per-round caches.
	Reset()
	// Cleanup releases open resources. The location stays usable and
	// reopens them on demand.
	Cleanup()

	AcceptModule(d *module.Descriptor)
	// ModuleNames lists the modules of this location allowed by limit; a
	// nil limit allows every module.
	ModuleNames(limit []string) []string
	Module(name string) *module.Descriptor

	String() string
}

// NormalizePath cleans p and uses '/' as separator.
func NormalizePath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}

func locationKey(mode Mode, path string) uint64 {
	h := xxhash.New()
	h.WriteString(mode.String())
	h.WriteString("\x00")
	h.WriteString(NormalizePath(path))
	return h.Sum64()
}

func Equal(a, b Location) bool {
	return a.Mode() == b.Mode() && NormalizePath(a.Path()) == NormalizePath(b.Path())
}

// Dedup keeps the first location for each key.
func Dedup(locations []Location) []Location {
	seen := map[uint64]bool{}
	out := make([]Location, 0, len(locations))
	for _, loc := range locations {
		if seen[loc.Key()] {
			continue
		}
		seen[loc.Key()] = true
		out = append(out, loc)
	}
	return out
}

// FetchAccessRestriction returns the restriction rules put on a qualified
// binary file name, or nil.
func FetchAccessRestriction(loc Location, qualifiedBinaryFileName string) *access.Restriction {
	return loc.AccessRules().Restriction(qualifiedBinaryFileName)
}

func allowed(limit []string, name string) bool {
	return limit == nil || slices.Contains(limit, name)
}

// singleModule is embedded by locations holding at most one module.
type singleModule struct {
	module *module.Descriptor
}

func (s *singleModule) AcceptModule(d *module.Descriptor) { s.module = d }

func (s *singleModule) resetModule() { s.module = nil }

func (s *singleModule) ModuleNames(limit []string) []string {
	if s.module == nil || !allowed(limit, s.module.Name) {
		return nil
	}
	return []string{s.module.Name}
}

func (s *singleModule) Module(name string) *module.Descriptor {
	if s.module != nil && s.module.Name == name {
		return s.module
	}
	return nil
}

func (s *singleModule) moduleName() string {
	if s.module == nil {
		return module.Unnamed
	}
	return s.module.Name
}

// accepts reports whether a lookup restricted to moduleName may look here.
func (s *singleModule) accepts(moduleName string) bool {
	return moduleName == "" || moduleName == s.moduleName()
}

func decodeAnswer(data []byte, origin string) *classfile.ClassFile {
	cf, err := classfile.Decode(data, classfile.DecodeAll)
	if err != nil {
		log.Warningf("skipping %s: %s", origin, err)
		return nil
	}
	return cf
}
