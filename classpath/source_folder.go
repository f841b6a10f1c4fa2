package classpath

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dhamidi/namenv/access"
	"github.com/dhamidi/namenv/module"
)

// SourceFolder pairs a source directory with the output folder its classes
// are compiled into. Binary lookups are answered from the output folder.
type SourceFolder struct {
	path     string
	output   *BinaryFolder
	includes []string
	excludes []string
	module   *module.Descriptor
}

func NewSourceFolder(path string, output *BinaryFolder, includes, excludes []string) (*SourceFolder, error) {
	for _, p := range append(append([]string(nil), includes...), excludes...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("source folder %s: invalid pattern %q", path, p)
		}
	}
	return &SourceFolder{path: path, output: output, includes: includes, excludes: excludes}, nil
}

func (s *SourceFolder) Mode() Mode                   { return ModeSource }
func (s *SourceFolder) Path() string                 { return s.path }
func (s *SourceFolder) Key() uint64                  { return locationKey(ModeSource, s.path) }
func (s *SourceFolder) IsOutputFolder() bool         { return true }
func (s *SourceFolder) AccessRules() *access.RuleSet { return nil }
func (s *SourceFolder) Output() *BinaryFolder        { return s.output }
func (s *SourceFolder) String() string               { return "source folder " + s.path }

func (s *SourceFolder) AcceptModule(d *module.Descriptor) {
	s.module = d
	s.output.AcceptModule(d)
}

func (s *SourceFolder) ModuleNames(limit []string) []string { return s.output.ModuleNames(limit) }

func (s *SourceFolder) Module(name string) *module.Descriptor { return s.output.Module(name) }

// IsExcluded reports whether a path relative to the folder, such as
// "p/Foo.java", is filtered out by the inclusion and exclusion patterns.
func (s *SourceFolder) IsExcluded(relative string) bool {
	relative = filepath.ToSlash(relative)
	if len(s.includes) > 0 && !matchAny(s.includes, relative) {
		return true
	}
	return matchAny(s.excludes, relative)
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

func (s *SourceFolder) IsPackage(qualifiedPackageName, moduleName string) bool {
	if s.output.IsPackage(qualifiedPackageName, moduleName) {
		return true
	}
	if moduleName != "" && moduleName != s.output.moduleName() {
		return false
	}
	info, err := os.Stat(filepath.Join(s.path, filepath.FromSlash(qualifiedPackageName)))
	return err == nil && info.IsDir()
}

// FindClass answers from the output folder unless every source that could
// have produced the class is excluded.
func (s *SourceFolder) FindClass(binaryFileName, qualifiedPackageName, moduleName, qualifiedBinaryFileName string) *Answer {
	if s.sourceExcluded(qualifiedBinaryFileName) {
		return nil
	}
	answer := s.output.FindClass(binaryFileName, qualifiedPackageName, moduleName, qualifiedBinaryFileName)
	if answer != nil {
		answer.Location = s
	}
	return answer
}

func (s *SourceFolder) sourceExcluded(qualifiedBinaryFileName string) bool {
	if len(s.includes) == 0 && len(s.excludes) == 0 {
		return false
	}
	name := strings.TrimSuffix(qualifiedBinaryFileName, ".class")
	if i := strings.IndexByte(name, '$'); i >= 0 {
		name = name[:i]
	}
	for ext := range sourceExtensions {
		if !s.IsExcluded(name + ext) {
			return false
		}
	}
	return true
}

// SourceFiles walks the folder for compilation units that pass the
// inclusion and exclusion patterns. The output folder is skipped when it is
// nested inside the source folder.
func (s *SourceFolder) SourceFiles() ([]*SourceFile, error) {
	outAbs, _ := filepath.Abs(s.output.Path())
	var files []*SourceFile
	err := filepath.WalkDir(s.path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if abs, _ := filepath.Abs(p); abs == outAbs && p != s.path {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(s.path, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if _, ok := sourceExtensions[filepath.Ext(rel)]; !ok || rel == module.InfoJava || s.IsExcluded(rel) {
			return nil
		}
		sf := NewSourceFile(p, rel)
		sf.Folder = s
		sf.Module = s.output.moduleName()
		files = append(files, sf)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk source folder %s: %w", s.path, err)
	}
	return files, nil
}

func (s *SourceFolder) Reset() {
	s.module = nil
	s.output.Reset()
}

func (s *SourceFolder) Cleanup() { s.output.Cleanup() }
