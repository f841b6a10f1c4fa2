package classpath

import (
	"os"
	"strings"

	"github.com/dhamidi/namenv/access"
	"github.com/dhamidi/namenv/classfile"
)

// Answer is the result of a type lookup: a decoded binary type or a source
// unit, plus the restriction and module it came with.
type Answer struct {
	Binary      *classfile.ClassFile
	Source      *SourceFile
	Restriction *access.Restriction
	Module      string
	Location    Location
	// Priority ranks binary answers; output folders rank above libraries.
	Priority int
}

const (
	PriorityLibrary = 0
	PriorityOutput  = 1
)

func (a *Answer) IsBinary() bool { return a != nil && a.Binary != nil }
func (a *Answer) IsSource() bool { return a != nil && a.Source != nil }

func (a *Answer) TypeName() string {
	switch {
	case a.IsBinary():
		return a.Binary.ClassName()
	case a.IsSource():
		return a.Source.TypeName
	}
	return ""
}

// IgnoreIfBetter reports whether a better answer elsewhere should win.
func (a *Answer) IgnoreIfBetter() bool {
	return a.Restriction.IgnoreIfBetter()
}

// IsBetter reports whether a should be preferred over other: unrestricted
// answers beat everything, a lesser restriction beats a greater one, and
// among equal restrictions the higher priority wins.
func (a *Answer) IsBetter(other *Answer) bool {
	if other == nil || a.Restriction == nil {
		return true
	}
	if other.Restriction == nil {
		return false
	}
	mine, theirs := a.Restriction.ProblemID(), other.Restriction.ProblemID()
	if mine != theirs {
		return mine < theirs
	}
	return a.Priority > other.Priority
}

// SourceFile is a compilation unit on disk.
type SourceFile struct {
	Path     string
	TypeName string
	Language string
	Module   string
	Folder   *SourceFolder
}

const (
	LanguageJava   = "java"
	LanguageGroovy = "groovy"
)

var sourceExtensions = map[string]string{
	".java":   LanguageJava,
	".groovy": LanguageGroovy,
}

// NewSourceFile derives type name and language from a path relative to
// its source folder, e.g. "p/Foo.java" becomes "p/Foo" in Java.
func NewSourceFile(path, relative string) *SourceFile {
	relative = strings.ReplaceAll(relative, "\\", "/")
	sf := &SourceFile{Path: path}
	for ext, lang := range sourceExtensions {
		if strings.HasSuffix(relative, ext) {
			sf.TypeName = strings.TrimSuffix(relative, ext)
			sf.Language = lang
			return sf
		}
	}
	sf.TypeName = relative
	return sf
}

func (s *SourceFile) IsJava() bool { return s.Language == LanguageJava }

func (s *SourceFile) Contents() ([]byte, error) {
	return os.ReadFile(s.Path)
}

func (s *SourceFile) String() string { return s.Path }
