package classpath

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/dhamidi/namenv/access"
)

// BinaryFolder is a directory of class files: a project's output folder or
// a library folder. Directory listings of library folders are cached until
// Reset, output folders change during a build and are always read fresh.
type BinaryFolder struct {
	singleModule
	path     string
	isOutput bool
	rules    *access.RuleSet

	mu       sync.Mutex
	listings map[string][]string
}

func NewBinaryFolder(path string, isOutput bool, rules *access.RuleSet) *BinaryFolder {
	return &BinaryFolder{path: path, isOutput: isOutput, rules: rules}
}

func (b *BinaryFolder) Mode() Mode                   { return ModeBinary }
func (b *BinaryFolder) Path() string                 { return b.path }
func (b *BinaryFolder) Key() uint64                  { return locationKey(ModeBinary, b.path) }
func (b *BinaryFolder) IsOutputFolder() bool         { return b.isOutput }
func (b *BinaryFolder) AccessRules() *access.RuleSet { return b.rules }

func (b *BinaryFolder) String() string {
	if b.isOutput {
		return "output folder " + b.path
	}
	return "binary folder " + b.path
}

func (b *BinaryFolder) IsPackage(qualifiedPackageName, moduleName string) bool {
	if !b.accepts(moduleName) {
		return false
	}
	info, err := os.Stat(filepath.Join(b.path, filepath.FromSlash(qualifiedPackageName)))
	return err == nil && info.IsDir()
}

// listing returns the file names of a package directory, nil if missing.
func (b *BinaryFolder) listing(qualifiedPackageName string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if names, ok := b.listings[qualifiedPackageName]; ok {
		return names
	}
	entries, err := os.ReadDir(filepath.Join(b.path, filepath.FromSlash(qualifiedPackageName)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warningf("cannot list %s in %s: %s", qualifiedPackageName, b.path, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	if b.listings == nil {
		b.listings = map[string][]string{}
	}
	b.listings[qualifiedPackageName] = names
	return names
}

func (b *BinaryFolder) FindClass(binaryFileName, qualifiedPackageName, moduleName, qualifiedBinaryFileName string) *Answer {
	if !b.accepts(moduleName) {
		return nil
	}
	// the listing check is case sensitive even on case-insensitive file systems
	if !b.isOutput && !slices.Contains(b.listing(qualifiedPackageName), binaryFileName) {
		return nil
	}
	file := filepath.Join(b.path, filepath.FromSlash(qualifiedBinaryFileName))
	data, err := os.ReadFile(file)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warningf("cannot read %s: %s", file, err)
		}
		return nil
	}
	cf := decodeAnswer(data, file)
	if cf == nil {
		return nil
	}
	answer := &Answer{
		Binary:      cf,
		Restriction: FetchAccessRestriction(b, qualifiedBinaryFileName),
		Module:      b.moduleName(),
		Location:    b,
		Priority:    PriorityLibrary,
	}
	if b.isOutput {
		answer.Priority = PriorityOutput
	}
	return answer
}

func (b *BinaryFolder) Reset() {
	b.resetModule()
	b.dropListings()
}

func (b *BinaryFolder) Cleanup() {
	b.dropListings()
}

func (b *BinaryFolder) dropListings() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listings = nil
}
