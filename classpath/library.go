package classpath

import (
	"io"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"

	"github.com/dhamidi/namenv/access"
	"github.com/dhamidi/namenv/module"
)

// Library is a jar, zip or jmod archive. The archive is opened on first use
// and closed by Cleanup.
type Library struct {
	singleModule
	path    string
	rules   *access.RuleSet
	release int
	prefix  string

	mu       sync.Mutex
	zr       *zip.ReadCloser
	broken   bool
	entries  map[string]*zip.File
	packages map[string]bool
	versions []string
}

func NewLibrary(path string, rules *access.RuleSet, release int) *Library {
	lib := &Library{path: path, rules: rules, release: release}
	if strings.EqualFold(filepath.Ext(path), ".jmod") {
		lib.prefix = "classes/"
	}
	return lib
}

func (l *Library) Mode() Mode                   { return ModeLibrary }
func (l *Library) Path() string                 { return l.path }
func (l *Library) Key() uint64                  { return locationKey(ModeLibrary, l.path) }
func (l *Library) IsOutputFolder() bool         { return false }
func (l *Library) AccessRules() *access.RuleSet { return l.rules }
func (l *Library) String() string               { return "library " + l.path }

// open must be called with l.mu held.
func (l *Library) open() bool {
	if l.zr != nil {
		return true
	}
	if l.broken {
		return false
	}
	zr, err := zip.OpenReader(l.path)
	if err != nil {
		log.Warningf("cannot open archive %s: %s", l.path, err)
		l.broken = true
		return false
	}
	l.zr = zr
	l.entries = make(map[string]*zip.File, len(zr.File))
	l.packages = map[string]bool{}
	multiRelease := false
	for _, f := range zr.File {
		l.entries[f.Name] = f
		if f.Name == "META-INF/MANIFEST.MF" {
			if data, err := readEntry(f); err == nil {
				multiRelease = module.ParseManifest(data).MultiRelease()
			}
		}
	}
	for name := range l.entries {
		if pkg, ok := l.packageOf(name); ok {
			if pkg == "." {
				l.packages[""] = true
				continue
			}
			for ; pkg != "." && pkg != "" && !l.packages[pkg]; pkg = path.Dir(pkg) {
				l.packages[pkg] = true
			}
		}
	}
	if multiRelease && l.release >= 9 {
		for v := l.release; v >= 9; v-- {
			l.versions = append(l.versions, "META-INF/versions/"+strconv.Itoa(v)+"/")
		}
	}
	return true
}

// packageOf maps an entry name to the package it contributes, folding
// multi-release entries onto their base package.
func (l *Library) packageOf(name string) (string, bool) {
	if !strings.HasPrefix(name, l.prefix) {
		return "", false
	}
	name = strings.TrimPrefix(name, l.prefix)
	if rest, ok := strings.CutPrefix(name, "META-INF/versions/"); ok {
		_, name, ok = strings.Cut(rest, "/")
		if !ok {
			return "", false
		}
	} else if strings.HasPrefix(name, "META-INF/") {
		return "", false
	}
	if strings.HasSuffix(name, "/") {
		return strings.TrimSuffix(name, "/"), true
	}
	return path.Dir(name), true
}

func (l *Library) IsPackage(qualifiedPackageName, moduleName string) bool {
	if !l.accepts(moduleName) {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.open() && l.packages[qualifiedPackageName]
}

func (l *Library) FindClass(binaryFileName, qualifiedPackageName, moduleName, qualifiedBinaryFileName string) *Answer {
	if !l.accepts(moduleName) {
		return nil
	}
	l.mu.Lock()
	if !l.open() || !l.packages[qualifiedPackageName] {
		l.mu.Unlock()
		return nil
	}
	var entry *zip.File
	for _, v := range l.versions {
		if entry = l.entries[v+qualifiedBinaryFileName]; entry != nil {
			break
		}
	}
	if entry == nil {
		entry = l.entries[l.prefix+qualifiedBinaryFileName]
	}
	l.mu.Unlock()
	if entry == nil {
		return nil
	}

	data, err := readEntry(entry)
	if err != nil {
		log.Warningf("cannot read %s!/%s: %s", l.path, entry.Name, err)
		return nil
	}
	cf := decodeAnswer(data, l.path+"!/"+entry.Name)
	if cf == nil {
		return nil
	}
	return &Answer{
		Binary:      cf,
		Restriction: FetchAccessRestriction(l, qualifiedBinaryFileName),
		Module:      l.moduleName(),
		Location:    l,
		Priority:    PriorityLibrary,
	}
}

func (l *Library) Reset() { l.resetModule() }

func (l *Library) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.zr != nil {
		if err := l.zr.Close(); err != nil {
			log.Debugf("closing %s: %s", l.path, err)
		}
	}
	l.zr = nil
	l.broken = false
	l.entries = nil
	l.packages = nil
	l.versions = nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
