package module

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"
)

const (
	InfoClass = "module-info.class"
	InfoJava  = "module-info.java"

	jmodClassesPrefix = "classes/"
	versionsPrefix    = "META-INF/versions/"
	manifestName      = "META-INF/MANIFEST.MF"
)

// NameMismatchError reports a module-info.java whose declared module name
// differs from the directory holding it.
type NameMismatchError struct {
	Declared  string
	Directory string
}

func (e *NameMismatchError) Error() string {
	return fmt.Sprintf("module name %q does not match directory %q", e.Declared, e.Directory)
}

// Finder locates module descriptors in directories, jars and jmods.
type Finder struct {
	// AllowAutomatic turns plain jars into automatic modules.
	AllowAutomatic bool
	// Release selects multi-release overrides; 0 disables them.
	Release int
	// PropagateIOErrors returns unreadable archives as errors instead of
	// logging them and treating them as holding no module.
	PropagateIOErrors bool
}

// Found is a module discovered on a module path.
type Found struct {
	Path       string
	Descriptor *Descriptor
}

// FindModule returns the descriptor of the module rooted at p, or nil when
// p holds no module.
func (f *Finder) FindModule(p string) (*Descriptor, error) {
	info, err := os.Stat(p)
	if err != nil {
		return f.ioError(p, err)
	}
	if info.IsDir() {
		return f.findInDirectory(p)
	}
	switch strings.ToLower(filepath.Ext(p)) {
	case ".jar", ".zip":
		return f.findInArchive(p, "")
	case ".jmod":
		return f.findInArchive(p, jmodClassesPrefix)
	}
	return nil, nil
}

// Scan finds the modules of a module path entry. A directory that is not
// itself a module is searched one level deep, each child being a candidate.
func (f *Finder) Scan(root string) ([]Found, error) {
	d, err := f.FindModule(root)
	if err != nil {
		return nil, err
	}
	if d != nil {
		return []Found{{Path: root, Descriptor: d}}, nil
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		_, err = f.ioError(root, err)
		return nil, err
	}
	var found []Found
	for _, entry := range entries {
		child := filepath.Join(root, entry.Name())
		d, err := f.FindModule(child)
		if err != nil {
			return nil, err
		}
		if d != nil {
			found = append(found, Found{Path: child, Descriptor: d})
		}
	}
	return found, nil
}

func (f *Finder) ioError(p string, err error) (*Descriptor, error) {
	if f.PropagateIOErrors {
		return nil, fmt.Errorf("failed to read module location %s: %w", p, err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		log.Warningf("ignoring unreadable module location %s: %s", p, err)
	}
	return nil, nil
}

// findInDirectory prefers module-info.class over module-info.java.
func (f *Finder) findInDirectory(dir string) (*Descriptor, error) {
	data, err := os.ReadFile(filepath.Join(dir, InfoClass))
	if err == nil {
		d, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Join(dir, InfoClass), err)
		}
		return d, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return f.ioError(dir, err)
	}

	src := filepath.Join(dir, InfoJava)
	if _, err := os.Stat(src); err != nil {
		return nil, nil
	}
	d, err := ParseSourceFile(src)
	if err != nil {
		return nil, err
	}
	if base := filepath.Base(dir); d.Name != base {
		return nil, &NameMismatchError{Declared: d.Name, Directory: base}
	}
	return d, nil
}

func (f *Finder) findInArchive(p, prefix string) (*Descriptor, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return f.ioError(p, err)
	}
	defer zr.Close()

	entries := map[string]*zip.File{}
	for _, file := range zr.File {
		entries[file.Name] = file
	}

	var manifest Manifest
	if mf := entries[manifestName]; mf != nil {
		data, err := readZipFile(mf)
		if err != nil {
			return f.ioError(p, err)
		}
		manifest = ParseManifest(data)
	}

	name := prefix + InfoClass
	if prefix == "" && f.Release >= 9 && manifest.MultiRelease() {
		for v := f.Release; v >= 9; v-- {
			candidate := versionsPrefix + strconv.Itoa(v) + "/" + InfoClass
			if entries[candidate] != nil {
				name = candidate
				break
			}
		}
	}

	if file := entries[name]; file != nil {
		data, err := readZipFile(file)
		if err != nil {
			return f.ioError(p, err)
		}
		d, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s!/%s: %w", p, name, err)
		}
		d.SourceFile = p
		return d, nil
	}

	if !f.AllowAutomatic || prefix != "" || !strings.EqualFold(filepath.Ext(p), ".jar") {
		return nil, nil
	}
	modName := manifest.AutomaticModuleName()
	if modName == "" {
		if modName, err = AutomaticName(p); err != nil {
			return f.ioError(p, err)
		}
	}
	log.Debugf("automatic module %s from %s", modName, p)
	return &Descriptor{
		Name:        modName,
		IsAutomatic: true,
		IsOpen:      true,
		Packages:    archivePackages(zr.File),
		SourceFile:  p,
	}, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func archivePackages(files []*zip.File) []string {
	seen := map[string]bool{}
	for _, f := range files {
		if !strings.HasSuffix(f.Name, ".class") || strings.HasPrefix(f.Name, "META-INF/") {
			continue
		}
		if dir := path.Dir(f.Name); dir != "." {
			seen[dir] = true
		}
	}
	pkgs := make([]string, 0, len(seen))
	for pkg := range seen {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)
	return pkgs
}
