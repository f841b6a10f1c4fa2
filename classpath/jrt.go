package classpath

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dhamidi/namenv/access"
	"github.com/dhamidi/namenv/module"
)

// JrtImage is an exploded runtime image: one directory per system module,
// each holding its module-info.class and package directories. Lookups
// walk the modules in name order.
type JrtImage struct {
	root  string
	rules *access.RuleSet

	mu      sync.Mutex
	loaded  bool
	names   []string
	modules map[string]*module.Descriptor
}

func NewJrtImage(root string, rules *access.RuleSet) *JrtImage {
	return &JrtImage{root: root, rules: rules}
}

func (j *JrtImage) Mode() Mode                   { return ModeJrt }
func (j *JrtImage) Path() string                 { return j.root }
func (j *JrtImage) Key() uint64                  { return locationKey(ModeJrt, j.root) }
func (j *JrtImage) IsOutputFolder() bool         { return false }
func (j *JrtImage) AccessRules() *access.RuleSet { return j.rules }
func (j *JrtImage) String() string               { return "runtime image " + j.root }

func (j *JrtImage) load() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.loaded {
		return
	}
	j.loaded = true
	j.modules = map[string]*module.Descriptor{}
	entries, err := os.ReadDir(j.root)
	if err != nil {
		log.Warningf("cannot read runtime image %s: %s", j.root, err)
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(j.root, e.Name(), module.InfoClass))
		if err != nil {
			continue
		}
		d, err := module.Decode(data)
		if err != nil {
			log.Warningf("skipping system module %s: %s", e.Name(), err)
			continue
		}
		j.modules[e.Name()] = d
		j.names = append(j.names, e.Name())
	}
	sort.Strings(j.names)
}

// Modules returns the descriptors of every system module.
func (j *JrtImage) Modules() []*module.Descriptor {
	j.load()
	out := make([]*module.Descriptor, 0, len(j.names))
	for _, name := range j.names {
		out = append(out, j.modules[name])
	}
	return out
}

// AcceptModule is a no-op: the image knows its own modules.
func (j *JrtImage) AcceptModule(*module.Descriptor) {}

func (j *JrtImage) ModuleNames(limit []string) []string {
	j.load()
	var names []string
	for _, name := range j.names {
		if allowed(limit, name) {
			names = append(names, name)
		}
	}
	return names
}

func (j *JrtImage) Module(name string) *module.Descriptor {
	j.load()
	return j.modules[name]
}

func (j *JrtImage) candidates(moduleName string) []string {
	j.load()
	if moduleName == "" {
		return j.names
	}
	if _, ok := j.modules[moduleName]; ok {
		return []string{moduleName}
	}
	return nil
}

func (j *JrtImage) IsPackage(qualifiedPackageName, moduleName string) bool {
	for _, mod := range j.candidates(moduleName) {
		info, err := os.Stat(filepath.Join(j.root, mod, filepath.FromSlash(qualifiedPackageName)))
		if err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

func (j *JrtImage) FindClass(binaryFileName, qualifiedPackageName, moduleName, qualifiedBinaryFileName string) *Answer {
	for _, mod := range j.candidates(moduleName) {
		file := filepath.Join(j.root, mod, filepath.FromSlash(qualifiedBinaryFileName))
		data, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		cf := decodeAnswer(data, file)
		if cf == nil {
			return nil
		}
		return &Answer{
			Binary:      cf,
			Restriction: FetchAccessRestriction(j, qualifiedBinaryFileName),
			Module:      mod,
			Location:    j,
			Priority:    PriorityLibrary,
		}
	}
	return nil
}

func (j *JrtImage) Reset() {}

func (j *JrtImage) Cleanup() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.loaded = false
	j.names = nil
	j.modules = nil
}
