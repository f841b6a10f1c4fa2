package module

import (
	"bufio"
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	versionSuffix = regexp.MustCompile(`-(\d+(\.|$))`)
	nonAlnum      = regexp.MustCompile(`[^A-Za-z0-9]`)
	repeatedDots  = regexp.MustCompile(`\.{2,}`)
)

// AutomaticName derives a module name from a jar file name the way the
// JDK does: drop ".jar" and any version suffix, turn every other
// non-alphanumeric character into '.', then collapse and trim dots.
func AutomaticName(fileName string) (string, error) {
	base := filepath.Base(fileName)
	name := strings.TrimSuffix(base, ".jar")
	if loc := versionSuffix.FindStringIndex(name); loc != nil {
		name = name[:loc[0]]
	}
	name = nonAlnum.ReplaceAllString(name, ".")
	name = repeatedDots.ReplaceAllString(name, ".")
	name = strings.Trim(name, ".")
	if name == "" {
		return "", fmt.Errorf("cannot derive automatic module name from %q", base)
	}
	return name, nil
}

// Manifest is the main section of a META-INF/MANIFEST.MF file.
type Manifest map[string]string

func ParseManifest(data []byte) Manifest {
	m := Manifest{}
	var key string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			// only the main section matters
			break
		}
		if strings.HasPrefix(line, " ") && key != "" {
			m[key] += line[1:]
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(k)
		m[key] = strings.TrimSpace(v)
	}
	return m
}

func (m Manifest) AutomaticModuleName() string {
	return m["Automatic-Module-Name"]
}

func (m Manifest) MultiRelease() bool {
	return strings.EqualFold(m["Multi-Release"], "true")
}
