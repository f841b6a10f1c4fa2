// Package access models the access rules attached to classpath entries and
// the restrictions they put on the types found there.
package access

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

type Kind int

const (
	Accessible Kind = iota
	Discouraged
	NonAccessible
)

func (k Kind) String() string {
	switch k {
	case Discouraged:
		return "discouraged"
	case NonAccessible:
		return "forbidden"
	}
	return "accessible"
}

// ProblemID orders restrictions: a lower id is the lesser problem.
type ProblemID int

const (
	NoProblem ProblemID = iota
	DiscouragedReference
	ForbiddenReference
)

// EntryKind says where a restricted entry came from.
type EntryKind int

const (
	CommandLine EntryKind = iota
	Project
	Library
)

func (k EntryKind) String() string {
	switch k {
	case Project:
		return "project"
	case Library:
		return "library"
	}
	return "command line"
}

type Rule struct {
	Pattern        string
	Kind           Kind
	IgnoreIfBetter bool
}

// ParseRule parses "<kind>[?]<pattern>" where kind is '+' (accessible),
// '~' (discouraged) or '-' (forbidden) and '?' marks the rule as
// ignore-if-better.
func ParseRule(s string) (Rule, error) {
	if len(s) < 2 {
		return Rule{}, fmt.Errorf("invalid access rule %q", s)
	}
	var r Rule
	switch s[0] {
	case '+':
		r.Kind = Accessible
	case '~':
		r.Kind = Discouraged
	case '-':
		r.Kind = NonAccessible
	default:
		return Rule{}, fmt.Errorf("invalid access rule %q: unknown kind %q", s, s[0])
	}
	rest := s[1:]
	if strings.HasPrefix(rest, "?") {
		r.IgnoreIfBetter = true
		rest = rest[1:]
	}
	r.Pattern = filepath.ToSlash(rest)
	if r.Pattern == "" || !doublestar.ValidatePattern(r.Pattern) {
		return Rule{}, fmt.Errorf("invalid access rule %q: bad pattern", s)
	}
	return r, nil
}

func (r Rule) String() string {
	prefix := "+"
	switch r.Kind {
	case Discouraged:
		prefix = "~"
	case NonAccessible:
		prefix = "-"
	}
	if r.IgnoreIfBetter {
		prefix += "?"
	}
	return prefix + r.Pattern
}

func (r Rule) Matches(name string) bool {
	ok, err := doublestar.Match(r.Pattern, name)
	return err == nil && ok
}

func (r Rule) ProblemID() ProblemID {
	switch r.Kind {
	case Discouraged:
		return DiscouragedReference
	case NonAccessible:
		return ForbiddenReference
	}
	return NoProblem
}

// RuleSet is the ordered rule list of one classpath entry. The first rule
// matching a name decides.
type RuleSet struct {
	Rules     []Rule
	EntryKind EntryKind
	EntryName string
}

func ParseRuleSet(kind EntryKind, entryName string, rules []string) (*RuleSet, error) {
	if len(rules) == 0 {
		return nil, nil
	}
	set := &RuleSet{EntryKind: kind, EntryName: entryName}
	for _, s := range rules {
		r, err := ParseRule(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entryName, err)
		}
		set.Rules = append(set.Rules, r)
	}
	return set, nil
}

// Restriction returns the restriction for a qualified binary file name such
// as "p/q/Foo.class", or nil when the name is accessible.
func (s *RuleSet) Restriction(fileName string) *Restriction {
	if s == nil {
		return nil
	}
	name := NormalizeName(fileName)
	for _, r := range s.Rules {
		if !r.Matches(name) {
			continue
		}
		if r.Kind == Accessible {
			return nil
		}
		return &Restriction{Rule: r, EntryKind: s.EntryKind, EntryName: s.EntryName}
	}
	return nil
}

// NormalizeName strips a trailing ".class" and uses '/' as separator.
func NormalizeName(fileName string) string {
	name := strings.TrimSuffix(fileName, ".class")
	return strings.ReplaceAll(name, "\\", "/")
}

type Restriction struct {
	Rule      Rule
	EntryKind EntryKind
	EntryName string
}

func (r *Restriction) ProblemID() ProblemID {
	if r == nil {
		return NoProblem
	}
	return r.Rule.ProblemID()
}

func (r *Restriction) IgnoreIfBetter() bool {
	return r != nil && r.Rule.IgnoreIfBetter
}

func (r *Restriction) String() string {
	return fmt.Sprintf("%s reference (rule %s on %s %s)", r.Rule.Kind, r.Rule, r.EntryKind, r.EntryName)
}
