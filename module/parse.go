package module

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

type SyntaxError struct {
	File   string
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Msg)
}

type parser struct {
	lex  *lexer
	tok  token
	file string
}

// ParseSourceFile parses a module-info.java file.
func ParseSourceFile(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read module declaration: %w", err)
	}
	return ParseSource(data, path)
}

// ParseSource parses the text of a module-info.java compilation unit.
// Package names in the result use '/' like the class file form.
func ParseSource(data []byte, file string) (*Descriptor, error) {
	p := &parser{lex: newLexer(data), file: file}
	d, err := p.parse()
	if err != nil {
		var se *SyntaxError
		if errors.As(err, &se) && se.File == "" {
			se.File = file
		}
		return nil, err
	}
	d.SourceFile = file
	return d, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{File: p.file, Line: p.tok.line, Column: p.tok.column, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) is(text string) bool {
	return p.tok.kind != tokenEOF && p.tok.text == text
}

func (p *parser) expect(text string) error {
	if !p.is(text) {
		return p.errorf("expected %q, found %s", text, p.tok)
	}
	return p.advance()
}

func (p *parser) qualifiedName() (string, error) {
	if p.tok.kind != tokenIdent {
		return "", p.errorf("expected name, found %s", p.tok)
	}
	parts := []string{p.tok.text}
	if err := p.advance(); err != nil {
		return "", err
	}
	for p.is(".") {
		if err := p.advance(); err != nil {
			return "", err
		}
		if p.tok.kind != tokenIdent {
			// import on demand: a.b.*
			if p.is("*") {
				parts = append(parts, "*")
				return strings.Join(parts, "."), p.advance()
			}
			return "", p.errorf("expected name after '.', found %s", p.tok)
		}
		parts = append(parts, p.tok.text)
		if err := p.advance(); err != nil {
			return "", err
		}
	}
	return strings.Join(parts, "."), nil
}

func (p *parser) nameList() ([]string, error) {
	var names []string
	for {
		name, err := p.qualifiedName()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		if !p.is(",") {
			return names, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
}

func (p *parser) skipAnnotation() error {
	if err := p.expect("@"); err != nil {
		return err
	}
	if _, err := p.qualifiedName(); err != nil {
		return err
	}
	if !p.is("(") {
		return nil
	}
	depth := 0
	for {
		switch {
		case p.tok.kind == tokenEOF:
			return p.errorf("unterminated annotation")
		case p.is("("):
			depth++
		case p.is(")"):
			depth--
		}
		if err := p.advance(); err != nil {
			return err
		}
		if depth == 0 {
			return nil
		}
	}
}

func (p *parser) parse() (*Descriptor, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}

	for p.is("import") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.is("static") {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if _, err := p.qualifiedName(); err != nil {
			return nil, err
		}
		if err := p.expect(";"); err != nil {
			return nil, err
		}
	}

	for p.is("@") {
		if err := p.skipAnnotation(); err != nil {
			return nil, err
		}
	}

	d := &Descriptor{}
	if p.is("open") {
		d.IsOpen = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if err := p.expect("module"); err != nil {
		return nil, err
	}
	name, err := p.qualifiedName()
	if err != nil {
		return nil, err
	}
	d.Name = name
	if err := p.expect("{"); err != nil {
		return nil, err
	}

	for !p.is("}") {
		if p.tok.kind == tokenEOF {
			return nil, p.errorf("expected '}', found end of file")
		}
		if err := p.directive(d); err != nil {
			return nil, err
		}
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.kind != tokenEOF {
		return nil, p.errorf("unexpected %s after module declaration", p.tok)
	}
	return d, nil
}

func (p *parser) directive(d *Descriptor) error {
	keyword := p.tok.text
	if p.tok.kind != tokenIdent {
		return p.errorf("expected directive, found %s", p.tok)
	}
	if err := p.advance(); err != nil {
		return err
	}

	switch keyword {
	case "requires":
		var r RequiresDirective
		for (p.is("transitive") || p.is("static")) && p.tok.kind == tokenIdent {
			modifier := p.tok.text
			if err := p.advance(); err != nil {
				return err
			}
			// "requires transitive;" names a module called transitive.
			if p.is(";") || p.is(".") {
				r.ModuleName = modifier
				break
			}
			if modifier == "transitive" {
				r.IsTransitive = true
			} else {
				r.IsStatic = true
			}
		}
		if r.ModuleName == "" {
			name, err := p.qualifiedName()
			if err != nil {
				return err
			}
			r.ModuleName = name
		} else if p.is(".") {
			rest, err := p.dottedTail()
			if err != nil {
				return err
			}
			r.ModuleName += rest
		}
		d.Requires = append(d.Requires, r)

	case "exports", "opens":
		pkg, err := p.qualifiedName()
		if err != nil {
			return err
		}
		e := ExportsDirective{PackageName: strings.ReplaceAll(pkg, ".", "/")}
		if p.is("to") {
			if err := p.advance(); err != nil {
				return err
			}
			if e.ToModules, err = p.nameList(); err != nil {
				return err
			}
		}
		if keyword == "exports" {
			d.Exports = append(d.Exports, e)
		} else {
			d.Opens = append(d.Opens, e)
		}

	case "uses":
		name, err := p.qualifiedName()
		if err != nil {
			return err
		}
		d.Uses = append(d.Uses, strings.ReplaceAll(name, ".", "/"))

	case "provides":
		service, err := p.qualifiedName()
		if err != nil {
			return err
		}
		if err := p.expect("with"); err != nil {
			return err
		}
		impls, err := p.nameList()
		if err != nil {
			return err
		}
		pd := ProvidesDirective{ServiceName: strings.ReplaceAll(service, ".", "/")}
		for _, impl := range impls {
			pd.ImplementationNames = append(pd.ImplementationNames, strings.ReplaceAll(impl, ".", "/"))
		}
		d.Provides = append(d.Provides, pd)

	default:
		return &SyntaxError{File: p.file, Line: p.tok.line, Column: p.tok.column, Msg: fmt.Sprintf("unknown directive %q", keyword)}
	}
	return p.expect(";")
}

// dottedTail parses ".a.b" following a name that was already consumed.
func (p *parser) dottedTail() (string, error) {
	var b strings.Builder
	for p.is(".") {
		if err := p.advance(); err != nil {
			return "", err
		}
		if p.tok.kind != tokenIdent {
			return "", p.errorf("expected name after '.', found %s", p.tok)
		}
		b.WriteString("." + p.tok.text)
		if err := p.advance(); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}
