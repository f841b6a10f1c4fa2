package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"

	"github.com/dhamidi/namenv/classpath"
	"github.com/dhamidi/namenv/problem"
)

var (
	binaryStyle  = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	sourceStyle  = pterm.NewStyle(pterm.BgLightBlue, pterm.FgBlack)
	missingStyle = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	warnStyle    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	detailColor  = pterm.FgGray
)

// printer writes command output. Paths inside the workspace are shown
// relative to its root.
type printer struct {
	w     io.Writer
	root  string
	color bool
}

func newPrinter(w io.Writer, root string, color bool) *printer {
	return &printer{w: w, root: root, color: color}
}

func (p *printer) path(s string) string {
	rel, err := filepath.Rel(p.root, s)
	if err != nil || strings.HasPrefix(rel, "..") {
		return s
	}
	return filepath.ToSlash(rel)
}

func (p *printer) tag(style *pterm.Style, text string) string {
	text = fmt.Sprintf("%-7s", text)
	if !p.color {
		return text
	}
	return style.Sprint(text)
}

func (p *printer) detail(text string) string {
	if !p.color {
		return text
	}
	return detailColor.Sprint(text)
}

func (p *printer) location(loc classpath.Location) string {
	kind := loc.Mode().String()
	if loc.IsOutputFolder() && loc.Mode() == classpath.ModeBinary {
		kind = "output"
	}
	return kind + " " + p.path(loc.Path())
}

func (p *printer) answer(name string, a *classpath.Answer) {
	switch {
	case a.IsSource():
		fmt.Fprintf(p.w, "%s %s %s\n", p.tag(sourceStyle, "source"), name, p.detail("from "+p.path(a.Source.Path)))
	case a.IsBinary():
		var details []string
		if a.Location != nil {
			details = append(details, "from "+p.location(a.Location))
		}
		if a.Module != "" {
			details = append(details, "module "+a.Module)
		}
		if a.Restriction != nil {
			details = append(details, a.Restriction.String())
		}
		fmt.Fprintf(p.w, "%s %s %s\n", p.tag(binaryStyle, "binary"), name, p.detail(strings.Join(details, ", ")))
	default:
		fmt.Fprintf(p.w, "%s %s\n", p.tag(missingStyle, "missing"), name)
	}
}

func (p *printer) diagnostics(ds []problem.Diagnostic) {
	for _, d := range ds {
		style := warnStyle
		if d.Severity == problem.Error {
			style = missingStyle
		}
		d.Subject = p.path(d.Subject)
		text := d.String()
		if p.color {
			text = style.Sprint(text)
		}
		fmt.Fprintln(p.w, text)
	}
}

func (p *printer) line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}
