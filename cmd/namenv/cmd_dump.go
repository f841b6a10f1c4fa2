package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/namenv/classfile"
	"github.com/dhamidi/namenv/module"
)

type dumpedMethod struct {
	Name       string   `json:"name"`
	Descriptor string   `json:"descriptor"`
	Throws     []string `json:"throws,omitempty"`
}

type dumpedClass struct {
	Name       string             `json:"name"`
	Version    string             `json:"version"`
	Super      string             `json:"super,omitempty"`
	Interfaces []string           `json:"interfaces,omitempty"`
	SourceFile string             `json:"sourceFile,omitempty"`
	Methods    []dumpedMethod     `json:"methods,omitempty"`
	Module     *module.Descriptor `json:"module,omitempty"`
}

func newDumpCmd(g *globalOptions) *cobra.Command {
	var dumpFormat string

	cmd := &cobra.Command{
		Use:   "dump <file.class>",
		Short: "Dump the header, methods and module descriptor of a class file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cf, err := classfile.ParseFile(args[0])
			if err != nil {
				return fmt.Errorf("parse class file: %w", err)
			}
			d := dump(cf)
			w := cmd.OutOrStdout()

			switch dumpFormat {
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(d); err != nil {
					return fmt.Errorf("encode json: %w", err)
				}
			case "line":
				writeLines(newPrinter(w, "", !g.noColor), d)
			default:
				return fmt.Errorf("unknown format: %s (expected json or line)", dumpFormat)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dumpFormat, "format", "f", "line", "output format (json, line)")

	return cmd
}

func dump(cf *classfile.ClassFile) *dumpedClass {
	d := &dumpedClass{
		Name:       cf.ClassName(),
		Version:    fmt.Sprintf("%d.%d", cf.MajorVersion, cf.MinorVersion),
		Super:      cf.SuperClassName(),
		Interfaces: cf.InterfaceNames(),
		SourceFile: cf.SourceFileName(),
	}
	for i := range cf.Methods {
		m := &cf.Methods[i]
		d.Methods = append(d.Methods, dumpedMethod{Name: m.Name, Descriptor: m.Descriptor, Throws: m.Exceptions()})
	}
	if cf.IsModule() {
		d.Module = module.FromClassFile(cf)
	}
	return d
}

func writeLines(p *printer, d *dumpedClass) {
	p.line("class %s", d.Name)
	p.line("version %s", d.Version)
	if d.Super != "" {
		p.line("super %s", d.Super)
	}
	for _, i := range d.Interfaces {
		p.line("implements %s", i)
	}
	if d.SourceFile != "" {
		p.line("source %s", d.SourceFile)
	}
	for _, m := range d.Methods {
		line := "method " + m.Name + m.Descriptor
		if len(m.Throws) > 0 {
			line += " throws " + strings.Join(m.Throws, ", ")
		}
		p.line("%s", line)
	}
	if d.Module == nil {
		return
	}
	p.line("module %s", d.Module.Name)
	for _, r := range d.Module.Requires {
		p.line("  requires %s", r.ModuleName)
	}
	for _, e := range d.Module.Exports {
		if len(e.ToModules) == 0 {
			p.line("  exports %s", e.PackageName)
		} else {
			p.line("  exports %s to %s", e.PackageName, strings.Join(e.ToModules, ", "))
		}
	}
}
