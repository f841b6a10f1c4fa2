package main

import (
	"slices"

	"github.com/spf13/cobra"
)

func newModulesCmd(g *globalOptions) *cobra.Command {
	var showClosure bool

	cmd := &cobra.Command{
		Use:   "modules",
		Short: "List the modules visible to the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.close()

			automatic := s.env.AutomaticModules()
			for _, name := range s.env.ModuleNames() {
				d := s.env.Module(name)
				kind := "explicit"
				switch {
				case slices.Contains(automatic, name):
					kind = "automatic"
				case d.IsOpen:
					kind = "open"
				}
				s.out.line("%s %s", name, s.out.detail("("+kind+")"))
				for _, r := range d.Requires {
					s.out.line("  requires %s", r.ModuleName)
				}
			}

			if showClosure {
				closure, err := s.env.ModuleClosure()
				if err != nil {
					return err
				}
				s.out.line("closure:")
				for _, name := range closure {
					s.out.line("  %s", name)
				}
			}
			s.out.diagnostics(s.problems.Diagnostics())
			return nil
		},
	}

	cmd.Flags().BoolVar(&showClosure, "closure", false, "also print the resolved root module closure")

	return cmd
}
