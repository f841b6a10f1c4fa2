package main

import (
	"github.com/spf13/cobra"
)

func newClasspathCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classpath",
		Short: "Print the computed source and binary locations in lookup order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.close()

			s.out.line("project %s", s.env.Project().Name)
			for _, src := range s.env.SourceLocations() {
				s.out.line("  source %s -> %s", s.out.path(src.Path()), s.out.path(src.Output().Path()))
			}
			for i, loc := range s.env.BinaryLocations() {
				line := s.out.location(loc)
				if names := loc.ModuleNames(nil); len(names) > 0 {
					line += " (" + names[0]
					if len(names) > 1 {
						line += ", ..."
					}
					line += ")"
				}
				s.out.line("  %d %s", i+1, line)
			}
			s.out.diagnostics(s.problems.Diagnostics())
			return nil
		},
	}

	return cmd
}
