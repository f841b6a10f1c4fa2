package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFindCmd(g *globalOptions) *cobra.Command {
	var (
		moduleName  string
		withSources bool
	)

	cmd := &cobra.Command{
		Use:   "find <type>...",
		Short: "Resolve qualified type names against the classpath",
		Long: `Resolve each type name (dotted or slashed, optionally prefixed with
"<module>:") and print whether it comes from source, from a binary location,
or is missing.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.close()
			if withSources {
				if err := s.queueSources(); err != nil {
					return err
				}
			}
			return s.find(args, moduleName)
		},
	}

	cmd.Flags().StringVarP(&moduleName, "module", "m", "", "resolve inside this module only")
	cmd.Flags().BoolVar(&withSources, "with-sources", false, "answer types defined by the project's source folders from source")

	return cmd
}

// queueSources starts a round in which every compilation unit of the
// project is an additional unit.
func (s *session) queueSources() error {
	units, err := s.env.SourceFiles()
	if err != nil {
		return err
	}
	s.env.SetNames(nil, units)
	return nil
}

func (s *session) find(names []string, moduleName string) error {
	for _, name := range names {
		query := name
		if moduleName != "" {
			query = moduleName + ":" + name
		}
		answer, err := s.env.FindType(query)
		if err != nil {
			return fmt.Errorf("find %s: %w", name, err)
		}
		s.out.answer(name, answer)
		s.env.ReportRestriction(name, answer)
	}
	s.out.diagnostics(s.problems.Diagnostics())
	return nil
}
