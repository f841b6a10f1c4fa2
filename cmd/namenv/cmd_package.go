package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func newPackageCmd(g *globalOptions) *cobra.Command {
	var moduleName string

	cmd := &cobra.Command{
		Use:   "package <name>...",
		Short: "Report whether package names exist on the classpath",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.close()

			for _, name := range args {
				pkg := strings.ReplaceAll(name, ".", "/")
				found := s.env.IsPackageInModule(pkg, moduleName)
				if found {
					s.out.line("%s %s", s.out.tag(binaryStyle, "package"), pkg)
				} else {
					s.out.line("%s %s", s.out.tag(missingStyle, "missing"), pkg)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&moduleName, "module", "m", "", "look inside this module only")

	return cmd
}
