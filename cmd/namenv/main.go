package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "namenv",
		Short:         "Resolve type names against a project classpath",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var path *string
			if g.logFile != "" {
				path = &g.logFile
			}
			commonlog.Configure(g.verbose, path)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&g.verbose, "verbose", "v", "increase log verbosity")
	flags.StringVar(&g.logFile, "log", "", "write logs to this file instead of stderr")
	flags.StringVarP(&g.config, "config", "c", "namenv.toml", "workspace file")
	flags.StringVarP(&g.project, "project", "p", "", "project to resolve names for")
	flags.IntVar(&g.release, "release", 0, "target release for multi-release archives")
	flags.StringArrayVar(&g.addReads, "add-reads", nil, "extra reads edge, <module>=<other>(,<other>)*")
	flags.StringArrayVar(&g.addExports, "add-exports", nil, "extra export, <module>/<package>=<other>(,<other>)*")
	flags.StringSliceVar(&g.addModules, "add-modules", nil, "root modules to add")
	flags.StringSliceVar(&g.limitModules, "limit-modules", nil, "limit the observable system modules")
	flags.BoolVar(&g.parallel, "parallel", false, "query classpath locations concurrently")
	flags.BoolVar(&g.noColor, "no-color", false, "disable coloured output")

	rootCmd.AddCommand(newFindCmd(g))
	rootCmd.AddCommand(newPackageCmd(g))
	rootCmd.AddCommand(newClasspathCmd(g))
	rootCmd.AddCommand(newModulesCmd(g))
	rootCmd.AddCommand(newDumpCmd(g))
	rootCmd.AddCommand(newWatchCmd(g))

	return rootCmd
}
