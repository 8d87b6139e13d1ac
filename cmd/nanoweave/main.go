// Command nanoweave evaluates project description scripts and exports
// them as print-ready .nano archives.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mtarnawa/nanoweave/pkg/engine"
	"github.com/mtarnawa/nanoweave/pkg/model"
	"github.com/mtarnawa/nanoweave/pkg/pack"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: false,
})

func main() {
	root := &cobra.Command{
		Use:           "nanoweave",
		Short:         "Build two-photon lithography projects from scripts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetLevel(log.DebugLevel)
		}
	}

	root.AddCommand(buildCmd(), treeCmd())

	if err := root.Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

// evaluateScript reads and evaluates a script file, reporting eval
// errors with their source location.
func evaluateScript(path string) (*model.Project, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}

	project, evalErrs, err := engine.NewEngine().Evaluate(string(source))
	if err != nil {
		return nil, err
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			logger.Error(e.Error(), "script", path)
		}
		return nil, fmt.Errorf("%d error(s) evaluating %s", len(evalErrs), path)
	}
	return project, nil
}

func buildCmd() *cobra.Command {
	var (
		outDir string
		name   string
	)
	cmd := &cobra.Command{
		Use:   "build <script>",
		Short: "Evaluate a script and export the project as a .nano archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := evaluateScript(args[0])
			if err != nil {
				return err
			}
			logger.Debug("script evaluated",
				"presets", len(project.Presets()),
				"resources", len(project.Resources()),
				"nodes", len(project.Nodes()))

			target, err := pack.Export(project, name, outDir)
			if err != nil {
				return err
			}
			logger.Info("project exported", "archive", target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().StringVarP(&name, "name", "n", "Project", "archive name (without extension)")
	return cmd
}

func treeCmd() *cobra.Command {
	var showIDs bool
	cmd := &cobra.Command{
		Use:   "tree <script>",
		Short: "Evaluate a script and print the node hierarchy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := evaluateScript(args[0])
			if err != nil {
				return err
			}
			out := project.Root().RenderWith(model.RenderOptions{
				ShowKind: true,
				ShowID:   showIDs,
			})
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showIDs, "ids", false, "show node identifiers")
	return cmd
}
