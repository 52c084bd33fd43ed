package main

import (
	"os"

	"github.com/aretw0/tendril/internal/cli"
	"github.com/aretw0/tendril/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var validateCmd = &cobra.Command{
	Use:   "validate [graph...]",
	Short: "Check graphs against the built-in node types",
	Long: `Compiles every graph (or the named ones) and reports unknown node types,
dangling connections, type mismatches and cycles.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		report, _ := cmd.Flags().GetBool("report")

		reg, err := cli.NewRegistry(cfg)
		if err != nil {
			return err
		}

		loader, err := cli.OpenLoader(cfg)
		if err != nil {
			return err
		}

		opts := cli.ValidateOptions{Names: args, Report: report, Registry: reg}
		if term.IsTerminal(int(os.Stdout.Fd())) {
			opts.Render = tui.NewRenderer()
		}
		return cli.Validate(cmd.Context(), loader, cmd.OutOrStdout(), opts)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("report", false, "Print a node table for each valid graph")
}
