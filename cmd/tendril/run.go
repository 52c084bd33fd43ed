package main

import (
	"context"
	"os"

	"github.com/aretw0/tendril/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fire entry points from an interactive console",
	Long: `Loads every graph and reads one event per line:

  click
  open door=front
  pickup {"item": "key", "count": 2}

With --json each line is a request object and every outcome and emission is
written back as a JSON line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		jsonMode, _ := cmd.Flags().GetBool("json")
		quiet, _ := cmd.Flags().GetBool("quiet")
		watch, _ := cmd.Flags().GetBool("watch")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		return cli.Run(ctx, cli.RunOptions{
			Config: cfg,
			JSON:   jsonMode,
			Watch:  watch,
			Quiet:  quiet,
			Stdin:  os.Stdin,
			Stdout: cmd.OutOrStdout(),
			Stderr: os.Stderr,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("json", false, "Speak JSON lines on stdin and stdout")
	runCmd.Flags().BoolP("quiet", "q", false, "Skip the banner")
	runCmd.Flags().BoolP("watch", "w", false, "Reload graphs when they change (requires --loam)")
}
