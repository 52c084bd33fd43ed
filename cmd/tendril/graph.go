package main

import (
	"fmt"

	"github.com/aretw0/tendril/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <name>",
	Short: "Export a graph as a Mermaid diagram",
	Long:  `Compiles a graph and prints a Mermaid flowchart (graph LR) of its nodes, connections and entry points.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		highlight, _ := cmd.Flags().GetStringSlice("highlight")

		loader, err := cli.OpenLoader(cfg)
		if err != nil {
			return err
		}
		reg, err := cli.NewRegistry(cfg)
		if err != nil {
			return err
		}
		out, err := cli.Mermaid(cmd.Context(), loader, reg, args[0], highlight)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringSlice("highlight", nil, "Node ids to highlight")
}
