package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <framework-id>",
	Short: "Project a framework's mappings and chains into a visualization graph",
	Long: `Flatten one framework's control mappings and compliance chains into a
generic node/edge structure suitable for graph-rendering front ends.
Output is always JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireOrganization(); err != nil {
			return err
		}
		maxChains, _ := cmd.Flags().GetInt("max-chains")

		engine, err := newEngine()
		if err != nil {
			return err
		}
		graph, err := engine.ProjectGraph(cmd.Context(), organizationID, args[0], maxChains)
		if err != nil {
			return err
		}

		b, err := json.MarshalIndent(graph, jsonPrefix, jsonIndent)
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		fmt.Fprintln(cmd.ErrOrStderr(), colorInfo("→"),
			fmt.Sprintf("%d nodes, %d edges (%d frameworks, %d chains)",
				len(graph.Nodes), len(graph.Edges),
				graph.Metadata.FrameworkCount, graph.Metadata.ChainCount))
		return nil
	},
}

func init() {
	graphCmd.Flags().Int("max-chains", 0, "Cap on chain edges included (0 = default)")
}
