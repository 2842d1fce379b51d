package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/complymap/complymap-cli/internal/analysis"
)

var treeCmd = &cobra.Command{
	Use:   "tree <framework-id>",
	Short: "Print the control hierarchy of a framework",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		engine, err := newEngine()
		if err != nil {
			return err
		}
		forest, err := engine.BuildControlTree(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if asJSON {
			b, err := json.MarshalIndent(forest, jsonPrefix, jsonIndent)
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}

		if len(forest) == 0 {
			fmt.Println(colorWarn("Framework has no controls."))
			return nil
		}
		for _, root := range forest {
			printControlNode(root, 0)
		}
		fmt.Printf("\n%s %d controls\n", colorInfo("→"), analysis.CountNodes(forest))
		return nil
	},
}

func printControlNode(node *analysis.ControlNode, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Printf("%s%s  %s\n", indent, colorInfo(node.Control.Code), node.Control.Title)
	for _, child := range node.Children {
		printControlNode(child, depth+1)
	}
}

func init() {
	treeCmd.Flags().Bool("json", false, "Output as JSON")
}
