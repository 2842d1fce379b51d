package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/complymap/complymap-cli/internal/analysis"
)

var compareCmd = &cobra.Command{
	Use:   "compare <source-framework-id> <target-framework-id>",
	Short: "Compare two frameworks' mapping coverage in both directions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireOrganization(); err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		engine, err := newEngine()
		if err != nil {
			return err
		}
		result, err := engine.ComparePairwise(cmd.Context(), organizationID, args[0], args[1])
		if err != nil {
			return err
		}

		if asJSON {
			b, err := json.MarshalIndent(result, jsonPrefix, jsonIndent)
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}

		printDirection(result.SourceToTarget)
		fmt.Println()
		printDirection(result.TargetToSource)
		return nil
	},
}

func printDirection(dc analysis.DirectionalCoverage) {
	fmt.Printf("%s %s → %s: %d of %d controls mapped (%d%%)\n",
		colorInfo("→"),
		dc.SourceFrameworkID, dc.TargetFrameworkID,
		dc.MappedCount, dc.TotalControls, dc.CoveragePercentage,
	)
	if len(dc.Unmapped) == 0 {
		return
	}
	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UNMAPPED CODE\tTITLE")
	for _, u := range dc.Unmapped {
		fmt.Fprintf(tw, "%s\t%s\n", u.Code, u.Title)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to flush compare table: %v\n", err)
	}
}

func init() {
	compareCmd.Flags().Bool("json", false, "Output as JSON")
}
