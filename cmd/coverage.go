package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/complymap/complymap-cli/internal/analysis"
)

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Summarize compliance coverage per framework",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireOrganization(); err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		frameworkIDs, _ := cmd.Flags().GetStringSlice("frameworks")
		if len(frameworkIDs) == 0 {
			return fmt.Errorf("--frameworks is required")
		}

		engine, err := newEngine()
		if err != nil {
			return err
		}
		result, err := engine.ComputeFrameworkCoverage(cmd.Context(), organizationID, frameworkIDs)
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

		tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FRAMEWORK\tTOTAL\tCOMPLETE\tPARTIAL\tMISSING\tCOVERAGE")
		for _, stat := range result.Frameworks {
			printCoverageRow(tw, stat.FrameworkName, stat)
		}
		printCoverageRow(tw, "overall", result.Overall)
		if err := tw.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to flush coverage table: %v\n", err)
		}
		return nil
	},
}

func printCoverageRow(tw *tabwriter.Writer, label string, stat analysis.CoverageStat) {
	fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%d%%\n",
		label,
		stat.Total,
		colorSuccess(fmt.Sprintf("%d", stat.Complete)),
		colorWarn(fmt.Sprintf("%d", stat.Partial)),
		colorError(fmt.Sprintf("%d", stat.Missing)),
		stat.Percentage,
	)
}

func init() {
	coverageCmd.Flags().Bool("json", false, "Output as JSON")
	coverageCmd.Flags().StringSlice("frameworks", nil, "Framework IDs to aggregate")
}
