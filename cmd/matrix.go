package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/complymap/complymap-cli/internal/analysis"
	"github.com/complymap/complymap-cli/internal/domain/catalog"
)

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Compute the overlap matrix across multiple frameworks",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireOrganization(); err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		frameworkIDs, _ := cmd.Flags().GetStringSlice("frameworks")

		engine, err := newEngine()
		if err != nil {
			return err
		}
		result, err := engine.CompareMulti(cmd.Context(), organizationID, frameworkIDs)
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
		fmt.Fprintln(tw, "PAIR\tMAPPINGS\tHIGH\tMEDIUM\tLOW\tCLASSIFICATION")
		for _, cell := range result.Matrix {
			fmt.Fprintf(tw, "%s ↔ %s\t%d\t%d\t%d\t%d\t%s\n",
				cell.FrameworkA, cell.FrameworkB,
				cell.TotalMappings,
				cell.ByConfidence[catalog.ConfidenceHigh],
				cell.ByConfidence[catalog.ConfidenceMedium],
				cell.ByConfidence[catalog.ConfidenceLow],
				formatClassification(cell.Classification),
			)
		}
		if err := tw.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to flush matrix table: %v\n", err)
		}

		fmt.Println()
		fmt.Println(colorInfo("Coverage"))
		tw = tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FRAMEWORK\tTOTAL\tCOMPLETE\tPARTIAL\tMISSING\tCOVERAGE")
		for _, stat := range result.Frameworks {
			printCoverageRow(tw, stat.FrameworkName, stat)
		}
		if err := tw.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to flush matrix coverage table: %v\n", err)
		}
		return nil
	},
}

func formatClassification(c analysis.PairClassification) string {
	switch c {
	case analysis.PairMapped:
		return colorSuccess(string(c))
	case analysis.PairPartial:
		return colorWarn(string(c))
	default:
		return colorError(string(c))
	}
}

func init() {
	matrixCmd.Flags().Bool("json", false, "Output as JSON")
	matrixCmd.Flags().StringSlice("frameworks", nil, "Framework IDs to compare (2-5)")
}
