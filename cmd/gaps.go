package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/complymap/complymap-cli/internal/application/assessment"
	"github.com/complymap/complymap-cli/internal/domain/assurance"
)

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "List controls that lack full compliance coverage",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireOrganization(); err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		framework, _ := cmd.Flags().GetString("framework")
		control, _ := cmd.Flags().GetString("control")
		status, _ := cmd.Flags().GetString("status")
		search, _ := cmd.Flags().GetString("search")
		sortField, _ := cmd.Flags().GetString("sort")
		sortDesc, _ := cmd.Flags().GetBool("desc")
		page, _ := cmd.Flags().GetInt("page")
		pageSize, _ := cmd.Flags().GetInt("page-size")

		engine, err := newEngine()
		if err != nil {
			return err
		}
		result, err := engine.ListGaps(cmd.Context(), organizationID, assessment.GapQuery{
			FrameworkID: framework,
			ControlID:   control,
			Status:      assurance.ComplianceStatus(status),
			Search:      search,
			Page:        page,
			PageSize:    pageSize,
			SortField:   sortField,
			SortDesc:    sortDesc,
		})
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

		if len(result.Items) == 0 {
			fmt.Println(colorSuccess("No gaps found."))
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CODE\tTITLE\tFRAMEWORK\tSTATUS\tEVIDENCE\tMAPPINGS")
		for _, gap := range result.Items {
			evidence := "no"
			if gap.HasEvidence {
				evidence = "yes"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
				gap.ControlCode,
				gap.ControlTitle,
				gap.FrameworkName,
				formatStatusWithColor(gap.ComplianceStatus),
				evidence,
				len(gap.Mappings),
			)
		}
		if err := tw.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to flush gaps table: %v\n", err)
		}
		fmt.Printf("\n%s showing %d of %d gaps (page %d)\n", colorInfo("→"), len(result.Items), result.Total, page)
		return nil
	},
}

func init() {
	gapsCmd.Flags().Bool("json", false, "Output as JSON")
	gapsCmd.Flags().String("framework", "", "Restrict to one framework ID")
	gapsCmd.Flags().String("control", "", "Restrict to one control ID")
	gapsCmd.Flags().String("status", "", "Filter by compliance status (NOT_ASSESSED, NON_COMPLIANT, PARTIAL)")
	gapsCmd.Flags().String("search", "", "Case-insensitive search over code, title and framework name")
	gapsCmd.Flags().String("sort", "", "Sort field: control_code, framework_name or status")
	gapsCmd.Flags().Bool("desc", false, "Sort descending")
	gapsCmd.Flags().Int("page", 1, "Page number (1-based)")
	gapsCmd.Flags().Int("page-size", 50, "Records per page (0 = all)")
}
