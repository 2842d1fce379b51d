package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var frameworksCmd = &cobra.Command{
	Use:   "frameworks",
	Short: "List the frameworks in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		engine, err := newEngine()
		if err != nil {
			return err
		}
		frameworks, err := engine.ListFrameworks(cmd.Context())
		if err != nil {
			return err
		}

		if asJSON {
			b, err := json.MarshalIndent(frameworks, jsonPrefix, jsonIndent)
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}

		if len(frameworks) == 0 {
			fmt.Println(colorWarn("No frameworks found in the catalog."))
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCODE\tNAME\tVERSION\tCATEGORY\tACTIVE")
		for _, fw := range frameworks {
			active := "no"
			if fw.Active {
				active = colorSuccess("yes")
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", fw.ID, fw.Code, fw.Name, fw.Version, fw.Category, active)
		}
		if err := tw.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to flush frameworks table: %v\n", err)
		}
		return nil
	},
}

func init() {
	frameworksCmd.Flags().Bool("json", false, "Output as JSON")
}
