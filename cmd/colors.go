package cmd

import (
	"github.com/fatih/color"

	"github.com/complymap/complymap-cli/internal/domain/assurance"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
)

func formatStatusWithColor(status assurance.ComplianceStatus) string {
	switch status {
	case assurance.StatusCompliant:
		return colorSuccess(string(status))
	case assurance.StatusPartial:
		return colorWarn(string(status))
	case assurance.StatusNonCompliant:
		return colorError(string(status))
	default:
		return string(status)
	}
}
