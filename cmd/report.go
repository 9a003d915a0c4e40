package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/tristendillon/doppelganger/core/models"
)

// reportTable lists every processed file followed by every skipped file or
// excluded directory.
func reportTable(report *models.Report) pterm.TableData {
	data := pterm.TableData{{"File", "Status", "Kind", "Detail"}}
	for _, res := range report.Results() {
		detail := ""
		if res.Err != nil {
			detail = res.Err.Error()
		} else if res.Cached {
			detail = "cached"
		}
		data = append(data, []string{res.Mapping.Rel, string(res.Status), string(res.Kind), detail})
	}
	for _, rel := range report.Skipped() {
		reason := "not eligible"
		if strings.HasSuffix(rel, "/") {
			reason = "excluded"
		}
		data = append(data, []string{rel, "skipped", "", reason})
	}
	return data
}

func printReport(report *models.Report) {
	if data := reportTable(report); len(data) > 1 {
		if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
			pterm.Error.Printf("Failed to render report: %v\n", err)
		}
	}

	summary := fmt.Sprintf("%s generated, %s failed, %d skipped, %d directories in %s",
		pterm.Green(len(report.Succeeded())), pterm.Red(len(report.Failed())),
		len(report.Skipped()), len(report.Directories()), report.Duration.Round(time.Millisecond))
	if report.HasFailures() {
		pterm.Warning.Println(summary)
		return
	}
	pterm.Success.Println(summary)
}
