package verifier

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

var severityColor = map[Severity]*color.Color{
	SeverityInfo:    color.New(color.FgGreen),
	SeverityWarning: color.New(color.FgYellow),
	SeverityError:   color.New(color.FgRed, color.Bold),
}

// Render writes report as a table followed by one line per error
func Render(w io.Writer, report *Report) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Metric", "Previous", "Current", "Change", "Status"})
	for _, f := range report.Findings {
		table.Append([]string{
			f.File,
			string(f.Metric),
			fmt.Sprintf("%d", f.Previous),
			fmt.Sprintf("%d", f.Current),
			change(f),
			severityColor[f.Severity].Sprint(string(f.Severity)),
		})
	}
	table.Render()

	fmt.Fprintf(w, "\n%d errors, %d warnings\n", report.Count(SeverityError), report.Count(SeverityWarning))
	for _, f := range report.Findings {
		if f.Severity == SeverityError {
			severityColor[SeverityError].Fprintf(w, "%s: %s\n", f.File, f.Message)
		}
	}
}

func change(f Finding) string {
	if f.Metric == MetricFile || f.Previous == 0 {
		return "-"
	}
	return fmt.Sprintf("%+.1f%%", float64(f.Current-f.Previous)/float64(f.Previous)*100)
}
