package pipeline

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
)

// PrintSummary renders the batch outcome as a table on stderr; stdout is
// reserved for offset declarations so they can be redirected into a file
// unmixed. Artifact paths are shown for successes, the failing stage and
// error for failures.
func PrintSummary(results []VersionResult) {
	if len(results) == 0 {
		return
	}

	data := pterm.TableData{{"Version", "Stage", "Status", "Detail"}}
	for _, r := range results {
		status := pterm.LightGreen("ok")
		detail := r.Artifact
		if r.Failed() {
			status = pterm.LightRed("failed")
			detail = r.Err.Error()
		}
		data = append(data, []string{
			r.Label.String(),
			string(r.Stage),
			status,
			truncate(detail, 80),
		})
	}

	pterm.DefaultTable.WithWriter(os.Stderr).WithHasHeader().WithData(data).Render()

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	if failed > 0 {
		pterm.Error.WithWriter(os.Stderr).Println(fmt.Sprintf("%d of %d versions failed", failed, len(results)))
	} else {
		pterm.Success.WithWriter(os.Stderr).Println(fmt.Sprintf("%d versions processed", len(results)))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
