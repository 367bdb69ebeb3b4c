package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/aird-ai/aird/internal/report"
	"github.com/aird-ai/aird/internal/runner"
)

// newProgressPrinter returns a ProgressFunc that prints one status line per
// completed probe. Probes that errored or failed the baseline level get a
// red cross so scanning the stream finds trouble quickly.
func newProgressPrinter(w io.Writer) runner.ProgressFunc {
	return func(index, total int, res report.Result) {
		icon := color.GreenString("✓")
		if res.Error != "" || !res.L1Pass {
			icon = color.RedString("✗")
		}
		width := len(strconv.Itoa(total))
		fmt.Fprintf(w, "%s [%*d/%d] %s/%s%s\n",
			icon, width, index+1, total, res.Factor, res.Requirement, progressTarget(res))
	}
}

func progressTarget(res report.Result) string {
	schema, table, column := res.Target()
	parts := make([]string, 0, 3)
	for _, p := range []string{schema, table, column} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "  " + strings.Join(parts, ".")
}
