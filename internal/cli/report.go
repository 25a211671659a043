package cli

import (
	"fmt"
	"strings"

	"github.com/roach88/overlay409/internal/patcher"
)

const summaryRule = "============================================================"

// printFileResult writes the status lines for one processed file.
func printFileResult(f *OutputFormatter, res patcher.FileResult, dryRun bool) {
	c := f.colors()
	w := f.Writer

	fmt.Fprintf(w, "\nProcessing %s...\n", res.Name)
	switch res.Status {
	case patcher.StatusFailed:
		c.failure.Fprintf(w, "  ✗ Error processing %s: %s\n", res.Name, res.Error)
	case patcher.StatusNoActions:
		c.dim.Fprintln(w, "  No actions found, skipping")
	case patcher.StatusUnchanged:
		c.dim.Fprintln(w, "  No changes needed")
	case patcher.StatusModified:
		for _, ins := range res.Insertions {
			fmt.Fprintf(w, "  Added 409 to %s\n", ins.EntityOperation)
		}
		if dryRun {
			c.warning.Fprintf(w, "  ~ Would modify %s\n", res.Name)
		} else {
			c.success.Fprintf(w, "  ✓ Modified %s\n", res.Name)
		}
		if res.Diff != "" {
			fmt.Fprintln(w)
			printDiff(f, res.Diff)
		}
	}
}

// printDiff writes a unified diff, coloring added and removed lines.
func printDiff(f *OutputFormatter, diff string) {
	c := f.colors()
	for _, line := range strings.SplitAfter(diff, "\n") {
		switch {
		case line == "":
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			c.header.Fprint(f.Writer, line)
		case strings.HasPrefix(line, "@@"):
			c.dim.Fprint(f.Writer, line)
		case strings.HasPrefix(line, "+"):
			c.success.Fprint(f.Writer, line)
		case strings.HasPrefix(line, "-"):
			c.failure.Fprint(f.Writer, line)
		default:
			fmt.Fprint(f.Writer, line)
		}
	}
}

// printSummary writes the closing summary block.
func printSummary(f *OutputFormatter, report *patcher.Report) {
	w := f.Writer
	fmt.Fprintf(w, "\n%s\n", summaryRule)
	if report.DryRun {
		fmt.Fprintf(w, "Summary: %d overlay file(s) would be modified (dry run)\n", report.Modified)
	} else {
		fmt.Fprintf(w, "Summary: Modified %d overlay file(s)\n", report.Modified)
	}
	if report.Failed > 0 {
		f.colors().failure.Fprintf(w, "         %d overlay file(s) failed\n", report.Failed)
	}
	fmt.Fprintln(w, summaryRule)
	f.VerboseLog("run %s: %d modified, %d unchanged, %d failed",
		report.RunID, report.Modified, report.Unchanged, report.Failed)
}
