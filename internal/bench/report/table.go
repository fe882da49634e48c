package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

func WriteTable(r *Report, w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "\n=== fineregr summary (%d rows) ===\n\n", r.Meta.Rows)

	header := []string{"Benchmark", "Revisions", "Failures", "Oldest", "Median", "Newest", "Median", "p95", "Stddev", "Change"}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	fmt.Fprintln(tw, strings.Join(sep, "\t"))

	for _, b := range r.Benchmarks {
		row := []string{
			b.Command,
			fmt.Sprintf("%d", b.Revisions),
			fmt.Sprintf("%d", b.Failures),
		}
		row = append(row, revisionCells(b.Oldest)...)
		row = append(row, revisionCells(b.Newest)...)
		if b.Newest != nil {
			row = append(row, fmtSeconds(b.Newest.Stats.P95), fmtSeconds(b.Newest.Stats.Stddev))
		} else {
			row = append(row, "-", "-")
		}
		row = append(row, fmtChange(b.MedianChange))
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	fmt.Fprintln(tw)
	tw.Flush()
}

func revisionCells(r *RevisionStats) []string {
	if r == nil {
		return []string{"-", "-"}
	}
	return []string{shortSHA(r.GitSHA), fmtSeconds(r.Stats.Median)}
}

func shortSHA(sha string) string {
	if len(sha) > 10 {
		return sha[:10]
	}
	return sha
}

func fmtChange(c *float64) string {
	if c == nil {
		return "-"
	}
	return fmt.Sprintf("%+.2f%%", *c)
}

func fmtSeconds(s float64) string {
	if s == 0 {
		return "-"
	}
	if s < 0.001 {
		return fmt.Sprintf("%.1fµs", s*1e6)
	}
	if s < 1 {
		return fmt.Sprintf("%.2fms", s*1e3)
	}
	return fmt.Sprintf("%.2fs", s)
}
