package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sarchlab/cachesim/mem/hierarchy"
	"github.com/sarchlab/cachesim/simulation"
)

func printSummary(
	w io.Writer,
	report simulation.RunReport,
	stats []hierarchy.LevelStats,
	elapsed time.Duration,
) {
	fmt.Fprintf(w, "%s accesses in %s",
		humanize.Comma(int64(report.Accesses)), elapsed.Round(time.Millisecond))
	if report.Skipped > 0 {
		fmt.Fprintf(w, ", %s malformed lines skipped",
			humanize.Comma(int64(report.Skipped)))
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "level\treads\twrites\thits\tmisses\tevictions\thit rate")

	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%.2f%%\n",
			s.Level,
			humanize.Comma(int64(s.Reads)),
			humanize.Comma(int64(s.Writes)),
			humanize.Comma(int64(s.Hits())),
			humanize.Comma(int64(s.Misses())),
			humanize.Comma(int64(s.Evictions)),
			100*s.HitRate())
	}

	tw.Flush()
}
