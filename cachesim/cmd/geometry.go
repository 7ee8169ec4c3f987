package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/trace"
)

var geometryCmd = &cobra.Command{
	Use:   "geometry [config file]",
	Short: "Print the set and address layout of each cache level.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := trace.LoadConfig(args[0])
		if err != nil {
			return err
		}

		return printGeometry(cmd.OutOrStdout(), config)
	},
}

func init() {
	rootCmd.AddCommand(geometryCmd)
}

func printGeometry(w io.Writer, config trace.HierarchyConfig) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "level\tsize\tblock\tways\tsets\toffset\tindex\ttag")

	levels := []struct {
		name   string
		config cache.Config
	}{
		{"L1", config.L1},
		{"L2", config.L2},
	}

	for _, level := range levels {
		g, err := level.config.Geometry(level.name)
		if err != nil {
			return err
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			level.name,
			humanize.IBytes(level.config.ByteSize),
			humanize.IBytes(level.config.BlockSize),
			g.NumWays,
			g.NumSets,
			g.Layout.OffsetBits,
			g.Layout.IndexBits,
			g.Layout.TagBits)
	}

	return tw.Flush()
}
