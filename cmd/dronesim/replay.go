package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"dronesim/pkg/wire"
)

func printReplay(out io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sum, err := wire.Summarize(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Fprintf(out, "%s: %d records, %.2f s\n\n", path, sum.Records, sum.Elapsed)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DRONE\tSAMPLES\tDISTANCE\tMAX HEIGHT\tPOSITION\tHEADING\tSTAGE\tPHASE")
	for _, d := range sum.Drones {
		fmt.Fprintf(tw, "%d\t%d\t%.1f m\t%.1f m\t(%.1f, %.1f, %.1f)\t%.1f°\t%s\t%s\n",
			d.Index, d.Samples, d.Distance, d.MaxHeight,
			d.Last.X, d.Last.Y, d.Last.Z, d.Last.Heading*180/math.Pi,
			d.LastStage, d.LastPhase)
	}
	return tw.Flush()
}
