package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/jsphweid/bmsdex/chord"
	"github.com/jsphweid/bmsdex/model"
	"github.com/jsphweid/bmsdex/timeline"
	"github.com/jsphweid/bmsdex/util"
	"github.com/spf13/cobra"
)

var inspectBars bool

func init() {
	inspectCmd.Flags().BoolVar(&inspectBars, "bars", false, "also print a line per bar")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <chart>",
	Short: "Prints the tempo windows of a chart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, tl, err := loadChart(cmd.Context(), args[0], cfg.ChartEncoding())
		if err != nil {
			return err
		}
		inspect(c, tl)
		return nil
	},
}

func inspect(c *model.Chart, tl *timeline.Timeline) {
	fmt.Printf("title:  %s\n", c.Title)
	fmt.Printf("artist: %s\n", c.Artist)
	fmt.Printf("bpm:    %g\n", c.BPM)
	fmt.Printf("ln:     %s\n", c.LongNoteMode)
	fmt.Printf("bars:   %d\n", len(c.Bars))
	fmt.Printf("notes:  %s (%s long)\n", humanize.Comma(int64(c.NoteCount())), humanize.Comma(int64(c.LongNoteCount())))
	fmt.Printf("length: %s\n\n", formatLength(timeline.Round(tl.Length())))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "bar\tbeat\tbpm\tstart\tend\t")
	for _, win := range tl.Windows() {
		bpm := fmt.Sprintf("%g", win.BPM)
		if win.Stop {
			bpm = "stop"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t\n", win.StartBar, win.StartBeat, bpm, win.StartMS, win.EndMS)
	}
	w.Flush()

	if shapes := chord.RankShapes(chord.GetChords(tl), 2); len(shapes) > 0 {
		fmt.Println("\nchords:")
		for _, shape := range shapes[:util.Min(len(shapes), 5)] {
			fmt.Printf("  %-15s %s\n", shape.Key, humanize.Comma(int64(shape.Count)))
		}
	}

	if !inspectBars {
		return
	}
	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "bar\tlength\tnotes\tlong\tbgm\t")
	for _, b := range c.Bars {
		if b.IsEmpty() {
			continue
		}
		notes, long := 0, 0
		for lane := 0; lane < model.NumLanes; lane++ {
			notes += len(b.Notes[lane])
			long += len(b.LongNotes[lane])
		}
		fmt.Fprintf(w, "%03d\t%s\t%d\t%d\t%d\t\n", b.Number, b.Beat, notes, long, len(b.Background))
	}
	w.Flush()
}
