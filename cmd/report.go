package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jsphweid/bmsdex/model"
	"github.com/jsphweid/bmsdex/util"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

var reportTop int

func init() {
	reportCmd.Flags().IntVar(&reportTop, "top", 10, "list this many of the densest songs")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarizes the song db",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		songs, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(songs) == 0 {
			fmt.Println("song db is empty")
			return nil
		}

		levels := make([]float64, 0, len(songs))
		notes := make([]int, 0, len(songs))
		lengths := make([]int64, 0, len(songs))
		hardest := 0.0
		for _, s := range songs {
			levels = append(levels, s.Level)
			notes = append(notes, s.Notes)
			lengths = append(lengths, s.LengthMS)
			hardest = util.Max(hardest, s.Level)
		}

		fmt.Printf("songs:        %s\n", humanize.Comma(int64(len(songs))))
		fmt.Printf("notes:        %s\n", humanize.Comma(int64(util.Sum(notes))))
		fmt.Printf("total length: %s\n", formatLength(util.Sum(lengths)))
		fmt.Printf("mean level:   %.2f\n", util.Sum(levels)/float64(len(songs)))
		fmt.Printf("max level:    %.2f\n", hardest)

		fmt.Println("\nlevels:")
		hist := util.Histogram(levels, 1.0)
		for _, bucket := range util.SortedKeys(hist) {
			fmt.Printf("  %3.0f-%-3.0f %s\n", bucket, bucket+1, humanize.Comma(int64(hist[bucket])))
		}

		slices.SortFunc(songs, func(a, b model.Song) int {
			switch {
			case a.Level > b.Level:
				return -1
			case a.Level < b.Level:
				return 1
			}
			return 0
		})
		fmt.Println("\ndensest:")
		for _, s := range songs[:util.Max(0, util.Min(reportTop, len(songs)))] {
			fmt.Printf("  %6.2f  %s  %s\n", s.Level, s.Title, s.Path)
		}
		return nil
	},
}
