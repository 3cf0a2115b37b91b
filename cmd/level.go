package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/jsphweid/bmsdex/batch"
	"github.com/jsphweid/bmsdex/model"
	"github.com/spf13/cobra"
)

var levelJSON bool

func init() {
	levelCmd.Flags().BoolVar(&levelJSON, "json", false, "print one JSON object per chart")
	rootCmd.AddCommand(levelCmd)
}

var levelCmd = &cobra.Command{
	Use:   "level <chart>...",
	Short: "Rates the note density of charts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(os.Stdout)
		for _, path := range args {
			res := batch.Score(path, cfg.ChartEncoding())
			if res.Err != nil {
				return res.Err
			}
			if levelJSON {
				if err := enc.Encode(levelResult(res)); err != nil {
					return err
				}
				continue
			}
			fmt.Printf("%s\t%.2f\t%s notes\t%s\t%s\n",
				res.Chart.Title,
				res.Stats.Level,
				humanize.Comma(int64(res.Stats.Notes)),
				formatLength(res.Stats.LengthMS),
				path,
			)
		}
		return nil
	},
}

func levelResult(res batch.Result) model.LevelResult {
	return model.LevelResult{
		Title:     res.Chart.Title,
		Artist:    res.Chart.Artist,
		Level:     res.Stats.Level,
		Notes:     res.Stats.Notes,
		LongNotes: res.Stats.LongNotes,
		LengthMS:  res.Stats.LengthMS,
	}
}

var shortUnits, _ = durafmt.DefaultUnitsCoder.Decode("y:yrs,wk:wks,d:d,h:h,m:m,s:s,ms:ms,us:us")

func formatLength(ms int64) string {
	return durafmt.Parse(time.Duration(ms) * time.Millisecond).LimitFirstN(2).Format(shortUnits)
}
