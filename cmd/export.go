package cmd

import (
	"math"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/jsphweid/bmsdex/file"
	"github.com/jsphweid/bmsdex/midi"
	"github.com/jsphweid/bmsdex/replay"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2/smf"
)

var (
	exportOut      string
	exportQuantize bool
	exportFrom     time.Duration
	exportNotes    int
)

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file, defaults to the input with .mid appended")
	exportCmd.Flags().BoolVar(&exportQuantize, "quantize", false, "snap notes to the export grid")
	exportCmd.Flags().DurationVar(&exportFrom, "from", 0, "start the excerpt at this time")
	exportCmd.Flags().IntVar(&exportNotes, "notes", 0, "keep at most this many notes, 0 for all")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <chart or replay>",
	Short: "Writes a chart or a replay key log as a midi file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := args[0]
		out := exportOut
		if out == "" {
			out = in + ".mid"
		}

		var s *smf.SMF
		var err error
		if file.IsChart(in) {
			c, tl, err := loadChart(cmd.Context(), in, cfg.ChartEncoding())
			if err != nil {
				return err
			}
			s, err = midi.ExportChart(c, tl)
			if err != nil {
				return err
			}
		} else {
			f, err := os.Open(in)
			if err != nil {
				return errors.Wrap(err, "opening replay")
			}
			defer f.Close()
			rec, err := replay.Decode(f)
			if err != nil {
				return err
			}
			s, err = midi.ExportReplay(rec)
			if err != nil {
				return err
			}
		}

		if exportFrom > 0 || exportNotes > 0 {
			limit := exportNotes
			if limit <= 0 {
				limit = math.MaxInt
			}
			s = midi.Excerpt(s, exportFrom, limit)
		}
		if exportQuantize {
			if s, err = midi.Quantize(s); err != nil {
				return err
			}
		}
		if err := s.WriteFile(out); err != nil {
			return errors.Wrapf(err, "writing %s", out)
		}
		charmlog.FromContext(cmd.Context()).Info("exported", "from", in, "to", out, "tracks", len(s.Tracks))
		return nil
	},
}
