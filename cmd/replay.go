package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/jsphweid/bmsdex/config"
	"github.com/jsphweid/bmsdex/db"
	"github.com/jsphweid/bmsdex/model"
	"github.com/jsphweid/bmsdex/replay"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var replayChart string

func init() {
	replayCmd.Flags().StringVar(&replayChart, "chart", "", "chart file, instead of looking the hash up in the song db")
	rootCmd.AddCommand(replayCmd)
}

var replayCmd = &cobra.Command{
	Use:   "replay <replay file>",
	Short: "Lays a replay out onto the bars of its chart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return errors.Wrap(err, "reading replay")
		}

		var store db.Store
		if replayChart == "" {
			store, err = openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
		}

		res, err := Reconstruct(cmd.Context(), store, cfg, raw, replayChart)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

// Reconstruct decodes a replay file and lays it onto its chart. The chart
// is chartPath when set, otherwise the song db entry for the replay hash.
func Reconstruct(ctx context.Context, store db.Store, c config.Config, raw []byte, chartPath string) (model.ReplayResponse, error) {
	logger := charmlog.FromContext(ctx)

	rec, err := replay.DecodeBytes(raw)
	if err != nil {
		return model.ReplayResponse{}, err
	}
	if rec.Skipped > 0 {
		logger.Warn("keylog entries on unknown keys", "count", rec.Skipped)
	}

	if chartPath == "" {
		if store == nil {
			return model.ReplayResponse{}, errors.New("no chart given and no song db")
		}
		song, err := store.Lookup(ctx, rec.SHA256)
		if err != nil {
			return model.ReplayResponse{}, errors.Wrapf(err, "chart %s", rec.SHA256)
		}
		chartPath = song.Path
	}

	ch, tl, err := loadChart(ctx, chartPath, c.ChartEncoding())
	if err != nil {
		return model.ReplayResponse{}, err
	}
	r, err := replay.Reconstruct(ch, tl, rec, c.Thresholds)
	if err != nil {
		return model.ReplayResponse{}, err
	}
	if r.Truncated {
		logger.Warn("key log runs past the chart end", "chart", chartPath)
	}
	return replayResponse(chartPath, r, rec.Skipped), nil
}

func replayResponse(path string, r *replay.Replay, skipped int) model.ReplayResponse {
	res := model.ReplayResponse{
		SHA256:     r.SHA256,
		Path:       path,
		Modify:     r.Modify,
		Truncated:  r.Truncated,
		Unreleased: r.Unreleased,
		Skipped:    skipped,
		Bars:       make([]model.ReplayBarJSON, 0),
	}
	for _, b := range r.Bars() {
		out := model.ReplayBarJSON{
			Number: b.Number,
			Notes:  make(map[string][]string),
		}
		for lane := 0; lane < model.NumLanes; lane++ {
			name := model.LaneNames[lane]
			for _, n := range b.Notes[lane] {
				out.Notes[name] = append(out.Notes[name], n.Timing.String())
			}
			for _, s := range b.LongNotes[lane] {
				if out.LongNotes == nil {
					out.LongNotes = make(map[string][]string)
				}
				out.LongNotes[name] = append(out.LongNotes[name], segmentText(s))
			}
		}
		res.Bars = append(res.Bars, out)
	}
	return res
}

func segmentText(s model.LongNoteSegment) string {
	if s.Kind != model.SegmentSpan {
		return fmt.Sprintf("%s %s", s.Kind, s.Timing)
	}
	text := fmt.Sprintf("span %s-%s", s.From, s.To)
	if s.IsStart {
		text += " head"
	}
	if s.IsEnd {
		text += " tail"
	}
	return text
}
