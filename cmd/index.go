package cmd

import (
	"context"

	charmlog "github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/jsphweid/bmsdex/batch"
	"github.com/jsphweid/bmsdex/config"
	"github.com/jsphweid/bmsdex/db"
	"github.com/jsphweid/bmsdex/file"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var indexMax int

func init() {
	indexCmd.Flags().IntVarP(&indexMax, "max", "n", 0, "index at most this many charts, 0 for all")
	rootCmd.AddCommand(indexCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index [chart root]",
	Short: "Scores every chart under a directory into the song db",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := cfg.ChartRoot
		if len(args) == 1 {
			root = args[0]
		}
		if root == "" {
			return errors.New("no chart root: pass one or set chart_root")
		}

		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		_, err = Index(cmd.Context(), store, cfg, root, indexMax)
		return err
	},
}

// Index scores the charts under root and stores every one that scored.
// Charts that fail are logged and skipped; the error is only set when
// nothing could be indexed or the store failed.
func Index(ctx context.Context, store db.Store, c config.Config, root string, maxNum int) (int, error) {
	logger := charmlog.FromContext(ctx)

	paths, err := file.FindCharts(root, maxNum)
	if err != nil {
		return 0, err
	}
	logger.Info("found charts", "root", root, "count", len(paths))
	fileNums := file.CreateFileNumMap(paths)

	results, runErr := batch.Run(ctx, fileNums, c.Workers, c.ChartEncoding())

	stored := 0
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		if err := store.Put(ctx, res.Song()); err != nil {
			return stored, errors.Wrapf(err, "storing %s", res.Path)
		}
		stored++
	}
	logger.Info("index done",
		"stored", humanize.Comma(int64(stored)),
		"failed", humanize.Comma(int64(len(results)-stored)),
	)
	if ctx.Err() != nil {
		return stored, ctx.Err()
	}
	if stored == 0 && runErr != nil {
		return 0, runErr
	}
	return stored, nil
}
