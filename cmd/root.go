package cmd

import (
	"context"
	"os"
	"os/signal"

	charmlog "github.com/charmbracelet/log"
	"github.com/jsphweid/bmsdex/chart"
	"github.com/jsphweid/bmsdex/config"
	"github.com/jsphweid/bmsdex/db"
	"github.com/jsphweid/bmsdex/model"
	"github.com/jsphweid/bmsdex/timeline"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string
	cfg        = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "bmsdex",
	Short: "BMS chart and replay toolkit",
	Long: `bmsdex parses BMS charts, rates their density, indexes them into a
song database and lays replays back out onto the chart grid.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := charmlog.ParseLevel(logLevel)
		if err != nil {
			return errors.Wrapf(err, "log level %q", logLevel)
		}
		charmlog.FromContext(cmd.Context()).SetLevel(level)

		cfg, err = config.Load(configFile)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "bmsdex.yaml", "config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
}

func Execute() {
	logger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		Prefix:          "bmsdex",
		ReportTimestamp: true,
	})
	ctx := context.WithValue(context.Background(), charmlog.ContextKey, logger)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	cobra.CheckErr(rootCmd.ExecuteContext(ctx))
}

// loadChart reads a chart and builds its timeline, logging parser warnings.
func loadChart(ctx context.Context, path string, enc chart.Encoding) (*model.Chart, *timeline.Timeline, error) {
	c, err := chart.Load(path, enc)
	if err != nil {
		return nil, nil, err
	}
	logger := charmlog.FromContext(ctx)
	for _, w := range c.Warnings {
		logger.Warn("chart warning", "path", path, "warning", w)
	}
	tl, err := timeline.Build(c)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "timeline of %s", path)
	}
	return c, tl, nil
}

func openStore(ctx context.Context) (db.Store, error) {
	store, err := db.Open(ctx, cfg.SongDB)
	if err != nil {
		return nil, errors.Wrap(err, "opening song db")
	}
	return store, nil
}
