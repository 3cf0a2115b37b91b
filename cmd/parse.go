package cmd

import (
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/jsphweid/bmsdex/chart"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse <chart>",
	Short: "Prints a chart as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := chart.Load(args[0], cfg.ChartEncoding())
		if err != nil {
			return err
		}
		logger := charmlog.FromContext(cmd.Context())
		for _, w := range c.Warnings {
			logger.Warn("chart warning", "warning", w)
		}
		return chart.WriteJSON(os.Stdout, c)
	},
}
