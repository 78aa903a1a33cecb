package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"videobreak/internal/app"
	"videobreak/internal/storage"
	logx "videobreak/pkg/logx"
)

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent playbacks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sc, enabled, err := app.StorageConfig(cfg)
		if err != nil {
			return err
		}
		if !enabled {
			return errors.New("history is disabled (set storage.driver to file or sqlite)")
		}
		st, err := storage.Open(sc, logx.Nop())
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.RecentRuns(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "no playbacks yet")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "WHEN\tTRIGGER\tOUTCOME\tFILES\tTOOK\tERROR")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
				humanize.Time(r.StartedAt), r.Trigger, r.Outcome(), r.Files, r.Took().Round(100*time.Millisecond), r.Error)
		}
		return tw.Flush()
	},
}
