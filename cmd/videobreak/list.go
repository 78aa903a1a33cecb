package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"videobreak/internal/media"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the videos the next playback would play",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		files, err := media.NewLibrary(afero.NewOsFs(), cfg.Playback.Extensions).List(cfg.Playback.VideoFolder)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(files) == 0 {
			fmt.Fprintf(out, "no videos in %s\n", cfg.Playback.VideoFolder)
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		var total uint64
		for _, f := range files {
			size := uint64(0)
			if st, err := os.Stat(f); err == nil {
				size = uint64(st.Size())
			}
			total += size
			fmt.Fprintf(tw, "%s\t%s\n", filepath.Base(f), humanize.Bytes(size))
		}
		fmt.Fprintf(tw, "%d file(s)\t%s\n", len(files), humanize.Bytes(total))
		return tw.Flush()
	},
}
