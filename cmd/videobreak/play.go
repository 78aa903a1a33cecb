package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"videobreak/internal/app"
	"videobreak/internal/config"
	"videobreak/internal/media"
	logx "videobreak/pkg/logx"
)

func init() {
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the video folder once and wait for the player to exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := config.ValidatePlayback(cfg); err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer cancel()

		sc := app.ScheduleConfig(cfg)
		p := media.NewPlayer(afero.NewOsFs(), media.ExecRunner{}, app.MediaOptions(cfg), logx.NewConsole(cfg.Logging.Level))
		res, err := p.Play(ctx, sc.Directory, sc.PlayerPath)
		if err != nil {
			return err
		}
		if res.Skipped {
			fmt.Fprintf(cmd.OutOrStdout(), "no videos in %s\n", sc.Directory)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "played %d file(s)\n", res.Files)
		return nil
	},
}
