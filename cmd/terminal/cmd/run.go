package cmd

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"accessterm/internal/app/terminal"
	termctl "accessterm/internal/domain/terminal"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the terminal control loop",
	Long: `Runs the terminal until interrupted. Whenever the terminal applies new configuration
it is rebuilt from persistent storage, the same way the device would reboot.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		for {
			app, err := terminal.New(cfg, log)
			if err != nil {
				return err
			}

			err = app.Run(ctx)
			if cerr := app.Close(); cerr != nil {
				log.Warn("failed to release resources", slog.Any("error", cerr))
			}

			if !errors.Is(err, termctl.ErrRestart) {
				return err
			}
			log.Info("reinitialising from stored configuration", slog.String("previous_boot_id", app.BootID()))
		}
	},
}
