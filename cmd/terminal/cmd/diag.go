package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"accessterm/internal/app/terminal"
	"accessterm/internal/domain/settings"
	"accessterm/internal/infrastructure/reader"
)

var (
	errUnreachable = errors.New("server unreachable")
	errScanFailed  = errors.New("scan report failed")
)

var diagCmd = &cobra.Command{
	Use:   "diag",
	Short: "One-shot exchanges with the access server",
}

var diagPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Ping the server once and show what it proposes; nothing is applied",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(cmd.Context(), func(store *settings.Store) error {
			out := terminal.NewSyncClient(cfg, log).Ping(cmd.Context(), store.Record())
			w := cmd.OutOrStdout()

			switch {
			case out.Skipped:
				fmt.Fprintln(w, "skipped: endpoint, terminalId and authKey must all be set")
				return out.Err
			case !out.Reachable:
				fmt.Fprintf(w, "unreachable: %v\n", out.Err)
				return errUnreachable
			}

			fmt.Fprintln(w, "reachable")
			if !out.UpdateRequested {
				return nil
			}

			fields := make([]string, 0, len(out.Proposed))
			for _, f := range out.Proposed.Fields() {
				fields = append(fields, f.String())
			}
			if len(fields) == 0 {
				fmt.Fprintln(w, "update requested, no field differs")
				return nil
			}
			fmt.Fprintf(w, "update requested: %s\n", strings.Join(fields, ", "))
			return nil
		})
	},
}

var diagScanCmd = &cobra.Command{
	Use:   "scan <tag>",
	Short: "Report one tag id (decimal or 0x hex) to the server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, err := reader.ParseTag(args[0])
		if err != nil {
			return err
		}

		return withStore(cmd.Context(), func(store *settings.Store) error {
			if !terminal.NewSyncClient(cfg, log).ReportScan(cmd.Context(), tag, store.Record()) {
				return errScanFailed
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tag %d accepted\n", tag)
			return nil
		})
	},
}
