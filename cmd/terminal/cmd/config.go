package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"accessterm/internal/app/terminal"
	"accessterm/internal/domain/settings"
)

var errValueRequired = errors.New("value required")

var (
	showYAML bool
	reveal   bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the stored terminal configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored configuration with secrets masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(cmd.Context(), func(store *settings.Store) error {
			return printRecord(cmd.OutOrStdout(), store.Record().Masked(), showYAML)
		})
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <field>",
	Short: "Print one field (ssid, password, endpoint, terminalId, authKey)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := settings.ParseField(args[0])
		if err != nil {
			return err
		}

		return withStore(cmd.Context(), func(store *settings.Store) error {
			rec := store.Record()
			if !reveal {
				rec = rec.Masked()
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), rec.Get(f))
			return err
		})
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <field> [value]",
	Short: "Set one field; secrets are prompted for when the value is omitted",
	Long: `Sets one configuration field and persists the record. Values longer than the
field capacity are truncated. The running terminal picks the change up on its next restart.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := settings.ParseField(args[0])
		if err != nil {
			return err
		}

		var value string
		if len(args) == 2 {
			value = args[1]
		} else {
			value, err = promptSecret(cmd.OutOrStdout(), f)
			if err != nil {
				return err
			}
		}

		return withStore(cmd.Context(), func(store *settings.Store) error {
			return setField(cmd.Context(), cmd.OutOrStdout(), store, f, value)
		})
	},
}

// withStore loads the stored record, runs fn and closes the storage.
func withStore(ctx context.Context, fn func(*settings.Store) error) error {
	repo, store, err := terminal.OpenStore(cfg, log)
	if err != nil {
		return err
	}
	defer repo.Close()

	if _, err := store.Load(ctx); err != nil {
		return err
	}

	return fn(store)
}

func printRecord(w io.Writer, rec settings.Record, asYAML bool) error {
	if asYAML {
		return yaml.NewEncoder(w).Encode(rec)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, f := range settings.Fields() {
		fmt.Fprintf(tw, "%s\t%s\n", f, rec.Get(f))
	}
	return tw.Flush()
}

func setField(ctx context.Context, w io.Writer, store *settings.Store, f settings.Field, value string) error {
	if err := store.Set(ctx, f, value); err != nil {
		return err
	}

	if len(value) > f.Capacity() {
		fmt.Fprintf(w, "%s truncated to %d bytes\n", f, f.Capacity())
	}
	fmt.Fprintf(w, "%s updated\n", f)
	return nil
}

func promptSecret(w io.Writer, f settings.Field) (string, error) {
	if !f.Secret() {
		return "", fmt.Errorf("%w for %s", errValueRequired, f)
	}

	fmt.Fprintf(w, "Enter %s: ", f)
	value, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f, err)
	}

	return string(value), nil
}

func init() {
	configShowCmd.Flags().BoolVar(&showYAML, "yaml", false, "print as YAML")
	configGetCmd.Flags().BoolVar(&reveal, "reveal", false, "print secrets in clear text")
}
