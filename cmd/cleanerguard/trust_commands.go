package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"cleanerguard/internal/config"
	"cleanerguard/internal/fileutil"
	"cleanerguard/internal/recognizer"
	"cleanerguard/internal/truststore"
)

func newTrustCommand(ctx *commandContext) *cobra.Command {
	trustCmd := &cobra.Command{
		Use:   "trust",
		Short: "Inspect and edit trust records",
	}

	trustCmd.AddCommand(newTrustListCommand(ctx))
	trustCmd.AddCommand(newTrustAcceptCommand(ctx))
	trustCmd.AddCommand(newTrustForgetCommand(ctx))

	return trustCmd
}

func newTrustListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trusted definition files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(_ *config.Config, store truststore.Store, _ *slog.Logger) error {
				records, err := store.Records(cmd.Context())
				if err != nil {
					return fmt.Errorf("list trust records: %w", err)
				}
				if jsonOutput {
					return writeJSON(cmd, newRecordViews(records))
				}

				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No trusted definition files")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					accepted := "-"
					if !rec.AcceptedAt.IsZero() {
						accepted = humanize.Time(rec.AcceptedAt)
					}
					rows = append(rows, []string{rec.Path, shortDigest(rec.Digest), accepted})
				}
				fmt.Fprint(out, renderTable([]string{"Path", "Fingerprint", "Accepted"}, rows, nil, nil))
				fmt.Fprintln(out)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output records as JSON")
	return cmd
}

func newTrustAcceptCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "accept <file>...",
		Short: "Trust the current content of definition files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(_ *config.Config, store truststore.Store, logger *slog.Logger) error {
				rec := recognizer.NewRecognizer(store, nil, recognizer.Options{Logger: logger})
				out := cmd.OutOrStdout()
				for _, arg := range args {
					abs, err := fileutil.Abs(arg)
					if err != nil {
						return err
					}
					class, err := rec.Classify(cmd.Context(), abs)
					if err != nil {
						return err
					}
					if class == recognizer.Known {
						fmt.Fprintf(out, "Already trusted: %s\n", abs)
						continue
					}
					if err := rec.Accept(cmd.Context(), abs); err != nil {
						return err
					}
					fmt.Fprintf(out, "Trusted %s definition: %s\n", class, abs)
				}
				return nil
			})
		},
	}
}

func newTrustForgetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <file>...",
		Short: "Remove trust records so the files are treated as new",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(_ *config.Config, store truststore.Store, _ *slog.Logger) error {
				out := cmd.OutOrStdout()
				var missing []string
				for _, arg := range args {
					abs, err := fileutil.Abs(arg)
					if err != nil {
						return err
					}
					if err := store.Forget(cmd.Context(), abs); err != nil {
						if errors.Is(err, truststore.ErrNotFound) {
							missing = append(missing, abs)
							continue
						}
						return fmt.Errorf("forget %s: %w", abs, err)
					}
					fmt.Fprintf(out, "Forgot %s\n", abs)
				}
				if len(missing) > 0 {
					return fmt.Errorf("no trust record for %s", joinPaths(missing))
				}
				return nil
			})
		},
	}
}

func shortDigest(digest string) string {
	if len(digest) <= 16 {
		return digest
	}
	return digest[:16] + "…"
}

func joinPaths(paths []string) string {
	if len(paths) == 1 {
		return paths[0]
	}
	return fmt.Sprintf("%d files: %v", len(paths), paths)
}
