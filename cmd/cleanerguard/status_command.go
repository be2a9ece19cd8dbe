package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"cleanerguard/internal/config"
	"cleanerguard/internal/recognizer"
	"cleanerguard/internal/truststore"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var states []string

	cmd := &cobra.Command{
		Use:   "status [file...]",
		Short: "Show how definition files compare with the trust store",
		Long: `Status classifies definition files as known, changed, or new without
asking anything and without touching the files or their trust records.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(cfg *config.Config, store truststore.Store, logger *slog.Logger) error {
				paths, err := definitionPaths(cmd, cfg, logger, args)
				if err != nil {
					return err
				}
				keep, err := parseStates(states)
				if err != nil {
					return err
				}
				rec := recognizer.NewRecognizer(store, nil, recognizer.Options{Logger: logger, Workers: cfg.Scan.Workers})
				results, err := rec.Status(cmd.Context(), paths)
				if err != nil {
					return err
				}

				views := make([]fileView, 0, len(results))
				for _, res := range results {
					if keep != nil && (res.Err != nil || !keep[res.Classification]) {
						continue
					}
					view := newFileView(res)
					if info, statErr := os.Stat(res.Path); statErr == nil {
						view.Size = info.Size()
					}
					views = append(views, view)
				}

				if jsonOutput {
					return writeJSON(cmd, views)
				}
				printStatus(cmd, views)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")
	cmd.Flags().StringSliceVar(&states, "state", nil, "Only show files in these states (known, changed, new)")
	return cmd
}

func printStatus(cmd *cobra.Command, views []fileView) {
	out := cmd.OutOrStdout()
	if len(views) == 0 {
		fmt.Fprintln(out, "No cleaner definition files found")
		return
	}

	counts := make(map[string]int)
	rows := make([][]string, 0, len(views))
	for _, view := range views {
		state := view.Classification
		if view.Error != "" {
			state = "unreadable"
		}
		counts[state]++
		size := "-"
		if view.Size > 0 {
			size = humanize.IBytes(uint64(view.Size))
		}
		rows = append(rows, []string{view.Path, state, size})
	}
	footer := []string{fmt.Sprintf("%d known, %d changed, %d new, %d unreadable",
		counts["known"], counts["changed"], counts["new"], counts["unreadable"])}
	fmt.Fprint(out, renderTable([]string{"Path", "State", "Size"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight}, footer))
	fmt.Fprintln(out)
}

// parseStates returns nil when no filter was requested.
func parseStates(values []string) (map[recognizer.Classification]bool, error) {
	if len(values) == 0 {
		return nil, nil
	}
	keep := make(map[recognizer.Classification]bool, len(values))
	for _, value := range values {
		class, err := recognizer.ParseClassification(value)
		if err != nil {
			return nil, fmt.Errorf("--state: %w", err)
		}
		keep[class] = true
	}
	return keep, nil
}
