package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"cleanerguard/internal/config"
	"cleanerguard/internal/confirm"
	"cleanerguard/internal/discovery"
	"cleanerguard/internal/recognizer"
	"cleanerguard/internal/truststore"
)

type scanFlags struct {
	yes         bool
	no          bool
	confirmMode string
	jsonOutput  bool
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var flags scanFlags

	cmd := &cobra.Command{
		Use:   "scan [file...]",
		Short: "Check definition files and resolve changed or new ones",
		Long: `Scan fingerprints every cleaner definition file and compares it with the
trust store. Known files are left alone. Changed and new files are shown to
the user, who either adds them to the trust store or deletes them.

With no arguments the configured definition directories are scanned.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.yes && flags.no {
				return errors.New("--yes and --no are mutually exclusive")
			}
			return ctx.withStore(cmd, func(cfg *config.Config, store truststore.Store, logger *slog.Logger) error {
				return runScan(cmd, cfg, store, logger, flags, args)
			})
		},
	}

	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Trust every changed or new file without asking")
	cmd.Flags().BoolVar(&flags.no, "no", false, "Delete every changed or new file without asking")
	cmd.Flags().StringVar(&flags.confirmMode, "confirm", "", "Confirmation front end: auto, dialog, or prompt (default from scan.confirm)")
	cmd.Flags().BoolVar(&flags.jsonOutput, "json", false, "Output results as JSON")
	return cmd
}

func runScan(cmd *cobra.Command, cfg *config.Config, store truststore.Store, logger *slog.Logger, flags scanFlags, args []string) error {
	paths, err := definitionPaths(cmd, cfg, logger, args)
	if err != nil {
		return err
	}

	confirmer, err := newConfirmer(cmd, cfg, flags)
	if err != nil {
		return err
	}

	opts := recognizer.Options{
		Logger:  logger,
		Notices: noticeWriter(cmd, flags.jsonOutput),
		Workers: cfg.Scan.Workers,
	}
	if cfg.Scan.RestrictDeleteToRoots {
		opts.Roots = cfg.Paths.DefinitionDirs
	}
	rec := recognizer.NewRecognizer(store, confirmer, opts)

	report, scanErr := rec.Scan(cmd.Context(), paths)
	if !report.Complete {
		return fmt.Errorf("scan aborted (run %s): %w", rec.RunID(), scanErr)
	}

	if flags.jsonOutput {
		if err := writeJSON(cmd, newScanView(report)); err != nil {
			return err
		}
	} else {
		printScanReport(cmd, report)
	}

	if scanErr != nil {
		return fmt.Errorf("%s could not be resolved:\n%w", plural(report.Failed, "definition file"), scanErr)
	}
	return nil
}

// definitionPaths returns explicit arguments, or the discovered files when none were given.
func definitionPaths(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	paths, err := discovery.List(cmd.Context(), discovery.OptionsFromConfig(cfg, logger))
	if err != nil {
		return nil, fmt.Errorf("discover definition files: %w", err)
	}
	return paths, nil
}

func newConfirmer(cmd *cobra.Command, cfg *config.Config, flags scanFlags) (recognizer.Confirmer, error) {
	switch {
	case flags.yes:
		return confirm.Static{Accept: true}, nil
	case flags.no:
		return confirm.Static{Accept: false}, nil
	}

	mode := strings.TrimSpace(flags.confirmMode)
	if mode == "" {
		mode = cfg.Scan.Confirm
	}

	prompts := cmd.OutOrStdout()
	if flags.jsonOutput {
		prompts = cmd.ErrOrStderr()
	}

	in, inIsFile := cmd.InOrStdin().(*os.File)
	out, outIsFile := prompts.(*os.File)
	if inIsFile && outIsFile {
		return confirm.FromMode(mode, in, out)
	}

	// Redirected streams cannot host the dialog.
	switch strings.ToLower(mode) {
	case "auto", "prompt":
		return confirm.NewPrompter(cmd.InOrStdin(), prompts), nil
	case "dialog":
		return confirm.NewDialog(cmd.InOrStdin(), prompts), nil
	default:
		return nil, fmt.Errorf("unsupported confirm mode %q", mode)
	}
}

func printScanReport(cmd *cobra.Command, report recognizer.Report) {
	out := cmd.OutOrStdout()
	if len(report.Results) == 0 {
		fmt.Fprintln(out, "No cleaner definition files found")
		return
	}

	rows := make([][]string, 0, len(report.Results))
	for _, res := range report.Results {
		view := newFileView(res)
		class := view.Classification
		if class == "" {
			class = "-"
		}
		detail := view.Action
		if view.Error != "" {
			detail = fmt.Sprintf("%s: %s", view.Action, rootCause(res.Err))
		}
		rows = append(rows, []string{res.Path, class, detail})
	}
	footer := []string{
		fmt.Sprintf("%d known, %d accepted, %d deleted, %d failed", report.Known, report.Accepted, report.Deleted, report.Failed),
	}
	fmt.Fprint(out, renderTable([]string{"Path", "Classification", "Action"}, rows, nil, footer))
	fmt.Fprintln(out)
}

// rootCause trims path prefixes from wrapped errors for table display.
func rootCause(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
