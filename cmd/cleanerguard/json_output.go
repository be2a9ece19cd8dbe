package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"cleanerguard/internal/recognizer"
	"cleanerguard/internal/truststore"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type fileView struct {
	Path           string `json:"path"`
	Classification string `json:"classification,omitempty"`
	Action         string `json:"action,omitempty"`
	Digest         string `json:"digest,omitempty"`
	Size           int64  `json:"size_bytes,omitempty"`
	Error          string `json:"error,omitempty"`
}

type scanView struct {
	RunID      string     `json:"run_id"`
	Complete   bool       `json:"complete"`
	Known      int        `json:"known"`
	Accepted   int        `json:"accepted"`
	Deleted    int        `json:"deleted"`
	Failed     int        `json:"failed"`
	DurationMS int64      `json:"duration_ms"`
	Files      []fileView `json:"files"`
}

type recordView struct {
	Path       string    `json:"path"`
	Digest     string    `json:"digest"`
	AcceptedAt time.Time `json:"accepted_at"`
}

func newFileView(res recognizer.Result) fileView {
	view := fileView{Path: res.Path, Digest: res.Digest}
	if res.Classification != 0 {
		view.Classification = res.Classification.String()
	}
	if res.Action != recognizer.ActionNone {
		view.Action = res.Action.String()
	}
	if res.Err != nil {
		view.Error = res.Err.Error()
	}
	return view
}

func newScanView(report recognizer.Report) scanView {
	files := make([]fileView, 0, len(report.Results))
	for _, res := range report.Results {
		files = append(files, newFileView(res))
	}
	return scanView{
		RunID:      report.RunID,
		Complete:   report.Complete,
		Known:      report.Known,
		Accepted:   report.Accepted,
		Deleted:    report.Deleted,
		Failed:     report.Failed,
		DurationMS: report.Duration.Milliseconds(),
		Files:      files,
	}
}

func newRecordViews(records []truststore.Record) []recordView {
	views := make([]recordView, 0, len(records))
	for _, rec := range records {
		views = append(views, recordView{Path: rec.Path, Digest: rec.Digest, AcceptedAt: rec.AcceptedAt})
	}
	return views
}
