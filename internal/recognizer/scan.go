package recognizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cleanerguard/internal/logging"
)

// Result is the outcome for one definition file.
type Result struct {
	Path           string         `json:"path"`
	Classification Classification `json:"classification,omitempty"`
	Action         Action         `json:"action"`
	Digest         string         `json:"digest,omitempty"`
	Err            error          `json:"-"`
}

// Report summarizes a scan.
type Report struct {
	RunID    string        `json:"run_id"`
	Results  []Result      `json:"results"`
	Known    int           `json:"known"`
	Accepted int           `json:"accepted"`
	Deleted  int           `json:"deleted"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
	// Complete is false when the scan aborted before every file was resolved.
	Complete bool `json:"complete"`
}

// Err joins the per-file errors, or returns nil when every file resolved cleanly.
func (rep Report) Err() error {
	var errs []error
	for _, res := range rep.Results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return errors.Join(errs...)
}

func (rep *Report) add(res Result) {
	switch res.Action {
	case ActionAccepted:
		rep.Accepted++
	case ActionDeleted:
		rep.Deleted++
	case ActionFailed:
		rep.Failed++
	default:
		if res.Classification == Known {
			rep.Known++
		}
	}
	rep.Results = append(rep.Results, res)
}

// Scan resolves every path exactly once: known files are left alone, changed
// and new files are confirmed and then either trusted or deleted. Hashing runs
// in parallel; confirmation and mutation run sequentially in input order.
//
// The returned error is non-nil when the scan aborted (store or confirmer
// failure, cancellation) or when any file failed; in the latter case it joins
// the per-file errors and the report is complete.
func (r *Recognizer) Scan(ctx context.Context, paths []string) (Report, error) {
	started := time.Now()
	report := Report{RunID: r.runID}

	normalized, err := normalizePaths(paths)
	if err != nil {
		return report, err
	}
	salt, err := r.ensureSalt(ctx)
	if err != nil {
		return report, err
	}
	entries, err := r.hashAll(ctx, salt, normalized)
	if err != nil {
		return report, err
	}

	r.logger.Debug("scan started", logging.Int("file_count", len(entries)))

	for _, entry := range entries {
		res, err := r.resolve(ctx, entry)
		if err != nil {
			report.Duration = time.Since(started)
			logging.ErrorWithContext(r.logger, "scan aborted", "scan_aborted",
				logging.String(logging.FieldPath, entry.path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "rerun the scan once the trust store or confirmation front end is available"),
				logging.Int("resolved", len(report.Results)))
			return report, err
		}
		report.add(res)
	}

	report.Duration = time.Since(started)
	report.Complete = true
	r.logger.Info("scan finished",
		logging.Int("known", report.Known),
		logging.Int("accepted", report.Accepted),
		logging.Int("deleted", report.Deleted),
		logging.Int("failed", report.Failed),
		logging.Duration("duration", report.Duration))
	return report, report.Err()
}

func (r *Recognizer) resolve(ctx context.Context, entry hashed) (Result, error) {
	res := Result{Path: entry.path, Digest: entry.digest}
	if entry.err != nil {
		res.Action = ActionFailed
		res.Err = fmt.Errorf("%s: %w", entry.path, entry.err)
		logging.WarnWithContext(r.logger, "cannot read cleaner definition", "definition_unreadable",
			logging.String(logging.FieldPath, entry.path),
			logging.Error(entry.err),
			logging.String(logging.FieldErrorHint, "check the file permissions"),
			logging.String(logging.FieldImpact, "file was neither trusted nor deleted"))
		return res, nil
	}

	class, err := r.classifyDigest(ctx, entry.path, entry.digest)
	if err != nil {
		return res, err
	}
	res.Classification = class
	if !class.NeedsConfirmation() {
		return res, nil
	}

	if r.confirmer == nil {
		return res, fmt.Errorf("%s: %w", entry.path, ErrNoConfirmer)
	}
	accept, err := r.confirmer.Confirm(ctx, entry.path, class)
	if err != nil {
		return res, fmt.Errorf("confirm %s: %w", entry.path, err)
	}

	if accept {
		if err := r.Accept(ctx, entry.path); err != nil {
			return res, err
		}
		res.Action = ActionAccepted
		return res, nil
	}

	if err := r.Reject(entry.path); err != nil {
		res.Action = ActionFailed
		res.Err = err
		logging.WarnWithContext(r.logger, "failed to delete cleaner definition", "definition_delete_failed",
			logging.String(logging.FieldPath, entry.path),
			logging.String(logging.FieldClassification, class.String()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the file manually or accept it"),
			logging.String(logging.FieldImpact, "untrusted definition remains on disk"))
		return res, nil
	}
	res.Action = ActionDeleted
	return res, nil
}

// Status classifies every path without prompting. Nothing but the
// installation salt (on first use) is written. Unreadable files carry their
// error on the Result.
func (r *Recognizer) Status(ctx context.Context, paths []string) ([]Result, error) {
	normalized, err := normalizePaths(paths)
	if err != nil {
		return nil, err
	}
	salt, err := r.ensureSalt(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := r.hashAll(ctx, salt, normalized)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(entries))
	for _, entry := range entries {
		res := Result{Path: entry.path, Digest: entry.digest}
		if entry.err != nil {
			res.Action = ActionFailed
			res.Err = entry.err
			results = append(results, res)
			continue
		}
		class, err := r.classifyDigest(ctx, entry.path, entry.digest)
		if err != nil {
			return nil, err
		}
		res.Classification = class
		results = append(results, res)
	}
	return results, nil
}
