// Package diagnostic wires a single diagnostic command run: logging, result
// evaluation, optional persistence and the closing summary.
package diagnostic

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"invoiceprobe/internal/analytics"
	"invoiceprobe/internal/config"
	"invoiceprobe/internal/database"
	"invoiceprobe/internal/emails"
	"invoiceprobe/internal/models"
	"invoiceprobe/internal/notify"
	"invoiceprobe/internal/report"

	"github.com/rs/zerolog"
)

// Tracker persists outcomes
type Tracker interface {
	TrackCall(command string, outcome models.Outcome) error
	TrackRun(run models.RunSummary) error
}

// Notifier delivers the rendered summary
type Notifier interface {
	SendSummary(run models.RunSummary, rendered string) error
}

// Run is one invocation of a diagnostic command
type Run struct {
	Command string
	Logger  zerolog.Logger

	summary   *report.Summary
	tracker   Tracker
	analytics *analytics.Service
	closers   []io.Closer
}

// Start sets up logging for the command. A log file that cannot be created is
// reported on the console and the run continues.
func Start(command string, cfg *config.Config) *Run {
	logger, closer, err := cfg.SetupLogger(command)
	if err != nil {
		logger.Warn().Err(err).Msg("Run log file disabled")
	}

	r := New(command, logger)
	r.closers = append(r.closers, closer)
	return r
}

// New creates a run that logs to the given logger only
func New(command string, logger zerolog.Logger) *Run {
	return &Run{
		Command: command,
		Logger:  logger,
		summary: report.NewSummary(command, logger),
	}
}

// EnableAnalytics persists the run when DATABASE_URL is set. Failures are
// logged as warnings and leave persistence disabled.
func (r *Run) EnableAnalytics(cfg *config.Config) {
	if !cfg.HasDatabase() {
		return
	}

	writeClient, err := database.NewWriteClient(cfg.DatabaseURL)
	if err != nil {
		r.Logger.Warn().Err(err).Msg("Result persistence disabled")
		return
	}

	started := r.summary.Run().StartedAt
	service, err := analytics.NewService(writeClient, analytics.NewRunID(r.Command, started))
	if err != nil {
		r.Logger.Warn().Err(err).Msg("Result persistence disabled")
		_ = writeClient.Close()
		return
	}

	r.Logger.Info().Str("driver", writeClient.DriverName()).Str("run_id", service.RunID()).Msg("Persisting results")
	r.tracker = service
	r.analytics = service
	r.closers = append(r.closers, writeClient)
}

// SetTracker replaces the persistence backend
func (r *Run) SetTracker(t Tracker) {
	r.tracker = t
}

// Record evaluates a result and tracks the outcome
func (r *Run) Record(result models.Result, expect *models.Expectation) models.Outcome {
	outcome := r.summary.Add(result, expect)
	if r.tracker != nil {
		if err := r.tracker.TrackCall(r.Command, outcome); err != nil {
			r.Logger.Warn().Err(err).Msg("Failed to persist call")
		}
	}
	return outcome
}

// RecordLoadError records a failed -eml load as an errored outcome
func (r *Run) RecordLoadError(provider, model, path string, err error) models.Outcome {
	r.Logger.Error().Err(err).Str("path", path).Msg("Failed to load EML samples")
	return r.Record(models.Failed(provider, model, path, err, "failed to load EML samples"), nil)
}

// Summary returns the accumulated run
func (r *Run) Summary() models.RunSummary {
	return r.summary.Run()
}

// Finish renders the summary to w, persists the totals, optionally notifies,
// and returns the process exit code.
func (r *Run) Finish(w io.Writer, notifier Notifier) int {
	run := r.summary.Run()

	if err := r.summary.Render(w); err != nil {
		r.Logger.Warn().Err(err).Msg("Failed to write summary")
	}

	if r.tracker != nil {
		if err := r.tracker.TrackRun(run); err != nil {
			r.Logger.Warn().Err(err).Msg("Failed to persist run")
		}
	}

	if notifier != nil {
		if err := notifier.SendSummary(run, r.summary.String()); err != nil {
			r.Logger.Warn().Err(err).Msg("Failed to send summary e-mail")
		} else {
			r.Logger.Info().Msg("Summary e-mail sent")
		}
	}

	r.Logger.Info().
		Int("passed", run.Passed).
		Int("failed", run.Failed).
		Int("errored", run.Errored).
		Dur("elapsed", time.Since(run.StartedAt)).
		Msg("Run finished")

	return r.summary.ExitCode()
}

// PrintHistory writes the latest persisted runs of the command
func (r *Run) PrintHistory(w io.Writer, limit int) error {
	if r.analytics == nil {
		return fmt.Errorf("history requires DATABASE_URL")
	}

	runs, err := r.analytics.RecentRuns(r.Command, limit)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Last %d %s runs:\n", len(runs), r.Command)
	for _, run := range runs {
		fmt.Fprintf(w, "  %s  %d passed, %d failed, %d errors\n",
			run.StartedAt.Format(time.RFC3339), run.Passed, run.Failed, run.Errored)
	}
	return nil
}

// Close releases the log file and database connection
func (r *Run) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error closing resource: %v\n", err)
		}
	}
	r.closers = nil
}

// LoadSamples parses an .eml file or every .eml file under a directory
func LoadSamples(path string) ([]models.EmailSample, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	if info.IsDir() {
		parsed, err := emails.ParseDirectory(path)
		if err != nil {
			return nil, err
		}
		if len(parsed) == 0 {
			return nil, fmt.Errorf("no .eml files found in %s", path)
		}
		samples := make([]models.EmailSample, 0, len(parsed))
		for _, s := range parsed {
			samples = append(samples, *s)
		}
		return samples, nil
	}

	if !strings.HasSuffix(strings.ToLower(path), ".eml") {
		return nil, fmt.Errorf("invalid file type %q: expected .eml file or directory", path)
	}

	sample, err := emails.ParseEMLFile(path)
	if err != nil {
		return nil, err
	}
	return []models.EmailSample{*sample}, nil
}

// Notifier returns the SendGrid notifier for -notify, or nil with a warning
// when SENDGRID_API_KEY or REPORT_EMAIL is missing.
func (r *Run) Notifier(cfg *config.Config) Notifier {
	service, err := notify.NewService(cfg.SendGridAPIKey, cfg.ReportEmail)
	if err != nil {
		r.Logger.Warn().Err(err).Msg("Set SENDGRID_API_KEY and REPORT_EMAIL to e-mail the summary")
		return nil
	}
	return service
}
