// Package report evaluates classification results against their expected
// answers and renders the run summary.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"invoiceprobe/internal/models"

	"github.com/rs/zerolog"
)

// Evaluate compares a result with its expectation. A nil expectation yields
// an informational outcome.
func Evaluate(result models.Result, expect *models.Expectation) models.Outcome {
	outcome := models.Outcome{Result: result}

	switch {
	case !result.Success:
		outcome.Status = models.StatusError
		outcome.Reason = result.Error
	case result.Confidence == nil && result.IsInvoice == nil:
		outcome.Status = models.StatusFail
		outcome.Reason = "no score in response"
		if expect == nil {
			outcome.Status = models.StatusInfo
		}
	case expect == nil:
		outcome.Status = models.StatusInfo
		outcome.Reason = describe(result)
	case result.Confidence != nil:
		c := *result.Confidence
		if c >= expect.MinConfidence && c <= expect.MaxConfidence {
			outcome.Status = models.StatusPass
		} else {
			outcome.Status = models.StatusFail
		}
		outcome.Reason = fmt.Sprintf("confidence %.2f, expected %.2f-%.2f", c, expect.MinConfidence, expect.MaxConfidence)
	default:
		got := *result.IsInvoice
		if got == expect.Invoice {
			outcome.Status = models.StatusPass
		} else {
			outcome.Status = models.StatusFail
		}
		outcome.Reason = fmt.Sprintf("isInvoice=%t, expected %t", got, expect.Invoice)
	}

	return outcome
}

func describe(result models.Result) string {
	if result.Confidence != nil {
		return fmt.Sprintf("confidence %.2f", *result.Confidence)
	}
	if result.IsInvoice != nil {
		return fmt.Sprintf("isInvoice=%t", *result.IsInvoice)
	}
	return ""
}

// Summary accumulates outcomes for one run and logs each as it is added
type Summary struct {
	run    models.RunSummary
	logger zerolog.Logger
}

// NewSummary starts a summary for the named command
func NewSummary(command string, logger zerolog.Logger) *Summary {
	return &Summary{
		run:    models.RunSummary{Command: command, StartedAt: time.Now()},
		logger: logger,
	}
}

// Add evaluates and records a result
func (s *Summary) Add(result models.Result, expect *models.Expectation) models.Outcome {
	outcome := Evaluate(result, expect)
	s.run.Outcomes = append(s.run.Outcomes, outcome)

	var event *zerolog.Event
	switch outcome.Status {
	case models.StatusPass:
		s.run.Passed++
		event = s.logger.Info()
	case models.StatusFail:
		s.run.Failed++
		event = s.logger.Warn()
	case models.StatusError:
		s.run.Errored++
		event = s.logger.Error().Str("details", result.Details)
	default:
		event = s.logger.Info()
	}

	event.
		Str("status", string(outcome.Status)).
		Str("sample", result.Sample).
		Str("provider", result.Provider).
		Str("model", result.Model).
		Dur("duration", result.Duration)
	if result.Style != "" {
		event.Str("style", result.Style)
	}
	if result.APIVersion != "" {
		event.Str("api_version", result.APIVersion)
	}
	if result.RawText != "" {
		event.Str("raw_text", result.RawText)
	}
	event.Msg(outcome.Reason)

	return outcome
}

// Run returns the accumulated run summary
func (s *Summary) Run() models.RunSummary {
	return s.run
}

// ExitCode is 0 only when nothing failed or errored
func (s *Summary) ExitCode() int {
	if s.run.Failed > 0 || s.run.Errored > 0 {
		return 1
	}
	return 0
}

// Render writes a plain-text table of every outcome followed by totals
func (s *Summary) Render(w io.Writer) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s run started %s\n\n", s.run.Command, s.run.StartedAt.Format(time.RFC3339))
	for _, o := range s.run.Outcomes {
		name := o.Result.Sample
		if o.Result.Style != "" {
			name += " [" + o.Result.Style + "]"
		}
		fmt.Fprintf(&sb, "%-5s  %-40s  %s\n", o.Status, name, o.Reason)
	}
	fmt.Fprintf(&sb, "\n%d passed, %d failed, %d errors (%d total)\n",
		s.run.Passed, s.run.Failed, s.run.Errored, len(s.run.Outcomes))

	_, err := io.WriteString(w, sb.String())
	return err
}

// String renders the summary, for e-mail bodies
func (s *Summary) String() string {
	var sb strings.Builder
	_ = s.Render(&sb)
	return sb.String()
}
