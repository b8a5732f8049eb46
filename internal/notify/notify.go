package notify

import (
	"errors"
	"fmt"
	"time"

	"invoiceprobe/internal/models"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// DefaultHost is the SendGrid API host
const DefaultHost = "https://api.sendgrid.com"

const defaultSender = "noreply@invoiceprobe.local"

// ErrNotConfigured is returned when the API key or recipient is missing
var ErrNotConfigured = errors.New("SendGrid notification not configured")

// Service e-mails run summaries via SendGrid
type Service struct {
	apiKey    string
	recipient string
	sender    string
	host      string
}

// Option configures a Service
type Option func(*Service)

// WithHost overrides the SendGrid API host
func WithHost(host string) Option {
	return func(s *Service) { s.host = host }
}

// WithSender overrides the From address
func WithSender(address string) Option {
	return func(s *Service) { s.sender = address }
}

// NewService creates a notification service for one recipient
func NewService(apiKey, recipient string, opts ...Option) (*Service, error) {
	if apiKey == "" || recipient == "" {
		return nil, ErrNotConfigured
	}

	s := &Service{
		apiKey:    apiKey,
		recipient: recipient,
		sender:    defaultSender,
		host:      DefaultHost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Subject summarises a run in one line
func Subject(run models.RunSummary) string {
	verdict := "OK"
	if run.Failed > 0 || run.Errored > 0 {
		verdict = "FAILED"
	}
	return fmt.Sprintf("[invoiceprobe] %s %s: %d passed, %d failed, %d errors",
		run.Command, verdict, run.Passed, run.Failed, run.Errored)
}

// BuildMessage builds the summary e-mail
func (s *Service) BuildMessage(run models.RunSummary, rendered string) *mail.SGMailV3 {
	from := mail.NewEmail("invoiceprobe diagnostics", s.sender)
	to := mail.NewEmail("Diagnostics", s.recipient)

	body := fmt.Sprintf(`Diagnostic run finished.

Command: %s
Started: %s

%s`, run.Command, run.StartedAt.UTC().Format(time.RFC3339), rendered)

	return mail.NewSingleEmail(from, Subject(run), to, body, "")
}

// SendSummary e-mails the rendered summary of a run
func (s *Service) SendSummary(run models.RunSummary, rendered string) error {
	message := s.BuildMessage(run, rendered)

	client := sendgrid.NewSendClient(s.apiKey)
	client.BaseURL = s.host + "/v3/mail/send"

	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("SendGrid API error: status %d, body: %s", response.StatusCode, response.Body)
	}

	return nil
}
