package analytics

import (
	"fmt"
	"sync"
	"time"

	"invoiceprobe/internal/database"
	"invoiceprobe/internal/models"
)

// Service persists diagnostic calls and run summaries
type Service struct {
	writeClient *database.WriteClient
	runID       string
	mu          sync.Mutex
}

// NewRunID builds the identifier shared by every row of one run
func NewRunID(command string, startedAt time.Time) string {
	return fmt.Sprintf("%s-%s", command, startedAt.UTC().Format("20060102T150405.000Z"))
}

// NewService creates the tables if needed and returns a service bound to one run
func NewService(writeClient *database.WriteClient, runID string) (*Service, error) {
	if writeClient == nil {
		return nil, fmt.Errorf("write client is required for analytics service")
	}

	service := &Service{
		writeClient: writeClient,
		runID:       runID,
	}

	if err := service.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create analytics tables: %w", err)
	}

	return service, nil
}

// RunID returns the run this service records under
func (s *Service) RunID() string {
	return s.runID
}

// createTables creates the diagnostics tables for the connected driver
func (s *Service) createTables() error {
	id := "BIGSERIAL PRIMARY KEY"
	if s.writeClient.DriverName() == database.DriverMySQL {
		id = "BIGINT AUTO_INCREMENT PRIMARY KEY"
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS diagnostic_calls (
			id ` + id + `,
			run_id VARCHAR(100) NOT NULL,
			command VARCHAR(50) NOT NULL,
			provider VARCHAR(20) NOT NULL,
			model VARCHAR(100) NOT NULL,
			api_version VARCHAR(20),
			sample VARCHAR(255) NOT NULL,
			style VARCHAR(20),
			status VARCHAR(10) NOT NULL,
			success BOOLEAN NOT NULL,
			confidence DOUBLE PRECISION,
			is_invoice BOOLEAN,
			error TEXT,
			duration_ms BIGINT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS diagnostic_runs (
			run_id VARCHAR(100) PRIMARY KEY,
			command VARCHAR(50) NOT NULL,
			passed INT NOT NULL,
			failed INT NOT NULL,
			errored INT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, query := range queries {
		if _, err := s.writeClient.ExecuteWriteQuery(query); err != nil {
			return err
		}
	}

	return nil
}

// TrackCall records one evaluated provider call
func (s *Service) TrackCall(command string, outcome models.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := outcome.Result

	query := `INSERT INTO diagnostic_calls
		(run_id, command, provider, model, api_version, sample, style, status, success, confidence, is_invoice, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.writeClient.ExecuteWriteQuery(query,
		s.runID,
		command,
		r.Provider,
		r.Model,
		nullable(r.APIVersion),
		r.Sample,
		nullable(r.Style),
		string(outcome.Status),
		r.Success,
		r.Confidence,
		r.IsInvoice,
		nullable(r.Error),
		r.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to track call: %w", err)
	}

	return nil
}

// TrackRun records the totals of a finished run
func (s *Service) TrackRun(run models.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `INSERT INTO diagnostic_runs (run_id, command, passed, failed, errored, started_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.writeClient.ExecuteWriteQuery(query, s.runID, run.Command, run.Passed, run.Failed, run.Errored, run.StartedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to track run: %w", err)
	}

	return nil
}

// RecentRuns returns the latest runs of a command, newest first
func (s *Service) RecentRuns(command string, limit int) ([]models.DiagnosticRun, error) {
	var runs []models.DiagnosticRun
	query := `SELECT run_id, command, passed, failed, errored, started_at
		FROM diagnostic_runs WHERE command = ? ORDER BY started_at DESC LIMIT ?`
	if err := s.writeClient.ExecuteWriteQueryWithResult(&runs, query, command, limit); err != nil {
		return nil, fmt.Errorf("failed to load runs: %w", err)
	}
	return runs, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
