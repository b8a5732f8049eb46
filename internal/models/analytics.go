package models

import "time"

// DiagnosticRun is one persisted run summary
type DiagnosticRun struct {
	RunID     string    `db:"run_id" json:"run_id"`
	Command   string    `db:"command" json:"command"`
	Passed    int       `db:"passed" json:"passed"`
	Failed    int       `db:"failed" json:"failed"`
	Errored   int       `db:"errored" json:"errored"`
	StartedAt time.Time `db:"started_at" json:"started_at"`
}
