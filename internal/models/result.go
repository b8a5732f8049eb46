package models

import "time"

// Provider names
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Result is the outcome of one classification call
type Result struct {
	Success    bool          `json:"success"`
	Error      string        `json:"error,omitempty"`
	Details    string        `json:"details,omitempty"`
	Provider   string        `json:"provider"`
	Model      string        `json:"model"`
	APIVersion string        `json:"api_version,omitempty"` // Gemini version that answered
	Sample     string        `json:"sample"`
	Style      string        `json:"style,omitempty"` // prompt style for confidence calls
	RawText    string        `json:"raw_text,omitempty"`
	Confidence *float64      `json:"confidence,omitempty"` // nil means no score
	IsInvoice  *bool         `json:"is_invoice,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Failed builds an unsuccessful result from an error
func Failed(provider, model, sample string, err error, details string) Result {
	return Result{
		Success:  false,
		Error:    err.Error(),
		Details:  details,
		Provider: provider,
		Model:    model,
		Sample:   sample,
	}
}

// Expectation is the hard-coded answer a sample should produce. Exactly one of
// the confidence range or Invoice is used, depending on the diagnostic.
type Expectation struct {
	MinConfidence float64 `json:"min_confidence"`
	MaxConfidence float64 `json:"max_confidence"`
	Invoice       bool    `json:"invoice"`
}

// Status of a single evaluated call
type Status string

const (
	StatusPass  Status = "PASS"
	StatusFail  Status = "FAIL"
	StatusError Status = "ERROR"
	StatusInfo  Status = "INFO" // no expectation, e.g. a user-supplied .eml
)

// Outcome pairs a result with its evaluation
type Outcome struct {
	Result Result `json:"result"`
	Status Status `json:"status"`
	Reason string `json:"reason"`
}

// RunSummary aggregates the outcomes of a diagnostic run
type RunSummary struct {
	Command   string    `json:"command"`
	StartedAt time.Time `json:"started_at"`
	Outcomes  []Outcome `json:"outcomes"`
	Passed    int       `json:"passed"`
	Failed    int       `json:"failed"`
	Errored   int       `json:"errored"`
}
