package models

import "time"

// Attachment describes an attachment without its content
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// EmailSample is the email data a diagnostic classifies
type EmailSample struct {
	Name        string       `json:"name"`
	Subject     string       `json:"subject"`
	From        string       `json:"from"`
	Date        time.Time    `json:"date"`
	Body        string       `json:"body,omitempty"`
	Keywords    []string     `json:"keywords,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// HasAttachments reports whether the sample carries attachment metadata
func (e EmailSample) HasAttachments() bool {
	return len(e.Attachments) > 0
}
