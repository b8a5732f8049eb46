// Package prompts builds the classification prompts sent to the models.
package prompts

import (
	"fmt"
	"strings"

	"invoiceprobe/internal/models"
)

// Style selects which part of an email a confidence prompt is built from
type Style string

const (
	StyleMetadata Style = "metadata"
	StyleContent  Style = "content"
	StyleKeywords Style = "keywords"
)

// Styles lists every confidence prompt style in run order
var Styles = []Style{StyleMetadata, StyleContent, StyleKeywords}

// ParseStyle maps a flag value to a Style
func ParseStyle(s string) (Style, error) {
	for _, style := range Styles {
		if strings.EqualFold(s, string(style)) {
			return style, nil
		}
	}
	return "", fmt.Errorf("unknown prompt style %q (want metadata, content or keywords)", s)
}

const confidenceInstruction = `Respond with only a number between 0 and 1 representing your confidence that this email is an invoice or a request for payment. Do not add any other text.`

// YesNoSystemPrompt is the system message for yes/no classification
const YesNoSystemPrompt = `You classify emails. An email is an invoice when it bills the recipient or requests payment for goods or services. Answer with a single word: yes or no.`

// Confidence builds a prompt asking for a confidence score in [0,1]
func Confidence(style Style, sample models.EmailSample) string {
	var sb strings.Builder
	sb.WriteString("Determine whether the following email is an invoice.\n\n")

	switch style {
	case StyleContent:
		writeHeader(&sb, sample)
		sb.WriteString("Body:\n")
		sb.WriteString(strings.TrimSpace(sample.Body))
		sb.WriteString("\n")
	case StyleKeywords:
		sb.WriteString("Keywords extracted from the email: ")
		sb.WriteString(strings.Join(sample.Keywords, ", "))
		sb.WriteString("\n")
	default:
		writeHeader(&sb, sample)
		writeAttachments(&sb, sample)
	}

	sb.WriteString("\n")
	sb.WriteString(confidenceInstruction)
	return sb.String()
}

// YesNo builds the user message for yes/no classification
func YesNo(sample models.EmailSample) string {
	var sb strings.Builder
	sb.WriteString("Is this email an invoice?\n\n")
	writeHeader(&sb, sample)
	writeAttachments(&sb, sample)
	if body := strings.TrimSpace(sample.Body); body != "" {
		sb.WriteString("Body:\n")
		sb.WriteString(body)
		sb.WriteString("\n")
	}
	return sb.String()
}

func writeHeader(sb *strings.Builder, sample models.EmailSample) {
	fmt.Fprintf(sb, "Subject: %s\n", sample.Subject)
	fmt.Fprintf(sb, "From: %s\n", sample.From)
	if !sample.Date.IsZero() {
		fmt.Fprintf(sb, "Date: %s\n", sample.Date.Format("2006-01-02"))
	}
}

func writeAttachments(sb *strings.Builder, sample models.EmailSample) {
	if !sample.HasAttachments() {
		sb.WriteString("Attachments: none\n")
		return
	}
	sb.WriteString("Attachments:\n")
	for _, a := range sample.Attachments {
		fmt.Fprintf(sb, "- %s (%s, %d bytes)\n", a.Filename, a.ContentType, a.Size)
	}
}
