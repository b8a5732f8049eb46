package prompts

import (
	"testing"
	"time"

	"invoiceprobe/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = models.EmailSample{
	Name:     "test",
	Subject:  "Invoice #42",
	From:     "billing@example.com",
	Date:     time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	Body:     "  Amount due: $10  ",
	Keywords: []string{"invoice", "amount due"},
	Attachments: []models.Attachment{
		{Filename: "inv-42.pdf", ContentType: "application/pdf", Size: 1024},
	},
}

func TestConfidence_Metadata(t *testing.T) {
	prompt := Confidence(StyleMetadata, sample)

	assert.Contains(t, prompt, "Subject: Invoice #42")
	assert.Contains(t, prompt, "From: billing@example.com")
	assert.Contains(t, prompt, "Date: 2024-01-15")
	assert.Contains(t, prompt, "- inv-42.pdf (application/pdf, 1024 bytes)")
	assert.NotContains(t, prompt, "Amount due")
	assert.Contains(t, prompt, "number between 0 and 1")
}

func TestConfidence_Content(t *testing.T) {
	prompt := Confidence(StyleContent, sample)

	assert.Contains(t, prompt, "Body:\nAmount due: $10\n")
	assert.NotContains(t, prompt, "inv-42.pdf")
}

func TestConfidence_Keywords(t *testing.T) {
	prompt := Confidence(StyleKeywords, sample)

	assert.Contains(t, prompt, "Keywords extracted from the email: invoice, amount due")
	assert.NotContains(t, prompt, "Subject:")
}

func TestConfidence_NoAttachments(t *testing.T) {
	s := sample
	s.Attachments = nil
	s.Date = time.Time{}

	prompt := Confidence(StyleMetadata, s)
	assert.Contains(t, prompt, "Attachments: none")
	assert.NotContains(t, prompt, "Date:")
}

func TestYesNo(t *testing.T) {
	prompt := YesNo(sample)

	assert.Contains(t, prompt, "Is this email an invoice?")
	assert.Contains(t, prompt, "Subject: Invoice #42")
	assert.Contains(t, prompt, "Body:\nAmount due: $10")
	assert.Contains(t, YesNoSystemPrompt, "yes or no")
}

func TestParseStyle(t *testing.T) {
	style, err := ParseStyle("CONTENT")
	require.NoError(t, err)
	assert.Equal(t, StyleContent, style)

	_, err = ParseStyle("subject-only")
	assert.Error(t, err)
}
