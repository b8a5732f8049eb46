// Package fixtures holds the fixed email samples the diagnostics classify and
// the answers they are expected to produce.
package fixtures

import (
	"time"

	"invoiceprobe/internal/models"
)

// Case is a sample with its expected classification
type Case struct {
	Sample models.EmailSample
	Expect models.Expectation
}

var (
	invoiceExpectation    = models.Expectation{MinConfidence: 0.7, MaxConfidence: 1.0, Invoice: true}
	nonInvoiceExpectation = models.Expectation{MinConfidence: 0.0, MaxConfidence: 0.3, Invoice: false}
)

// Cases returns a fresh copy of every fixture so callers cannot mutate them
func Cases() []Case {
	return []Case{
		{
			Sample: models.EmailSample{
				Name:    "hosting-invoice",
				Subject: "Invoice #INV-2024-0042 for your Acme Hosting subscription",
				From:    "billing@acmehosting.com",
				Date:    time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
				Body: "Hello,\n\nPlease find attached invoice INV-2024-0042 for March 2024.\n" +
					"Amount due: $49.00\nDue date: March 31, 2024\nPayment terms: Net 30\n\nThank you for your business.",
				Keywords: []string{"invoice", "amount due", "due date", "payment terms", "subscription"},
				Attachments: []models.Attachment{
					{Filename: "INV-2024-0042.pdf", ContentType: "application/pdf", Size: 48213},
				},
			},
			Expect: invoiceExpectation,
		},
		{
			Sample: models.EmailSample{
				Name:    "contractor-bill",
				Subject: "Bill for consulting services - February",
				From:    "jane.doe@doeconsulting.io",
				Date:    time.Date(2024, 2, 29, 17, 5, 0, 0, time.UTC),
				Body: "Hi team,\n\nAttached is my bill for 32 hours of consulting in February at $120/hour.\n" +
					"Total: $3,840.00. Bank transfer details are on the second page.\n\nBest,\nJane",
				Keywords: []string{"bill", "consulting", "hours", "total", "bank transfer"},
				Attachments: []models.Attachment{
					{Filename: "bill-2024-02.pdf", ContentType: "application/pdf", Size: 102400},
				},
			},
			Expect: invoiceExpectation,
		},
		{
			Sample: models.EmailSample{
				Name:    "product-newsletter",
				Subject: "What's new in March: dark mode, faster sync and more",
				From:    "news@productupdates.example.com",
				Date:    time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC),
				Body: "This month we shipped dark mode, cut sync times in half and added three new integrations.\n" +
					"Read the full changelog on our blog. You are receiving this because you subscribed to product news.",
				Keywords: []string{"newsletter", "dark mode", "changelog", "integrations", "unsubscribe"},
			},
			Expect: nonInvoiceExpectation,
		},
		{
			Sample: models.EmailSample{
				Name:     "lunch-invite",
				Subject:  "Lunch on Friday?",
				From:     "sam@example.org",
				Date:     time.Date(2024, 3, 6, 8, 15, 0, 0, time.UTC),
				Body:     "Hey! Are you free for lunch on Friday around noon? The new ramen place opened downtown.",
				Keywords: []string{"lunch", "friday", "ramen", "downtown"},
			},
			Expect: nonInvoiceExpectation,
		},
	}
}

// Find returns the case with the given sample name
func Find(name string) (Case, bool) {
	for _, c := range Cases() {
		if c.Sample.Name == name {
			return c, true
		}
	}
	return Case{}, false
}
