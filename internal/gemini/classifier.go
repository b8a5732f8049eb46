package gemini

import (
	"context"
	"strings"
	"time"

	"invoiceprobe/internal/classify"
	"invoiceprobe/internal/models"
	"invoiceprobe/internal/prompts"
)

// ClassifyConfidence asks the model how confident it is that sample is an
// invoice. Call and parse failures are reported in the Result, never returned.
func (c *Client) ClassifyConfidence(ctx context.Context, sample models.EmailSample, style prompts.Style) models.Result {
	start := time.Now()
	resp, err := c.GenerateContent(ctx, prompts.Confidence(style, sample))

	if err != nil {
		result := models.Failed(models.ProviderGemini, c.model, sample.Name, err, attemptDetails(resp))
		result.Style = string(style)
		result.Duration = time.Since(start)
		return result
	}

	result := models.Result{
		Success:    true,
		Provider:   models.ProviderGemini,
		Model:      c.model,
		APIVersion: resp.APIVersion,
		Sample:     sample.Name,
		Style:      string(style),
		RawText:    resp.Text,
		Confidence: classify.ParseConfidence(resp.Text),
		Duration:   time.Since(start),
	}
	if len(resp.Attempts) > 1 {
		result.Details = attemptDetails(resp)
	}
	if result.Confidence == nil {
		c.logger.Warn().Str("sample", sample.Name).Str("text", resp.Text).Msg("No confidence score in Gemini response")
	}
	return result
}

func attemptDetails(resp *Response) string {
	if resp == nil || len(resp.Attempts) == 0 {
		return ""
	}
	parts := make([]string, 0, len(resp.Attempts))
	for _, a := range resp.Attempts {
		if a.Err != nil {
			parts = append(parts, a.Version+" failed: "+a.Err.Error())
		} else {
			parts = append(parts, a.Version+" ok")
		}
	}
	return strings.Join(parts, "; ")
}
