package emails

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"invoiceprobe/internal/models"
	"invoiceprobe/internal/utils"
)

// maxKeywords caps the keyword list attached to a parsed sample
const maxKeywords = 15

// ParseEMLFile parses a single EML file into a sample named after the file
func ParseEMLFile(filename string) (*models.EmailSample, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open EML file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fmt.Printf("Warning: Error closing file: %v\n", err)
		}
	}()

	sample, err := ParseMessage(file)
	if err != nil {
		return nil, err
	}
	sample.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return sample, nil
}

// ParseDirectory recursively parses all EML files in a directory. Files that
// fail to parse are skipped with a warning.
func ParseDirectory(dirPath string) ([]*models.EmailSample, error) {
	var samples []*models.EmailSample

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		if strings.HasSuffix(strings.ToLower(path), ".eml") {
			sample, err := ParseEMLFile(path)
			if err != nil {
				fmt.Printf("Warning: Failed to parse %s: %v\n", path, err)
				return nil // Continue processing other files
			}
			samples = append(samples, sample)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	return samples, nil
}

// ParseMessage parses an RFC 5322 message into a sample
func ParseMessage(r io.Reader) (*models.EmailSample, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read email message: %w", err)
	}

	header := msg.Header

	sample := &models.EmailSample{
		Subject: decodeHeader(header.Get("Subject")),
		From:    decodeHeader(header.Get("From")),
	}

	if dateStr := header.Get("Date"); dateStr != "" {
		if date, err := mail.ParseDate(dateStr); err == nil {
			sample.Date = date
		}
	}

	parsed, err := extractContent(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to extract body: %w", err)
	}
	sample.Body = strings.TrimSpace(parsed.body)
	sample.Attachments = parsed.attachments
	sample.Keywords = utils.ExtractKeywords(sample.Subject+"\n"+sample.Body, maxKeywords)

	return sample, nil
}

type content struct {
	body        string
	attachments []models.Attachment
}

// extractContent extracts the body text and attachment metadata
func extractContent(msg *mail.Message) (content, error) {
	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			return content{}, err
		}
		return content{body: string(body)}, nil
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Fallback: read as plain text
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			return content{}, err
		}
		return content{body: string(body)}, nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		var c content
		if err := walkMultipart(msg.Body, params["boundary"], &c); err != nil {
			return content{}, err
		}
		return c, nil
	}

	body, err := decodePart(msg.Body, msg.Header.Get("Content-Transfer-Encoding"))
	if err != nil {
		return content{}, err
	}
	if strings.HasPrefix(mediaType, "text/html") {
		return content{body: cleanHTML(string(body))}, nil
	}
	return content{body: string(body)}, nil
}

// walkMultipart collects text parts and attachment metadata; plain text is
// preferred over HTML for the body.
func walkMultipart(body io.Reader, boundary string, c *content) error {
	mr := multipart.NewReader(body, boundary)
	var textParts []string
	var htmlParts []string

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		partContentType := part.Header.Get("Content-Type")
		mediaType, params, _ := mime.ParseMediaType(partContentType)

		if strings.HasPrefix(mediaType, "multipart/") {
			if nestedBoundary, ok := params["boundary"]; ok {
				var nested content
				if err := walkMultipart(part, nestedBoundary, &nested); err == nil {
					textParts = append(textParts, nested.body)
					c.attachments = append(c.attachments, nested.attachments...)
				}
			}
			continue
		}

		data, err := decodePart(part, part.Header.Get("Content-Transfer-Encoding"))
		if err != nil {
			continue
		}

		if filename := attachmentName(part, params); filename != "" {
			if mediaType == "" {
				mediaType = "application/octet-stream"
			}
			c.attachments = append(c.attachments, models.Attachment{
				Filename:    filename,
				ContentType: mediaType,
				Size:        int64(len(data)),
			})
			continue
		}

		if strings.HasPrefix(mediaType, "text/plain") || mediaType == "" {
			textParts = append(textParts, string(data))
		} else if strings.HasPrefix(mediaType, "text/html") {
			htmlParts = append(htmlParts, string(data))
		}
	}

	if len(textParts) > 0 {
		c.body = strings.Join(textParts, "\n\n")
	} else if len(htmlParts) > 0 {
		c.body = cleanHTML(strings.Join(htmlParts, "\n\n"))
	}

	return nil
}

// attachmentName returns the file name of an attachment part, or "" for inline text
func attachmentName(part *multipart.Part, contentTypeParams map[string]string) string {
	disposition, dispParams, _ := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	if name := dispParams["filename"]; name != "" {
		return decodeHeader(name)
	}
	if name := contentTypeParams["name"]; name != "" {
		return decodeHeader(name)
	}
	if disposition == "attachment" {
		return "unnamed"
	}
	return ""
}

// decodePart reads a part, undoing its transfer encoding
func decodePart(body io.Reader, transferEncoding string) ([]byte, error) {
	reader := body

	switch strings.ToLower(strings.TrimSpace(transferEncoding)) {
	case "quoted-printable":
		reader = quotedprintable.NewReader(body)
	case "base64":
		raw, err := io.ReadAll(body)
		if err != nil {
			return nil, err
		}
		// line breaks inside base64 bodies are not part of the data
		raw = bytes.Join(bytes.Fields(raw), nil)
		return base64.StdEncoding.DecodeString(string(raw))
	}

	return io.ReadAll(reader)
}

// cleanHTML removes HTML tags (basic implementation)
func cleanHTML(html string) string {
	html = removeTagsWithContent(html)

	replacer := strings.NewReplacer(
		"&nbsp;", " ",
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", "\"",
		"&#39;", "'",
		"<br>", "\n",
		"<br/>", "\n",
		"<br />", "\n",
		"</p>", "\n\n",
		"</div>", "\n",
		"</tr>", "\n",
		"</td>", " ",
	)
	html = replacer.Replace(html)

	var result strings.Builder
	inTag := false
	for _, char := range html {
		if char == '<' {
			inTag = true
			continue
		}
		if char == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(char)
		}
	}

	text := strings.TrimSpace(result.String())
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}

	return text
}

// tagsWithContent match script and style elements, case-insensitively and
// across lines
var tagsWithContent = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script\b.*?</script\s*>`),
	regexp.MustCompile(`(?is)<style\b.*?</style\s*>`),
}

// removeTagsWithContent removes script and style elements and their content
func removeTagsWithContent(html string) string {
	for _, re := range tagsWithContent {
		html = re.ReplaceAllString(html, "")
	}
	return html
}

// decodeHeader decodes MIME encoded headers
func decodeHeader(header string) string {
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}
