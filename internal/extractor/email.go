package extractor

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
)

// EmailAttachment is a decoded, non-recursively-ingested attachment —
// spec.md §9 keeps attachments as extracted metadata only.
type EmailAttachment struct {
	Filename    string
	ContentType string
	SizeBytes   int
	Data        []byte
}

// ExtractedEmail is C2's output for the "email" file kind.
type ExtractedEmail struct {
	Subject     string
	From        string
	To          []string
	Cc          []string
	Date        string
	MessageID   string
	InReplyTo   string
	References  []string
	BodyText    string
	Attachments []EmailAttachment
	IsReply     bool
	IsForward   bool
}

// signatureMarkers truncate the body at the first common signature line,
// taken verbatim from the original Python email_extractor.py's clean list.
var signatureMarkers = []string{
	"-- ",
	"___",
	"Sent from",
	"Get Outlook for",
	"Von meinem iPhone",
	"Von meinem Android",
}

// ExtractEmail parses an RFC822 message into a single logical "page" of
// text, grounded on the Python original's extract_message/clean_email_text:
// prefer text/plain, fall back to text/html (stripped of tags), strip
// quoted-reply lines, and truncate at a signature marker.
func ExtractEmail(data []byte) (ExtractedEmail, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return ExtractedEmail{}, err
	}

	header := msg.Header
	result := ExtractedEmail{
		Subject:    header.Get("Subject"),
		From:       header.Get("From"),
		Date:       header.Get("Date"),
		MessageID:  header.Get("Message-ID"),
		InReplyTo:  header.Get("In-Reply-To"),
		To:         splitAddressList(header.Get("To")),
		Cc:         splitAddressList(header.Get("Cc")),
		References: strings.Fields(header.Get("References")),
	}
	result.IsReply = strings.HasPrefix(strings.TrimSpace(result.Subject), "Re:") || result.InReplyTo != ""
	lowerSubject := strings.ToLower(result.Subject)
	result.IsForward = strings.Contains(lowerSubject, "fwd:") || strings.Contains(lowerSubject, "fw:")

	body, attachments, err := extractParts(msg.Header.Get("Content-Type"), msg.Body)
	if err != nil {
		return result, err
	}
	result.BodyText = cleanEmailText(body)
	result.Attachments = attachments
	return result, nil
}

func extractParts(contentType string, body io.Reader) (string, []EmailAttachment, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Not a recognized media type — treat the whole body as plain text.
		raw, _ := io.ReadAll(body)
		return string(raw), nil, nil
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		raw, _ := io.ReadAll(body)
		return string(raw), nil, nil
	}

	mr := multipart.NewReader(body, params["boundary"])
	var plainText, htmlText string
	var attachments []EmailAttachment

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		partType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		disposition := part.Header.Get("Content-Disposition")
		filename := part.FileName()

		raw, _ := io.ReadAll(part)

		if filename != "" || strings.HasPrefix(disposition, "attachment") {
			attachments = append(attachments, EmailAttachment{
				Filename:    filename,
				ContentType: partType,
				SizeBytes:   len(raw),
				Data:        raw,
			})
			continue
		}

		switch partType {
		case "text/plain":
			plainText += string(raw)
		case "text/html":
			htmlText += string(raw)
		}
	}

	if plainText != "" {
		return plainText, attachments, nil
	}
	return stripHTMLTags(htmlText), attachments, nil
}

// cleanEmailText strips quoted-reply lines (">" prefix) and truncates at
// the first signature marker, per the Python original's clean_email_text.
func cleanEmailText(body string) string {
	lines := strings.Split(body, "\n")
	var kept []string
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), ">") {
			continue
		}
		truncated := false
		for _, marker := range signatureMarkers {
			if strings.HasPrefix(strings.TrimLeft(line, " \t"), marker) {
				truncated = true
				break
			}
		}
		if truncated {
			break
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func splitAddressList(header string) []string {
	if header == "" {
		return nil
	}
	parts := strings.Split(header, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func stripHTMLTags(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
