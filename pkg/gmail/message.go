package gmail

import (
	"encoding/base64"
	"strings"

	emaildomain "mail-assistant/internal/email/domain"

	"google.golang.org/api/gmail/v1"
)

func convertGmailMessage(msg *gmail.Message) *emaildomain.MailRecord {
	var headers []*gmail.MessagePartHeader
	if msg.Payload != nil {
		headers = msg.Payload.Headers
	}

	record := &emaildomain.MailRecord{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		Subject:  getHeader(headers, "Subject"),
		From:     getHeader(headers, "From"),
		To:       getHeader(headers, "To"),
		Date:     getHeader(headers, "Date"),
		Body:     getEmailBody(msg.Payload),
	}
	record.Normalize()
	return record
}

// getHeader looks a header up case-insensitively.
func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if header != nil && strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}

// getEmailBody prefers the payload's own body, then the first text/plain part
// found depth-first. It returns "" when neither exists.
func getEmailBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}
	if payload.Body != nil && payload.Body.Data != "" {
		if data, ok := decodeBase64(payload.Body.Data); ok {
			return data
		}
	}

	var findPlain func(parts []*gmail.MessagePart) (string, bool)
	findPlain = func(parts []*gmail.MessagePart) (string, bool) {
		for _, part := range parts {
			if part == nil {
				continue
			}
			if strings.EqualFold(part.MimeType, "text/plain") && part.Body != nil && part.Body.Data != "" {
				if data, ok := decodeBase64(part.Body.Data); ok {
					return data, true
				}
			}
			if len(part.Parts) > 0 {
				if data, ok := findPlain(part.Parts); ok {
					return data, true
				}
			}
		}
		return "", false
	}

	body, _ := findPlain(payload.Parts)
	return body
}

// decodeBase64 accepts base64url with or without padding.
func decodeBase64(data string) (string, bool) {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b), true
	}
	if b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "=")); err == nil {
		return string(b), true
	}
	return "", false
}
