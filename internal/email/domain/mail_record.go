package domain

import (
	"fmt"
	"strings"
)

const (
	NoSubject     = "No Subject"
	UnknownSender = "Unknown"

	// BodyPreviewLimit bounds the body text that goes into the embedding text
	// and the indexed snippet.
	BodyPreviewLimit = 1000
)

// MailRecord is one normalized email message. It is written whole and never
// patched; a re-sync replaces it.
type MailRecord struct {
	ID       string `json:"email_id" firestore:"email_id" gorm:"primaryKey"`
	ThreadID string `json:"thread_id" firestore:"thread_id"`
	Snippet  string `json:"snippet" firestore:"snippet" gorm:"type:text"`
	Subject  string `json:"subject" firestore:"subject"`
	From     string `json:"from" firestore:"from" gorm:"column:from_addr"`
	To       string `json:"to" firestore:"to" gorm:"column:to_addr"`
	Date     string `json:"date" firestore:"date"`
	Body     string `json:"body" firestore:"body" gorm:"type:text"`
}

func (MailRecord) TableName() string {
	return "emails"
}

// EmbeddingText is the canonical text a record is embedded from.
func (r *MailRecord) EmbeddingText() string {
	return fmt.Sprintf("Subject: %s\nFrom: %s\n\n%s", r.Subject, r.From, Truncate(r.Body, BodyPreviewLimit))
}

// Normalize fills the header sentinels so consumers never branch on absence.
func (r *MailRecord) Normalize() {
	if strings.TrimSpace(r.Subject) == "" {
		r.Subject = NoSubject
	}
	if strings.TrimSpace(r.From) == "" {
		r.From = UnknownSender
	}
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
