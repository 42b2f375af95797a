package repository

import (
	"context"

	emaildomain "mail-assistant/internal/email/domain"
)

// EmailRepository is the durable document store for mail records.
type EmailRepository interface {
	// SaveEmail writes the whole record, replacing any previous version.
	SaveEmail(ctx context.Context, email *emaildomain.MailRecord) error
	// GetEmailByID returns nil, nil when the record is absent.
	GetEmailByID(ctx context.Context, id string) (*emaildomain.MailRecord, error)
}

// SyncRunRepository keeps the outcome of sync runs.
type SyncRunRepository interface {
	SaveRun(ctx context.Context, run *emaildomain.SyncReport) error
	// LatestRun returns nil, nil when the user has never synced.
	LatestRun(ctx context.Context, userID string) (*emaildomain.SyncReport, error)
}
