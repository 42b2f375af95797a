package usecase

import (
	"context"

	emaildomain "mail-assistant/internal/email/domain"
)

// SyncUsecase pulls mail into the document store and the vector index.
type SyncUsecase interface {
	// Sync runs one sync to completion and returns its report.
	Sync(ctx context.Context, req emaildomain.SyncRequest) (*emaildomain.SyncReport, error)
	// StartAsync schedules a sync in the background and returns the
	// running report immediately.
	StartAsync(req emaildomain.SyncRequest) *emaildomain.SyncReport
	// LastReport returns nil, nil when the user never synced.
	LastReport(ctx context.Context, userID string) (*emaildomain.SyncReport, error)
	// Wait blocks until background syncs have finished.
	Wait()
}

// SearchUsecase answers a question with the summary of the best matching email.
type SearchUsecase interface {
	Search(ctx context.Context, userID, query string) (*emaildomain.QueryState, error)
}

// Assistant is the language model capability used by the pipeline.
type Assistant interface {
	RefineQuery(ctx context.Context, query string) (string, error)
	SummarizeEmail(ctx context.Context, subject, from, body string) (string, error)
}
