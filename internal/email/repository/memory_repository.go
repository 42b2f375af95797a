package repository

import (
	"context"
	"fmt"
	"sync"

	emaildomain "mail-assistant/internal/email/domain"
)

// MemoryEmailRepository keeps records in process memory. Used for local
// runs and tests.
type MemoryEmailRepository struct {
	mu     sync.RWMutex
	emails map[string]emaildomain.MailRecord
}

func NewMemoryEmailRepository() *MemoryEmailRepository {
	return &MemoryEmailRepository{emails: make(map[string]emaildomain.MailRecord)}
}

func (r *MemoryEmailRepository) SaveEmail(_ context.Context, email *emaildomain.MailRecord) error {
	if email == nil || email.ID == "" {
		return fmt.Errorf("email id is required")
	}
	r.mu.Lock()
	r.emails[email.ID] = *email
	r.mu.Unlock()
	return nil
}

func (r *MemoryEmailRepository) GetEmailByID(_ context.Context, id string) (*emaildomain.MailRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email, ok := r.emails[id]
	if !ok {
		return nil, nil
	}
	return &email, nil
}

func (r *MemoryEmailRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.emails)
}

type MemorySyncRunRepository struct {
	mu   sync.RWMutex
	runs map[string]emaildomain.SyncReport
}

func NewMemorySyncRunRepository() *MemorySyncRunRepository {
	return &MemorySyncRunRepository{runs: make(map[string]emaildomain.SyncReport)}
}

func (r *MemorySyncRunRepository) SaveRun(_ context.Context, run *emaildomain.SyncReport) error {
	cp := *run
	cp.FailedIDs = append(emaildomain.StringArray(nil), run.FailedIDs...)
	r.mu.Lock()
	r.runs[run.RunID] = cp
	r.mu.Unlock()
	return nil
}

func (r *MemorySyncRunRepository) LatestRun(_ context.Context, userID string) (*emaildomain.SyncReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *emaildomain.SyncReport
	for _, run := range r.runs {
		if run.UserID != userID {
			continue
		}
		if latest == nil || run.StartedAt.After(latest.StartedAt) {
			run := run
			latest = &run
		}
	}
	return latest, nil
}
