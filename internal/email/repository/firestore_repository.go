package repository

import (
	"context"
	"fmt"

	emaildomain "mail-assistant/internal/email/domain"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	emailsCollection   = "emails"
	syncRunsCollection = "sync_runs"
)

type firestoreEmailRepository struct {
	client *firestore.Client
}

// NewFirestoreEmailRepository stores one document per email id in the
// "emails" collection.
func NewFirestoreEmailRepository(client *firestore.Client) EmailRepository {
	return &firestoreEmailRepository{client: client}
}

func (r *firestoreEmailRepository) SaveEmail(ctx context.Context, email *emaildomain.MailRecord) error {
	if email == nil || email.ID == "" {
		return fmt.Errorf("email id is required")
	}
	if _, err := r.client.Collection(emailsCollection).Doc(email.ID).Set(ctx, email); err != nil {
		return fmt.Errorf("failed to save email %s: %w", email.ID, err)
	}
	return nil
}

func (r *firestoreEmailRepository) GetEmailByID(ctx context.Context, id string) (*emaildomain.MailRecord, error) {
	snap, err := r.client.Collection(emailsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get email %s: %w", id, err)
	}
	var email emaildomain.MailRecord
	if err := snap.DataTo(&email); err != nil {
		return nil, fmt.Errorf("failed to decode email %s: %w", id, err)
	}
	return &email, nil
}

type firestoreSyncRunRepository struct {
	client *firestore.Client
}

func NewFirestoreSyncRunRepository(client *firestore.Client) SyncRunRepository {
	return &firestoreSyncRunRepository{client: client}
}

func (r *firestoreSyncRunRepository) SaveRun(ctx context.Context, run *emaildomain.SyncReport) error {
	if _, err := r.client.Collection(syncRunsCollection).Doc(run.RunID).Set(ctx, run); err != nil {
		return fmt.Errorf("failed to save sync run %s: %w", run.RunID, err)
	}
	return nil
}

func (r *firestoreSyncRunRepository) LatestRun(ctx context.Context, userID string) (*emaildomain.SyncReport, error) {
	iter := r.client.Collection(syncRunsCollection).
		Where("user_id", "==", userID).
		OrderBy("started_at", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	var run emaildomain.SyncReport
	if err := snap.DataTo(&run); err != nil {
		return nil, err
	}
	return &run, nil
}
