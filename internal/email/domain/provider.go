package domain

import "context"

// MailProvider reads messages from one authenticated mailbox.
type MailProvider interface {
	// ListMessageIDs returns at most max ids matching query, newest first.
	ListMessageIDs(ctx context.Context, query string, max int) ([]string, error)
	// GetMessage fetches and normalizes one message.
	GetMessage(ctx context.Context, id string) (*MailRecord, error)
}

// MailConnector opens a MailProvider session for a user.
type MailConnector interface {
	Connect(ctx context.Context, userID string) (MailProvider, error)
}
