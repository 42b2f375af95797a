package repository

import (
	"context"
	"fmt"

	authdomain "mail-assistant/internal/auth/domain"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const userTokensCollection = "user_tokens"

type firestoreTokenRepository struct {
	client *firestore.Client
}

func NewFirestoreTokenRepository(client *firestore.Client) TokenRepository {
	return &firestoreTokenRepository{client: client}
}

func (r *firestoreTokenRepository) Save(ctx context.Context, token *authdomain.UserToken) error {
	if _, err := r.client.Collection(userTokensCollection).Doc(token.UserID).Set(ctx, token); err != nil {
		return fmt.Errorf("failed to save token for %s: %w", token.UserID, err)
	}
	return nil
}

func (r *firestoreTokenRepository) FindByUserID(ctx context.Context, userID string) (*authdomain.UserToken, error) {
	snap, err := r.client.Collection(userTokensCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load token for %s: %w", userID, err)
	}
	var token authdomain.UserToken
	if err := snap.DataTo(&token); err != nil {
		return nil, err
	}
	if token.UserID == "" {
		token.UserID = userID
	}
	return &token, nil
}

func (r *firestoreTokenRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.client.Collection(userTokensCollection).Doc(userID).Delete(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("failed to delete token for %s: %w", userID, err)
	}
	return nil
}
