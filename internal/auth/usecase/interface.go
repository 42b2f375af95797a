package usecase

import (
	"context"

	"golang.org/x/oauth2"
)

// AuthUsecase owns the per-user Gmail OAuth token lifecycle.
type AuthUsecase interface {
	// LoginURL returns the consent page URL; userID round-trips as state.
	LoginURL(userID string) string
	// CompleteLogin exchanges the authorization code and stores the token.
	CompleteLogin(ctx context.Context, userID, code string) error
	// Token returns a CredentialError when the user has not logged in.
	Token(ctx context.Context, userID string) (*oauth2.Token, error)
	SaveToken(ctx context.Context, userID string, token *oauth2.Token) error
	ResetToken(ctx context.Context, userID string) error
}
