package repository

import (
	"context"

	authdomain "mail-assistant/internal/auth/domain"
)

// TokenRepository stores one OAuth token blob per user.
type TokenRepository interface {
	Save(ctx context.Context, token *authdomain.UserToken) error
	// FindByUserID returns nil, nil when the user has no token.
	FindByUserID(ctx context.Context, userID string) (*authdomain.UserToken, error)
	// Delete is a no-op for an absent token.
	Delete(ctx context.Context, userID string) error
}
