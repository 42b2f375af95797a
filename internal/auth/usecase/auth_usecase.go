package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	authdomain "mail-assistant/internal/auth/domain"
	"mail-assistant/internal/auth/repository"
	emaildomain "mail-assistant/internal/email/domain"
	"mail-assistant/pkg/crypto"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
)

// NewOAuthConfig builds the Gmail read-only OAuth client configuration.
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{gmail.GmailReadonlyScope},
		Endpoint:     google.Endpoint,
	}
}

type authUsecase struct {
	oauth  *oauth2.Config
	tokens repository.TokenRepository
	sealer *crypto.Sealer
	log    *zap.Logger
}

// NewAuthUsecase creates the token lifecycle usecase. A nil sealer stores
// token JSON as plain text.
func NewAuthUsecase(oauth *oauth2.Config, tokens repository.TokenRepository, sealer *crypto.Sealer, log *zap.Logger) AuthUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &authUsecase{oauth: oauth, tokens: tokens, sealer: sealer, log: log}
}

func (u *authUsecase) LoginURL(userID string) string {
	return u.oauth.AuthCodeURL(userID, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (u *authUsecase) CompleteLogin(ctx context.Context, userID, code string) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("authorization code is required")
	}
	token, err := u.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if err := u.SaveToken(ctx, userID, token); err != nil {
		return err
	}
	u.log.Info("gmail login completed", zap.String("user_id", userID))
	return nil
}

func (u *authUsecase) Token(ctx context.Context, userID string) (*oauth2.Token, error) {
	stored, err := u.tokens.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}
	if stored == nil || stored.Token == "" {
		return nil, &emaildomain.CredentialError{UserID: userID, Resource: "gmail oauth token"}
	}

	raw := []byte(stored.Token)
	if u.sealer != nil {
		raw, err = u.sealer.Open(stored.Token)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt token for %s: %w", userID, err)
		}
	}

	var token oauth2.Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token for %s: %w", userID, err)
	}
	return &token, nil
}

func (u *authUsecase) SaveToken(ctx context.Context, userID string, token *oauth2.Token) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	payload := string(raw)
	if u.sealer != nil {
		payload, err = u.sealer.Seal(raw)
		if err != nil {
			return fmt.Errorf("failed to encrypt token: %w", err)
		}
	}

	return u.tokens.Save(ctx, &authdomain.UserToken{
		UserID:    userID,
		Token:     payload,
		UpdatedAt: time.Now(),
	})
}

func (u *authUsecase) ResetToken(ctx context.Context, userID string) error {
	if err := u.tokens.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to reset token: %w", err)
	}
	u.log.Info("gmail token reset", zap.String("user_id", userID))
	return nil
}
