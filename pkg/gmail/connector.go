package gmail

import (
	"context"
	"time"

	emaildomain "mail-assistant/internal/email/domain"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// TokenStore loads and persists a user's OAuth token.
type TokenStore interface {
	Token(ctx context.Context, userID string) (*oauth2.Token, error)
	SaveToken(ctx context.Context, userID string, token *oauth2.Token) error
}

// Connector opens Gmail sessions from stored tokens and writes refreshed
// tokens back to the store.
type Connector struct {
	service *Service
	tokens  TokenStore
	log     *zap.Logger
}

var _ emaildomain.MailConnector = (*Connector)(nil)

func NewConnector(service *Service, tokens TokenStore, log *zap.Logger) *Connector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Connector{service: service, tokens: tokens, log: log}
}

func (c *Connector) Connect(ctx context.Context, userID string) (emaildomain.MailProvider, error) {
	token, err := c.tokens.Token(ctx, userID)
	if err != nil {
		return nil, err
	}

	onRefresh := func(t *oauth2.Token) error {
		saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		c.log.Info("persisting refreshed gmail token", zap.String("user_id", userID))
		return c.tokens.SaveToken(saveCtx, userID, t)
	}
	onError := func(err error) {
		c.log.Warn("failed to persist refreshed token", zap.String("user_id", userID), zap.Error(err))
	}
	return c.service.Session(ctx, token, onRefresh, onError)
}
