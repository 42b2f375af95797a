package gmail

import (
	"context"
	"fmt"
	"sync"

	emaildomain "mail-assistant/internal/email/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// maxPageSize is the Gmail API limit for messages.list.
const maxPageSize = 500

// TokenUpdateFunc is called with the new token whenever the access token is
// refreshed.
type TokenUpdateFunc func(*oauth2.Token) error

type Service struct {
	clientID     string
	clientSecret string
}

type notifyTokenSource struct {
	mu       sync.Mutex
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
	onError  func(error)
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.callback != nil && (s.current == nil || s.current.AccessToken != t.AccessToken) {
		s.current = t
		if err := s.callback(t); err != nil && s.onError != nil {
			s.onError(err)
		}
	}
	return t, nil
}

func NewService(clientID, clientSecret string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// Session opens a Gmail API session for one user's token. Refreshed tokens
// are handed to onTokenRefresh.
func (s *Service) Session(ctx context.Context, token *oauth2.Token, onTokenRefresh TokenUpdateFunc, onError func(error)) (*Session, error) {
	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
	}

	// Wrap token source to detect refreshes
	wrappedSource := &notifyTokenSource{
		src:      config.TokenSource(ctx, token),
		current:  token,
		callback: onTokenRefresh,
		onError:  onError,
	}

	client := oauth2.NewClient(ctx, wrappedSource)

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return NewSession(srv), nil
}

// Session implements domain.MailProvider for the authenticated mailbox.
type Session struct {
	srv  *gmail.Service
	user string
}

var _ emaildomain.MailProvider = (*Session)(nil)

func NewSession(srv *gmail.Service) *Session {
	return &Session{srv: srv, user: "me"}
}

// ListMessageIDs pages through messages.list until max ids are collected or
// the mailbox has no more pages. The result never exceeds max.
func (s *Session) ListMessageIDs(ctx context.Context, query string, max int) ([]string, error) {
	if max <= 0 {
		return []string{}, nil
	}

	ids := make([]string, 0, max)
	pageToken := ""
	for len(ids) < max {
		pageSize := max - len(ids)
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}

		call := s.srv.Users.Messages.List(s.user).MaxResults(int64(pageSize)).Context(ctx)
		if query != "" {
			call = call.Q(query)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("unable to list messages: %w", err)
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	if len(ids) > max {
		ids = ids[:max]
	}
	return ids, nil
}

// GetMessage fetches one message in full format and normalizes it.
func (s *Session) GetMessage(ctx context.Context, id string) (*emaildomain.MailRecord, error) {
	msg, err := s.srv.Users.Messages.Get(s.user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to get message %s: %w", id, err)
	}
	return convertGmailMessage(msg), nil
}
