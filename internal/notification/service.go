package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	emaildomain "mail-assistant/internal/email/domain"
	"mail-assistant/internal/email/usecase"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GmailNotification is the payload Gmail publishes on mailbox changes.
// UserID is optional and overrides the default user.
type GmailNotification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
	UserID       string `json:"user_id,omitempty"`
}

type Config struct {
	ProjectID       string
	TopicName       string
	SubName         string
	CredentialsFile string
	DefaultUserID   string
	MaxEmails       int
}

// Service listens to Gmail push notifications and starts a sync for the
// affected user.
type Service struct {
	pubsubClient *pubsub.Client
	syncUsecase  usecase.SyncUsecase
	cfg          Config
	log          *zap.Logger

	mu sync.Mutex
	// last historyId handled per user
	lastHistoryID map[string]uint64
}

func NewService(ctx context.Context, cfg Config, syncUsecase usecase.SyncUsecase, log *zap.Logger) (*Service, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	s := newService(cfg, syncUsecase, log)
	s.pubsubClient = client
	return s, nil
}

func newService(cfg Config, syncUsecase usecase.SyncUsecase, log *zap.Logger) *Service {
	if cfg.SubName == "" {
		cfg.SubName = cfg.TopicName + "-sub" // Convention: topic-sub
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		syncUsecase:   syncUsecase,
		cfg:           cfg,
		log:           log,
		lastHistoryID: make(map[string]uint64),
	}
}

// Start blocks receiving messages until ctx is done.
func (s *Service) Start(ctx context.Context) error {
	s.log.Info("starting notification listener",
		zap.String("topic", s.cfg.TopicName),
		zap.String("subscription", s.cfg.SubName))

	sub := s.pubsubClient.Subscription(s.cfg.SubName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check subscription: %w", err)
	}

	if !exists {
		topic := s.pubsubClient.Topic(s.cfg.TopicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			return fmt.Errorf("failed to check topic: %w", err)
		}
		if !topicExists {
			return fmt.Errorf("topic %s does not exist", s.cfg.TopicName)
		}

		sub, err = s.pubsubClient.CreateSubscription(ctx, s.cfg.SubName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 10 * time.Second,
		})
		if err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}
		s.log.Info("created subscription", zap.String("subscription", s.cfg.SubName))
	}

	return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if _, err := s.HandleMessage(msg.Data); err != nil {
			s.log.Warn("dropping notification", zap.Error(err))
		}
		msg.Ack()
	})
}

// HandleMessage decodes one notification and starts a sync unless the
// historyId was already seen for that user. It returns the run started, if any.
func (s *Service) HandleMessage(data []byte) (*emaildomain.SyncReport, error) {
	var n GmailNotification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification: %w", err)
	}

	userID := n.UserID
	if userID == "" {
		userID = s.cfg.DefaultUserID
	}

	s.mu.Lock()
	last, seen := s.lastHistoryID[userID]
	if seen && n.HistoryID <= last {
		s.mu.Unlock()
		s.log.Debug("skipping duplicate notification",
			zap.String("user_id", userID),
			zap.Uint64("history_id", n.HistoryID),
			zap.Uint64("last_history_id", last))
		return nil, nil
	}
	s.lastHistoryID[userID] = n.HistoryID
	s.mu.Unlock()

	s.log.Info("mailbox changed, starting sync",
		zap.String("user_id", userID),
		zap.String("email", n.EmailAddress),
		zap.Uint64("history_id", n.HistoryID))

	report := s.syncUsecase.StartAsync(emaildomain.SyncRequest{
		UserID:    userID,
		MaxEmails: s.cfg.MaxEmails,
	})
	return report, nil
}

func (s *Service) Close() error {
	if s.pubsubClient == nil {
		return nil
	}
	return s.pubsubClient.Close()
}
