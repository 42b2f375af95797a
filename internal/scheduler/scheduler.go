package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"

	emaildomain "mail-assistant/internal/email/domain"
	"mail-assistant/internal/email/usecase"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SyncScheduler runs periodic syncs for a fixed set of users on a cron spec.
type SyncScheduler struct {
	cron        *cron.Cron
	syncUsecase usecase.SyncUsecase
	users       []string
	maxEmails   int
	log         *zap.Logger

	running atomic.Bool
	ctx     context.Context
}

func NewSyncScheduler(syncUsecase usecase.SyncUsecase, users []string, maxEmails int, log *zap.Logger) *SyncScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &SyncScheduler{
		cron:        cron.New(cron.WithParser(parser)),
		syncUsecase: syncUsecase,
		users:       users,
		maxEmails:   maxEmails,
		log:         log,
	}
}

// Schedule registers the periodic sync. spec is a five-field cron
// expression or a descriptor such as "@every 15m".
func (s *SyncScheduler) Schedule(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", spec, err)
	}
	s.log.Info("sync scheduled", zap.String("spec", spec), zap.Strings("users", s.users))
	return nil
}

func (s *SyncScheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
}

// Stop waits for a running tick to return.
func (s *SyncScheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *SyncScheduler) tick() {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	s.RunOnce(ctx)
}

// RunOnce syncs every configured user in turn. A tick that fires while the
// previous one is still running is skipped. It reports whether it ran.
func (s *SyncScheduler) RunOnce(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Info("scheduled sync skipped: still running")
		return false
	}
	defer s.running.Store(false)

	for _, userID := range s.users {
		report, err := s.syncUsecase.Sync(ctx, emaildomain.SyncRequest{UserID: userID, MaxEmails: s.maxEmails})
		if err != nil {
			s.log.Warn("scheduled sync failed", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		s.log.Info("scheduled sync done", zap.String("user_id", userID), zap.Int("synced", report.Synced))
	}
	return true
}
