package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	emaildomain "mail-assistant/internal/email/domain"
	"mail-assistant/internal/email/repository"
	"mail-assistant/pkg/embedding"
	"mail-assistant/pkg/lock"
	"mail-assistant/pkg/metrics"
	"mail-assistant/pkg/vectorindex"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultSyncBatchSize = 10
	DefaultSyncMax       = 10
)

type SyncConfig struct {
	IndexName    string
	BatchSize    int
	DefaultMax   int
	EmbedTimeout time.Duration
	IndexTimeout time.Duration
}

type syncUsecase struct {
	connector emaildomain.MailConnector
	store     repository.EmailRepository
	runs      repository.SyncRunRepository
	embedder  embedding.Embedder
	index     vectorindex.Index
	locker    lock.Locker
	pacer     Pacer
	cfg       SyncConfig
	log       *zap.Logger

	wg sync.WaitGroup
}

// NewSyncUsecase wires the sync orchestrator. A nil pacer disables pacing.
func NewSyncUsecase(
	connector emaildomain.MailConnector,
	store repository.EmailRepository,
	runs repository.SyncRunRepository,
	embedder embedding.Embedder,
	index vectorindex.Index,
	locker lock.Locker,
	pacer Pacer,
	cfg SyncConfig,
	log *zap.Logger,
) SyncUsecase {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultSyncBatchSize
	}
	if cfg.DefaultMax <= 0 {
		cfg.DefaultMax = DefaultSyncMax
	}
	if cfg.IndexName == "" {
		cfg.IndexName = "email-embeddings"
	}
	if pacer == nil {
		pacer = FixedPacer{}
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &syncUsecase{
		connector: connector,
		store:     store,
		runs:      runs,
		embedder:  embedder,
		index:     index,
		locker:    locker,
		pacer:     pacer,
		cfg:       cfg,
		log:       log,
	}
}

func (u *syncUsecase) normalize(req emaildomain.SyncRequest) emaildomain.SyncRequest {
	req.UserID = strings.TrimSpace(req.UserID)
	if req.MaxEmails <= 0 {
		req.MaxEmails = u.cfg.DefaultMax
	}
	return req
}

func newReport(userID string) *emaildomain.SyncReport {
	return &emaildomain.SyncReport{
		RunID:     uuid.New().String(),
		UserID:    userID,
		Status:    emaildomain.SyncStatusRunning,
		FailedIDs: emaildomain.StringArray{},
		StartedAt: time.Now(),
	}
}

func (u *syncUsecase) Sync(ctx context.Context, req emaildomain.SyncRequest) (*emaildomain.SyncReport, error) {
	req = u.normalize(req)
	if req.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	report := newReport(req.UserID)
	err := u.execute(ctx, req, report)
	return report, err
}

func (u *syncUsecase) StartAsync(req emaildomain.SyncRequest) *emaildomain.SyncReport {
	req = u.normalize(req)
	report := newReport(req.UserID)
	snapshot := *report

	u.saveRun(context.Background(), report)

	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		// detached from the request that triggered it
		if err := u.execute(context.Background(), req, report); err != nil {
			u.log.Error("background sync failed",
				zap.String("user_id", req.UserID),
				zap.String("run_id", report.RunID),
				zap.Error(err))
		}
	}()
	return &snapshot
}

func (u *syncUsecase) LastReport(ctx context.Context, userID string) (*emaildomain.SyncReport, error) {
	if u.runs == nil {
		return nil, nil
	}
	return u.runs.LatestRun(ctx, userID)
}

func (u *syncUsecase) Wait() {
	u.wg.Wait()
}

func (u *syncUsecase) execute(ctx context.Context, req emaildomain.SyncRequest, report *emaildomain.SyncReport) error {
	log := u.log.With(zap.String("user_id", req.UserID), zap.String("run_id", report.RunID))
	start := time.Now()

	unlock, err := u.locker.Lock(ctx, "sync:"+req.UserID)
	if err != nil {
		return u.finish(ctx, report, fmt.Errorf("failed to acquire sync lock: %w", err))
	}
	defer unlock()

	log.Info("sync started", zap.Int("max_emails", req.MaxEmails))
	err = u.run(ctx, req, report, log)
	metrics.SyncDuration.Observe(time.Since(start).Seconds())
	if err == nil {
		log.Info("sync finished",
			zap.Int("listed", report.Listed),
			zap.Int("synced", report.Synced),
			zap.Int("skipped", report.Skipped),
			zap.Int("failed", len(report.FailedIDs)),
			zap.Duration("took", time.Since(start)))
	}
	return u.finish(ctx, report, err)
}

func (u *syncUsecase) run(ctx context.Context, req emaildomain.SyncRequest, report *emaildomain.SyncReport, log *zap.Logger) error {
	provider, err := u.connector.Connect(ctx, req.UserID)
	if err != nil {
		return err
	}
	if closer, ok := provider.(io.Closer); ok {
		defer closer.Close()
	}

	if err := u.withIndexTimeout(ctx, func(ctx context.Context) error {
		return u.index.EnsureIndex(ctx, u.cfg.IndexName)
	}); err != nil {
		return fmt.Errorf("failed to prepare vector index: %w", err)
	}

	ids, err := provider.ListMessageIDs(ctx, req.Query, req.MaxEmails)
	if err != nil {
		return fmt.Errorf("failed to list messages: %w", err)
	}
	report.Listed = len(ids)

	batch := make([]vectorindex.Entry, 0, u.cfg.BatchSize)
	for _, id := range ids {
		if err := u.pacer.Wait(ctx); err != nil {
			return err
		}

		record, err := provider.GetMessage(ctx, id)
		if err != nil || record == nil {
			log.Warn("skipping message, fetch failed", zap.String("email_id", id), zap.Error(err))
			u.skip(report, "fetch_failed")
			continue
		}
		record.Normalize()

		if err := u.store.SaveEmail(ctx, record); err != nil {
			log.Warn("skipping message, store failed", zap.String("email_id", id), zap.Error(err))
			u.skip(report, "store_failed")
			continue
		}

		vec, err := u.embed(ctx, record.EmbeddingText())
		if err != nil {
			log.Warn("skipping message, embed failed", zap.String("email_id", id), zap.Error(err))
			u.skip(report, "embed_failed")
			continue
		}

		batch = append(batch, vectorindex.Entry{
			ID:     record.ID,
			Vector: vec,
			Metadata: vectorindex.Metadata{
				Subject: record.Subject,
				From:    record.From,
				Date:    record.Date,
				EmailID: record.ID,
			},
			Text: emaildomain.Truncate(record.Body, emaildomain.BodyPreviewLimit),
		})
		if len(batch) >= u.cfg.BatchSize {
			u.flush(ctx, batch, report, log)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		u.flush(ctx, batch, report, log)
	}
	return nil
}

// flush upserts one batch. Records stay stored when indexing fails; the
// failed ids are reported and picked up by the next run.
func (u *syncUsecase) flush(ctx context.Context, batch []vectorindex.Entry, report *emaildomain.SyncReport, log *zap.Logger) {
	err := u.withIndexTimeout(ctx, func(ctx context.Context) error {
		return u.index.UpsertBatch(ctx, u.cfg.IndexName, batch)
	})
	if err == nil {
		report.Synced += len(batch)
		for range batch {
			metrics.RecordSyncItem("synced")
		}
		return
	}

	failed := make([]string, 0, len(batch))
	var upsertErr *vectorindex.UpsertError
	if errors.As(err, &upsertErr) {
		failed = append(failed, upsertErr.FailedIDs...)
	} else {
		for _, e := range batch {
			failed = append(failed, e.ID)
		}
	}
	log.Warn("vector upsert failed", zap.Strings("failed_ids", failed), zap.Error(err))

	report.Synced += len(batch) - len(failed)
	report.FailedIDs = append(report.FailedIDs, failed...)
	for i := 0; i < len(batch)-len(failed); i++ {
		metrics.RecordSyncItem("synced")
	}
	for range failed {
		metrics.RecordSyncItem("index_failed")
	}
}

func (u *syncUsecase) skip(report *emaildomain.SyncReport, reason string) {
	report.Skipped++
	metrics.RecordSyncItem(reason)
}

func (u *syncUsecase) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := withTimeout(ctx, u.cfg.EmbedTimeout)
	defer cancel()
	return u.embedder.Embed(ctx, text)
}

func (u *syncUsecase) withIndexTimeout(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := withTimeout(ctx, u.cfg.IndexTimeout)
	defer cancel()
	return fn(ctx)
}

func (u *syncUsecase) finish(ctx context.Context, report *emaildomain.SyncReport, err error) error {
	now := time.Now()
	report.FinishedAt = &now
	report.Status = emaildomain.SyncStatusCompleted
	if err != nil {
		report.Status = emaildomain.SyncStatusFailed
		report.Error = err.Error()
	}
	u.saveRun(context.WithoutCancel(ctx), report)
	return err
}

func (u *syncUsecase) saveRun(ctx context.Context, report *emaildomain.SyncReport) {
	if u.runs == nil {
		return
	}
	if err := u.runs.SaveRun(ctx, report); err != nil {
		u.log.Warn("failed to save sync run", zap.String("run_id", report.RunID), zap.Error(err))
	}
}
