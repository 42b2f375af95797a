package usecase

import (
	"context"
	"io"
	"strings"
	"time"

	emaildomain "mail-assistant/internal/email/domain"
	"mail-assistant/internal/email/repository"
	"mail-assistant/pkg/embedding"
	"mail-assistant/pkg/metrics"
	"mail-assistant/pkg/vectorindex"

	"go.uber.org/zap"
)

const DefaultTopK = 5

type SearchConfig struct {
	IndexName    string
	TopK         int
	EmbedTimeout time.Duration
	IndexTimeout time.Duration
}

type searchUsecase struct {
	assistant Assistant
	embedder  embedding.Embedder
	index     vectorindex.Index
	store     repository.EmailRepository
	connector emaildomain.MailConnector
	cfg       SearchConfig
	log       *zap.Logger
}

// NewSearchUsecase builds the refine, search, select, summarize pipeline.
// connector may be nil, in which case records missing from the store are
// treated as not found.
func NewSearchUsecase(
	assistant Assistant,
	embedder embedding.Embedder,
	index vectorindex.Index,
	store repository.EmailRepository,
	connector emaildomain.MailConnector,
	cfg SearchConfig,
	log *zap.Logger,
) SearchUsecase {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.IndexName == "" {
		cfg.IndexName = "email-embeddings"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &searchUsecase{
		assistant: assistant,
		embedder:  embedder,
		index:     index,
		store:     store,
		connector: connector,
		cfg:       cfg,
		log:       log,
	}
}

func (u *searchUsecase) Search(ctx context.Context, userID, query string) (*emaildomain.QueryState, error) {
	if strings.TrimSpace(query) == "" {
		return nil, emaildomain.ErrEmptyQuery
	}
	state := &emaildomain.QueryState{OriginalQuery: query}
	log := u.log.With(zap.String("user_id", userID))

	if err := u.stage(emaildomain.StageRefine, func() error { return u.refine(ctx, state) }); err != nil {
		return nil, err
	}
	log.Info("query refined", zap.String("refined_query", state.RefinedQuery))

	if err := u.stage(emaildomain.StageSearch, func() error { return u.search(ctx, state) }); err != nil {
		return nil, err
	}
	log.Info("index searched", zap.Int("results", len(state.Results)))

	if err := u.stage(emaildomain.StageSelect, func() error { return u.selectRecord(ctx, userID, state, log) }); err != nil {
		return nil, err
	}

	if state.Selected == nil {
		state.Summary = emaildomain.NoRelevantEmail
		return state, nil
	}
	log.Info("email selected", zap.String("email_id", state.Selected.ID))

	if err := u.stage(emaildomain.StageSummarize, func() error { return u.summarize(ctx, state) }); err != nil {
		return nil, err
	}
	return state, nil
}

func (u *searchUsecase) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStage(name, time.Since(start))
	if err != nil {
		return &emaildomain.PipelineError{Stage: name, Err: err}
	}
	return nil
}

func (u *searchUsecase) refine(ctx context.Context, state *emaildomain.QueryState) error {
	refined, err := u.assistant.RefineQuery(ctx, state.OriginalQuery)
	if err != nil {
		return err
	}
	state.RefinedQuery = refined
	return nil
}

func (u *searchUsecase) search(ctx context.Context, state *emaildomain.QueryState) error {
	embedCtx, cancel := withTimeout(ctx, u.cfg.EmbedTimeout)
	vec, err := u.embedder.Embed(embedCtx, state.RefinedQuery)
	cancel()
	if err != nil {
		return err
	}

	queryCtx, cancel := withTimeout(ctx, u.cfg.IndexTimeout)
	defer cancel()
	res, err := u.index.Query(queryCtx, u.cfg.IndexName, [][]float32{vec}, u.cfg.TopK)
	if err != nil {
		return err
	}
	if len(res.IDs) == 0 {
		return nil
	}

	hits := make([]emaildomain.SearchHit, 0, len(res.IDs[0]))
	for i, id := range res.IDs[0] {
		hit := emaildomain.SearchHit{ID: id}
		if i < len(res.Scores[0]) {
			hit.Score = res.Scores[0][i]
		}
		if i < len(res.Metadatas[0]) {
			meta := res.Metadatas[0][i]
			hit.Subject, hit.From, hit.Date = meta.Subject, meta.From, meta.Date
		}
		hits = append(hits, hit)
	}
	state.Results = hits
	return nil
}

// selectRecord loads the rank-0 hit from the store and falls back to the
// mail provider when the stored copy is gone.
func (u *searchUsecase) selectRecord(ctx context.Context, userID string, state *emaildomain.QueryState, log *zap.Logger) error {
	if len(state.Results) == 0 {
		return nil
	}
	id := state.Results[0].ID

	record, err := u.store.GetEmailByID(ctx, id)
	if err != nil {
		return err
	}
	if record != nil {
		state.Selected = record
		return nil
	}

	if u.connector == nil {
		log.Warn("indexed email missing from store", zap.String("email_id", id))
		return nil
	}

	log.Info("refetching email from provider", zap.String("email_id", id))
	provider, err := u.connector.Connect(ctx, userID)
	if err != nil {
		return err
	}
	if closer, ok := provider.(io.Closer); ok {
		defer closer.Close()
	}
	record, err = provider.GetMessage(ctx, id)
	if err != nil {
		return err
	}
	if record == nil {
		return nil
	}
	record.Normalize()
	if err := u.store.SaveEmail(ctx, record); err != nil {
		log.Warn("failed to store refetched email", zap.String("email_id", id), zap.Error(err))
	}
	state.Selected = record
	return nil
}

func (u *searchUsecase) summarize(ctx context.Context, state *emaildomain.QueryState) error {
	rec := state.Selected
	summary, err := u.assistant.SummarizeEmail(ctx, rec.Subject, rec.From, rec.Body)
	if err != nil {
		return err
	}
	state.Summary = summary
	return nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
