package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	authdomain "mail-assistant/internal/auth/domain"
	authRepo "mail-assistant/internal/auth/repository"
	authUsecase "mail-assistant/internal/auth/usecase"
	emaildomain "mail-assistant/internal/email/domain"
	emailRepo "mail-assistant/internal/email/repository"
	emailUsecase "mail-assistant/internal/email/usecase"
	"mail-assistant/pkg/ai"
	"mail-assistant/pkg/chroma"
	"mail-assistant/pkg/config"
	"mail-assistant/pkg/crypto"
	"mail-assistant/pkg/database"
	"mail-assistant/pkg/embedding"
	"mail-assistant/pkg/firestore"
	"mail-assistant/pkg/gmail"
	"mail-assistant/pkg/imap"
	"mail-assistant/pkg/lock"
	"mail-assistant/pkg/pinecone"
	"mail-assistant/pkg/vectorindex"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const lockTTL = 15 * time.Minute

// App holds the wired usecases shared by every command.
type App struct {
	cfg *config.Config
	log *zap.Logger

	Auth   authUsecase.AuthUsecase
	Sync   emailUsecase.SyncUsecase
	Search emailUsecase.SearchUsecase

	closers []func() error
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", zap.Error(err))
		}
	}
}

type stores struct {
	emails emailRepo.EmailRepository
	runs   emailRepo.SyncRunRepository
	tokens authRepo.TokenRepository
}

// Build constructs every client once and injects it into the usecases.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{cfg: cfg, log: log}

	st, err := app.buildStores(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	var sealer *crypto.Sealer
	if cfg.TokenEncryptionKey != "" {
		sealer, err = crypto.NewSealer(cfg.TokenEncryptionKey)
		if err != nil {
			app.Close()
			return nil, err
		}
	}
	oauthCfg := authUsecase.NewOAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI)
	app.Auth = authUsecase.NewAuthUsecase(oauthCfg, st.tokens, sealer, log)

	embedCfg := embedding.Config{
		Backend:       embeddingBackend(cfg),
		Dimension:     cfg.VectorDimension,
		Model:         cfg.EmbeddingModel,
		GeminiAPIKey:  cfg.GeminiApiKey,
		OllamaBaseURL: cfg.OllamaBaseURL,
		CacheSize:     cfg.EmbeddingCacheSize,
		CacheTTL:      cfg.EmbeddingCacheTTL,
	}
	embedder, err := embedding.New(embedCfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	log.Info("embedder initialized", zap.String("backend", embedding.ResolveBackend(embedCfg)))

	index, err := app.buildIndex(embedder)
	if err != nil {
		app.Close()
		return nil, err
	}

	provider, err := ai.NewProvider(ctx, ai.Config{
		Provider:      ai.ProviderType(cfg.AIProvider),
		GeminiAPIKey:  cfg.GeminiApiKey,
		GeminiModel:   cfg.GeminiModel,
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,
	}, log)
	if err != nil {
		app.Close()
		return nil, err
	}
	log.Info("ai provider initialized", zap.String("provider", provider.Name()))
	assistant := ai.NewAssistant(provider, cfg.AITimeout)

	connector, err := app.buildConnector()
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Sync = emailUsecase.NewSyncUsecase(
		connector,
		st.emails,
		st.runs,
		embedder,
		index,
		app.buildLocker(),
		emailUsecase.NewPacer(cfg.SyncPacing, cfg.SyncRateLimit),
		emailUsecase.SyncConfig{
			IndexName:    cfg.VectorIndexName,
			BatchSize:    cfg.SyncBatchSize,
			DefaultMax:   cfg.SyncDefaultMax,
			EmbedTimeout: cfg.EmbedTimeout,
			IndexTimeout: cfg.IndexTimeout,
		},
		log,
	)

	app.Search = emailUsecase.NewSearchUsecase(
		assistant,
		embedder,
		index,
		st.emails,
		connector,
		emailUsecase.SearchConfig{
			IndexName:    cfg.VectorIndexName,
			TopK:         cfg.SearchTopK,
			EmbedTimeout: cfg.EmbedTimeout,
			IndexTimeout: cfg.IndexTimeout,
		},
		log,
	)
	return app, nil
}

func (a *App) buildStores(ctx context.Context) (*stores, error) {
	switch a.cfg.StoreBackend {
	case "firestore":
		client, err := firestore.NewClient(ctx, a.cfg.GoogleProjectID, a.cfg.GoogleCredentials, a.log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return &stores{
			emails: emailRepo.NewFirestoreEmailRepository(client),
			runs:   emailRepo.NewFirestoreSyncRunRepository(client),
			tokens: authRepo.NewFirestoreTokenRepository(client),
		}, nil

	case "postgres":
		db, err := database.NewPostgresConnection(a.cfg.DatabaseURL,
			&emaildomain.MailRecord{}, &emaildomain.SyncReport{}, &authdomain.UserToken{})
		if err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			a.closers = append(a.closers, sqlDB.Close)
		}
		return &stores{
			emails: emailRepo.NewEmailRepository(db),
			runs:   emailRepo.NewSyncRunRepository(db),
			tokens: authRepo.NewTokenRepository(db),
		}, nil

	case "memory":
		a.log.Warn("using in-memory store; data is lost on exit")
		return &stores{
			emails: emailRepo.NewMemoryEmailRepository(),
			runs:   emailRepo.NewMemorySyncRunRepository(),
			tokens: authRepo.NewMemoryTokenRepository(),
		}, nil

	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", a.cfg.StoreBackend)
	}
}

// embeddingBackend keeps the in-memory stack offline: with no explicit
// EMBEDDING_BACKEND the memory index pairs with the hash embedder.
func embeddingBackend(cfg *config.Config) string {
	backend := cfg.EmbeddingBackend
	if cfg.VectorBackend == "memory" && (backend == "" || backend == embedding.BackendAuto) {
		return embedding.BackendHash
	}
	return backend
}

func (a *App) buildIndex(embedder embedding.Embedder) (vectorindex.Index, error) {
	opts := []vectorindex.Option{
		vectorindex.WithDimension(a.cfg.VectorDimension),
		vectorindex.WithBatchSize(a.cfg.VectorUpsertBatch),
		vectorindex.WithReadyTimeout(a.cfg.VectorReadyTimeout),
		vectorindex.WithLogger(a.log),
	}

	var index vectorindex.Index
	switch a.cfg.VectorBackend {
	case "chroma":
		api, err := chroma.NewChromaClient(chroma.Config{
			BaseURL:  a.cfg.ChromaURL,
			APIKey:   a.cfg.ChromaAPIKey,
			Tenant:   a.cfg.ChromaTenant,
			Database: a.cfg.ChromaDatabase,

			EmbeddingFunction: embedding.ChromaFunction(embedder),
		}, a.log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, api.Close)
		index = vectorindex.NewChromaIndex(api, opts...)

	case "pinecone":
		api, err := pinecone.NewClient(pinecone.Config{
			APIKey:    a.cfg.PineconeAPIKey,
			Cloud:     a.cfg.PineconeCloud,
			Region:    a.cfg.PineconeRegion,
			Namespace: a.cfg.PineconeNamespace,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, api.Close)
		index = vectorindex.NewPineconeIndex(api, opts...)

	case "memory":
		index = vectorindex.NewMemoryIndex(a.cfg.VectorDimension)

	default:
		return nil, fmt.Errorf("unknown VECTOR_BACKEND %q", a.cfg.VectorBackend)
	}

	a.log.Info("vector index configured",
		zap.String("backend", a.cfg.VectorBackend),
		zap.String("index", a.cfg.VectorIndexName))
	return vectorindex.Instrumented(index, a.cfg.VectorBackend, a.log), nil
}

func (a *App) buildConnector() (emaildomain.MailConnector, error) {
	switch a.cfg.MailProvider {
	case "gmail":
		service := gmail.NewService(a.cfg.GoogleClientID, a.cfg.GoogleClientSecret)
		return gmail.NewConnector(service, a.Auth, a.log), nil
	case "imap":
		return imap.NewConnector(imap.Config{
			Addr:        a.cfg.IMAPAddr,
			Username:    a.cfg.IMAPUsername,
			Password:    a.cfg.IMAPPassword,
			DialTimeout: a.cfg.IMAPDialTimeout,
		}, a.log), nil
	default:
		return nil, fmt.Errorf("unknown MAIL_PROVIDER %q", a.cfg.MailProvider)
	}
}

func (a *App) buildLocker() lock.Locker {
	if a.cfg.RedisAddr == "" {
		return lock.NewLocalLocker()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
	})
	a.closers = append(a.closers, rdb.Close)
	a.log.Info("using redis sync lock", zap.String("addr", a.cfg.RedisAddr))
	return lock.NewRedisLocker(rdb, "mail-assistant:lock:", lockTTL)
}

func syncUsers(cfg *config.Config) []string {
	var users []string
	for _, u := range strings.Split(cfg.SyncUsers, ",") {
		if u = strings.TrimSpace(u); u != "" {
			users = append(users, u)
		}
	}
	if len(users) == 0 {
		users = []string{cfg.DefaultUserID}
	}
	return users
}
