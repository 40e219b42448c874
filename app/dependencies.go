package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/upb/logistics-assistant/config"
	"github.com/upb/logistics-assistant/internal/rag"
	"github.com/upb/logistics-assistant/middleware"
	"github.com/upb/logistics-assistant/repositories"
	"github.com/upb/logistics-assistant/repositories/sqlstore"
	"github.com/upb/logistics-assistant/services/chat"
	"github.com/upb/logistics-assistant/services/locations"
	"github.com/upb/logistics-assistant/services/providers"
	"github.com/upb/logistics-assistant/services/providers/ollama"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *sqlstore.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *sqlstore.RepositoryFactory

	// Repositories
	LocationMetrics repositories.LocationMetricRepository
	TxManager       repositories.TransactionManager

	// Language model backend
	Provider  providers.Provider
	Embedder  *providers.BatchEmbedder
	Generator *providers.ChatGenerator

	// Retrieval
	KnowledgeBase *rag.Manager
	Engine        *rag.Engine

	// Services
	Chat      *chat.Service
	Locations *locations.Service

	RateLimiter *middleware.RateLimiter
}

// NewDependencies creates and wires up all application dependencies. The
// knowledge base is not built here; call InitializeKnowledgeBase.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()

	deps.initProviders(cfg)

	if err := deps.initRetrieval(cfg); err != nil {
		_ = deps.RepoFactory.Close()
		return nil, fmt.Errorf("failed to initialize retrieval: %w", err)
	}

	deps.initServices(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase opens the relational store and makes sure the schema exists.
// An unreachable server is not fatal: the pool dials lazily, so the service
// comes up and reports the database as unhealthy until it answers.
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	db, err := sqlstore.Open(cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = sqlstore.NewRepositoryFactoryFromDB(db, d.Logger)
	d.DB = db

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := d.DB.PingContext(pingCtx); err != nil {
		d.Logger.Warn("database unreachable, continuing without it",
			zap.String("connection", cfg.Database.LogString()),
			zap.Error(err))
		return nil
	}

	if err := d.DB.InitSchema(ctx); err != nil {
		_ = d.RepoFactory.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))

	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.LocationMetrics = repos.LocationMetrics
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

// initProviders builds the Ollama clients. Embedding and chat calls get
// their own adapter so each can carry its own timeout.
func (d *Dependencies) initProviders(cfg *config.Config) {
	base := providers.DefaultProviderConfig()
	base.BaseURL = cfg.Ollama.BaseURL
	base.MaxRetries = cfg.Ollama.MaxRetries
	base.RetryDelay = cfg.Ollama.RetryDelay

	embedCfg := base
	embedCfg.Timeout = cfg.Ollama.EmbedTimeout
	chatCfg := base
	chatCfg.Timeout = cfg.Ollama.ChatTimeout

	chatProvider := ollama.NewOllamaAdapter(chatCfg)
	d.Provider = chatProvider

	d.Embedder = providers.NewBatchEmbedder(ollama.NewOllamaAdapter(embedCfg), providers.EmbedderConfig{
		Model:       cfg.Ollama.EmbeddingModel,
		BatchSize:   cfg.Ollama.EmbedBatchSize,
		Concurrency: cfg.Ollama.EmbedConcurrency,
	}, d.Logger)
	d.Generator = providers.NewChatGenerator(chatProvider, cfg.Ollama.ChatModel, d.Logger)

	d.Logger.Info("ollama provider configured",
		zap.String("base_url", cfg.Ollama.BaseURL),
		zap.String("embedding_model", cfg.Ollama.EmbeddingModel),
		zap.String("chat_model", d.Generator.Model()))
}

// initRetrieval wires the knowledge base manager and the query engine
func (d *Dependencies) initRetrieval(cfg *config.Config) error {
	template := rag.MustPromptTemplate(rag.DefaultPromptTemplate)
	separator := cfg.RAG.Separator

	pf, err := config.LoadPromptFile(cfg.RAG.PromptFile)
	if err != nil {
		return err
	}
	if pf != nil {
		if template, err = rag.NewPromptTemplate(pf.Template); err != nil {
			return fmt.Errorf("prompt file %s: %w", cfg.RAG.PromptFile, err)
		}
		if pf.Separator != "" {
			separator = pf.Separator
		}
		d.Logger.Info("prompt template loaded", zap.String("path", cfg.RAG.PromptFile))
	}

	d.KnowledgeBase = rag.NewManager(d.LocationMetrics, d.Embedder, rag.ManagerConfig{
		CorpusLimit: cfg.RAG.CorpusLimit,
	}, d.Logger)

	d.Engine, err = rag.NewEngine(d.KnowledgeBase, d.Embedder, d.Generator, rag.EngineConfig{
		TopK:      cfg.RAG.TopK,
		Separator: separator,
		Template:  template,
	})
	if err != nil {
		return err
	}

	d.Logger.Info("retrieval configured",
		zap.Int("top_k", d.Engine.TopK()),
		zap.Int("corpus_limit", cfg.RAG.CorpusLimit))
	return nil
}

// initServices wires the service layer and the /chat limiter
func (d *Dependencies) initServices(cfg *config.Config) {
	d.Chat = chat.NewService(d.Engine, d.KnowledgeBase, chat.Config{
		MaxConcurrency: cfg.RAG.MaxConcurrency,
	}, d.Logger)
	d.Locations = locations.NewService(d.LocationMetrics, d.Logger)
	d.RateLimiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, d.Logger)
}

// InitializeKnowledgeBase builds and publishes the knowledge base. progress,
// if not nil, is called as corpus batches are embedded. A failure leaves the
// service running with /chat answering 503.
func (d *Dependencies) InitializeKnowledgeBase(ctx context.Context, progress providers.BatchProgress) (*rag.KnowledgeBase, error) {
	if progress != nil {
		ctx = providers.WithBatchProgress(ctx, progress)
	}
	return d.KnowledgeBase.Initialize(ctx)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
