package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"docuquery/internal/ai"
	"docuquery/internal/app"
	"docuquery/internal/cache"
	"docuquery/internal/config"
	"docuquery/internal/extract"
	"docuquery/internal/index"
	"docuquery/internal/metrics"
	"docuquery/internal/model"
	mysqlClient "docuquery/internal/platform/mysql"
	rabbitmqClient "docuquery/internal/platform/rabbitmq"
	redisClient "docuquery/internal/platform/redis"
	"docuquery/internal/repository"
	"docuquery/internal/synth"
	"docuquery/internal/worker"
)

type App struct {
	Config   *config.Config
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Store    *index.Store
	LLM      *ai.OpenAICompatibleClient

	RAG     *app.RAGService
	Uploads *app.UploadService
	Runs    *app.RunService

	MySQL     *gorm.DB
	Redis     *redis.Client
	MQConn    *amqp.Connection
	RunWorker *worker.RunPersistWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	return Build(ctx, cfg)
}

// Build wires the pipeline from cfg. Run history backends are connected only
// when enabled, and any enabled backend that cannot be reached fails startup.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config:    cfg,
		Registry:  prometheus.NewRegistry(),
		Store:     index.NewStore(),
		StartedAt: time.Now(),
	}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(a.Registry)

	a.LLM = ai.NewOpenAICompatibleClient(ai.ChatConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	}, cfg.LLMTimeout())
	if !a.LLM.Available() {
		log.Printf("llm api key not configured, answers will use the mock fallback")
	}

	synthesizer := synth.NewSynthesizer(a.LLM, synth.Config{
		DefaultModel:   cfg.LLM.Model,
		MaxAttempts:    cfg.RAG.MaxAttempts,
		InitialBackoff: cfg.InitialBackoff(),
		AttemptTimeout: cfg.LLMTimeout(),
		MaxTokens:      cfg.LLM.MaxTokens,
	}).WithObserver(a.Metrics)

	extractor := extract.NewExtractor(time.Duration(cfg.RAG.FetchTimeoutSeconds) * time.Second)

	a.RAG = app.NewRAGService(a.Store, extractor, synthesizer, app.NewTimerScheduler(), app.RAGConfig{
		DocumentRoot:  cfg.RAG.DocumentRoot,
		UploadDir:     cfg.Upload.Dir,
		ChunkSize:     cfg.RAG.ChunkSize,
		ChunkOverlap:  cfg.RAG.ChunkOverlap,
		TopK:          cfg.RAG.TopK,
		EvictionDelay: cfg.EvictionDelay(),
		DefaultModel:  cfg.LLM.Model,
		Temperature:   cfg.RAG.Temperature,
	}).WithObserver(a.Metrics)
	a.Uploads = app.NewUploadService(cfg.Upload.Dir)

	if err := a.connectRunHistory(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) connectRunHistory(ctx context.Context) error {
	cfg := a.Config
	var (
		runCache  app.RunCache
		publisher app.RunPublisher
		store     app.RunStore
	)

	if cfg.MySQL.Enabled {
		db, err := mysqlClient.New(ctx, cfg.MySQLDSN(), &model.AskRun{})
		if err != nil {
			return err
		}
		a.MySQL = db
		repo := repository.NewAskRunRepository(db)
		store = repo
		publisher = app.NewDirectRunPublisher(repo)

		if cfg.RabbitMQ.Enabled {
			conn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.RunPersistQueue)
			if err != nil {
				return err
			}
			a.MQConn = conn
			a.RunWorker = worker.NewRunPersistWorker(conn, repo, cfg.RabbitMQ.RunPersistQueue)
			if err := a.RunWorker.Start(ctx); err != nil {
				return fmt.Errorf("start run worker failed: %w", err)
			}
			publisher = rabbitmqClient.NewRunPublisher(conn, cfg.RabbitMQ.RunPersistQueue)
		}
	} else if cfg.RabbitMQ.Enabled {
		log.Printf("rabbitmq enabled without mysql, run persistence skipped")
	}

	if cfg.Redis.Enabled {
		client, err := redisClient.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		a.Redis = client
		runCache = cache.NewRunCache(client, cfg.RunTTL())
	}

	a.Runs = app.NewRunService(runCache, publisher, store)
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.RAG != nil {
		a.RAG.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.RunWorker != nil {
		a.RunWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	mysqlClient.Close(a.MySQL)
	return closeErr
}
