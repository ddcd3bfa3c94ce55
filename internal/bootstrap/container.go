package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"medical-text2sql-be/internal/config"
	"medical-text2sql-be/internal/controller"
	"medical-text2sql-be/internal/pkg/logger"
	"medical-text2sql-be/internal/repository/contract"
	"medical-text2sql-be/internal/repository/implementation"
	"medical-text2sql-be/internal/repository/memory"
	"medical-text2sql-be/internal/service"
	"medical-text2sql-be/pkg/chart"
	"medical-text2sql-be/pkg/conversation"
	"medical-text2sql-be/pkg/database"
	"medical-text2sql-be/pkg/executor"
	"medical-text2sql-be/pkg/llm"
	"medical-text2sql-be/pkg/llm/factory"
	pktNats "medical-text2sql-be/pkg/nats"
	"medical-text2sql-be/pkg/schema"
	"medical-text2sql-be/pkg/sqlfix"
	"medical-text2sql-be/pkg/sqlgen"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	Logger logger.ILogger

	QueryController   controller.IQueryController
	SessionController controller.ISessionController
	SchemaController  controller.ISchemaController
	HistoryController controller.IHistoryController

	// Used directly by the console and by main.go around the server lifecycle.
	QueryService   service.IQueryService
	SessionService service.ISessionService

	// Background Services (Exposed for main.go to run)
	HistoryConsumerService service.IHistoryConsumerService

	closers []func() error
}

func NewContainer(cfg *config.Config) (*Container, error) {
	return NewContainerWithLogger(cfg, logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction()))
}

// NewContainerWithLogger lets the console keep logs out of the terminal.
func NewContainerWithLogger(cfg *config.Config, sysLogger logger.ILogger) (*Container, error) {
	c := &Container{}
	c.Logger = sysLogger
	c.closers = append(c.closers, sysLogger.Sync)

	// 1. Query database
	exec, err := c.openExecutor(cfg)
	if err != nil {
		return nil, err
	}

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, pubSub.Close)

	var eventPublisher service.EventPublisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			eventPublisher = natsPub
			c.closers = append(c.closers, func() error { natsPub.Close(); return nil })
		}
	}
	turnEvents := service.NewTurnEventPublisher(eventPublisher, sysLogger)

	// 3. Audit trail
	historyRepo, err := c.openHistoryRepository(cfg)
	if err != nil {
		return nil, err
	}

	// 4. LLM
	llmProvider, err := newLLMProvider(cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, llmProvider.ModelName())

	// 5. Conversation context
	store := conversation.NewStore(conversation.StoreConfig{
		HistoryCapacity: cfg.Conversation.HistoryCapacity,
		SessionTimeout:  cfg.Conversation.SessionTimeout,
	}, sysLogger)
	extractor := conversation.NewExtractor(conversation.NewVocabulary(schema.Vocabulary()), sysLogger)
	manager := conversation.NewManager(store, extractor, sysLogger)

	// 6. Services
	schemaService := service.NewSchemaService(cfg.Schema.FilePath, turnEvents, sysLogger)
	c.SessionService = service.NewSessionService(manager, c.snapshotBackend(cfg), turnEvents, sysLogger)
	c.QueryService = service.NewQueryService(
		manager,
		sqlgen.NewLLMGenerator(llmProvider, cfg.Ai.Temperature),
		sqlfix.NewTableNameCorrector(cfg.Schema.CanonicalTable),
		exec,
		chart.NewClassifier(sysLogger),
		schemaService,
		service.NewHistoryPublisherService(cfg.App.HistoryTopic, pubSub),
		turnEvents,
		sysLogger,
		cfg.Ai.Timeout,
	)
	c.HistoryConsumerService = service.NewHistoryConsumerService(pubSub, cfg.App.HistoryTopic, historyRepo, sysLogger)

	// 7. Controllers
	c.QueryController = controller.NewQueryController(c.QueryService)
	c.SessionController = controller.NewSessionController(c.SessionService)
	c.SchemaController = controller.NewSchemaController(schemaService)
	c.HistoryController = controller.NewHistoryController(service.NewHistoryService(historyRepo))

	return c, nil
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			log.Printf("[WARN] Close failed: %v", err)
		}
	}
}

func (c *Container) openExecutor(cfg *config.Config) (executor.Executor, error) {
	if cfg.Database.Connection == "" {
		log.Printf("[WARN] DB_CONNECTION_STRING is empty, generated SQL will not be executed")
		return nil, nil
	}

	kind, err := database.ParseKind(cfg.Database.Kind)
	if err != nil {
		return nil, err
	}

	if kind == database.KindSQLite {
		db, err := database.NewSQLiteDB(cfg.Database.Connection)
		if err != nil {
			return nil, fmt.Errorf("open query database: %w", err)
		}
		c.closers = append(c.closers, db.Close)
		return executor.NewSQLExecutor(db, kind), nil
	}

	gormDB, err := database.NewGormDBFromDSN(kind, cfg.Database.Connection)
	if err != nil {
		return nil, fmt.Errorf("open query database: %w", err)
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		c.closers = append(c.closers, sqlDB.Close)
	}
	return executor.NewGormExecutor(gormDB, kind)
}

func (c *Container) openHistoryRepository(cfg *config.Config) (contract.QueryHistoryRepository, error) {
	if cfg.Database.HistoryDSN == "" {
		log.Printf("[INFO] HISTORY_DB_CONNECTION_STRING is empty, query history is kept in memory")
		return memory.NewQueryHistoryRepository(24 * time.Hour), nil
	}

	gormDB, err := database.NewGormDBFromDSN(database.KindPostgres, cfg.Database.HistoryDSN)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		c.closers = append(c.closers, sqlDB.Close)
	}
	return implementation.NewQueryHistoryRepository(gormDB), nil
}

func (c *Container) snapshotBackend(cfg *config.Config) conversation.SnapshotBackend {
	switch cfg.Conversation.SnapshotBackend {
	case "file":
		return conversation.NewFileSnapshotBackend(cfg.Conversation.SnapshotPath)
	case "redis":
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		c.closers = append(c.closers, rdb.Close)
		return conversation.NewRedisSnapshotBackend(rdb, cfg.Conversation.SnapshotKey, cfg.Conversation.SnapshotTTL)
	default:
		log.Printf("[INFO] Conversation snapshots disabled")
		return nil
	}
}

func newLLMProvider(cfg *config.Config) (llm.LLMProvider, error) {
	baseURL := cfg.Ai.OpenAIBaseURL
	if cfg.Ai.LLMProvider == "ollama" {
		baseURL = cfg.Ai.OllamaBaseURL
	}

	provider, err := factory.NewLLMProvider(factory.Config{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  baseURL,
		APIKey:   cfg.Ai.OpenAIAPIKey,
		Timeout:  cfg.Ai.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}
	return provider, nil
}
