//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"coachchat/ai-bridge/internal/config"
	"coachchat/ai-bridge/internal/domain/bridge"
	"coachchat/ai-bridge/internal/domain/chat"
	"coachchat/ai-bridge/internal/domain/history"
	"coachchat/ai-bridge/internal/domain/llm"
	"coachchat/ai-bridge/internal/domain/memory"
	"coachchat/ai-bridge/internal/domain/session"
	"coachchat/ai-bridge/internal/domain/user"
	"coachchat/ai-bridge/internal/infrastructure/auth"
	"coachchat/ai-bridge/internal/infrastructure/chatclient"
	"coachchat/ai-bridge/internal/infrastructure/database"
	"coachchat/ai-bridge/internal/infrastructure/llmprovider"
	"coachchat/ai-bridge/internal/infrastructure/logger"
	auditrepo "coachchat/ai-bridge/internal/infrastructure/repository/audit"
	userrepo "coachchat/ai-bridge/internal/infrastructure/repository/user"
	"coachchat/ai-bridge/internal/interfaces/httpserver"
	"coachchat/ai-bridge/internal/worker"
)

var bridgeSet = wire.NewSet(
	userrepo.NewPostgresRepository,
	wire.Bind(new(user.Repository), new(*userrepo.PostgresRepository)),
	auditrepo.NewPostgresRepository,
	wire.Bind(new(session.ReplyRecorder), new(*auditrepo.PostgresRepository)),
	newChatClient,
	wire.Bind(new(chat.Messenger), new(*chatclient.Client)),
	wire.Bind(new(httpserver.ChatTokenMinter), new(*chatclient.Client)),
	newLLMProvider,
	wire.Bind(new(llm.Provider), new(*llmprovider.Client)),
	memory.NewStore,
	newExtractor,
	newHistoryLoader,
	worker.NewRunner,
	newBridgeService,
	wire.Bind(new(httpserver.BridgeService), new(*bridge.Service)),
	newTokenIssuer,
	wire.Bind(new(user.TokenSigner), new(*auth.TokenIssuer)),
	wire.Bind(new(httpserver.TokenVerifier), new(*auth.TokenIssuer)),
	auth.NewHasher,
	wire.Bind(new(user.PasswordHasher), new(*auth.Hasher)),
	user.NewService,
	httpserver.NewAIHandler,
	httpserver.NewAuthHandler,
)

// BuildApplication demonstrates how to assemble the bridge with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		newAuthValidator,
		bridgeSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func newAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

func newChatClient(cfg *config.Config, log zerolog.Logger) (*chatclient.Client, error) {
	return chatclient.NewClient(cfg.ChatAPIURL, cfg.ChatAPIKey, cfg.ChatAPISecret, log)
}

func newLLMProvider(cfg *config.Config) *llmprovider.Client {
	return llmprovider.NewClient(cfg.LLMAPIURL, cfg.LLMAPIKey)
}

func newExtractor(provider llm.Provider, store *memory.Store, cfg *config.Config, log zerolog.Logger) *memory.Extractor {
	return memory.NewExtractor(provider, store, cfg.Model, cfg.MemoryMaxTokens, log)
}

func newHistoryLoader(messenger chat.Messenger, cfg *config.Config, log zerolog.Logger) *history.Loader {
	return history.NewLoader(messenger, cfg.BotUserID, log)
}

func newTokenIssuer(cfg *config.Config) *auth.TokenIssuer {
	return auth.NewTokenIssuer(cfg.AuthSecret, cfg.ServiceName, cfg.TokenTTL)
}

func newBridgeService(
	messenger chat.Messenger,
	provider llm.Provider,
	store *memory.Store,
	extractor *memory.Extractor,
	loader *history.Loader,
	runner *worker.Runner,
	recorder session.ReplyRecorder,
	cfg *config.Config,
	log zerolog.Logger,
) *bridge.Service {
	sessionCfg := session.Config{
		BotID:          cfg.BotUserID,
		Model:          cfg.Model,
		MaxTokens:      cfg.ReplyMaxTokens,
		IndicatorPause: cfg.IndicatorPause,
		SettleDelay:    cfg.SettleDelay,
	}
	return bridge.NewService(messenger, provider, store, extractor, loader, runner, recorder, sessionCfg, cfg.HistoryLimit, log)
}
