package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"coachchat/ai-bridge/internal/config"
	"coachchat/ai-bridge/internal/domain/bridge"
	"coachchat/ai-bridge/internal/domain/history"
	"coachchat/ai-bridge/internal/domain/memory"
	"coachchat/ai-bridge/internal/domain/session"
	"coachchat/ai-bridge/internal/domain/user"
	"coachchat/ai-bridge/internal/infrastructure/auth"
	"coachchat/ai-bridge/internal/infrastructure/chatclient"
	"coachchat/ai-bridge/internal/infrastructure/database"
	"coachchat/ai-bridge/internal/infrastructure/llmprovider"
	"coachchat/ai-bridge/internal/infrastructure/logger"
	"coachchat/ai-bridge/internal/infrastructure/observability"
	auditrepo "coachchat/ai-bridge/internal/infrastructure/repository/audit"
	userrepo "coachchat/ai-bridge/internal/infrastructure/repository/user"
	"coachchat/ai-bridge/internal/interfaces/httpserver"
	"coachchat/ai-bridge/internal/worker"
)

type Application struct {
	httpServer *httpserver.HTTPServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HTTPServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}

	userRepository := userrepo.NewPostgresRepository(db)
	auditRepository := auditrepo.NewPostgresRepository(db)

	chatClient, err := chatclient.NewClient(cfg.ChatAPIURL, cfg.ChatAPIKey, cfg.ChatAPISecret, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize chat client")
	}
	llmClient := llmprovider.NewClient(cfg.LLMAPIURL, cfg.LLMAPIKey)

	memoryStore := memory.NewStore(userRepository, log)
	if err := memoryStore.LoadAll(ctx); err != nil {
		log.Warn().Err(err).Msg("memory hydration failed, starting empty")
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		memoryStore.FlushAll(flushCtx)
	}()

	extractor := memory.NewExtractor(llmClient, memoryStore, cfg.Model, cfg.MemoryMaxTokens, log)
	historyLoader := history.NewLoader(chatClient, cfg.BotUserID, log)

	runner := worker.NewRunner(log)
	defer func() {
		log.Info().Msg("draining background tasks")
		runner.Shutdown(cfg.TaskGracePeriod)
	}()

	sessionCfg := session.Config{
		BotID:          cfg.BotUserID,
		Model:          cfg.Model,
		MaxTokens:      cfg.ReplyMaxTokens,
		IndicatorPause: cfg.IndicatorPause,
		SettleDelay:    cfg.SettleDelay,
	}
	bridgeService := bridge.NewService(
		chatClient,
		llmClient,
		memoryStore,
		extractor,
		historyLoader,
		runner,
		auditRepository,
		sessionCfg,
		cfg.HistoryLimit,
		log,
	)

	tokenIssuer := auth.NewTokenIssuer(cfg.AuthSecret, cfg.ServiceName, cfg.TokenTTL)
	userService := user.NewService(userRepository, auth.NewHasher(), tokenIssuer)

	aiHandler := httpserver.NewAIHandler(bridgeService, log)
	authHandler := httpserver.NewAuthHandler(userService, tokenIssuer, chatClient, log)

	httpServer := httpserver.New(cfg, log, aiHandler, authHandler, authValidator)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
