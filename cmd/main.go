package main

import (
	"chat-dm/auth"
	"chat-dm/contract"
	"chat-dm/infrastructure/http/server"
	"chat-dm/internal"
	"chat-dm/media"
	"chat-dm/moderation"
	"chat-dm/observability"
	"chat-dm/repositories"
	"chat-dm/runtime"
	"chat-dm/runtime/workers"
	"chat-dm/services"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Exit codes to provide meaningful status to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chat-dm terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until a signal arrives.
// Returning instead of exiting lets the deferred cleanups (sequence release, Badger close) run.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, log, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	messageRepository, err := repositories.NewMessageRepository(db, log)
	if err != nil {
		return exitRuntime, err
	}
	defer func() { _ = messageRepository.Close() }()
	userRepository := repositories.NewUserRepository(db)

	// 3. Collaborators
	uploader, err := buildUploader(config, log)
	if err != nil {
		return exitConfig, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	registry := runtime.NewRegistry()
	issuer := auth.NewTokenIssuer(config.JWTSecret, config.AuthTokenDuration)

	// 4. Services
	deliveryService := services.NewDeliveryService(log, messageRepository, userRepository, registry, uploader, metrics)
	if config.ModerationEnabled {
		moderator, err := buildModerator(config, log)
		if err != nil {
			return exitConfig, err
		}
		deliveryService.WithModerator(moderator)
	}
	chatService := services.NewChatService(log, messageRepository, userRepository, registry, metrics)
	authService := services.NewAuthService(log, userRepository, issuer, uploader)

	// 5. Transport
	if !strings.EqualFold(config.LogLevel, "DEBUG") {
		gin.SetMode(gin.ReleaseMode)
	}
	serverConfig := server.Config{
		SecureCookies:        config.SecureCookies(),
		ClientURL:            config.ClientURL,
		ConnectionBufferSize: config.ConnectionBufferSize,
		WriteTimeout:         config.WriteTimeout,
		PongTimeout:          config.PongTimeout,
		// base64 inflates the image by 4/3, plus room for the other JSON fields.
		MaxBodyBytes: int64(config.MaxImageBytes)*4/3 + 64<<10,
	}
	if config.MediaBackend == internal.MediaBackendDisk {
		serverConfig.MediaDir = config.MediaDir
	}
	httpServer := server.NewServer(log, serverConfig,
		authService, chatService, deliveryService,
		issuer, userRepository.Exists, registry, reg)

	// 6. Supervision
	sup := workers.NewSupervisor(log)
	sup.Add(
		workers.NewHTTPServerWorker(log, config.HTTPAddr(), httpServer.Router(), config.ShutdownTimeout),
		workers.NewGRPCHealthWorker(log, config.GRPCAddr()),
	)

	log.Info("chat-dm starting",
		"http", config.HTTPAddr(), "grpc", config.GRPCAddr(),
		"media", config.MediaBackend, "moderation", config.ModerationEnabled)
	sup.Run(ctx)

	log.Info("Program stopped cleanly")
	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, log *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)
	if log.Enabled(ctx, slog.LevelDebug) {
		return options.WithLoggingLevel(badger.DEBUG)
	}
	return options.WithLoggingLevel(badger.WARNING)
}

func buildUploader(config internal.Config, log *slog.Logger) (contract.MediaUploader, error) {
	if config.MediaBackend == internal.MediaBackendCloudinary {
		return media.NewCloudinaryUploader(config.CloudinaryURL, config.CloudinaryFolder,
			config.UploadTimeout, config.MaxImageBytes)
	}
	return media.NewDiskUploader(log, config.MediaDir, config.MediaBaseURL, config.MaxImageBytes)
}

func buildModerator(config internal.Config, log *slog.Logger) (*moderation.Moderator, error) {
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return nil, err
	}
	data, err := runtime.DefaultCensoredWords()
	if err != nil {
		return nil, err
	}
	log.Info("Censored dictionaries loaded",
		"languages", strings.Join(data.Languages, ","), "words", len(data.Words))
	return moderation.NewModerator(data.Words, charReplacement, log)
}
