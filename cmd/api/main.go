package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/mindbloom/backend/internal/config"
	"github.com/zhouzirui/mindbloom/backend/internal/handler"
	"github.com/zhouzirui/mindbloom/backend/internal/logging"
	"github.com/zhouzirui/mindbloom/backend/internal/metrics"
	"github.com/zhouzirui/mindbloom/backend/internal/service/ai"
	"github.com/zhouzirui/mindbloom/backend/internal/service/attachment"
	"github.com/zhouzirui/mindbloom/backend/internal/service/chat"
	"github.com/zhouzirui/mindbloom/backend/internal/service/identity"
	"github.com/zhouzirui/mindbloom/backend/internal/service/mood"
	"github.com/zhouzirui/mindbloom/backend/internal/service/therapist"
	"github.com/zhouzirui/mindbloom/backend/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mindbloom: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Info("no .env file loaded, using system environment only", zap.Error(envErr))
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	kv, closer, err := storage.Open(cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer closer.Close()
	logger.Info("storage ready", zap.String("driver", cfg.Storage.Driver), zap.String("path", cfg.Storage.Path))

	// AI 未配置时照常启动，所有回复走兜底文案
	var aiClient ai.Client
	if cfg.AI.Enabled() {
		aiClient, err = ai.New(ctx, cfg.AI, logger.Named("ai"), m)
		if err != nil {
			logger.Warn("ai client unavailable, continuing with fallback replies", zap.Error(err))
			aiClient = nil
		} else {
			logger.Info("ai client initialized", zap.String("provider", cfg.AI.Provider))
		}
	} else {
		logger.Warn("ai credentials not configured, skipping ai initialization", zap.String("provider", cfg.AI.Provider))
	}

	moodStore := mood.NewStore(kv,
		mood.WithLocation(cfg.Mood.Location),
		mood.WithDemoSeed(cfg.Mood.SeedDemo),
		mood.WithLogger(logger.Named("mood")),
		mood.WithMetrics(m),
	)
	if _, err := moodStore.Load(ctx); err != nil {
		logger.Warn("mood logs not loaded at startup", zap.Error(err))
	}

	sessions := chat.NewService(chat.WithLogger(logger.Named("chat")), chat.WithMetrics(m))
	var responder chat.Responder
	var searcher therapist.Searcher
	if aiClient != nil {
		responder = aiClient
		searcher = aiClient
	}
	dispatcher := chat.NewDispatcher(sessions, responder, cfg.Chat, cfg.AI.Timeout, logger.Named("dispatcher"))

	previews := attachment.NewPreviewRegistry()
	encoder := attachment.NewEncoder(cfg.Attachment.MaxBytes, previews,
		attachment.WithMetrics(m),
		attachment.WithMaxFramePixels(cfg.Attachment.MaxFramePixels),
	)

	var verifier identity.Verifier
	if cfg.Identity.Enabled() {
		verifier, err = identity.NewGoogleVerifier(ctx, cfg.Identity.GoogleClientID)
		if err != nil {
			return fmt.Errorf("init google sign-in: %w", err)
		}
	} else {
		logger.Info("GOOGLE_CLIENT_ID not set, sign-in disabled")
	}

	router := handler.NewRouter(handler.Services{
		Sessions:   sessions,
		Dispatcher: dispatcher,
		Mood:       moodStore,
		Encoder:    encoder,
		Stager:     attachment.NewStager(previews),
		Previews:   previews,
		Therapists: therapist.NewService(searcher, logger.Named("therapist")),
		Identity:   identity.NewService(verifier, storage.NewMemory(), logger.Named("identity")),
		Metrics:    m,
		Logger:     logger,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("MindBloom backend listening", zap.String("addr", cfg.Server.Addr))
	err = runServer(ctx, srv)

	// 等待后台标题生成结束再退出
	dispatcher.Wait()
	return err
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
