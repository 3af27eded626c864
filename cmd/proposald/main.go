package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hks-corretora/proposal-intake/internal/cascade"
	"github.com/hks-corretora/proposal-intake/internal/common"
	"github.com/hks-corretora/proposal-intake/internal/provider/gemini"
	"github.com/hks-corretora/proposal-intake/internal/provider/openai"
	"github.com/hks-corretora/proposal-intake/internal/provider/relay"
	"github.com/hks-corretora/proposal-intake/internal/server"
	"github.com/hks-corretora/proposal-intake/internal/store"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(slogger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	dialCtx, cancel := context.WithTimeout(context.Background(), cfg.Database.DialTimeout)
	st, err := store.Open(dialCtx, cfg.Database.DSN, slogger)
	cancel()
	if err != nil {
		logger.Fatal("store open failed", zap.Error(err))
	}
	defer func() { _ = st.Close() }()

	orch := cascade.New(
		gemini.NewClient(gemini.Config{
			Endpoint:    cfg.Primary.Endpoint,
			Model:       cfg.Primary.Model,
			APIKey:      cfg.Primary.APIKey,
			Temperature: cfg.Primary.Temperature,
			Timeout:     cfg.Primary.Timeout,
		}, slogger),
		relay.NewClient(relay.Config{
			Endpoints: cfg.Extractor.Endpoints,
			Timeout:   cfg.Extractor.Timeout,
		}, slogger),
		openai.NewClient(openai.Config{
			APIKey:      cfg.Local.APIKey,
			BaseURL:     cfg.Local.BaseURL,
			Model:       cfg.Local.Model,
			Temperature: cfg.Local.Temperature,
			Timeout:     cfg.Local.Timeout,
		}, slogger),
		slogger,
		cascade.WithMaxRetries(cfg.Primary.MaxRetries),
	)

	svc := server.NewService(cfg, logger, orch, st)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           svc.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", zap.Error(err))
	}
}
