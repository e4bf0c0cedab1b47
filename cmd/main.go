package main

import (
	"context"
	"errors"
	"linkbrief/internal/bot"
	"linkbrief/internal/config"
	"linkbrief/internal/loader"
	"linkbrief/internal/metrics"
	"linkbrief/internal/pipeline"
	"linkbrief/internal/summarizer"
	"linkbrief/internal/web"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	start := time.Now()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WarnContext(ctx, "Failed to load .env file",
			"error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		if key, ok := config.MissingVar(err); ok {
			log.ErrorContext(ctx, key+" is required",
				"error", err,
				"envVar", key)

			return err
		}

		log.ErrorContext(ctx, "Failed to load config",
			"error", err)

		return err
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m, err := metrics.New(reg)
	if err != nil {
		log.ErrorContext(ctx, "Failed to register metrics",
			"error", err)

		return err
	}

	router := loader.NewRouter(
		loader.NewYouTubeLoader(
			loader.NewYouTubeClient(cfg.FetchTimeout),
			cfg.YouTubeLanguages,
			cfg.YouTubeVideoInfo,
			log,
		),
		loader.NewWebpageLoader(loader.NewWebpageClient(cfg.FetchTimeout), log),
		log,
	)

	chat, err := summarizer.NewChatSummarizer(summarizer.Options{
		APIKey:    cfg.GroqAPIKey,
		BaseURL:   cfg.LLMBaseURL,
		Model:     cfg.LLMModel,
		MaxTokens: cfg.LLMMaxTokens,
	}, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize summarizer",
			"error", err,
			"model", cfg.LLMModel)

		return err
	}
	log.InfoContext(ctx, "Summarizer is initialized",
		"model", cfg.LLMModel,
		"baseURL", cfg.LLMBaseURL)

	p := pipeline.New(router, chat, m, log)

	server, err := web.New(cfg.Addr, p, reg, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize web server",
			"error", err,
			"addr", cfg.Addr)

		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Run(gctx)
	})

	if cfg.TelegramEnabled() {
		botInst, err := bot.New(cfg.TelegramToken, p, cfg.AllowedUsers, log)
		if err != nil {
			log.ErrorContext(ctx, "Failed to initialize bot",
				"error", err,
				"allowedUsersCount", len(cfg.AllowedUsers))

			stop()
			_ = g.Wait()

			return err
		}
		log.InfoContext(ctx, "Bot is initialized",
			"allowedUsersCount", len(cfg.AllowedUsers))

		g.Go(func() error {
			botInst.Start(gctx)
			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		log.ErrorContext(ctx, "Frontend stopped with error",
			"error", err)
	}

	log.InfoContext(ctx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())

	return err
}
