package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"notesbot/internal/bot"
	"notesbot/internal/config"
	"notesbot/internal/db"
	httpx "notesbot/internal/http"
	"notesbot/internal/note"
	"notesbot/internal/session"
	"notesbot/internal/telegram"
)

func run(ctx context.Context, _ *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := &note.Service{DB: gdb}
	b := bot.New(svc, session.NewStore(), cfg.Limits, cfg.NotesPerPage, logger)
	client := telegram.NewClient(cfg.BotToken)
	dispatcher := &telegram.Dispatcher{Client: client, Bot: b, Log: logger}

	me, err := client.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("verify bot token: %w", err)
	}
	logger.Info("bot authorized",
		slog.String("username", me.Username),
		slog.String("http_addr", cfg.HTTPAddr),
		slog.Bool("webhook", cfg.WebhookURL != ""))

	if err := client.DeleteWebhook(ctx); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	if cfg.WebhookURL != "" {
		if err := client.SetWebhook(ctx, cfg.WebhookURL+"/webhook", cfg.WebhookSecret); err != nil {
			return fmt.Errorf("set webhook: %w", err)
		}
		logger.Info("webhook set", slog.String("url", cfg.WebhookURL+"/webhook"))
	} else {
		poller := &telegram.Poller{Client: client, Dispatcher: dispatcher, Log: logger}
		go poller.Run(ctx)
		logger.Info("long polling started")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpx.NewRouter(cfg, dispatcher, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	cmd := &cli.Command{
		Name:   "notesbot",
		Usage:  "Telegram note-taking bot backed by Postgres",
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
