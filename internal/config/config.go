package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"notesbot/internal/note"
)

type Config struct {
	BotToken    string
	DatabaseURL string

	// WebhookURL empty means long-polling delivery.
	HTTPAddr      string
	WebhookURL    string
	WebhookSecret string

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	NotesPerPage int
	Limits       note.Limits

	LogLevel slog.Level
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		BotToken:             mustGetenv("BOT_TOKEN"),
		DatabaseURL:          mustGetenv("DATABASE_URL"),
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		WebhookURL:           getenv("WEBHOOK_URL", ""),
		WebhookSecret:        getenv("WEBHOOK_SECRET", ""),
		CORSAllowCredentials: getenv("CORS_ALLOW_CREDENTIALS", "false") == "true",
		NotesPerPage:         getenvInt("NOTES_PER_PAGE", 5),
		Limits: note.Limits{
			MaxTitleLen:   getenvInt("MAX_TITLE_LEN", 100),
			MaxContentLen: getenvInt("MAX_CONTENT_LEN", 4000),
			MaxTags:       getenvInt("MAX_TAGS", 10),
		},
		LogLevel: parseLevel(getenv("LOG_LEVEL", "info")),
	}

	origins := strings.Split(getenv("CORS_ALLOWED_ORIGINS", ""), ",")
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	return cfg, nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func mustGetenv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		panic("missing env: " + key)
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
