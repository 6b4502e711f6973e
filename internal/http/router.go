package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"notesbot/internal/config"
	mw "notesbot/internal/http/middleware"
	"notesbot/internal/telegram"
)

// secretTokenHeader is how Telegram authenticates webhook deliveries: the
// value passed to setWebhook is echoed on every request.
const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

func NewRouter(cfg config.Config, d *telegram.Dispatcher, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/webhook", func(w http.ResponseWriter, r *http.Request) {
		if cfg.WebhookSecret != "" && r.Header.Get(secretTokenHeader) != cfg.WebhookSecret {
			log.Warn("webhook request with bad secret token", "remote", r.RemoteAddr)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var upd telegram.Update
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			log.Warn("webhook request with undecodable body", "err", err)
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		d.HandleUpdate(r.Context(), upd)
		w.WriteHeader(http.StatusOK)
	})

	return r
}
