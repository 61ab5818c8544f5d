package telegram

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ezyassist/internal/platform/middleware"
)

const maxUpdateBody = 1 << 20

// WebhookPath receives updates when the bot runs in webhook mode.
const WebhookPath = "/telegram/webhook"

// WebhookHandler accepts Telegram updates by POST. When secret is set the
// request must carry it as the "secret" query parameter, which the operator
// includes in the registered webhook URL.
type WebhookHandler struct {
	bot    *Bot
	secret string
}

func NewWebhookHandler(bot *Bot, secret string) *WebhookHandler {
	return &WebhookHandler{bot: bot, secret: secret}
}

func (h *WebhookHandler) Register(r chi.Router) {
	r.Post(WebhookPath, h.ServeHTTP)
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.secret != "" && subtle.ConstantTimeCompare([]byte(r.URL.Query().Get("secret")), []byte(h.secret)) != 1 {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	var update tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBody)).Decode(&update); err != nil {
		h.bot.logger.WarnContext(ctx, "invalid telegram update",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	// Telegram retries non-2xx responses, so failures inside the handler
	// are logged and still acknowledged.
	h.bot.HandleUpdate(ctx, update)
	w.WriteHeader(http.StatusOK)
}
