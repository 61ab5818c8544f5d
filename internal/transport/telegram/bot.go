// Package telegram connects the chatbot to the Telegram Bot API, by long
// polling or webhook, and delivers outbound notifications.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"ezyassist/internal/conversation"
	"ezyassist/internal/engagement"
	"ezyassist/internal/knowledge"
)

const (
	defaultWorkers       = 16
	defaultHandleTimeout = 30 * time.Second
	pollTimeoutSeconds   = 60
)

// API is the part of tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Responder turns chat input into reply text.
type Responder interface {
	Respond(ctx context.Context, req conversation.Request) conversation.Reply
	RegistrationReply(ctx context.Context, subjectID int64, handle string, lang knowledge.Language) string
	CampaignReply(ctx context.Context, campaignID string, subjectID int64, handle string) string
	Welcome(ctx context.Context, handle string) string
	Cleared(ctx context.Context) string
	AgentHandoff(ctx context.Context) string
	Language(ctx context.Context) knowledge.Language
}

type Bot struct {
	api           API
	sender        *Sender
	responder     Responder
	scores        engagement.Store
	adminChatID   int64
	workers       int
	handleTimeout time.Duration
	logger        *slog.Logger
}

type Option func(*Bot)

// WithAdminChat sets where /agent requests are forwarded.
func WithAdminChat(chatID int64) Option {
	return func(b *Bot) { b.adminChatID = chatID }
}

// WithWorkers bounds how many updates are handled concurrently while polling.
func WithWorkers(n int) Option {
	return func(b *Bot) {
		if n > 0 {
			b.workers = n
		}
	}
}

func WithHandleTimeout(d time.Duration) Option {
	return func(b *Bot) {
		if d > 0 {
			b.handleTimeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Dial authorizes the bot token against Telegram.
func Dial(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return api, nil
}

func New(api API, responder Responder, scores engagement.Store, opts ...Option) *Bot {
	b := &Bot{
		api:           api,
		sender:        NewSender(api),
		responder:     responder,
		scores:        scores,
		workers:       defaultWorkers,
		handleTimeout: defaultHandleTimeout,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run long-polls for updates until ctx is done, then waits for in-flight
// handlers.
func (b *Bot) Run(ctx context.Context) error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("clear telegram webhook: %w", err)
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeoutSeconds
	updates := b.api.GetUpdatesChan(u)
	b.logger.InfoContext(ctx, "telegram polling started")

	var g errgroup.Group
	g.SetLimit(b.workers)
	defer func() {
		_ = g.Wait()
	}()
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("telegram polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			g.Go(func() error {
				b.HandleUpdate(ctx, update)
				return nil
			})
		}
	}
}

// SetWebhook registers url with Telegram so updates arrive by POST.
func (b *Bot) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("build telegram webhook: %w", err)
	}
	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("set telegram webhook: %w", err)
	}
	return nil
}

// HandleUpdate answers one update. Non-message updates are ignored.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, b.handleTimeout)
	defer cancel()

	subjectID := msg.From.ID
	handle := displayHandle(msg.From)
	var reply string
	if msg.IsCommand() {
		reply = b.command(ctx, msg, subjectID, handle)
	} else {
		reply = b.chat(ctx, msg.Text, subjectID, handle)
	}

	if strings.TrimSpace(reply) == "" {
		reply = conversation.Fallback(b.responder.Language(ctx))
	}
	if err := b.Send(ctx, msg.Chat.ID, reply); err != nil {
		b.logger.WarnContext(ctx, "telegram reply failed", "subject_id", subjectID, "error", err)
	}
}

func (b *Bot) command(ctx context.Context, msg *tgbotapi.Message, subjectID int64, handle string) string {
	switch msg.Command() {
	case "start":
		b.reset(ctx, subjectID)
		if payload := strings.TrimSpace(msg.CommandArguments()); payload != "" {
			return b.responder.CampaignReply(ctx, payload, subjectID, handle)
		}
		return b.responder.Welcome(ctx, handle)
	case "register":
		return b.responder.RegistrationReply(ctx, subjectID, handle, b.responder.Language(ctx))
	case "clear":
		b.reset(ctx, subjectID)
		return b.responder.Cleared(ctx)
	case "agent":
		b.alertAgent(ctx, msg, subjectID)
		return b.responder.AgentHandoff(ctx)
	default:
		return b.chat(ctx, msg.Text, subjectID, handle)
	}
}

func (b *Bot) chat(ctx context.Context, text string, subjectID int64, handle string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	score, err := b.scores.Increment(ctx, subjectID)
	if err != nil {
		b.logger.WarnContext(ctx, "engagement increment failed", "subject_id", subjectID, "error", err)
	}
	reply := b.responder.Respond(ctx, conversation.Request{
		SubjectID:     subjectID,
		SubjectHandle: handle,
		Text:          text,
		Score:         score,
	})
	b.logger.DebugContext(ctx, "chat reply",
		"subject_id", subjectID,
		"intent", reply.Intent,
		"score", score,
		"promotion", reply.PromotionAttached,
	)
	return reply.Text
}

func (b *Bot) reset(ctx context.Context, subjectID int64) {
	if err := b.scores.Reset(ctx, subjectID); err != nil {
		b.logger.WarnContext(ctx, "engagement reset failed", "subject_id", subjectID, "error", err)
	}
}

func (b *Bot) alertAgent(ctx context.Context, msg *tgbotapi.Message, subjectID int64) {
	if b.adminChatID == 0 {
		return
	}
	who := strconv.FormatInt(subjectID, 10)
	if msg.From.UserName != "" {
		who = "@" + msg.From.UserName + " (" + who + ")"
	}
	text := "🙋 Live agent requested by " + who
	if args := strings.TrimSpace(msg.CommandArguments()); args != "" {
		text += "\n\n" + args
	}
	if err := b.Send(ctx, b.adminChatID, text); err != nil {
		b.logger.WarnContext(ctx, "agent alert failed", "subject_id", subjectID, "error", err)
	}
}

// Send delivers plain text to a chat.
func (b *Bot) Send(ctx context.Context, chatID int64, text string) error {
	return b.sender.Send(ctx, chatID, text)
}

// Sender delivers outbound text without running the update loop. It
// satisfies notify.Sender.
type Sender struct {
	api API
}

func NewSender(api API) *Sender {
	return &Sender{api: api}
}

func (s *Sender) Send(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// No parse mode: replies carry user handles and model output verbatim.
	m := tgbotapi.NewMessage(chatID, text)
	m.DisableWebPagePreview = true
	if _, err := s.api.Send(m); err != nil {
		return fmt.Errorf("telegram send to %d: %w", chatID, err)
	}
	return nil
}

func displayHandle(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	return u.FirstName
}
