package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/suite"

	"ezyassist/internal/conversation"
	"ezyassist/internal/engagement"
	"ezyassist/internal/intent"
	"ezyassist/internal/knowledge"
	"ezyassist/internal/regtoken"
)

type sent struct {
	chatID    int64
	text      string
	parseMode string
}

type fakeAPI struct {
	mu      sync.Mutex
	sent    []sent
	sendErr error
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	m := c.(tgbotapi.MessageConfig)
	f.sent = append(f.sent, sent{chatID: m.ChatID, text: m.Text, parseMode: m.ParseMode})
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}

func (f *fakeAPI) StopReceivingUpdates() {}

func (f *fakeAPI) last() sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sent{}
	}
	return f.sent[len(f.sent)-1]
}

type staticLinks struct{}

func (staticLinks) Issue(_ context.Context, req regtoken.IssueRequest) (string, error) {
	return "https://vip.example.com/?token=" + string(req.Purpose), nil
}

type silentResponder struct {
	*conversation.Router
}

func (silentResponder) Respond(context.Context, conversation.Request) conversation.Reply {
	return conversation.Reply{Text: "  "}
}

func update(text string) tgbotapi.Update {
	m := &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: 42, UserName: "aina"},
		Chat:      &tgbotapi.Chat{ID: 42},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		n := strings.IndexByte(text, ' ')
		if n < 0 {
			n = len(text)
		}
		m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: n}}
	}
	return tgbotapi.Update{UpdateID: 1, Message: m}
}

type BotSuite struct {
	suite.Suite
	ctx    context.Context
	api    *fakeAPI
	scores *engagement.MemoryStore
	router *conversation.Router
	bot    *Bot
}

func TestBotSuite(t *testing.T) {
	suite.Run(t, new(BotSuite))
}

func (s *BotSuite) SetupTest() {
	s.ctx = context.Background()
	s.api = &fakeAPI{}
	s.scores = engagement.NewMemoryStore()
	s.router = conversation.New(intent.New(nil), nil, staticLinks{}, nil)
	s.bot = New(s.api, s.router, s.scores, WithAdminChat(-100))
}

func (s *BotSuite) score() int {
	n, err := s.scores.Get(s.ctx, 42)
	s.Require().NoError(err)
	return n
}

func (s *BotSuite) TestStartResetsScoreAndWelcomes() {
	_, _ = s.scores.Increment(s.ctx, 42)
	s.bot.HandleUpdate(s.ctx, update("/start"))

	s.Zero(s.score())
	s.Equal(int64(42), s.api.last().chatID)
	s.Contains(s.api.last().text, "Hai aina!")
}

func (s *BotSuite) TestFreeTextCountsTowardsPromotion() {
	s.bot.HandleUpdate(s.ctx, update("apa itu stop loss"))
	s.bot.HandleUpdate(s.ctx, update("apa itu stop loss"))
	s.Equal(2, s.score())
	s.NotContains(s.api.last().text, "token=")

	s.bot.HandleUpdate(s.ctx, update("apa itu stop loss"))
	s.Equal(3, s.score())
	s.Contains(s.api.last().text, "https://vip.example.com/?token=initial")
}

func (s *BotSuite) TestRegisterAndClear() {
	s.bot.HandleUpdate(s.ctx, update("/register"))
	s.Contains(s.api.last().text, "https://vip.example.com/?token=initial")
	s.Zero(s.score(), "commands do not count as engagement")

	s.bot.HandleUpdate(s.ctx, update("hello there"))
	s.bot.HandleUpdate(s.ctx, update("/clear"))
	s.Zero(s.score())
	s.Contains(s.api.last().text, "dikosongkan")
}

func (s *BotSuite) TestAgentAlertsAdminChat() {
	s.bot.HandleUpdate(s.ctx, update("/agent need help with my withdrawal"))

	s.Require().Len(s.api.sent, 2)
	s.Equal(int64(-100), s.api.sent[0].chatID)
	s.Contains(s.api.sent[0].text, "@aina (42)")
	s.Contains(s.api.sent[0].text, "withdrawal")
	s.Equal(int64(42), s.api.sent[1].chatID)
}

func (s *BotSuite) TestStartWithUnknownCampaign() {
	s.bot.HandleUpdate(s.ctx, update("/start raya-2025"))
	s.Contains(s.api.last().text, "kempen")
}

func (s *BotSuite) TestEmptyReplyFallsBack() {
	bot := New(s.api, silentResponder{s.router}, s.scores)
	bot.HandleUpdate(s.ctx, update("anything"))
	s.Equal(conversation.Fallback(knowledge.Malay), s.api.last().text)
}

func (s *BotSuite) TestSendFailureIsReturned() {
	s.api.sendErr = errors.New("Forbidden: bot was blocked by the user")
	err := s.bot.Send(s.ctx, 42, "hi")
	s.Require().Error(err)
	s.Contains(err.Error(), "blocked")
}

func (s *BotSuite) TestBrokerReplyIsPlainText() {
	s.bot.HandleUpdate(s.ctx, update("compare octafx vs hfm"))

	last := s.api.last()
	s.Empty(last.parseMode)
	s.Contains(last.text, "OctaFX")
	s.NotContains(last.text, "**")
}

func (s *BotSuite) TestNonMessageUpdatesIgnored() {
	s.bot.HandleUpdate(s.ctx, tgbotapi.Update{UpdateID: 9})
	s.Empty(s.api.sent)
}

func (s *BotSuite) TestWebhook() {
	h := NewWebhookHandler(s.bot, "s3cret")
	body := `{"update_id":7,"message":{"message_id":3,"from":{"id":42,"is_bot":false,"first_name":"Aina","username":"aina"},"chat":{"id":42,"type":"private"},"date":1700000000,"text":"hello"}}`

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, WebhookPath+"?secret=wrong", strings.NewReader(body)))
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Empty(s.api.sent)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, WebhookPath+"?secret=s3cret", strings.NewReader("{")))
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, WebhookPath+"?secret=s3cret", strings.NewReader(body)))
	s.Equal(http.StatusOK, rec.Code)
	s.Require().Len(s.api.sent, 1)
	s.Contains(s.api.sent[0].text, "aina")
	s.Equal(1, s.score())
}
