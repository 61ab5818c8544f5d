package admin

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"ezyassist/internal/audit"
	"ezyassist/internal/campaign"
	"ezyassist/internal/knowledge"
	"ezyassist/internal/registration/models"
	regservice "ezyassist/internal/registration/service"
	"ezyassist/internal/registration/store"
	"ezyassist/internal/regtoken"
	"ezyassist/internal/review"
	"ezyassist/internal/settings"
	"ezyassist/pkg/secrets"
)

type recordingNotifier struct {
	holds []string
}

func (n *recordingNotifier) Verified(context.Context, *models.Record) error { return nil }

func (n *recordingNotifier) Rejected(context.Context, *models.Record, string) error { return nil }

func (n *recordingNotifier) OnHold(_ context.Context, _ *models.Record, message, _ string, _ time.Duration) error {
	n.holds = append(n.holds, message)
	return nil
}

type HandlerSuite struct {
	suite.Suite
	ctx      context.Context
	store    *store.InMemoryStore
	notifier *recordingNotifier
	router   chi.Router
	cookie   *http.Cookie
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditStore := audit.NewInMemoryStore()
	s.store = store.NewInMemoryStore(auditStore)
	s.notifier = &recordingNotifier{}

	tokens := regtoken.NewService("admin-test-key", regtoken.DefaultPolicy(30*time.Minute, 7*24*time.Hour))
	links := regtoken.NewLinks("https://vip.example.com", tokens)
	regs := regservice.New(s.store, tokens, links)
	reviewer := review.New(s.store, links, s.notifier)
	st := settings.New(settings.NewInMemoryStore(), settings.Settings{EngagementThreshold: 3, Language: knowledge.Malay},
		settings.WithAudit(auditStore))
	campaigns := campaign.NewHandler(campaign.NewService(campaign.NewInMemoryStore()), logger)

	hash, err := secrets.HashPassword("pw")
	s.Require().NoError(err)
	auth := NewAuthenticator("ops", hash, NewMemorySessionStore())

	s.router = chi.NewRouter()
	NewHandler(auth, regs, reviewer, st, logger, WithRoutes(campaigns)).Register(s.router)

	rec := s.do(http.MethodPost, "/admin/login", `{"username":"ops","password":"pw"}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			s.cookie = c
		}
	}
	s.Require().NotNil(s.cookie)
	s.True(s.cookie.HttpOnly)
}

func (s *HandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) seed(id string, subjectID int64, status models.Status) {
	rec, err := models.NewRecord(id, subjectID, "trader", time.Now().Add(-time.Duration(subjectID)*time.Minute))
	s.Require().NoError(err)
	rec.StepCompleted = models.StepSubmitted
	rec.Status = status
	s.Require().NoError(s.store.RunInTx(s.ctx, subjectID, func(tx store.Tx) error {
		return tx.Create(s.ctx, rec)
	}))
}

func (s *HandlerSuite) TestRequiresLogin() {
	s.cookie = nil
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/admin/registrations", "").Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/admin/campaigns", "").Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, "/admin/login", `{"username":"ops","password":"nope"}`).Code)
}

func (s *HandlerSuite) TestListFiltersByStatus() {
	s.seed("rec-1", 1, models.StatusPending)
	s.seed("rec-2", 2, models.StatusVerified)
	s.seed("rec-3", 3, models.StatusPending)

	rec := s.do(http.MethodGet, "/admin/registrations?status=pending", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var body listResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Len(body.Registrations, 2)

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/admin/registrations?status=bogus", "").Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/admin/registrations?limit=0", "").Code)
}

func (s *HandlerSuite) TestHoldThenHistory() {
	s.seed("rec-1", 1, models.StatusPending)

	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/admin/registrations/rec-1/hold", `{"message":"  "}`).Code)

	rec := s.do(http.MethodPost, "/admin/registrations/rec-1/hold", `{"message":"Receipt is unreadable"}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var out review.Outcome
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
	s.Equal(models.StatusOnHold, out.Record.Status)
	s.True(out.Notified)
	s.Contains(out.ResubmissionURL, "/resubmit?token=")
	s.Equal([]string{"Receipt is unreadable"}, s.notifier.holds)

	rec = s.do(http.MethodGet, "/admin/registrations/rec-1/history", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var hist historyResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &hist))
	s.Require().Len(hist.Entries, 1)
	s.Equal(audit.ActionPutOnHold, hist.Entries[0].Action)
	s.Equal("ops", hist.Entries[0].Actor)
}

func (s *HandlerSuite) TestInvalidTransitionIsConflict() {
	s.seed("rec-1", 1, models.StatusVerified)
	s.Equal(http.StatusConflict, s.do(http.MethodPost, "/admin/registrations/rec-1/verify", "").Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodPost, "/admin/registrations/nope/verify", "").Code)
}

func (s *HandlerSuite) TestSettingsRoundTrip() {
	rec := s.do(http.MethodGet, "/admin/settings", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"engagement_threshold":3,"default_language":"ms"}`, rec.Body.String())

	rec = s.do(http.MethodPut, "/admin/settings", `{"engagement_threshold":5,"default_language":"EN"}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.JSONEq(`{"engagement_threshold":5,"default_language":"en"}`, rec.Body.String())

	s.Equal(http.StatusBadRequest, s.do(http.MethodPut, "/admin/settings", `{"engagement_threshold":0}`).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPut, "/admin/settings", `{}`).Code)
}

func (s *HandlerSuite) TestCampaignRoutesMounted() {
	rec := s.do(http.MethodPost, "/admin/campaigns", `{"name":"Promo"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	s.Equal(http.StatusOK, s.do(http.MethodPost, "/admin/campaigns/promo/toggle", "").Code)
}

func (s *HandlerSuite) TestLogout() {
	rec := s.do(http.MethodPost, "/admin/logout", "")
	s.Equal(http.StatusNoContent, rec.Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/admin/registrations", "").Code)
}
