package review

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"ezyassist/internal/audit"
	"ezyassist/internal/registration/models"
	"ezyassist/internal/registration/store"
	"ezyassist/internal/regtoken"
	"ezyassist/internal/review/mocks"
	dErrors "ezyassist/pkg/domain-errors"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Notifier

type ReviewSuite struct {
	suite.Suite
	ctx      context.Context
	ctrl     *gomock.Controller
	notifier *mocks.MockNotifier
	store    *store.InMemoryStore
	tokens   *regtoken.Service
	now      time.Time
	service  *Service
}

func TestReviewSuite(t *testing.T) {
	suite.Run(t, new(ReviewSuite))
}

func (s *ReviewSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.notifier = mocks.NewMockNotifier(s.ctrl)
	s.store = store.NewInMemoryStore(audit.NewInMemoryStore())
	s.now = time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }
	s.tokens = regtoken.NewService("review-signing-key", regtoken.DefaultPolicy(30*time.Minute, 7*24*time.Hour), regtoken.WithClock(clock))
	s.service = New(s.store, regtoken.NewLinks("https://vip.example.com", s.tokens), s.notifier, WithClock(clock))
}

func (s *ReviewSuite) seed(id string, subjectID int64, status models.Status, step models.Step) {
	rec, err := models.NewRecord(id, subjectID, "trader", s.now.Add(-time.Hour))
	s.Require().NoError(err)
	rec.FullName = "Siti Aminah"
	rec.StepCompleted = step
	rec.Status = status
	s.Require().NoError(s.store.RunInTx(s.ctx, subjectID, func(tx store.Tx) error {
		return tx.Create(s.ctx, rec)
	}))
}

func (s *ReviewSuite) requireCode(err error, code dErrors.Code) {
	s.Require().Error(err)
	s.Equal(code, dErrors.CodeOf(err), err.Error())
}

func (s *ReviewSuite) TestVerifyPending() {
	s.seed("rec-1", 100, models.StatusPending, models.StepSubmitted)
	s.notifier.EXPECT().Verified(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r *models.Record) error {
		s.Equal(models.StatusVerified, r.Status)
		return nil
	})

	out, err := s.service.Verify(s.ctx, "rec-1", "admin")
	s.Require().NoError(err)
	s.True(out.Notified)
	s.Equal(models.StatusVerified, out.Record.Status)
	s.Require().NotNil(out.Record.StatusUpdatedAt)
	s.Equal(s.now, *out.Record.StatusUpdatedAt)

	history, err := s.service.History(s.ctx, "rec-1")
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(audit.ActionVerified, history[0].Action)
	s.Equal("pending", history[0].Before)
	s.Equal("verified", history[0].After)
	s.Equal("admin", history[0].Actor)
}

func (s *ReviewSuite) TestInvalidTransitionsLeaveRecordUntouched() {
	s.seed("rec-v", 101, models.StatusVerified, models.StepSubmitted)
	s.seed("rec-h", 102, models.StatusOnHold, models.StepSubmitted)
	s.seed("rec-d", 103, models.StatusPending, models.StepSetupDone)

	_, err := s.service.Verify(s.ctx, "rec-v", "admin")
	s.requireCode(err, dErrors.CodeInvalidTransition)
	_, err = s.service.Reject(s.ctx, "rec-v", "admin", "duplicate")
	s.requireCode(err, dErrors.CodeInvalidTransition)
	_, err = s.service.Hold(s.ctx, "rec-h", "admin", "still blurry")
	s.requireCode(err, dErrors.CodeInvalidTransition)
	_, err = s.service.Verify(s.ctx, "rec-h", "admin")
	s.requireCode(err, dErrors.CodeInvalidTransition)
	_, err = s.service.Verify(s.ctx, "rec-d", "admin")
	s.requireCode(err, dErrors.CodeInvalidTransition)

	rec, err := s.store.FindByID(s.ctx, "rec-v")
	s.Require().NoError(err)
	s.Equal(models.StatusVerified, rec.Status)
	history, err := s.service.History(s.ctx, "rec-v")
	s.Require().NoError(err)
	s.Empty(history)
}

func (s *ReviewSuite) TestRejectFromOnHold() {
	s.seed("rec-1", 100, models.StatusOnHold, models.StepSubmitted)
	s.notifier.EXPECT().Rejected(gomock.Any(), gomock.Any(), "no deposit found").Return(nil)

	out, err := s.service.Reject(s.ctx, "rec-1", "admin", "  no deposit found ")
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, out.Record.Status)

	history, _ := s.service.History(s.ctx, "rec-1")
	s.Require().Len(history, 1)
	s.Equal("no deposit found", history[0].Detail)
}

func (s *ReviewSuite) TestHoldIssuesResubmissionLink() {
	s.seed("rec-1", 100, models.StatusPending, models.StepSubmitted)
	var sentLink string
	s.notifier.EXPECT().
		OnHold(gomock.Any(), gomock.Any(), "Please upload a clearer receipt", gomock.Any(), 7*24*time.Hour).
		DoAndReturn(func(_ context.Context, _ *models.Record, _, link string, _ time.Duration) error {
			sentLink = link
			return nil
		})

	out, err := s.service.Hold(s.ctx, "rec-1", "admin", "Please upload a clearer receipt")
	s.Require().NoError(err)
	s.Equal(models.StatusOnHold, out.Record.Status)
	s.Equal("Please upload a clearer receipt", out.Record.AdminMessage)
	s.Equal(out.ResubmissionURL, sentLink)

	u, err := url.Parse(out.ResubmissionURL)
	s.Require().NoError(err)
	s.Equal("/resubmit", u.Path)
	claims, err := s.tokens.Verify(u.Query().Get("token"))
	s.Require().NoError(err)
	s.Equal(regtoken.PurposeResubmission, claims.Purpose)
	s.Equal("rec-1", claims.LinkedRecordID)
	s.Equal(int64(100), claims.SubjectID)
	s.True(s.now.Add(7*24*time.Hour).Equal(claims.ExpiresAtTime()))
}

func (s *ReviewSuite) TestHoldRequiresMessage() {
	s.seed("rec-1", 100, models.StatusPending, models.StepSubmitted)

	_, err := s.service.Hold(s.ctx, "rec-1", "admin", "   ")
	s.requireCode(err, dErrors.CodeValidation)
}

func (s *ReviewSuite) TestHoldRollsBackWhenLinkCannotBeIssued() {
	s.seed("rec-1", 100, models.StatusPending, models.StepSubmitted)
	unsigned := regtoken.NewLinks("https://vip.example.com", regtoken.NewService("", regtoken.DefaultPolicy(time.Minute, time.Hour)))
	svc := New(s.store, unsigned, s.notifier, WithClock(func() time.Time { return s.now }))

	_, err := svc.Hold(s.ctx, "rec-1", "admin", "Please upload a clearer receipt")
	s.requireCode(err, dErrors.CodeConfiguration)

	rec, err := s.store.FindByID(s.ctx, "rec-1")
	s.Require().NoError(err)
	s.Equal(models.StatusPending, rec.Status)
	s.Empty(rec.AdminMessage)
	history, _ := s.service.History(s.ctx, "rec-1")
	s.Empty(history)
}

func (s *ReviewSuite) TestNotificationFailureKeepsDecision() {
	s.seed("rec-1", 100, models.StatusPending, models.StepSubmitted)
	s.notifier.EXPECT().Verified(gomock.Any(), gomock.Any()).Return(errors.New("bot was blocked by the user"))

	out, err := s.service.Verify(s.ctx, "rec-1", "admin")
	s.Require().NoError(err)
	s.False(out.Notified)

	rec, err := s.store.FindByID(s.ctx, "rec-1")
	s.Require().NoError(err)
	s.Equal(models.StatusVerified, rec.Status)

	history, err := s.service.History(s.ctx, "rec-1")
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal(audit.ActionVerified, history[0].Action)
	s.Equal(audit.ActionNotifyFailed, history[1].Action)
	s.Contains(history[1].Detail, "blocked")
}

func (s *ReviewSuite) TestRequiresActorAndExistingRecord() {
	s.seed("rec-1", 100, models.StatusPending, models.StepSubmitted)

	_, err := s.service.Verify(s.ctx, "rec-1", " ")
	s.requireCode(err, dErrors.CodeUnauthorized)
	_, err = s.service.Verify(s.ctx, "missing", "admin")
	s.requireCode(err, dErrors.CodeNotFound)
	_, err = s.service.History(s.ctx, "missing")
	s.requireCode(err, dErrors.CodeNotFound)
}
