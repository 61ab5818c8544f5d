package campaign

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ezyassist/internal/audit"
	"ezyassist/internal/registration/models"
	"ezyassist/internal/registration/store"
	"ezyassist/internal/regtoken"
	dErrors "ezyassist/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	ctx    context.Context
	now    time.Time
	audit  *audit.InMemoryStore
	regs   *store.InMemoryStore
	tokens *regtoken.Service
	svc    *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	s.audit = audit.NewInMemoryStore()
	s.regs = store.NewInMemoryStore(audit.NewInMemoryStore())
	clock := func() time.Time { return s.now }
	s.tokens = regtoken.NewService("campaign-key", regtoken.DefaultPolicy(30*time.Minute, 7*24*time.Hour), regtoken.WithClock(clock))
	s.svc = NewService(NewInMemoryStore(),
		WithRegistrations(s.regs),
		WithLinks(regtoken.NewLinks("https://vip.example.com", s.tokens)),
		WithAudit(s.audit, nil),
		WithClock(clock),
	)
}

func (s *ServiceSuite) create(name string) *Campaign {
	c, err := s.svc.Create(s.ctx, CreateCommand{Name: name, MinDepositAmount: 100}, "admin")
	s.Require().NoError(err)
	return c
}

func (s *ServiceSuite) TestCreateDerivesSlugAndAudits() {
	c := s.create("  Ramadan Bonus 2025 ")
	s.Equal("ramadan-bonus-2025", c.ID)
	s.Equal("Ramadan Bonus 2025", c.Name)
	s.True(c.Active)
	s.Equal(s.now, c.CreatedAt)

	entries, err := s.audit.ListByRecord(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(audit.ActionCampaignCreated, entries[0].Action)
	s.Equal("admin", entries[0].Actor)
}

func (s *ServiceSuite) TestDuplicateNamesGetNumericSuffix() {
	s.Equal("merdeka-promo", s.create("Merdeka Promo").ID)
	s.Equal("merdeka-promo-2", s.create("merdeka promo!").ID)
	s.Equal("merdeka-promo-3", s.create("MERDEKA  PROMO").ID)

	all, err := s.svc.List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *ServiceSuite) TestCreateValidation() {
	_, err := s.svc.Create(s.ctx, CreateCommand{Name: "   "}, "admin")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.svc.Create(s.ctx, CreateCommand{Name: "!!!"}, "admin")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.svc.Create(s.ctx, CreateCommand{Name: "Promo", MinDepositAmount: -1}, "admin")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestToggleFlipsActive() {
	c := s.create("Promo")

	off, err := s.svc.Toggle(s.ctx, c.ID, "admin")
	s.Require().NoError(err)
	s.False(off.Active)
	active, err := s.svc.IsActive(s.ctx, c.ID)
	s.Require().NoError(err)
	s.False(active)

	on, err := s.svc.Toggle(s.ctx, c.ID, "admin")
	s.Require().NoError(err)
	s.True(on.Active)

	entries, _ := s.audit.ListByRecord(s.ctx, c.ID)
	s.Require().Len(entries, 3)
	s.Equal(audit.ActionCampaignToggled, entries[1].Action)
	s.Equal("active", entries[1].Before)
	s.Equal("inactive", entries[1].After)
}

func (s *ServiceSuite) TestUnknownCampaign() {
	active, err := s.svc.IsActive(s.ctx, "nope")
	s.Require().NoError(err)
	s.False(active)

	_, err = s.svc.Toggle(s.ctx, "nope", "admin")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	_, err = s.svc.Registrations(s.ctx, "nope")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestRegistrationsFiltersByCampaign() {
	c := s.create("Promo")
	for i, campaignID := range []string{c.ID, "", c.ID} {
		subject := int64(200 + i)
		rec, err := models.NewRecord("rec-"+string(rune('a'+i)), subject, "", s.now.Add(time.Duration(i)*time.Minute))
		s.Require().NoError(err)
		rec.CampaignID = campaignID
		s.Require().NoError(s.regs.RunInTx(s.ctx, subject, func(tx store.Tx) error {
			return tx.Create(s.ctx, rec)
		}))
	}

	recs, err := s.svc.Registrations(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Require().Len(recs, 2)
	s.Equal("rec-c", recs[0].ID)
	s.Equal("rec-a", recs[1].ID)
}

func (s *ServiceSuite) TestLinkUsesCampaignPurpose() {
	c := s.create("Promo")

	link, err := s.svc.Link(s.ctx, c.ID, 42, "aina")
	s.Require().NoError(err)
	s.Contains(link, "https://vip.example.com/campaign/promo?token=")

	_, err = s.svc.Toggle(s.ctx, c.ID, "admin")
	s.Require().NoError(err)
	_, err = s.svc.Link(s.ctx, c.ID, 42, "aina")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
