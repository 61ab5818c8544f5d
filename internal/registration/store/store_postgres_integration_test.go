//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"ezyassist/internal/audit"
	"ezyassist/internal/registration/models"
	"ezyassist/internal/registration/store"
	"ezyassist/internal/sentinel"
	"ezyassist/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	ctx      context.Context
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx))
	s.now = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) newRecord(subject int64) *models.Record {
	r, err := models.NewRecord(uuid.NewString(), subject, "aina", s.now)
	s.Require().NoError(err)
	return r
}

func (s *PostgresStoreSuite) create(r *models.Record) {
	s.Require().NoError(s.store.RunInTx(s.ctx, r.SubjectID, func(tx store.Tx) error {
		return tx.Create(s.ctx, r)
	}))
}

func (s *PostgresStoreSuite) entry(r *models.Record, action audit.Action) audit.Entry {
	return audit.Entry{
		ID:        uuid.NewString(),
		RecordID:  r.ID,
		SubjectID: r.SubjectID,
		Action:    action,
		Actor:     audit.ActorSystem,
		Timestamp: s.now,
	}
}

func (s *PostgresStoreSuite) TestRoundTripPreservesFields() {
	r := s.newRecord(42)
	s.Require().NoError(r.ChooseSetup(models.SetupNewAccount, s.now))
	r.ApplyForm(models.FormFields{
		FullName:      "Aina Rahman",
		Email:         "aina@example.com",
		Phone:         "+60123456789",
		BrokerName:    "HFM",
		DepositAmount: 250.5,
		ClientID:      "HF-1001",
		ProofRefs:     []string{"a.png", "b.pdf"},
	}, models.ClientInfo{IPAddress: "203.0.113.9", UserAgent: "Mozilla/5.0"}, s.now.Add(time.Minute))
	s.create(r)

	got, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(models.StepSubmitted, got.StepCompleted)
	s.Equal(models.SetupNewAccount, got.SetupAction)
	s.Equal([]string{"a.png", "b.pdf"}, got.ProofRefs)
	s.InDelta(250.5, got.DepositAmount, 0.001)
	s.Equal("203.0.113.9", got.IPAddress)
	s.Require().NotNil(got.SetupCompletedAt)
	s.WithinDuration(s.now, *got.SetupCompletedAt, time.Millisecond)
	s.Empty(got.CampaignID)
}

func (s *PostgresStoreSuite) TestCreateConflictsOnSameSubject() {
	s.create(s.newRecord(42))

	err := s.store.RunInTx(s.ctx, 42, func(tx store.Tx) error {
		return tx.Create(s.ctx, s.newRecord(42))
	})
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestConcurrentCreateSingleWinner() {
	const attempts = 20
	var (
		wg        sync.WaitGroup
		created   atomic.Int32
		conflicts atomic.Int32
	)
	for range attempts {
		wg.Go(func() {
			err := s.store.RunInTx(s.ctx, 7, func(tx store.Tx) error {
				return tx.Create(s.ctx, s.newRecord(7))
			})
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			default:
				s.Failf("unexpected error", "%v", err)
			}
		})
	}
	wg.Wait()

	s.Equal(int32(1), created.Load())
	s.Equal(int32(attempts-1), conflicts.Load())
}

func (s *PostgresStoreSuite) TestUpdateNeverLowersStep() {
	r := s.newRecord(42)
	r.AdvanceTo(models.StepSubmitted)
	s.create(r)

	stale := r.Clone()
	stale.StepCompleted = models.StepSetupDone
	stale.FullName = "Changed"
	s.Require().NoError(s.store.RunInTx(s.ctx, 42, func(tx store.Tx) error {
		return tx.Update(s.ctx, stale)
	}))

	got, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(models.StepSubmitted, got.StepCompleted)
	s.Equal("Changed", got.FullName)
}

func (s *PostgresStoreSuite) TestUpdateUnknownRecord() {
	err := s.store.RunInTx(s.ctx, 42, func(tx store.Tx) error {
		return tx.Update(s.ctx, s.newRecord(42))
	})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestAuditInsertFailureRollsBackRecord() {
	r := s.newRecord(42)
	err := s.store.RunInTx(s.ctx, 42, func(tx store.Tx) error {
		if err := tx.Create(s.ctx, r); err != nil {
			return err
		}
		bad := s.entry(r, audit.ActionSetupChosen)
		bad.ID = "not-a-uuid"
		return tx.AppendAudit(s.ctx, bad)
	})
	s.Require().Error(err)

	_, err = s.store.FindBySubject(s.ctx, 42)
	s.ErrorIs(err, sentinel.ErrNotFound)
	history, err := s.store.History(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Empty(history)
}

func (s *PostgresStoreSuite) TestCommitPersistsRecordAndAudit() {
	r := s.newRecord(42)
	s.Require().NoError(s.store.RunInTx(s.ctx, 42, func(tx store.Tx) error {
		if err := tx.Create(s.ctx, r); err != nil {
			return err
		}
		return tx.AppendAudit(s.ctx, s.entry(r, audit.ActionSetupChosen))
	}))

	history, err := s.store.History(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(audit.ActionSetupChosen, history[0].Action)
}

func (s *PostgresStoreSuite) TestMalformedIDIsNotFound() {
	_, err := s.store.FindByID(s.ctx, "abc")
	s.ErrorIs(err, sentinel.ErrNotFound)

	err = s.store.RunInTx(s.ctx, 42, func(tx store.Tx) error {
		_, err := tx.FindByID(s.ctx, "abc")
		return err
	})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListFiltersByStatusAndCampaign() {
	s.postgres.InsertCampaign(s.ctx, s.T(), "raya-2025")
	for i, st := range []models.Status{models.StatusPending, models.StatusVerified, models.StatusPending} {
		r := s.newRecord(int64(100 + i))
		r.Status = st
		r.CreatedAt = s.now.Add(time.Duration(i) * time.Minute)
		if i == 2 {
			r.CampaignID = "raya-2025"
		}
		s.create(r)
	}

	pending, err := s.store.List(s.ctx, models.Filter{Status: models.StatusPending})
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(int64(102), pending[0].SubjectID, "newest first")

	tagged, err := s.store.List(s.ctx, models.Filter{CampaignID: "raya-2025"})
	s.Require().NoError(err)
	s.Require().Len(tagged, 1)
	s.Equal("raya-2025", tagged[0].CampaignID)

	page, err := s.store.List(s.ctx, models.Filter{Limit: 1, Offset: 1})
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Equal(int64(101), page[0].SubjectID)
}
