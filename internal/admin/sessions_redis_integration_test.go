//go:build integration

package admin_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ezyassist/internal/admin"
	"ezyassist/internal/sentinel"
	"ezyassist/pkg/testutil/containers"
)

type RedisSessionStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *admin.RedisSessionStore
	ctx   context.Context
}

func TestRedisSessionStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisSessionStoreSuite))
}

func (s *RedisSessionStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = admin.NewRedisSessionStore(s.redis.Client.Client)
	s.ctx = context.Background()
}

func (s *RedisSessionStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.Flush(s.ctx))
}

func (s *RedisSessionStoreSuite) session(id string, ttl time.Duration) *admin.Session {
	now := time.Now().UTC().Truncate(time.Second)
	return &admin.Session{ID: id, Username: "ops", CreatedAt: now, ExpiresAt: now.Add(ttl)}
}

func (s *RedisSessionStoreSuite) TestCreateFindDelete() {
	sess := s.session("sess-1", time.Hour)
	s.Require().NoError(s.store.Create(s.ctx, sess))

	got, err := s.store.Find(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal("ops", got.Username)
	s.True(sess.ExpiresAt.Equal(got.ExpiresAt))

	ttl, err := s.redis.Client.TTL(s.ctx, "admin_session:sess-1").Result()
	s.Require().NoError(err)
	s.Greater(ttl, 59*time.Minute)

	s.Require().NoError(s.store.Delete(s.ctx, "sess-1"))
	_, err = s.store.Find(s.ctx, "sess-1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisSessionStoreSuite) TestUnknownSessionNotFound() {
	_, err := s.store.Find(s.ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisSessionStoreSuite) TestExpiredSessionRejectedOnCreate() {
	err := s.store.Create(s.ctx, s.session("old", -time.Minute))
	s.Error(err)

	_, err = s.store.Find(s.ctx, "old")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisSessionStoreSuite) TestStoredExpiryWinsOverKeyTTL() {
	// a key that outlives its recorded expiry must still read as logged out
	data, err := json.Marshal(s.session("skewed", -time.Minute))
	s.Require().NoError(err)
	s.Require().NoError(s.redis.Client.Set(s.ctx, "admin_session:skewed", data, time.Hour).Err())

	_, err = s.store.Find(s.ctx, "skewed")
	s.ErrorIs(err, sentinel.ErrNotFound)
}
