package main

import (
	"context"
	"log/slog"
	"time"

	"ezyassist/internal/admin"
	"ezyassist/internal/audit"
	"ezyassist/internal/campaign"
	"ezyassist/internal/engagement"
	"ezyassist/internal/platform/database"
	"ezyassist/internal/platform/redis"
	regservice "ezyassist/internal/registration/service"
	regstore "ezyassist/internal/registration/store"
	"ezyassist/internal/settings"
	"ezyassist/migrations"
)

// stores groups the persistence backends. Postgres backs records, audit,
// settings and campaigns when DATABASE_URL is set; Redis backs engagement
// scores and admin sessions when REDIS_URL is set. Everything else runs in
// memory, which is only suitable for a single process.
type stores struct {
	registrations regservice.Store
	audit         audit.Store
	settings      settings.Store
	campaigns     campaign.Store
	engagement    engagement.Store
	sessions      admin.SessionStore
}

func openStores(ctx context.Context, db *database.Pool, rc *redis.Client, engagementTTL time.Duration, logger *slog.Logger) (*stores, error) {
	s := &stores{}
	if db != nil {
		if err := db.Migrate(ctx, migrations.FS); err != nil {
			return nil, err
		}
		s.registrations = regstore.NewPostgres(db.DB())
		s.audit = audit.NewPostgresStore(db.DB())
		s.settings = settings.NewPostgresStore(db.DB())
		s.campaigns = campaign.NewPostgresStore(db.DB())
		logger.InfoContext(ctx, "using postgres stores")
	} else {
		auditMem := audit.NewInMemoryStore()
		s.registrations = regstore.NewInMemoryStore(auditMem)
		s.audit = auditMem
		s.settings = settings.NewInMemoryStore()
		s.campaigns = campaign.NewInMemoryStore()
		logger.WarnContext(ctx, "DATABASE_URL not set, registrations are kept in memory")
	}

	if rc != nil {
		s.engagement = engagement.NewRedisStore(rc.Client, engagementTTL)
		s.sessions = admin.NewRedisSessionStore(rc.Client)
		logger.InfoContext(ctx, "using redis for engagement scores and admin sessions")
	} else {
		s.engagement = engagement.NewMemoryStore()
		s.sessions = admin.NewMemorySessionStore()
	}
	return s, nil
}
