// Package settings holds the bot behaviour that admins can change at runtime.
package settings

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"ezyassist/internal/audit"
	"ezyassist/internal/knowledge"
	dErrors "ezyassist/pkg/domain-errors"
	"ezyassist/pkg/validation"
)

const (
	keyThreshold = "engagement_threshold"
	keyLanguage  = "default_language"

	recordID = "bot_settings"
)

// Settings are the runtime-editable bot options.
type Settings struct {
	EngagementThreshold int                `json:"engagement_threshold" validate:"gte=1,lte=1000"`
	Language            knowledge.Language `json:"default_language" validate:"oneof=ms en"`
}

// Update is a partial change; nil fields are left alone.
type Update struct {
	EngagementThreshold *int    `json:"engagement_threshold,omitempty"`
	Language            *string `json:"default_language,omitempty"`
}

// Store persists settings as string key/value pairs.
type Store interface {
	Load(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, values map[string]string) error
}

type Service struct {
	store    Store
	defaults Settings
	audit    audit.Store
	cacheTTL time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu       sync.RWMutex
	cached   Settings
	loadedAt time.Time
}

type Option func(*Service)

// WithAudit records every change in the audit log.
func WithAudit(st audit.Store) Option {
	return func(s *Service) { s.audit = st }
}

// WithCacheTTL sets how long a loaded value is reused. Zero disables caching.
func WithCacheTTL(d time.Duration) Option {
	return func(s *Service) { s.cacheTTL = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(store Store, defaults Settings, opts ...Option) *Service {
	s := &Service{
		store:    store,
		defaults: defaults,
		cacheTTL: 30 * time.Second,
		now:      time.Now,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the stored settings layered over the defaults.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	s.mu.RLock()
	if !s.loadedAt.IsZero() && s.now().Sub(s.loadedAt) < s.cacheTTL {
		cur := s.cached
		s.mu.RUnlock()
		return cur, nil
	}
	s.mu.RUnlock()

	values, err := s.store.Load(ctx)
	if err != nil {
		return s.defaults, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load settings")
	}
	cur := s.decode(ctx, values)

	s.mu.Lock()
	s.cached = cur
	s.loadedAt = s.now()
	s.mu.Unlock()
	return cur, nil
}

// Apply validates and stores a partial update.
func (s *Service) Apply(ctx context.Context, upd Update, actor string) (Settings, error) {
	cur, err := s.Get(ctx)
	if err != nil {
		return Settings{}, err
	}
	next := cur
	if upd.EngagementThreshold != nil {
		next.EngagementThreshold = *upd.EngagementThreshold
	}
	if upd.Language != nil {
		next.Language = knowledge.Language(*upd.Language)
	}
	if err := validation.Validate(next); err != nil {
		return Settings{}, err
	}

	if err := s.store.Save(ctx, encode(next)); err != nil {
		return Settings{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save settings")
	}

	s.mu.Lock()
	s.cached = next
	s.loadedAt = s.now()
	s.mu.Unlock()

	if s.audit != nil {
		entry := audit.Entry{
			ID:        uuid.NewString(),
			RecordID:  recordID,
			Action:    audit.ActionSettingsUpdated,
			Before:    describe(cur),
			After:     describe(next),
			Actor:     actor,
			Timestamp: s.now(),
		}
		if err := s.audit.Append(ctx, entry); err != nil {
			s.logger.ErrorContext(ctx, "settings audit append failed", "error", err)
		}
	}
	s.logger.InfoContext(ctx, "settings updated", "actor", actor, "settings", describe(next))
	return next, nil
}

func (s *Service) decode(ctx context.Context, values map[string]string) Settings {
	out := s.defaults
	if raw, ok := values[keyThreshold]; ok {
		n, err := strconv.Atoi(raw)
		if err == nil && n > 0 {
			out.EngagementThreshold = n
		} else {
			s.logger.WarnContext(ctx, "ignoring stored engagement threshold", "value", raw)
		}
	}
	if raw, ok := values[keyLanguage]; ok {
		if lang, ok := knowledge.ParseLanguage(raw); ok {
			out.Language = lang
		} else {
			s.logger.WarnContext(ctx, "ignoring stored language", "value", raw)
		}
	}
	return out
}

func encode(s Settings) map[string]string {
	return map[string]string{
		keyThreshold: strconv.Itoa(s.EngagementThreshold),
		keyLanguage:  string(s.Language),
	}
}

func describe(s Settings) string {
	return fmt.Sprintf("threshold=%d language=%s", s.EngagementThreshold, s.Language)
}
