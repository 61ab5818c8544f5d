package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ezyassist/internal/audit"
	"ezyassist/internal/knowledge"
	dErrors "ezyassist/pkg/domain-errors"
)

var defaults = Settings{EngagementThreshold: 3, Language: knowledge.Malay}

type failingStore struct{}

func (failingStore) Load(context.Context) (map[string]string, error) {
	return nil, errors.New("db down")
}

func (failingStore) Save(context.Context, map[string]string) error {
	return errors.New("db down")
}

func TestService_DefaultsWhenEmpty(t *testing.T) {
	svc := New(NewInMemoryStore(), defaults)
	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, defaults, got)
}

func TestService_ApplyPartialUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	auditStore := audit.NewInMemoryStore()
	svc := New(store, defaults, WithAudit(auditStore), WithCacheTTL(0))

	threshold := 5
	got, err := svc.Apply(ctx, Update{EngagementThreshold: &threshold}, "admin")
	require.NoError(t, err)
	assert.Equal(t, Settings{EngagementThreshold: 5, Language: knowledge.Malay}, got)

	lang := "en"
	got, err = svc.Apply(ctx, Update{Language: &lang}, "admin")
	require.NoError(t, err)
	assert.Equal(t, Settings{EngagementThreshold: 5, Language: knowledge.English}, got)

	fresh := New(store, defaults)
	reloaded, err := fresh.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, got, reloaded)

	entries, err := auditStore.ListByRecord(ctx, recordID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionSettingsUpdated, entries[0].Action)
	assert.Equal(t, "threshold=3 language=ms", entries[0].Before)
	assert.Equal(t, "admin", entries[1].Actor)
}

func TestService_RejectsInvalidValues(t *testing.T) {
	ctx := context.Background()
	svc := New(NewInMemoryStore(), defaults)

	zero := 0
	_, err := svc.Apply(ctx, Update{EngagementThreshold: &zero}, "admin")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	lang := "fr"
	_, err = svc.Apply(ctx, Update{Language: &lang}, "admin")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, defaults, got)
}

func TestService_IgnoresGarbageStoredValues(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	require.NoError(t, store.Save(ctx, map[string]string{keyThreshold: "lots", keyLanguage: "xx"}))

	got, err := New(store, defaults).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, defaults, got)
}

func TestService_CachesWithinTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewInMemoryStore()
	svc := New(store, defaults, WithClock(func() time.Time { return now }), WithCacheTTL(time.Minute))

	_, err := svc.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, map[string]string{keyThreshold: "9"}))

	got, _ := svc.Get(ctx)
	assert.Equal(t, 3, got.EngagementThreshold)

	now = now.Add(2 * time.Minute)
	got, _ = svc.Get(ctx)
	assert.Equal(t, 9, got.EngagementThreshold)
}

func TestService_StoreFailure(t *testing.T) {
	svc := New(failingStore{}, defaults)
	got, err := svc.Get(context.Background())
	assert.Error(t, err)
	assert.Equal(t, defaults, got)
}
