package store

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"ezyassist/internal/audit"
	"ezyassist/internal/registration/models"
	"ezyassist/internal/sentinel"
	dErrors "ezyassist/pkg/domain-errors"
	platformsync "ezyassist/pkg/platform/sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var shardLockWaitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "ezyassist_registration_shard_lock_wait_seconds",
	Help:    "Time spent waiting to acquire a per-subject registration lock",
	Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
})

const defaultTxTimeout = 5 * time.Second

// InMemoryStore keeps registrations in maps. Transactions serialize per
// subject through a sharded mutex and stage writes until fn succeeds.
type InMemoryStore struct {
	mu        sync.RWMutex
	records   map[string]*models.Record
	bySubject map[int64]string
	audit     *audit.InMemoryStore
	locks     *platformsync.ShardedMutex
}

func NewInMemoryStore(auditStore *audit.InMemoryStore) *InMemoryStore {
	return &InMemoryStore{
		records:   make(map[string]*models.Record),
		bySubject: make(map[int64]string),
		audit:     auditStore,
		locks:     platformsync.NewShardedMutex(),
	}
}

func (s *InMemoryStore) RunInTx(ctx context.Context, subjectID int64, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTxTimeout)
		defer cancel()
	}

	key := strconv.FormatInt(subjectID, 10)
	start := time.Now()
	s.locks.Lock(key)
	shardLockWaitDuration.Observe(time.Since(start).Seconds())
	defer s.locks.Unlock(key)

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	tx := &memTx{store: s, staged: make(map[string]*models.Record)}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit(ctx)
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *InMemoryStore) FindBySubject(_ context.Context, subjectID int64) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.bySubject[subjectID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.records[id].Clone(), nil
}

// List returns matching records newest first.
func (s *InMemoryStore) List(_ context.Context, filter models.Filter) ([]*models.Record, error) {
	s.mu.RLock()
	out := make([]*models.Record, 0, len(s.records))
	for _, r := range s.records {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.CampaignID != "" && r.CampaignID != filter.CampaignID {
			continue
		}
		out = append(out, r.Clone())
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *models.Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return paginate(out, filter.Offset, filter.Limit), nil
}

func (s *InMemoryStore) History(ctx context.Context, recordID string) ([]audit.Entry, error) {
	return s.audit.ListByRecord(ctx, recordID)
}

func paginate(records []*models.Record, offset, limit int) []*models.Record {
	if offset >= len(records) {
		return []*models.Record{}
	}
	records = records[offset:]
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records
}

type memTx struct {
	store  *InMemoryStore
	staged map[string]*models.Record
	order  []string
	audits []audit.Entry
}

func (t *memTx) FindBySubject(ctx context.Context, subjectID int64) (*models.Record, error) {
	for _, r := range t.staged {
		if r.SubjectID == subjectID {
			return r.Clone(), nil
		}
	}
	return t.store.FindBySubject(ctx, subjectID)
}

func (t *memTx) FindByID(ctx context.Context, id string) (*models.Record, error) {
	if r, ok := t.staged[id]; ok {
		return r.Clone(), nil
	}
	return t.store.FindByID(ctx, id)
}

func (t *memTx) Create(ctx context.Context, record *models.Record) error {
	if _, err := t.FindBySubject(ctx, record.SubjectID); err == nil {
		return sentinel.ErrConflict
	}
	t.stage(record)
	return nil
}

func (t *memTx) Update(ctx context.Context, record *models.Record) error {
	if _, err := t.FindByID(ctx, record.ID); err != nil {
		return err
	}
	t.stage(record)
	return nil
}

func (t *memTx) AppendAudit(_ context.Context, entry audit.Entry) error {
	t.audits = append(t.audits, entry)
	return nil
}

func (t *memTx) stage(record *models.Record) {
	if _, ok := t.staged[record.ID]; !ok {
		t.order = append(t.order, record.ID)
	}
	t.staged[record.ID] = record.Clone()
}

func (t *memTx) commit(ctx context.Context) error {
	t.store.mu.Lock()
	for _, id := range t.order {
		r := t.staged[id]
		t.store.records[id] = r
		t.store.bySubject[r.SubjectID] = id
	}
	t.store.mu.Unlock()

	for _, e := range t.audits {
		if err := t.store.audit.Append(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
