package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"ezyassist/internal/platform/kafka/producer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProducer struct {
	mu   sync.Mutex
	msgs []*producer.Message
	err  error
}

func (r *recordingProducer) Produce(_ context.Context, msg *producer.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return r.err
}

func TestPublisher_FansOutToKafka(t *testing.T) {
	prod := &recordingProducer{}
	pub := NewPublisher([]Sink{NewKafkaSink(prod, "ezyassist.audit")})

	entry := Entry{
		ID:        "e-1",
		RecordID:  "rec-1",
		SubjectID: 42,
		Action:    ActionVerified,
		Before:    "pending",
		After:     "verified",
		Actor:     "admin@ezymeta.global",
		Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	pub.Emit(context.Background(), entry)
	pub.Close()

	require.Len(t, prod.msgs, 1)
	msg := prod.msgs[0]
	assert.Equal(t, "ezyassist.audit", msg.Topic)
	assert.Equal(t, []byte("rec-1"), msg.Key)
	assert.Equal(t, "verified", msg.Headers["action"])

	var decoded Entry
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, entry, decoded)
}

func TestPublisher_SinkErrorsDoNotBlock(t *testing.T) {
	prod := &recordingProducer{err: errors.New("broker down")}
	pub := NewPublisher([]Sink{NewKafkaSink(prod, "t")})
	pub.Emit(context.Background(), Entry{RecordID: "a"}, Entry{RecordID: "b"})
	pub.Close()
	assert.Len(t, prod.msgs, 2)
}

func TestPublisher_NilAndNoSinks(t *testing.T) {
	var nilPub *Publisher
	nilPub.Emit(context.Background(), Entry{})
	nilPub.Close()

	pub := NewPublisher(nil)
	pub.Emit(context.Background(), Entry{})
	pub.Close()
	pub.Close()
}

func TestInMemoryStore_AppendOnlyByRecord(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, Entry{RecordID: "r1", Action: ActionFormSubmitted}))
	require.NoError(t, store.Append(ctx, Entry{RecordID: "r1", Action: ActionVerified}))
	require.NoError(t, store.Append(ctx, Entry{RecordID: "r2", Action: ActionFormSubmitted}))

	entries, err := store.ListByRecord(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ActionFormSubmitted, entries[0].Action)
	assert.Equal(t, ActionVerified, entries[1].Action)

	entries[0].Action = "tampered"
	again, _ := store.ListByRecord(ctx, "r1")
	assert.Equal(t, ActionFormSubmitted, again[0].Action)
}
