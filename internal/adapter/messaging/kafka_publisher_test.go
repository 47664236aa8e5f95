package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"wager-escrow/internal/core/domain"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func settledEvent() domain.LedgerEvent {
	at := time.Unix(1_700_000_000, 0).UTC()
	w := &domain.Wager{ID: uuid.New(), PlayerID: "alice", EscrowID: "escrow-1", SettledAt: &at}
	return domain.NewSettledEvent(w, "house", "bob", 900, "fees", 100, 0)
}

func TestKafkaPublisher_Publish(t *testing.T) {
	fw := &fakeWriter{}
	pub := NewKafkaPublisher(fw)
	fixed := time.Unix(1_700_000_123, 0)
	pub.now = func() time.Time { return fixed }

	evt := settledEvent()
	require.NoError(t, pub.Publish(context.Background(), evt))
	require.Len(t, fw.msgs, 1)

	msg := fw.msgs[0]
	assert.Equal(t, []byte("escrow-1"), msg.Key)
	assert.Equal(t, fixed, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "wager.settled", string(msg.Headers[0].Value))

	var decoded domain.LedgerEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, evt, decoded)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("leader not available")}
	pub := NewKafkaPublisher(fw)

	err := pub.Publish(context.Background(), settledEvent())
	assert.ErrorContains(t, err, "write wager.settled event")
}

func TestKafkaPublisher_Close(t *testing.T) {
	fw := &fakeWriter{}
	require.NoError(t, NewKafkaPublisher(fw).Close())
	assert.True(t, fw.closed)
}

func TestNewWriter(t *testing.T) {
	w := NewWriter([]string{"k1:9092", "k2:9092"}, "wager_events")
	defer w.Close()

	assert.Equal(t, "wager_events", w.Topic)
	assert.Contains(t, w.Addr.String(), "k1:9092")
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
}

func TestNoopPublisher(t *testing.T) {
	var p NoopPublisher
	assert.NoError(t, p.Publish(context.Background(), settledEvent()))
	assert.NoError(t, p.Close())
}
