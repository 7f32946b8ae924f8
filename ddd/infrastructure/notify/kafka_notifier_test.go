package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"derivative-service/ddd/domain/gateway"
)

type recordingProducer struct {
	topic, key string
	value      interface{}
	err        error
}

func (p *recordingProducer) ProduceJSON(_ context.Context, topic, key string, value interface{}) error {
	p.topic, p.key, p.value = topic, key, value
	return p.err
}

func TestKafkaNotifier_KeyedByCorrelation(t *testing.T) {
	p := &recordingProducer{}
	n := NewKafkaNotifier(p, "derivative.completed")
	ev := gateway.CompletionEvent{InvocationID: "inv", Key: "videos/u/c.mp4", CorrelationID: "post-1", Status: "completed"}

	require.NoError(t, n.NotifyCompleted(context.Background(), ev))
	assert.Equal(t, "derivative.completed", p.topic)
	assert.Equal(t, "post-1", p.key)
	assert.Equal(t, ev, p.value)
}

func TestKafkaNotifier_FallsBackToObjectKey(t *testing.T) {
	p := &recordingProducer{}
	require.NoError(t, NewKafkaNotifier(p, "t").NotifyCompleted(context.Background(), gateway.CompletionEvent{Key: "videos/u/c.mp4"}))
	assert.Equal(t, "videos/u/c.mp4", p.key)
}

func TestKafkaNotifier_ProducerError(t *testing.T) {
	boom := errors.New("broker down")
	err := NewKafkaNotifier(&recordingProducer{err: boom}, "t").NotifyCompleted(context.Background(), gateway.CompletionEvent{})
	assert.ErrorIs(t, err, boom)
}
