package component

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"derivative-service/ddd/application/dto"
	"derivative-service/ddd/domain/vo"
	"derivative-service/pkg/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// chanReader feeds queued messages and blocks until ctx is cancelled.
type chanReader struct {
	msgs      chan kafkago.Message
	mu        sync.Mutex
	committed []int64
	closed    bool
}

func newChanReader(msgs ...kafkago.Message) *chanReader {
	r := &chanReader{msgs: make(chan kafkago.Message, len(msgs))}
	for _, m := range msgs {
		r.msgs <- m
	}
	return r
}

func (r *chanReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafkago.Message{}, ctx.Err()
	}
}

func (r *chanReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *chanReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *chanReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

type recordingApp struct {
	mu   sync.Mutex
	keys []string
	fail map[string]error
}

func (a *recordingApp) Process(_ context.Context, src vo.SourceObject) (*dto.DerivativeOutcomeDTO, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys = append(a.keys, src.Key)
	if err := a.fail[src.Key]; err != nil {
		return &dto.DerivativeOutcomeDTO{Status: dto.OutcomeFailed}, err
	}
	return &dto.DerivativeOutcomeDTO{Status: dto.OutcomeCompleted}, nil
}

func (a *recordingApp) processed() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.keys...)
}

func TestObjectFinalizedConsumer_CommitPolicy(t *testing.T) {
	reader := newChanReader(
		kafkago.Message{Offset: 1, Value: []byte(`{"bucket":"media","name":"videos/u/a.mp4"}`)},
		kafkago.Message{Offset: 2, Value: []byte(`{broken`)},
		kafkago.Message{Offset: 3, Value: []byte(`{"bucket":"media","name":"videos/u/b.mp4"}`)},
	)
	app := &recordingApp{fail: map[string]error{"videos/u/b.mp4": errors.New("encode")}}
	kc := config.Default().Kafka
	kc.CommitOnDecodeError = true
	kc.CommitOnProcessError = false

	c := newObjectFinalizedConsumer(app, reader, kc)
	require.NoError(t, c.Start())
	require.Eventually(t, func() bool { return len(app.processed()) == 2 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, c.Stop())

	assert.Equal(t, []string{"videos/u/a.mp4", "videos/u/b.mp4"}, app.processed())
	assert.Equal(t, []int64{1, 2}, reader.commits())
	assert.True(t, reader.closed)
}
