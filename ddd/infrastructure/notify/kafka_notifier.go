package notify

import (
	"context"

	"derivative-service/ddd/domain/gateway"
	"derivative-service/pkg/logger"
)

// JSONProducer is satisfied by *kafka.Client.
type JSONProducer interface {
	ProduceJSON(ctx context.Context, topic, key string, value interface{}) error
}

// KafkaNotifier 向 derivative.completed 主题发布完成事件
type KafkaNotifier struct {
	producer JSONProducer
	topic    string
}

var _ gateway.CompletionNotifier = (*KafkaNotifier)(nil)

func NewKafkaNotifier(producer JSONProducer, topic string) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic}
}

// NotifyCompleted 以 correlation id 作为消息键，同一记录的事件落在同一分区
func (n *KafkaNotifier) NotifyCompleted(ctx context.Context, event gateway.CompletionEvent) error {
	key := event.CorrelationID
	if key == "" {
		key = event.Key
	}
	if err := n.producer.ProduceJSON(ctx, n.topic, key, event); err != nil {
		return err
	}
	logger.Debugf("Completion event produced topic=%s invocation_id=%s status=%s", n.topic, event.InvocationID, event.Status)
	return nil
}

// NopNotifier 未启用 Kafka 时使用
type NopNotifier struct{}

func (NopNotifier) NotifyCompleted(context.Context, gateway.CompletionEvent) error { return nil }
