package progress

import (
	"context"
	"time"

	"derivative-service/ddd/domain/port"
	"derivative-service/ddd/domain/vo"
	"derivative-service/pkg/redisclient"
)

// KeyPrefix 进度哈希键前缀，完整键为 derivative:progress:{invocationId}
const KeyPrefix = "derivative:progress:"

// RedisSink writes per-kind percentages into one hash per invocation.
type RedisSink struct {
	client *redisclient.Client
	ttl    time.Duration
}

// NewRedisSink returns a no-op sink when client is nil.
func NewRedisSink(client *redisclient.Client, ttl time.Duration) port.ProgressSink {
	if client == nil {
		return port.NopProgressSink{}
	}
	return &RedisSink{client: client, ttl: ttl}
}

func (s *RedisSink) SaveProgress(ctx context.Context, invocationID string, kind vo.DerivativeKind, progress int) error {
	if invocationID == "" {
		return nil
	}
	return s.client.HSetWithTTL(ctx, KeyPrefix+invocationID, string(kind), progress, s.ttl)
}
