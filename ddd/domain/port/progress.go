package port

import (
	"context"

	"derivative-service/ddd/domain/vo"
)

// ProgressSink persists or forwards encode progress. Progress is informational;
// implementations must not be relied upon for correctness.
type ProgressSink interface {
	SaveProgress(ctx context.Context, invocationID string, kind vo.DerivativeKind, progress int) error
}

// NopProgressSink discards progress updates.
type NopProgressSink struct{}

func (NopProgressSink) SaveProgress(context.Context, string, vo.DerivativeKind, int) error {
	return nil
}
