package gateway

import "context"

// CompletionEvent 一次处理结束后的通知
type CompletionEvent struct {
	InvocationID  string            `json:"invocation_id"`
	Bucket        string            `json:"bucket"`
	Key           string            `json:"key"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Status        string            `json:"status"`
	URLs          map[string]string `json:"urls"`
	FailedKinds   []string          `json:"failed_kinds,omitempty"`
}

// CompletionNotifier notifies downstream services about invocation outcomes.
type CompletionNotifier interface {
	NotifyCompleted(ctx context.Context, event CompletionEvent) error
}
